package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type teamRow struct {
	ID          string          `gorm:"primaryKey"`
	Name        string          `gorm:"not null"`
	TotalBudget decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Spent       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Reserved    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	UpdatedAt   time.Time
}

func (teamRow) TableName() string { return "teams" }

type lotRow struct {
	ID                 string          `gorm:"primaryKey"`
	PlayerRef          string          `gorm:"not null"`
	BasePrice          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	SecretBidThreshold decimal.Decimal `gorm:"type:numeric(20,2)"`
	Position           int             `gorm:"not null;index"`
}

func (lotRow) TableName() string { return "lots" }

type saleRow struct {
	LotID         string          `gorm:"primaryKey"`
	WinningTeamID string          `gorm:"not null;index"`
	FinalAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	SettledAtSeq  uint64          `gorm:"not null"`
	CreatedAt     time.Time
}

func (saleRow) TableName() string { return "sales" }

// Gorm is the PostgreSQL-backed Store.
type Gorm struct {
	db  *gorm.DB
	log logger.Logger
}

var _ Store = (*Gorm)(nil)

// OpenGorm connects to PostgreSQL and migrates the schema.
func OpenGorm(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.AutoMigrate(&teamRow{}, &lotRow{}, &saleRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	g := &Gorm{db: db, log: logger.Named("store")}
	g.log.Info(context.Background(), "schema migrated")
	return g, nil
}

func (g *Gorm) GetTeam(ctx context.Context, id string) (TeamRecord, error) {
	var row teamRow
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TeamRecord{}, ErrNotFound
	}
	if err != nil {
		return TeamRecord{}, err
	}
	return row.record(), nil
}

func (g *Gorm) ListTeams(ctx context.Context) ([]TeamRecord, error) {
	var rows []teamRow
	if err := g.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]TeamRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (g *Gorm) GetLot(ctx context.Context, id string) (LotRecord, error) {
	var row lotRow
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LotRecord{}, ErrNotFound
	}
	if err != nil {
		return LotRecord{}, err
	}
	return row.record(), nil
}

func (g *Gorm) ListLots(ctx context.Context) ([]LotRecord, error) {
	var rows []lotRow
	if err := g.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]LotRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// ApplyDebit moves amount into the team's spent column inside a
// transaction so concurrent settlements never lose an update.
func (g *Gorm) ApplyDebit(ctx context.Context, teamID string, amount decimal.Decimal) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row teamRow
		err := tx.Where("id = ?", teamID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		row.Spent = row.Spent.Add(amount)
		return tx.Model(&teamRow{}).Where("id = ?", teamID).
			Update("spent", row.Spent).Error
	})
}

func (g *Gorm) RecordSale(ctx context.Context, sale model.SaleRecord) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing saleRow
		err := tx.Where("lot_id = ?", sale.LotID).First(&existing).Error
		if err == nil {
			if existing.WinningTeamID != sale.WinningTeamID || !existing.FinalAmount.Equal(sale.FinalAmount) {
				return ErrDuplicateSale
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&saleRow{
			LotID:         sale.LotID,
			WinningTeamID: sale.WinningTeamID,
			FinalAmount:   sale.FinalAmount,
			SettledAtSeq:  sale.SettledAtSeq,
		}).Error
	})
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (t teamRow) record() TeamRecord {
	return TeamRecord{
		ID:          t.ID,
		Name:        t.Name,
		TotalBudget: t.TotalBudget,
		Spent:       t.Spent,
		Reserved:    t.Reserved,
	}
}

func (l lotRow) record() LotRecord {
	return LotRecord{
		ID:                 l.ID,
		PlayerRef:          l.PlayerRef,
		BasePrice:          l.BasePrice,
		SecretBidThreshold: l.SecretBidThreshold,
		Position:           l.Position,
	}
}
