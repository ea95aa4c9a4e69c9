package bidgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/gavelhq/gavel/internal/adapters/auth"
	"github.com/google/uuid"
)

const (
	randomFloatDivisor = 1_000_000
	// amountSpread is the random markup range applied over the floor, in
	// increments.
	amountSpread = 20
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// bid is one generated submission.
type bid struct {
	BidID  string `json:"bid_id"`
	Amount string `json:"amount"`
	Kind   string `json:"kind"`

	token string
}

// mintTokens builds one signed token per simulated team.
func mintTokens(cfg *Config) ([]string, error) {
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("building verifier: %w", err)
	}
	tokens := make([]string, 0, cfg.Teams)
	for i := 1; i <= cfg.Teams; i++ {
		token, err := verifier.Generate(fmt.Sprintf("team-%d", i), false)
		if err != nil {
			return nil, fmt.Errorf("minting token for team-%d: %w", i, err)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// generateBids builds the submission batch. Amounts climb over the base
// price so that a share of them lands above the running highest.
func generateBids(cfg *Config, tokens []string, basePrice, increment int64) []bid {
	bids := make([]bid, 0, cfg.Bids)
	for i := 0; i < cfg.Bids; i++ {
		kind := "open"
		if getRandomFloat() < cfg.SecretRatio {
			kind = "secret"
		}
		markup := int64(getRandomFloat()*amountSpread) + int64(i)
		bids = append(bids, bid{
			BidID:  uuid.NewString(),
			Amount: fmt.Sprintf("%d", basePrice+markup*increment),
			Kind:   kind,
			token:  tokens[i%len(tokens)],
		})
	}
	return bids
}
