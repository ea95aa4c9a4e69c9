package service

import (
	"github.com/gavelhq/gavel/internal/adapters/store"
	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the tournament data store.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSessionConfig sets the auction timing and amount rules.
func WithSessionConfig(cfg model.SessionConfig) Option {
	return func(s *Service) {
		s.sessionCfg = cfg
	}
}

// WithAutoAdvance opens the next pending lot automatically after each
// settlement.
func WithAutoAdvance(enabled bool) Option {
	return func(s *Service) {
		s.autoAdvance = enabled
	}
}

// WithEventQueueSize bounds the notification queue.
func WithEventQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDispatcherCount sets the number of event dispatcher workers.
func WithDispatcherCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.dispatcherCount = count
		}
	}
}

// WithDedupeSize bounds the bid-ID idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
