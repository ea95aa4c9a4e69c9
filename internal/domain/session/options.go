package session

import (
	"context"

	"github.com/gavelhq/gavel/internal/domain/model"
	"github.com/gavelhq/gavel/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithPublisher sets the fire-and-forget event callback. It must never
// block; the notification bus drops on backpressure.
func WithPublisher(fn func(ctx context.Context, ev model.Event)) Option {
	return func(s *Session) {
		if fn != nil {
			s.publish = fn
		}
	}
}

// WithAutoAdvance makes the session open the next pending lot as soon as
// the previous one reaches a terminal state.
func WithAutoAdvance(enabled bool) Option {
	return func(s *Session) {
		s.autoAdvance = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}
