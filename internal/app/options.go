package app

import (
	"time"

	"github.com/okian/relisten/internal/adapters/repository"
	"github.com/okian/relisten/pkg/logger"
)

// Default engine configuration constants.
const (
	defaultTopN       = 5
	defaultSessionGap = 30 * time.Minute
	defaultHashLength = 16
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTopN sets the playlist association bound per event.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithSessionGap sets the session boundary gap threshold.
func WithSessionGap(gap time.Duration) Option {
	return func(e *Engine) {
		if gap > 0 {
			e.sessionGap = gap
		}
	}
}

// WithLocation sets the location for the calendar-date boundary rule.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithHashLength sets the hex length of derived identifiers.
func WithHashLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.hashLen = n
		}
	}
}

// WithStore sets the snapshot store the engine publishes to.
func WithStore(store repository.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
