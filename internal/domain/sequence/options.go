package sequence

import "time"

// defaultSessionGap is the inter-event gap beyond which a new listening
// session starts.
const defaultSessionGap = 30 * time.Minute

// Option applies a configuration option to the Sequencer.
type Option func(*Sequencer)

// WithSessionGap sets the session boundary gap threshold.
func WithSessionGap(gap time.Duration) Option {
	return func(s *Sequencer) {
		if gap > 0 {
			s.sessionGap = gap
		}
	}
}

// WithLocation sets the location used for the calendar-date boundary rule.
func WithLocation(loc *time.Location) Option {
	return func(s *Sequencer) {
		if loc != nil {
			s.loc = loc
		}
	}
}
