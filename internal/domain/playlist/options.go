package playlist

// defaultTopN bounds how many associations are retained per event.
const defaultTopN = 5

// Option applies a configuration option to the Associator.
type Option func(*Associator)

// WithTopN sets the number of associations retained per track.
func WithTopN(n int) Option {
	return func(a *Associator) {
		if n > 0 {
			a.topN = n
		}
	}
}
