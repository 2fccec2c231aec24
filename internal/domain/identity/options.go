package identity

// Default resolver configuration constants.
const (
	defaultHashLength = 16
	minHashLength     = 8
	maxHashLength     = 64
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithHashLength sets the hex length of derived identifiers.
func WithHashLength(n int) Option {
	return func(r *Resolver) {
		if n >= minHashLength && n <= maxHashLength {
			r.hashLen = n
		}
	}
}
