package spk

// Option configures Parse.
type Option func(*parseConfig)

type parseConfig struct {
	maxEntries uint32
}

// WithMaxEntries rejects archives declaring more than n entries.
// Set n to 0 to disable the limit (the default).
func WithMaxEntries(n uint32) Option {
	return func(c *parseConfig) {
		c.maxEntries = n
	}
}
