package firmware

import "time"

// Options gathers the pipeline's tunables. Construct with defaults via
// NewOptions and override individual fields with the With* functions,
// mirroring the functional-options idiom used throughout the wider
// example pack for optional device/config parameters.
type Options struct {
	// BlockSize is the number of 32-bit words moved per flashOp chunk.
	// Bounded by the transport's compound-frame limit.
	BlockSize uint32

	// VerifyImage enables the optional byte-for-byte readback compare
	// after writeImage. Disabled by default for speed.
	VerifyImage bool

	// MaxImageSize bounds how many bytes Load will read from an HTTP(S)
	// or local-file source before giving up.
	MaxImageSize int64

	// FetchTimeout bounds the HTTP(S) request made by Load.
	FetchTimeout time.Duration

	// BootDelay is the initial sleep before the first enumeration poll,
	// giving the device's boot loader time to come up.
	BootDelay time.Duration

	// PollInterval is the delay between enumeration polls.
	PollInterval time.Duration

	// EnumerationTimeout bounds the total time waitForReenumeration will
	// wait for the device to reappear. Unbounded polling risks hanging the
	// caller forever if the device never comes back, so this is required.
	EnumerationTimeout time.Duration
}

// DefaultOptions returns the pipeline's default tunables.
func DefaultOptions() Options {
	return Options{
		BlockSize:          256,
		VerifyImage:        false,
		MaxImageSize:       16 << 20, // 16 MiB
		FetchTimeout:       30 * time.Second,
		BootDelay:          time.Second,
		PollInterval:       time.Second,
		EnumerationTimeout: 60 * time.Second,
	}
}

// Option mutates an Options value being built up by NewOptions.
type Option func(*Options)

// NewOptions returns DefaultOptions with every opt applied in order.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBlockSize overrides the flashOp chunk size, in words.
func WithBlockSize(words uint32) Option {
	return func(o *Options) { o.BlockSize = words }
}

// WithVerifyImage enables or disables the post-write byte-for-byte compare.
func WithVerifyImage(enabled bool) Option {
	return func(o *Options) { o.VerifyImage = enabled }
}

// WithEnumerationTimeout overrides how long waitForReenumeration waits
// before failing with EnumerationTimeoutError.
func WithEnumerationTimeout(d time.Duration) Option {
	return func(o *Options) { o.EnumerationTimeout = d }
}

// WithPollInterval overrides the delay between enumeration polls.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

// WithFetchTimeout overrides the HTTP(S) request timeout used by Load.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Options) { o.FetchTimeout = d }
}

// WithMaxImageSize overrides the maximum number of bytes Load will read
// from an HTTP(S) or local-file source.
func WithMaxImageSize(n int64) Option {
	return func(o *Options) { o.MaxImageSize = n }
}

// WithBootDelay overrides the initial sleep before the first
// re-enumeration poll.
func WithBootDelay(d time.Duration) Option {
	return func(o *Options) { o.BootDelay = d }
}
