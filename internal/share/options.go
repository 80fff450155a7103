package share

type options struct {
	protect   bool
	overwrite bool
	guard     Guard
}

// Option configures a Share or a Queue at construction.
type Option func(*options)

// Protected guards every access against concurrent interrupt-context access.
func Protected() Option {
	return func(o *options) {
		o.protect = true
	}
}

// WithGuard protects a Queue with the given Guard instead of a SpinGuard.
// It implies Protected. Shares ignore the guard and always use an atomic
// exchange.
func WithGuard(g Guard) Option {
	return func(o *options) {
		o.protect = true
		o.guard = g
	}
}

// Overwrite makes a full Queue evict its oldest element on Push instead of
// rejecting the new one. Ignored by Share.
func Overwrite() Option {
	return func(o *options) {
		o.overwrite = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.protect && o.guard == nil {
		o.guard = &SpinGuard{}
	}
	return o
}
