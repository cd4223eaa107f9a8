package objhost

import (
	"context"

	"golang.org/x/time/rate"
)

type options struct {
	ctx     context.Context
	codec   Codec
	limiter *rate.Limiter
}

// Option configures a Host.
type Option func(*options)

// WithContext sets the context used for every store request.
// Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithCodec configures how bodies are compressed on upload.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithIOLimit caps object transfer throughput in bytes per second.
// If bytesPerSec <= 0, transfers are unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if bytesPerSec <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}
}
