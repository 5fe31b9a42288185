package opc

import (
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/schema"
)

// Option configures a Package.
type Option func(*options)

type options struct {
	registry    *schema.Registry
	logger      *zap.Logger
	rawTypes    map[string]bool
	passthrough bool
	strict      bool
}

func defaultOptions() options {
	return options{
		registry:    schema.DefaultRegistry(),
		logger:      zap.NewNop(),
		rawTypes:    make(map[string]bool),
		passthrough: true,
		strict:      true,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRegistry selects the element descriptors used to parse XML parts.
// Content types the registry knows are parsed; the rest must be raw.
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger.  The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRawContentTypes accepts parts of the given content types and keeps
// their bytes as they are, in addition to the built-in raw types.
func WithRawContentTypes(types ...string) Option {
	return func(o *options) {
		for _, t := range types {
			o.rawTypes[t] = true
		}
	}
}

// WithPassthrough controls whether parsed parts whose tree is unchanged are
// saved with their original bytes (the default) or always re-serialized.
func WithPassthrough(on bool) Option {
	return func(o *options) { o.passthrough = on }
}

// WithStrictTargets controls whether an internal relationship whose target
// part is missing fails Open with DanglingRelationship (the default).  When
// off, the relationship is kept and a warning is logged.
func WithStrictTargets(on bool) Option {
	return func(o *options) { o.strict = on }
}
