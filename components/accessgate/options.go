package accessgate

import (
	"net/http"

	"github.com/goliatone/go-formflow/pkg/gate"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath string
	// FieldParam is the form field carrying the entered identifier.
	FieldParam string
	Guard      GuardFunc

	Gate *gate.Gate
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:  "/api/access",
		FieldParam: gate.DefaultField,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/access"
	}
	if opts.FieldParam == "" {
		opts.FieldParam = gate.DefaultField
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithFieldParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FieldParam = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithGate(g *gate.Gate) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Gate = g
	}
}
