package submission

import (
	"net/http"

	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/model"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath string
	// MaxMemory bounds the multipart bytes held in memory while parsing.
	MaxMemory int64
	// FormatParam selects the response format; "pdf" returns the rendered
	// document as an attachment.
	FormatParam string
	Guard       GuardFunc

	Definition model.Definition
	Flow       *flow.Flow
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:   "/api/submit",
		MaxMemory:   32 << 20,
		FormatParam: "format",
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
		opts.RoutePath = "/api/submit"
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 32 << 20
	}
	if opts.FormatParam == "" {
		opts.FormatParam = "format"
	}
	if opts.Definition.Controls != nil {
		opts.Definition.Controls = append([]model.Control{}, opts.Definition.Controls...)
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

func WithMaxMemory(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxMemory = limit
	}
}

func WithFormatParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FormatParam = name
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

func WithDefinition(def model.Definition) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Definition = def
	}
}

func WithFlow(f *flow.Flow) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Flow = f
	}
}
