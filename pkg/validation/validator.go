package validation

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	// DefaultMaxFileBytes caps attachments at 5 MiB.
	DefaultMaxFileBytes int64 = 5 * 1024 * 1024
	// MinBirthYear is the earliest accepted date of birth year.
	MinBirthYear = 1900
)

// DefaultImageTypes lists the MIME types accepted for file attachments.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// FieldError is a single validation failure. Field is either the combined
// group label or the control's name/id.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result captures the outcome of validating a form.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ByField groups messages per field, preserving first-seen order within each
// field and dropping duplicates.
func (r Result) ByField() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, e := range r.Errors {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	for field, messages := range out {
		out[field] = normalizeMessages(messages)
	}
	return out
}

// InlineMessages projects errors onto "{field}-error" targets using the first
// message per field. Callers ignore targets they do not render.
func (r Result) InlineMessages() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		target := e.Field + "-error"
		if _, exists := out[target]; exists {
			continue
		}
		out[target] = e.Message
	}
	return out
}

// Summary renders one "field: message" line per error.
func (r Result) Summary() string {
	lines := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		lines = append(lines, e.Field+": "+e.Message)
	}
	return strings.Join(lines, "\n")
}

// Option customises a Validator.
type Option func(*Validator)

// WithGroups overrides the combined-field groups. Passing none disables group
// checks.
func WithGroups(groups ...model.Group) Option {
	return func(v *Validator) {
		v.groups = append([]model.Group(nil), groups...)
	}
}

// WithClock injects the time source used for the future-date check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithMaxFileBytes overrides the attachment size limit.
func WithMaxFileBytes(limit int64) Option {
	return func(v *Validator) {
		if limit > 0 {
			v.maxFileBytes = limit
		}
	}
}

// WithAllowedTypes overrides the accepted attachment MIME types.
func WithAllowedTypes(types ...string) Option {
	return func(v *Validator) {
		if len(types) == 0 {
			return
		}
		v.allowedTypes = normalizeTypes(types)
	}
}

// Validator runs native, group and file checks over a form.
type Validator struct {
	groups       []model.Group
	now          func() time.Time
	maxFileBytes int64
	allowedTypes map[string]struct{}
}

// New constructs a Validator with the default groups, clock and file limits.
func New(options ...Option) *Validator {
	v := &Validator{
		groups:       model.DefaultGroups(),
		now:          time.Now,
		maxFileBytes: DefaultMaxFileBytes,
		allowedTypes: normalizeTypes(DefaultImageTypes),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Validate runs every check and accumulates failures. No check stops the
// others from running.
func (v *Validator) Validate(form model.Form) Result {
	if v == nil {
		v = New()
	}

	var errs []FieldError
	errs = append(errs, v.checkNative(form)...)
	errs = append(errs, v.checkGroups(form)...)
	errs = append(errs, v.checkFiles(form)...)

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func (v *Validator) checkFiles(form model.Form) []FieldError {
	var errs []FieldError
	for _, control := range form.Controls {
		if control.Type != model.ControlFile || control.Disabled || control.Key() == "" {
			continue
		}
		file := control.File
		if file == nil {
			continue
		}
		size := file.Size
		if size <= 0 {
			size = int64(len(file.Data))
		}
		if size > v.maxFileBytes {
			errs = append(errs, FieldError{Field: control.Key(), Message: "File too large (max 5 MB)"})
		}
		if _, ok := v.allowedTypes[detectType(file)]; !ok {
			errs = append(errs, FieldError{Field: control.Key(), Message: "Unsupported file type (jpeg, png, gif or webp only)"})
		}
	}
	return errs
}

func detectType(file *model.File) string {
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if contentType == "" && len(file.Data) > 0 {
		contentType = http.DetectContentType(file.Data)
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

func normalizeTypes(types []string) map[string]struct{} {
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		if trimmed := strings.ToLower(strings.TrimSpace(t)); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
