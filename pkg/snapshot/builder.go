package snapshot

import (
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/pkg/model"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// Option customises a Builder.
type Option func(*Builder)

// WithGroups overrides the combined-field groups.
func WithGroups(groups ...model.Group) Option {
	return func(b *Builder) {
		b.groups = append([]model.Group(nil), groups...)
	}
}

// WithClock injects the time source used for the submission timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator injects the submission id generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// Builder reduces a validated form into a Snapshot.
type Builder struct {
	groups []model.Group
	now    func() time.Time
	newID  func() string
}

// NewBuilder constructs a Builder with the default groups.
func NewBuilder(options ...Option) *Builder {
	b := &Builder{
		groups: model.DefaultGroups(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Build flattens the form: every participating non-file control is recorded
// under its display label, then each group's constituents are replaced by a
// single joined entry under the group label. File controls never contribute.
func (b *Builder) Build(form model.Form) Snapshot {
	if b == nil {
		b = NewBuilder()
	}
	snap := New(b.newID(), b.now())

	// label -> key of the control that wrote it last
	owners := make(map[string]string)

	for _, control := range form.Controls {
		if !control.Participates() || control.Type == model.ControlFile {
			continue
		}
		value, ok := controlValue(control)
		if !ok {
			continue
		}
		label := LabelFor(control)
		snap.Set(label, value)
		owners[label] = control.Key()
	}

	for _, group := range b.groups {
		if !group.Present(form) {
			continue
		}
		for _, name := range group.Names {
			control, ok := form.Control(name)
			if !ok {
				continue
			}
			label := LabelFor(control)
			if owners[label] == control.Key() {
				snap.Delete(label)
				delete(owners, label)
			}
		}
		if joined := group.Join(form); joined != "" {
			snap.Set(group.Label, joined)
			owners[group.Label] = ""
		}
	}

	return snap
}

func controlValue(control model.Control) (any, bool) {
	switch control.Type {
	case model.ControlCheckbox:
		return control.Checked, true
	case model.ControlRadio:
		if !control.Checked {
			return nil, false
		}
		return control.Value, true
	case model.ControlSelect:
		selected := control.SelectedOptions()
		if control.Multiple {
			texts := make([]string, 0, len(selected))
			for _, opt := range selected {
				texts = append(texts, optionText(opt))
			}
			return texts, true
		}
		if len(selected) == 0 {
			return control.Value, true
		}
		return optionText(selected[0]), true
	default:
		return control.Value, true
	}
}

func optionText(opt model.Option) string {
	if text := strings.TrimSpace(opt.Text); text != "" {
		return text
	}
	return opt.Value
}

// LabelFor derives the display label of a control: its label text, else its
// aria-label, else its name or id. Markup is stripped and whitespace
// collapsed.
func LabelFor(control model.Control) string {
	for _, candidate := range []string{control.Label, control.AriaLabel, control.Name, control.ID} {
		if cleaned := cleanLabel(candidate); cleaned != "" {
			return cleaned
		}
	}
	return "(unnamed)"
}

func cleanLabel(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := html.UnescapeString(labelSanitizer().Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return labelPolicy
}
