package model

import "strings"

// ControlType is the input kind of a form control.
type ControlType string

const (
	ControlText     ControlType = "text"
	ControlEmail    ControlType = "email"
	ControlTel      ControlType = "tel"
	ControlNumber   ControlType = "number"
	ControlDate     ControlType = "date"
	ControlTextarea ControlType = "textarea"
	ControlHidden   ControlType = "hidden"
	ControlCheckbox ControlType = "checkbox"
	ControlRadio    ControlType = "radio"
	ControlSelect   ControlType = "select"
	ControlFile     ControlType = "file"
	ControlSubmit   ControlType = "submit"
	ControlButton   ControlType = "button"
	ControlReset    ControlType = "reset"
)

// Option is a single choice inside a select control.
type Option struct {
	Value    string `json:"value" yaml:"value"`
	Text     string `json:"text" yaml:"text"`
	Selected bool   `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// File is an attachment bound to a file control. Data may be nil when only
// metadata is known.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Control models a named input inside a submitted form together with its
// constraints. Title carries the author supplied validation message override.
type Control struct {
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	ID        string      `json:"id,omitempty" yaml:"id,omitempty"`
	Type      ControlType `json:"type" yaml:"type"`
	Label     string      `json:"label,omitempty" yaml:"label,omitempty"`
	AriaLabel string      `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Value     string      `json:"value,omitempty" yaml:"value,omitempty"`
	Checked   bool        `json:"checked,omitempty" yaml:"checked,omitempty"`
	Disabled  bool        `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Multiple  bool        `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Options   []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	Required  bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Pattern   string      `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength int         `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int         `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Title     string      `json:"title,omitempty" yaml:"title,omitempty"`
	File      *File       `json:"file,omitempty" yaml:"-"`
}

// Key returns the control name, falling back to its id.
func (c Control) Key() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return strings.TrimSpace(c.ID)
}

// IsButton reports whether the control is a submit/button/reset element.
func (c Control) IsButton() bool {
	switch c.Type {
	case ControlSubmit, ControlButton, ControlReset:
		return true
	default:
		return false
	}
}

// Participates reports whether the control takes part in validation and
// snapshotting: enabled, named and not a button.
func (c Control) Participates() bool {
	return !c.Disabled && strings.TrimSpace(c.Name) != "" && !c.IsButton()
}

// SelectedOptions returns the options marked as selected.
func (c Control) SelectedOptions() []Option {
	var out []Option
	for _, opt := range c.Options {
		if opt.Selected {
			out = append(out, opt)
		}
	}
	return out
}

// Form is the ordered set of controls submitted together.
type Form struct {
	ID         string            `json:"id,omitempty"`
	Controls   []Control         `json:"controls"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Control looks a control up by name first, then by id.
func (f Form) Control(key string) (Control, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Control{}, false
	}
	for _, c := range f.Controls {
		if c.Name == key {
			return c, true
		}
	}
	for _, c := range f.Controls {
		if c.ID == key {
			return c, true
		}
	}
	return Control{}, false
}

// Value returns the trimmed value of the control addressed by key, or "" when
// the form has no such control.
func (f Form) Value(key string) string {
	c, ok := f.Control(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
