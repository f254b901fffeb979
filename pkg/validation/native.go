package validation

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/model"
)

const (
	msgRequiredField    = "Required field is empty"
	msgRequiredCheckbox = "Required checkbox not checked"
	msgRequiredRadio    = "Required radio option not selected"
	msgRequiredSelect   = "Please select an option"
	msgPatternMismatch  = "Value does not match pattern"
	msgPatternInvalid   = "Invalid pattern attribute (bad regex)"
	msgTooShort         = "Value is too short"
	msgTooLong          = "Value is too long"
	msgInvalidEmail     = "Please enter a valid email address"
	msgInvalidNumber    = "Please enter a number"
)

// checkNative mirrors browser constraint validation. Each failing control
// contributes at most one error; radio groups report once per name.
func (v *Validator) checkNative(form model.Form) []FieldError {
	var errs []FieldError
	radiosSeen := make(map[string]struct{})

	for _, control := range form.Controls {
		if !control.Participates() || control.Type == model.ControlFile {
			continue
		}

		var message string
		if control.Type == model.ControlRadio {
			name := control.Key()
			if _, done := radiosSeen[name]; done {
				continue
			}
			radiosSeen[name] = struct{}{}
			message = checkRadioGroup(form, name)
		} else {
			message = checkControl(control)
		}
		if message == "" {
			continue
		}

		errs = append(errs, FieldError{
			Field:   v.fieldKey(control),
			Message: message,
		})
	}
	return errs
}

func (v *Validator) fieldKey(control model.Control) string {
	if group, ok := model.GroupFor(v.groups, control.Key()); ok {
		return group.Label
	}
	return control.Key()
}

func checkRadioGroup(form model.Form, name string) string {
	required := false
	title := ""
	for _, c := range form.Controls {
		if c.Type != model.ControlRadio || c.Key() != name || c.Disabled {
			continue
		}
		if c.Checked {
			return ""
		}
		if c.Required {
			required = true
		}
		if title == "" {
			title = strings.TrimSpace(c.Title)
		}
	}
	if !required {
		return ""
	}
	return override(title, msgRequiredRadio)
}

func checkControl(control model.Control) string {
	title := strings.TrimSpace(control.Title)

	switch control.Type {
	case model.ControlCheckbox:
		if control.Required && !control.Checked {
			return override(title, msgRequiredCheckbox)
		}
		return ""
	case model.ControlSelect:
		if control.Required && !hasSelection(control) {
			return override(title, msgRequiredSelect)
		}
		return ""
	}

	value := control.Value
	if strings.TrimSpace(value) == "" {
		if control.Required {
			return override(title, msgRequiredField)
		}
		return ""
	}

	if control.Pattern != "" {
		re, err := compilePattern(control.Pattern)
		if err != nil {
			return override(title, msgPatternInvalid)
		}
		if !re.MatchString(value) {
			return override(title, msgPatternMismatch)
		}
	}

	length := utf8.RuneCountInString(value)
	if control.MinLength > 0 && length < control.MinLength {
		return override(title, msgTooShort)
	}
	if control.MaxLength > 0 && length > control.MaxLength {
		return override(title, msgTooLong)
	}

	switch control.Type {
	case model.ControlEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return override(title, msgInvalidEmail)
		}
	case model.ControlNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return override(title, msgInvalidNumber)
		}
	}
	return ""
}

func hasSelection(control model.Control) bool {
	for _, opt := range control.SelectedOptions() {
		if strings.TrimSpace(opt.Value) != "" {
			return true
		}
	}
	return false
}

// compilePattern anchors the expression the way the HTML pattern attribute
// does: the whole value must match.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

func override(title, fallback string) string {
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		return trimmed
	}
	return fallback
}
