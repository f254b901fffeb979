package model

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
)

// Definition describes a form's controls without submitted values. It is the
// server-side counterpart of the page markup: labels, constraints and options
// live here, values arrive with each request.
type Definition struct {
	ID       string    `json:"id" yaml:"id"`
	Controls []Control `json:"controls" yaml:"controls"`
}

// Bind produces a Form by applying submitted values and files to the
// definition. Controls absent from values keep their configured defaults.
// Radio options are declared as separate controls sharing a name and differing
// by Value.
func (d Definition) Bind(values url.Values, files map[string][]*multipart.FileHeader) (Form, error) {
	form := Form{
		ID:       d.ID,
		Controls: make([]Control, 0, len(d.Controls)),
	}

	for _, def := range d.Controls {
		control := def
		control.Options = append([]Option(nil), def.Options...)
		name := control.Key()

		switch control.Type {
		case ControlCheckbox:
			submitted, ok := values[name]
			control.Checked = ok && matchesCheckbox(submitted, control.Value)
		case ControlRadio:
			if submitted, ok := values[name]; ok {
				control.Checked = len(submitted) > 0 && submitted[0] == control.Value
			}
		case ControlSelect:
			if submitted, ok := values[name]; ok {
				selectOptions(&control, submitted)
			}
		case ControlFile:
			headers := files[name]
			if len(headers) == 0 || headers[0] == nil {
				break
			}
			file, err := readFile(headers[0])
			if err != nil {
				return Form{}, fmt.Errorf("model: bind file %q: %w", name, err)
			}
			control.File = file
		default:
			if submitted, ok := values[name]; ok && len(submitted) > 0 {
				control.Value = submitted[0]
			}
		}

		form.Controls = append(form.Controls, control)
	}

	return form, nil
}

func matchesCheckbox(submitted []string, value string) bool {
	if value == "" {
		return len(submitted) > 0
	}
	for _, candidate := range submitted {
		if candidate == value {
			return true
		}
	}
	return false
}

func selectOptions(control *Control, submitted []string) {
	chosen := make(map[string]struct{}, len(submitted))
	for _, value := range submitted {
		chosen[value] = struct{}{}
		if !control.Multiple {
			break
		}
	}
	for i := range control.Options {
		_, ok := chosen[control.Options[i].Value]
		control.Options[i].Selected = ok
	}
	if len(submitted) > 0 {
		control.Value = submitted[0]
	}
}

func readFile(header *multipart.FileHeader) (*File, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        strings.TrimSpace(header.Filename),
		ContentType: strings.TrimSpace(header.Header.Get("Content-Type")),
		Size:        header.Size,
		Data:        data,
	}, nil
}
