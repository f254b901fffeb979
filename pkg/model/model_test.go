package model_test

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
)

func sampleDefinition() model.Definition {
	return model.Definition{ID: "application", Controls: []model.Control{
		{Name: "fullName", Type: model.ControlText, Value: "placeholder"},
		{Name: "terms", Type: model.ControlCheckbox},
		{Name: "newsletter", Type: model.ControlCheckbox, Value: "weekly"},
		{Name: "contact", ID: "contactEmail", Type: model.ControlRadio, Value: "email"},
		{Name: "contact", ID: "contactPhone", Type: model.ControlRadio, Value: "phone"},
		{Name: "state", Type: model.ControlSelect, Options: []model.Option{
			{Value: "MA", Text: "Massachusetts"},
			{Value: "NY", Text: "New York"},
		}},
		{Name: "topics", Type: model.ControlSelect, Multiple: true, Options: []model.Option{
			{Value: "a", Text: "Alpha"},
			{Value: "b", Text: "Beta"},
			{Value: "c", Text: "Gamma"},
		}},
		{Name: "photo", Type: model.ControlFile},
	}}
}

func fileHeaders(t *testing.T, field, filename, contentType string, data []byte) map[string][]*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File
}

func TestDefinitionBind(t *testing.T) {
	def := sampleDefinition()
	values := url.Values{
		"fullName":   {"Jane Doe"},
		"terms":      {"on"},
		"newsletter": {"monthly"},
		"contact":    {"phone"},
		"state":      {"NY"},
		"topics":     {"a", "c"},
	}
	files := fileHeaders(t, "photo", "id.png", "image/png", []byte("png-bytes"))

	form, err := def.Bind(values, files)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	if got := form.Value("fullName"); got != "Jane Doe" {
		t.Fatalf("fullName = %q", got)
	}

	checked := map[string]bool{}
	for _, c := range form.Controls {
		if c.Type == model.ControlCheckbox || c.Type == model.ControlRadio {
			checked[c.Key()+"/"+c.ID] = c.Checked
		}
	}
	wantChecked := map[string]bool{
		"terms/":               true,
		"newsletter/":          false,
		"contact/contactEmail": false,
		"contact/contactPhone": true,
	}
	if diff := cmp.Diff(wantChecked, checked); diff != "" {
		t.Fatalf("checked state mismatch (-want +got):\n%s", diff)
	}

	state, _ := form.Control("state")
	if diff := cmp.Diff([]model.Option{{Value: "NY", Text: "New York", Selected: true}}, state.SelectedOptions()); diff != "" {
		t.Fatalf("state selection mismatch (-want +got):\n%s", diff)
	}
	topics, _ := form.Control("topics")
	var texts []string
	for _, opt := range topics.SelectedOptions() {
		texts = append(texts, opt.Text)
	}
	if diff := cmp.Diff([]string{"Alpha", "Gamma"}, texts); diff != "" {
		t.Fatalf("topics selection mismatch (-want +got):\n%s", diff)
	}

	photo, _ := form.Control("photo")
	want := &model.File{Name: "id.png", ContentType: "image/png", Size: int64(len("png-bytes")), Data: []byte("png-bytes")}
	if diff := cmp.Diff(want, photo.File); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}

	if def.Controls[5].Options[1].Selected {
		t.Fatalf("bind mutated the definition options")
	}
}

func TestDefinitionBind_AbsentValuesKeepDefaults(t *testing.T) {
	form, err := sampleDefinition().Bind(url.Values{}, nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if got := form.Value("fullName"); got != "placeholder" {
		t.Fatalf("fullName = %q", got)
	}
	photo, _ := form.Control("photo")
	if photo.File != nil {
		t.Fatalf("expected no file, got %+v", photo.File)
	}
}

func TestFormControlLookup(t *testing.T) {
	form := model.Form{Controls: []model.Control{
		{ID: "zip", Type: model.ControlText, Value: " 02134 "},
		{Name: "zip", ID: "other", Type: model.ControlText, Value: "99999"},
	}}
	if got := form.Value("zip"); got != "99999" {
		t.Fatalf("name lookup should win over id, got %q", got)
	}
	if got := form.Value("missing"); got != "" {
		t.Fatalf("missing control value = %q", got)
	}
}

func TestGroupHelpers(t *testing.T) {
	groups := model.DefaultGroups()
	form := model.Form{Controls: []model.Control{
		{Name: "zip5", Value: "02134"},
		{Name: "zip4", Value: ""},
		{Name: "phone1", Value: "617"},
	}}

	zip, ok := model.GroupFor(groups, "zip4")
	if !ok || zip.Label != "ZIP" {
		t.Fatalf("GroupFor(zip4) = %+v, %v", zip, ok)
	}
	if got := zip.Join(form); got != "02134" {
		t.Fatalf("zip join = %q", got)
	}

	var present []string
	for _, g := range groups {
		if g.Present(form) {
			present = append(present, g.Label)
		}
	}
	if diff := cmp.Diff([]string{"Home Phone", "ZIP"}, present); diff != "" {
		t.Fatalf("present groups mismatch (-want +got):\n%s", diff)
	}

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.FieldKey())
	}
	if diff := cmp.Diff([]string{"tin", "date_of_birth", "home_phone", "zip"}, keys); diff != "" {
		t.Fatalf("field keys mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateGroups(t *testing.T) {
	tests := []struct {
		name   string
		groups []model.Group
		want   string
	}{
		{name: "defaults", groups: model.DefaultGroups()},
		{name: "missing label", groups: []model.Group{{Names: []string{"a"}}}, want: "label is required"},
		{name: "no names", groups: []model.Group{{Label: "A"}}, want: "no constituents"},
		{
			name: "overlap",
			groups: []model.Group{
				{Label: "A", Names: []string{"x", "y"}},
				{Label: "B", Names: []string{"y"}},
			},
			want: `"y" belongs to both "A" and "B"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := model.ValidateGroups(tt.groups)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
