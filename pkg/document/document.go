package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/snapshot"
)

// Line is a label/value row inside a section.
type Line struct {
	Label string
	Value string
}

// Image is an attachment embedded into a section.
type Image struct {
	Label       string
	Name        string
	ContentType string
	Data        []byte
}

// Section is a titled block of rows and images.
type Section struct {
	Title  string
	Lines  []Line
	Images []Image
}

// Renderer turns sections into a finished document.
type Renderer interface {
	RenderDocument(ctx context.Context, sections []Section) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, sections []Section) ([]byte, error)

// RenderDocument implements Renderer.
func (f RendererFunc) RenderDocument(ctx context.Context, sections []Section) ([]byte, error) {
	return f(ctx, sections)
}

// Filename returns the download name for a document generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("form-submission-%s.pdf", t.UTC().Format("2006-01-02"))
}

// SectionsFromSnapshot lays out a submission: group values first, then the
// remaining entries in submission order, then image attachments taken from
// the form's file controls.
func SectionsFromSnapshot(snap snapshot.Snapshot, form model.Form, groups []model.Group) []Section {
	details := Section{Title: "Submission Details"}
	printed := make(map[string]bool, len(groups))

	for _, group := range groups {
		value, ok := snap.Get(group.Label)
		if !ok {
			continue
		}
		printed[group.Label] = true
		if text := snapshot.FormatValue(value); text != "" {
			details.Lines = append(details.Lines, Line{Label: group.Label, Value: text})
		}
	}
	for _, entry := range snap.Entries() {
		if printed[entry.Label] {
			continue
		}
		text := snapshot.FormatValue(entry.Value)
		if strings.TrimSpace(text) == "" {
			continue
		}
		details.Lines = append(details.Lines, Line{Label: entry.Label, Value: text})
	}
	if !snap.SubmittedAt.IsZero() {
		details.Lines = append(details.Lines, Line{Label: "Submitted At", Value: snap.SubmittedAt.UTC().Format(time.RFC1123)})
	}

	sections := []Section{details}

	attachments := Section{Title: "Attachments"}
	for _, control := range form.Controls {
		if control.Type != model.ControlFile || control.Disabled || control.File == nil {
			continue
		}
		attachments.Images = append(attachments.Images, Image{
			Label:       snapshot.LabelFor(control),
			Name:        control.File.Name,
			ContentType: control.File.ContentType,
			Data:        control.File.Data,
		})
	}
	if len(attachments.Images) > 0 {
		sections = append(sections, attachments)
	}
	return sections
}
