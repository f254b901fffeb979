package infopage

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/snapshot"
)

// DefaultEmptyMessage is shown in the profile section when no snapshot exists.
const DefaultEmptyMessage = "No data found in our records."

type Field struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

type Item struct {
	Status string `yaml:"status"`
	Label  string `yaml:"label"`
	Note   string `yaml:"note"`
}

type StatusOption struct {
	Label   string `yaml:"label"`
	Checked bool   `yaml:"checked"`
}

type StatusSection struct {
	Title   string         `yaml:"title"`
	Options []StatusOption `yaml:"options"`
}

type Subsection struct {
	Title  string  `yaml:"title"`
	Fields []Field `yaml:"fields"`
}

type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Section is one card of the page. A section with Profile set lists the
// stored snapshot instead of its configured fields.
type Section struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Profile     bool           `yaml:"profile"`
	Fields      []Field        `yaml:"fields"`
	Content     string         `yaml:"content"`
	Items       []Item         `yaml:"items"`
	Subsections []Subsection   `yaml:"subsections"`
	Status      *StatusSection `yaml:"status"`
	Link        *Link          `yaml:"link"`
	Empty       string         `yaml:"-"`
}

// Page is the static structure rendered by the info page.
type Page struct {
	Header       string    `yaml:"header"`
	EmptyMessage string    `yaml:"emptyMessage"`
	Sections     []Section `yaml:"sections"`
}

// Parse decodes a YAML (or JSON) page description.
func Parse(data []byte) (Page, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Page{}, fmt.Errorf("infopage: page document is empty")
	}
	var page Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return Page{}, fmt.Errorf("infopage: parse: %w", err)
	}
	return page, nil
}

// Merge returns a copy of page with the profile section populated from snap.
// Entries with empty values are skipped. Section ids default to SectionID of
// the title.
func Merge(page Page, snap *snapshot.Snapshot) Page {
	out := page
	out.Sections = make([]Section, len(page.Sections))
	empty := page.EmptyMessage
	if strings.TrimSpace(empty) == "" {
		empty = DefaultEmptyMessage
	}

	for i, section := range page.Sections {
		merged := section
		if merged.ID == "" {
			merged.ID = SectionID(section.Title)
		}
		if section.Profile {
			merged.Fields = profileFields(snap)
			if len(merged.Fields) == 0 {
				merged.Empty = empty
			}
		}
		out.Sections[i] = merged
	}
	return out
}

func profileFields(snap *snapshot.Snapshot) []Field {
	if snap == nil {
		return nil
	}
	var fields []Field
	for _, entry := range snap.Entries() {
		value := snapshot.FormatValue(entry.Value)
		if strings.TrimSpace(value) == "" {
			continue
		}
		fields = append(fields, Field{Label: entry.Label, Value: value})
	}
	return fields
}

// SectionID turns a title into an anchor id: accents are folded and anything
// other than letters and digits is dropped.
func SectionID(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
