package model

import (
	"errors"
	"fmt"
	"strings"
)

// GroupKind selects the semantic checks applied to a combined-field group.
type GroupKind string

const (
	GroupTIN         GroupKind = "tin"
	GroupDateOfBirth GroupKind = "dob"
	GroupPhone       GroupKind = "phone"
	GroupZIP         GroupKind = "zip"
)

// Group is a set of adjacent controls whose values are joined into a single
// logical field. Names are ordered: for GroupDateOfBirth they are month, day,
// year; for GroupZIP the 5-digit part precedes the optional 4-digit part.
type Group struct {
	Kind      GroupKind `json:"kind" yaml:"kind"`
	Names     []string  `json:"names" yaml:"names"`
	Label     string    `json:"label" yaml:"label"`
	Separator string    `json:"sep" yaml:"sep"`
}

// DefaultGroups returns the canonical TIN, date of birth, home phone and ZIP
// groups.
func DefaultGroups() []Group {
	return []Group{
		{Kind: GroupTIN, Names: []string{"tin1", "tin2", "tin3"}, Label: "TIN", Separator: "-"},
		{Kind: GroupDateOfBirth, Names: []string{"dobMonth", "dobDay", "dobYear"}, Label: "Date of Birth", Separator: "-"},
		{Kind: GroupPhone, Names: []string{"phone1", "phone2", "phone3"}, Label: "Home Phone", Separator: "-"},
		{Kind: GroupZIP, Names: []string{"zip5", "zip4"}, Label: "ZIP", Separator: "-"},
	}
}

// Has reports whether name is one of the group's constituents.
func (g Group) Has(name string) bool {
	for _, n := range g.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Present reports whether the form carries at least one constituent control.
func (g Group) Present(form Form) bool {
	for _, name := range g.Names {
		if _, ok := form.Control(name); ok {
			return true
		}
	}
	return false
}

// Values returns the trimmed constituent values in group order.
func (g Group) Values(form Form) []string {
	out := make([]string, len(g.Names))
	for i, name := range g.Names {
		out[i] = form.Value(name)
	}
	return out
}

// Join concatenates the non-empty constituent values with the separator.
func (g Group) Join(form Form) string {
	parts := make([]string, 0, len(g.Names))
	for _, value := range g.Values(form) {
		if value == "" {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, g.Separator)
}

// FieldKey is the flattened identifier used for outbound payloads, for
// example "Date of Birth" becomes "date_of_birth".
func (g Group) FieldKey() string {
	return strings.ToLower(strings.Join(strings.Fields(g.Label), "_"))
}

// GroupFor returns the group that owns name.
func GroupFor(groups []Group, name string) (Group, bool) {
	for _, g := range groups {
		if g.Has(name) {
			return g, true
		}
	}
	return Group{}, false
}

var errGroupLabelMissing = errors.New("model: group label is required")

// ValidateGroups checks that every group has a label and constituents and that
// no constituent name is shared between groups.
func ValidateGroups(groups []Group) error {
	owners := make(map[string]string)
	for _, g := range groups {
		if strings.TrimSpace(g.Label) == "" {
			return errGroupLabelMissing
		}
		if len(g.Names) == 0 {
			return fmt.Errorf("model: group %q has no constituents", g.Label)
		}
		for _, name := range g.Names {
			if owner, exists := owners[name]; exists {
				return fmt.Errorf("model: control %q belongs to both %q and %q", name, owner, g.Label)
			}
			owners[name] = g.Label
		}
	}
	return nil
}
