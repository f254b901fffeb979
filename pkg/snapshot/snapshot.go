package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// SubmittedAtKey carries the submission timestamp in the encoded form.
	SubmittedAtKey = "__submittedAt"
	// SubmissionIDKey carries the submission id in the encoded form.
	SubmissionIDKey = "__submissionId"
)

var errNotObject = errors.New("snapshot: encoded snapshot must be a JSON object")

// Snapshot is the flattened, file-free representation of a form at submission
// time. Values hold strings, booleans (checkboxes) or []string (multi-select),
// keyed by display label. Keys preserves insertion order.
type Snapshot struct {
	ID          string
	SubmittedAt time.Time

	keys   []string
	values map[string]any
}

// New returns an empty snapshot.
func New(id string, submittedAt time.Time) Snapshot {
	return Snapshot{
		ID:          id,
		SubmittedAt: submittedAt,
		values:      make(map[string]any),
	}
}

// Set stores value under label, keeping the label's original position when it
// already exists.
func (s *Snapshot) Set(label string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if _, exists := s.values[label]; !exists {
		s.keys = append(s.keys, label)
	}
	s.values[label] = value
}

// Delete removes label.
func (s *Snapshot) Delete(label string) {
	if _, exists := s.values[label]; !exists {
		return
	}
	delete(s.values, label)
	for i, key := range s.keys {
		if key == label {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value stored under label.
func (s Snapshot) Get(label string) (any, bool) {
	value, ok := s.values[label]
	return value, ok
}

// String returns the value under label when it is a string.
func (s Snapshot) String(label string) (string, bool) {
	value, ok := s.values[label]
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// Keys returns labels in insertion order.
func (s Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len reports the number of entries.
func (s Snapshot) Len() int {
	return len(s.keys)
}

// Entry is a label/value pair.
type Entry struct {
	Label string
	Value any
}

// Entries returns label/value pairs in insertion order.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, Entry{Label: key, Value: s.values[key]})
	}
	return out
}

// FormatValue renders a snapshot value for display.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// MarshalJSON encodes the snapshot as a flat object in insertion order with
// the meta keys appended.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("snapshot: encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, key := range s.keys {
		if err := write(key, s.values[key]); err != nil {
			return nil, err
		}
	}
	if !s.SubmittedAt.IsZero() {
		if err := write(SubmittedAtKey, s.SubmittedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return nil, err
		}
	}
	if s.ID != "" {
		if err := write(SubmissionIDKey, s.ID); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object, restoring key order and meta fields.
// Arrays of strings decode back into []string.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("snapshot: decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	out := New("", time.Time{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("snapshot: decode key: %w", err)
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("snapshot: decode %q: %w", key, err)
		}

		switch key {
		case SubmittedAtKey:
			if raw, ok := value.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
					out.SubmittedAt = ts
				}
			}
		case SubmissionIDKey:
			out.ID, _ = value.(string)
		default:
			out.Set(key, normalizeDecoded(value))
		}
	}

	*s = out
	return nil
}

func normalizeDecoded(value any) any {
	items, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return value
		}
		out = append(out, str)
	}
	return out
}
