package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/gate"
	"github.com/goliatone/go-formflow/pkg/snapshot"
	"github.com/goliatone/go-formflow/pkg/store"
)

type scriptedPrompter struct {
	inputs   []string
	confirms []bool
	asked    []string
}

func (p *scriptedPrompter) Input(_ context.Context, message string) (string, error) {
	p.asked = append(p.asked, message)
	value := p.inputs[0]
	p.inputs = p.inputs[1:]
	return value, nil
}

func (p *scriptedPrompter) Confirm(_ context.Context, message string) (bool, error) {
	p.asked = append(p.asked, message)
	value := p.confirms[0]
	p.confirms = p.confirms[1:]
	return value, nil
}

func seededGate(t *testing.T) *gate.Gate {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	st := store.New(backend)
	snap := snapshot.New("sub-1", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	snap.Set("UserID", "AB123456")
	if err := st.Save(context.Background(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	return gate.New(st)
}

func TestRun_RetriesUntilMatch(t *testing.T) {
	p := &scriptedPrompter{inputs: []string{"ZZ000000", "AB123456"}, confirms: []bool{true}}
	var out bytes.Buffer

	allowed, err := run(context.Background(), seededGate(t), p, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !allowed {
		t.Fatalf("expected access to be granted")
	}
	if diff := cmp.Diff([]string{"Enter UserID:", "Try again?", "Enter UserID:"}, p.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), gate.DefaultMismatchMessage) || !strings.Contains(out.String(), "/account/create") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRun_StopsWhenUserDeclinesRetry(t *testing.T) {
	var out bytes.Buffer
	allowed, err := run(context.Background(), seededGate(t), fixedPrompter{value: "ab123456"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if allowed {
		t.Fatalf("case-mismatched identifier must be denied")
	}
}
