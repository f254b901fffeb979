package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/snapshot"
	"github.com/goliatone/go-formflow/pkg/store"
)

const sampleConfig = `
addr: ":9090"
form:
  id: application
  controls:
    - name: UserID
      type: text
      label: UserID
      required: true
    - name: zip5
      type: text
      title: Enter a 5 digit ZIP
    - name: zip4
      type: text
storage:
  kind: file
gate:
  nextPath: /account/create
  bannerTTL: 3s
relay:
  subject: Application received
  accessKeyEnv: TEST_RELAY_KEY
  timeout: 10s
infoPage:
  header: Overview
  sections:
    - title: Profile
      profile: true
`

func TestParse_YAML(t *testing.T) {
	dir := t.TempDir()
	doc := strings.Replace(sampleConfig, "kind: file", "kind: file\n  path: "+dir, 1)

	cfg, err := config.Parse([]byte(doc), "flow.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if diff := cmp.Diff(model.DefaultGroups(), cfg.Groups); diff != "" {
		t.Fatalf("default groups mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Key != store.DefaultKey {
		t.Fatalf("storage key = %q", cfg.Storage.Key)
	}
	if got := cfg.Gate.TTL(); got != 3*time.Second {
		t.Fatalf("banner ttl = %v", got)
	}
	if got := cfg.Relay.RequestTimeout(); got != 10*time.Second {
		t.Fatalf("relay timeout = %v", got)
	}
	if cfg.Form.Controls[1].Title != "Enter a 5 digit ZIP" {
		t.Fatalf("control title not decoded: %+v", cfg.Form.Controls[1])
	}
	if cfg.InfoPage == nil || !cfg.InfoPage.Sections[0].Profile {
		t.Fatalf("info page not decoded: %+v", cfg.InfoPage)
	}

	env := map[string]string{"TEST_RELAY_KEY": " secret "}
	if got := cfg.Relay.AccessKey(func(k string) string { return env[k] }); got != "secret" {
		t.Fatalf("access key = %q", got)
	}
}

func TestParse_JSON(t *testing.T) {
	doc := `{"form":{"controls":[{"name":"UserID","type":"text"}]},"storage":{"kind":"memory"}}`
	cfg, err := config.Parse([]byte(doc), "flow.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Relay.AccessKeyEnv != config.DefaultAccessKeyEnv {
		t.Fatalf("access key env = %q", cfg.Relay.AccessKeyEnv)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "  ", want: "is empty"},
		{name: "no controls", doc: "addr: ':1'", want: "no controls"},
		{name: "unknown field", doc: "form:\n  controls: [{name: a, type: text}]\nbogus: 1", want: "bogus"},
		{name: "unknown storage", doc: "form:\n  controls: [{name: a, type: text}]\nstorage:\n  kind: redis", want: "unknown storage kind"},
		{name: "file without path", doc: "form:\n  controls: [{name: a, type: text}]\nstorage:\n  kind: file", want: "path is required"},
		{name: "bad ttl", doc: "form:\n  controls: [{name: a, type: text}]\ngate:\n  bannerTTL: soon", want: "bannerTTL"},
		{
			name: "overlapping groups",
			doc:  "form:\n  controls: [{name: a, type: text}]\ngroups:\n  - {kind: zip, label: ZIP, names: [a]}\n  - {kind: tin, label: TIN, names: [a]}",
			want: "belongs to both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc), "flow.yaml")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadAndOpenBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	doc := "form:\n  controls: [{name: UserID, type: text}]\nstorage:\n  kind: sqlite\n  dsn: " + filepath.Join(dir, "flow.db") + "\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx := context.Background()
	backend, closeFn, err := cfg.OpenBackend(ctx)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer closeFn()

	st := store.New(backend, store.WithKey(cfg.Storage.Key))
	snap := snapshot.New("sub-1", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	snap.Set("UserID", "AB123456")
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if got, _ := loaded.String("UserID"); got != "AB123456" {
		t.Fatalf("UserID = %q", got)
	}
}
