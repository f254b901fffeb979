package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/gate"
	"github.com/goliatone/go-formflow/pkg/infopage"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/store"
)

// Storage backend kinds.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// DefaultAccessKeyEnv names the environment variable holding the relay key.
const DefaultAccessKeyEnv = "FORMFLOW_RELAY_ACCESS_KEY"

var errNoControls = errors.New("config: form defines no controls")

// Config describes one deployed form flow.
type Config struct {
	Addr     string           `json:"addr" yaml:"addr"`
	Form     model.Definition `json:"form" yaml:"form"`
	Groups   []model.Group    `json:"groups" yaml:"groups"`
	Storage  Storage          `json:"storage" yaml:"storage"`
	Gate     Gate             `json:"gate" yaml:"gate"`
	Relay    Relay            `json:"relay" yaml:"relay"`
	Document Document         `json:"document" yaml:"document"`
	NextPath string           `json:"nextPath" yaml:"nextPath"`
	InfoPage *infopage.Page   `json:"infoPage,omitempty" yaml:"infoPage,omitempty"`
}

type Storage struct {
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
	DSN  string `json:"dsn" yaml:"dsn"`
	Key  string `json:"key" yaml:"key"`
}

type Gate struct {
	Field     string `json:"field" yaml:"field"`
	NextPath  string `json:"nextPath" yaml:"nextPath"`
	BannerTTL string `json:"bannerTTL" yaml:"bannerTTL"`
	Message   string `json:"message" yaml:"message"`
}

type Relay struct {
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	Subject      string `json:"subject" yaml:"subject"`
	AccessKeyEnv string `json:"accessKeyEnv" yaml:"accessKeyEnv"`
	Timeout      string `json:"timeout" yaml:"timeout"`
}

type Document struct {
	Title string `json:"title" yaml:"title"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a JSON or YAML document. JSON is attempted first for .json
// files; everything else is decoded as YAML.
func Parse(data []byte, name string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: %s is empty", name)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", name, err)
		}
	} else {
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", name, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":8080"
	}
	if len(c.Groups) == 0 {
		c.Groups = model.DefaultGroups()
	}
	if strings.TrimSpace(c.Storage.Kind) == "" {
		c.Storage.Kind = StorageMemory
	}
	c.Storage.Kind = strings.ToLower(strings.TrimSpace(c.Storage.Kind))
	if strings.TrimSpace(c.Storage.Key) == "" {
		c.Storage.Key = store.DefaultKey
	}
	if strings.TrimSpace(c.Relay.AccessKeyEnv) == "" {
		c.Relay.AccessKeyEnv = DefaultAccessKeyEnv
	}
}

// Validate checks structural consistency.
func (c Config) Validate() error {
	if len(c.Form.Controls) == 0 {
		return errNoControls
	}
	if err := model.ValidateGroups(c.Groups); err != nil {
		return err
	}
	switch c.Storage.Kind {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage path is required for kind %q", c.Storage.Kind)
		}
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage dsn is required for kind %q", c.Storage.Kind)
		}
	default:
		return fmt.Errorf("unknown storage kind %q", c.Storage.Kind)
	}
	if _, err := parseDuration(c.Gate.BannerTTL); err != nil {
		return fmt.Errorf("gate bannerTTL: %w", err)
	}
	if _, err := parseDuration(c.Relay.Timeout); err != nil {
		return fmt.Errorf("relay timeout: %w", err)
	}
	return nil
}

// TTL returns the configured banner lifetime, or zero for the default.
func (g Gate) TTL() time.Duration {
	d, _ := parseDuration(g.BannerTTL)
	return d
}

// RequestTimeout returns the configured relay timeout, or zero when unset.
func (r Relay) RequestTimeout() time.Duration {
	d, _ := parseDuration(r.Timeout)
	return d
}

// AccessKey resolves the relay credential through getenv.
func (r Relay) AccessKey(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	return strings.TrimSpace(getenv(r.AccessKeyEnv))
}

// GateOptions converts the gate section into gate options.
func (c Config) GateOptions() []gate.Option {
	return []gate.Option{
		gate.WithField(c.Gate.Field),
		gate.WithNextPath(c.Gate.NextPath),
		gate.WithBannerTTL(c.Gate.TTL()),
		gate.WithMismatchMessage(c.Gate.Message),
	}
}

// OpenBackend opens the configured storage backend. The returned close
// function is never nil.
func (c Config) OpenBackend(ctx context.Context) (store.Backend, func() error, error) {
	noop := func() error { return nil }
	switch c.Storage.Kind {
	case StorageFile:
		backend, err := store.NewFileBackend(c.Storage.Path)
		if err != nil {
			return nil, noop, err
		}
		return backend, noop, nil
	case StorageSQLite:
		backend, err := store.OpenSQLite(ctx, c.Storage.DSN)
		if err != nil {
			return nil, noop, err
		}
		return backend, backend.Close, nil
	case StorageMemory, "":
		return store.NewMemoryBackend(), noop, nil
	default:
		return nil, noop, fmt.Errorf("config: unknown storage kind %q", c.Storage.Kind)
	}
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}
