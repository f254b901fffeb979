package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/gate"
	"github.com/goliatone/go-formflow/pkg/store"
)

func main() {
	configPath := flag.String("config", "formflow.yaml", "flow configuration file (YAML or JSON)")
	identifier := flag.String("id", "", "identifier to check (prompted when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Kind == config.StorageMemory {
		log.Fatalf("storage kind %q keeps no data between processes; configure file or sqlite", cfg.Storage.Kind)
	}

	ctx := context.Background()
	backend, closeFn, err := cfg.OpenBackend(ctx)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeFn()

	g := gate.New(store.New(backend, store.WithKey(cfg.Storage.Key)), cfg.GateOptions()...)

	var prompter Prompter = surveyPrompter{}
	if *identifier != "" {
		prompter = fixedPrompter{value: *identifier}
	}

	allowed, err := run(ctx, g, prompter, os.Stdout)
	if err != nil {
		log.Fatalf("Gate check failed: %v", err)
	}
	if !allowed {
		os.Exit(1)
	}
}

// run prompts until the identifier matches or the user stops retrying.
func run(ctx context.Context, g *gate.Gate, p Prompter, out io.Writer) (bool, error) {
	for {
		entered, err := p.Input(ctx, fmt.Sprintf("Enter %s:", g.Field()))
		if err != nil {
			return false, err
		}

		decision, err := g.Authorize(ctx, entered)
		if err != nil {
			return false, err
		}
		if decision.Allowed {
			fmt.Fprintf(out, "Access granted, continue to %s\n", decision.Redirect)
			return true, nil
		}

		if decision.Banner != nil {
			fmt.Fprintf(out, "%s (shown for %s)\n", decision.Banner.Message, decision.Banner.TTL)
		}
		again, err := p.Confirm(ctx, "Try again?")
		if err != nil {
			return false, err
		}
		if !again {
			return false, nil
		}
	}
}
