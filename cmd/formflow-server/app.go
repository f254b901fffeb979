package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/goliatone/go-formflow/components/accessgate"
	"github.com/goliatone/go-formflow/components/submission"
	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/document"
	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/gate"
	"github.com/goliatone/go-formflow/pkg/infopage"
	"github.com/goliatone/go-formflow/pkg/relay"
	"github.com/goliatone/go-formflow/pkg/snapshot"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/validation"
)

const infoPagePath = "/account"

type app struct {
	Handler         http.Handler
	Close           func() error
	RelayConfigured bool
	Routes          []string
}

func newApp(ctx context.Context, cfg config.Config, getenv func(string) string) (*app, error) {
	backend, closeFn, err := cfg.OpenBackend(ctx)
	if err != nil {
		return nil, err
	}
	st := store.New(backend, store.WithKey(cfg.Storage.Key))

	relayOpts := []relay.Option{
		relay.WithEndpoint(cfg.Relay.Endpoint),
		relay.WithSubject(cfg.Relay.Subject),
		relay.WithAccessKey(cfg.Relay.AccessKey(getenv)),
		relay.WithGroups(cfg.Groups...),
	}
	if timeout := cfg.Relay.RequestTimeout(); timeout > 0 {
		relayOpts = append(relayOpts, relay.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	client := relay.New(relayOpts...)

	f := flow.New(
		flow.WithGroups(cfg.Groups...),
		flow.WithValidator(validation.New(validation.WithGroups(cfg.Groups...))),
		flow.WithBuilder(snapshot.NewBuilder(snapshot.WithGroups(cfg.Groups...))),
		flow.WithRenderer(document.NewPDFRenderer(document.WithTitle(cfg.Document.Title))),
		flow.WithSaver(st),
		flow.WithSender(client),
		flow.WithEvents(events.SinkFunc(logEvent)),
		flow.WithLogger(flow.LoggerFunc(logFlow)),
		flow.WithNextPath(cfg.NextPath),
	)

	mux := http.NewServeMux()
	out := &app{Handler: mux, Close: closeFn, RelayConfigured: client.Configured()}

	submitRoute, err := submission.New(
		submission.WithDefinition(cfg.Form),
		submission.WithFlow(f),
	).RegisterRoutes(mux, "/")
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	g := gate.New(st, cfg.GateOptions()...)
	accessRoute, err := accessgate.New(
		accessgate.WithGate(g),
		accessgate.WithFieldParam(g.Field()),
	).RegisterRoutes(mux, "/")
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	out.Routes = []string{submitRoute, accessRoute}

	if cfg.InfoPage != nil {
		renderer, err := infopage.NewRenderer()
		if err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("info page: %w", err)
		}
		mux.Handle(infoPagePath, infopage.Handler(*cfg.InfoPage, st, renderer))
		out.Routes = append(out.Routes, infoPagePath)
	}

	return out, nil
}

func logEvent(_ context.Context, event events.Event) {
	log.Printf("event %s: %+v", event.Name, event.Detail)
}

func logFlow(event flow.LogEvent) {
	log.Printf("[%s] %s %v", event.Level, event.Message, event.Fields)
}
