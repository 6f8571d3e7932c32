package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/pcforge/audit"
	"github.com/c360studio/pcforge/config"
	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/bundle"
	"github.com/c360studio/pcforge/pc/document"
	"github.com/c360studio/pcforge/pc/eval"
	"github.com/c360studio/pcforge/storage"
	"github.com/c360studio/pcforge/transport"
	"github.com/c360studio/semstreams/natsclient"
)

// App wires together config, the source bundle, the watcher, and the
// transport server into one running process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream
	natsClient     *natsclient.Client

	bundle    *bundle.Bundle
	evaluator *eval.Evaluator
	log       storage.Log
	publisher *audit.Publisher
	server    *transport.Server
	watcher   *document.Watcher

	docs map[string]*document.Document
}

// NewApp creates an application instance. Components are started lazily
// in Start.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		bundle: bundle.New(bundle.OSFileSystem{}),
		docs:   make(map[string]*document.Document),
	}, nil
}

// Start connects NATS, seeds the bundle from disk, starts the watcher, and
// registers every discovered document with the transport server.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(ctx); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	fileLog, err := storage.NewFileLog(filepath.Join(a.cfg.Source.Root, ".pcforge", "log"))
	if err != nil {
		return fmt.Errorf("open update log: %w", err)
	}
	a.log = fileLog

	a.evaluator = eval.New(a.bundle, a.cfg.Dev.Enabled)
	a.publisher = audit.NewPublisher(a.natsClient, "pcforge.watcher")
	a.server = transport.NewServer(a.natsClient, a.evaluator, a.publisher, a.logger)

	if err := a.loadSources(); err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	watcher, err := document.NewWatcher(document.WatcherConfig{
		Root:          a.cfg.Source.Root,
		DebounceDelay: a.cfg.Watch.DebounceDelay,
		Logger:        a.logger,
		ExcludeDirs:   a.cfg.Watch.ExcludeDirs,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	a.watcher = watcher

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	go a.watchLoop(ctx)

	a.logger.Info("pcforge started", slog.String("source_root", a.cfg.Source.Root))
	return nil
}

// loadSources discovers and parses every .pc file under the configured
// source root, registering each with the bundle and the transport server.
func (a *App) loadSources() error {
	paths, err := bundle.DiscoverSources(a.cfg.Source.Root)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}

	for _, path := range paths {
		if err := a.loadOne(path); err != nil {
			a.logger.Warn("failed to load source", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	if err := a.bundle.BuildDependencies(); err != nil {
		a.logger.Warn("bundle dependency graph incomplete", slog.String("error", err.Error()))
	}
	return nil
}

func (a *App) loadOne(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := document.New(path, string(src), a.bundle)
	if err != nil {
		return err
	}
	doc.AttachLog(a.log)
	a.docs[path] = doc

	return a.server.Serve(context.Background(), doc, firstPublicComponentName(path, a.bundle))
}

// firstPublicComponentName picks the component a freshly-loaded document's
// preview subject defaults to, by convention the first public component
// declared in its own file (an embedder normally names the component it
// wants explicitly via MutationRequest.Component; this is only a sane
// default for the watcher-driven path).
func firstPublicComponentName(path string, b *bundle.Bundle) string {
	doc, ok := b.Document(path)
	if !ok {
		return ""
	}

	var firstAny string
	for _, decl := range doc.Declarations {
		c, ok := decl.(*ast.Component)
		if !ok {
			continue
		}
		if firstAny == "" {
			firstAny = c.Name
		}
		if c.Public {
			return c.Name
		}
	}
	return firstAny
}

func (a *App) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.watcher.Events():
			if !ok {
				return
			}
			a.handleWatchEvent(ctx, ev)
		}
	}
}

func (a *App) handleWatchEvent(ctx context.Context, ev document.WatchEvent) {
	if ev.Operation == document.OpDelete {
		delete(a.docs, ev.Path)
		return
	}

	src, err := os.ReadFile(ev.Path)
	if err != nil {
		a.logger.Warn("re-read changed source failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		return
	}

	doc, ok := a.docs[ev.Path]
	if !ok {
		if err := a.loadOne(ev.Path); err != nil {
			a.logger.Warn("load new source failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		}
		return
	}

	if err := doc.ReplaceAll(string(src)); err != nil {
		a.logger.Warn("apply watcher change failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		return
	}

	comp := firstPublicComponentName(ev.Path, a.bundle)
	patches, err := doc.Evaluate(a.evaluator, comp, nil, nil)
	if err != nil {
		a.logger.Warn("re-evaluate after watcher change failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
		return
	}
	if err := a.server.PublishPreview(ctx, ev.Path, patches); err != nil {
		a.logger.Warn("publish preview after watcher change failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
	}
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Info("connecting to NATS", slog.String("url", a.cfg.NATS.URL))
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		a.logger.Info("starting embedded NATS server")
		opts := &server.Options{
			Port:      -1,
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}
		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	nc, err := natsclient.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create nats client: %w", err)
	}
	a.natsClient = nc

	return nil
}

// Shutdown gracefully stops the watcher, transport subscriptions, and NATS
// connection.
func (a *App) Shutdown(_ time.Duration) {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.server != nil {
		_ = a.server.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
	a.logger.Info("pcforge stopped")
}
