package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/quickpanel/internal/api"
	"github.com/mattjoyce/quickpanel/internal/audit"
	"github.com/mattjoyce/quickpanel/internal/auth"
	"github.com/mattjoyce/quickpanel/internal/config"
	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/lock"
	"github.com/mattjoyce/quickpanel/internal/log"
	"github.com/mattjoyce/quickpanel/internal/queue"
	"github.com/mattjoyce/quickpanel/internal/router"
	"github.com/mattjoyce/quickpanel/internal/session"
	"github.com/mattjoyce/quickpanel/internal/storage"
	"github.com/mattjoyce/quickpanel/internal/tui/watch"
	"github.com/mattjoyce/quickpanel/internal/webhook"
)

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

// buildRouter registers every configured dialog, in name order, and wires the
// sequential ones to their queues.
func buildRouter(cfg *config.Config, hub events.Publisher, sess *session.Session) (*router.Router, error) {
	reg := router.NewRegistry()
	for _, name := range cfg.DialogNames() {
		dc := cfg.Dialogs[name]
		logger := log.Get()

		newWindow := func() dialog.Handle {
			return dialog.NewWindow(name, hub, logger, dialog.WithSize(dc.Width, dc.Height))
		}
		var h dialog.Handle
		if dc.Lazy {
			h = dialog.NewLazy(newWindow)
		} else {
			h = newWindow()
		}

		log.WithDialog(name).Debug("registering dialog", "kind", dc.Kind, "lazy", dc.Lazy)
		if dc.Kind != config.KindSequential {
			if err := reg.Direct(name, h); err != nil {
				return nil, err
			}
			continue
		}

		opts := []queue.Option{
			queue.WithDelay(cfg.Queue.NextDialogTimeout),
			queue.WithPublisher(hub),
			queue.WithLogger(logger),
		}
		if dc.ClearsOnKeyOut() {
			opts = append(opts, queue.WithClearOnKeyOut(sess))
		}
		if err := reg.Sequential(name, h, queue.New(name, h, opts...)); err != nil {
			return nil, err
		}
	}

	return router.New(reg,
		router.WithStrict(cfg.DialogsStrict),
		router.WithCloseOnKeyOut(cfg.Session.CloseOnKeyOut...),
		router.WithSession(sess),
		router.WithPublisher(hub),
		router.WithLogger(log.WithComponent("router")),
	), nil
}

func apiConfigFrom(cfg *config.Config) api.Config {
	tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
	for _, t := range cfg.API.Auth.Tokens {
		tokens = append(tokens, auth.TokenConfig{
			Token:  t.Token,
			Scopes: t.Scopes,
		})
	}
	return api.Config{
		Listen: cfg.API.Listen,
		APIKey: cfg.API.Auth.APIKey,
		Tokens: tokens,
	}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	dbPath := fs.String("db", "", "Override state.path (dialog log database)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.Path == "" {
		fmt.Fprintln(os.Stderr, "No config found, using built-in dialog set")
	}
	if *dbPath != "" {
		cfg.State.Path = *dbPath
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("quickpanel starting",
		"version", version,
		"config", cfg.Path,
		"fingerprint", config.ShortFingerprint(cfg.Fingerprint),
	)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.Acquire(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()

	hub := events.NewHub(256)
	store := audit.NewStore(db)
	recorderDone := audit.NewRecorder(store, hub, cfg.State.LogRetention, log.WithComponent("audit")).Start(ctx)

	sess := session.New(hub, log.WithComponent("session"))
	rt, err := buildRouter(cfg, hub, sess)
	if err != nil {
		logger.Error("failed to register dialogs", "error", err)
		return 1
	}
	defer rt.Stop()
	logger.Info("dialogs registered", "count", rt.Registry().Len(), "strict", cfg.DialogsStrict)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	errCh := make(chan error, 2)

	if cfg.API.Enabled {
		apiServer := api.New(apiConfigFrom(cfg), rt, sess, store, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	} else {
		logger.Warn("API server disabled, dialogs can only be driven in-process")
	}

	if cfg.Webhooks != nil && len(cfg.Webhooks.Endpoints) > 0 {
		webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhooks)
		if err != nil {
			logger.Error("failed to configure webhooks", "error", err)
			return 1
		}
		webhookServer := webhook.New(webhookConfig, rt, log.WithComponent("webhook"))
		go func() {
			if err := webhookServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("webhook: %w", err)
			}
		}()
		logger.Info("webhook server enabled", "listen", webhookConfig.Listen, "endpoints", len(webhookConfig.Endpoints))
	}

	logger.Info("quickpanel running (press Ctrl+C to stop)")

	code := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		code = 1
	}
	cancel()
	<-recorderDone

	logger.Info("quickpanel stopped")
	return code
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	remote := addRemoteFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	// The TUI owns the terminal; keep library logging out of it.
	slog.SetDefault(log.Discard())

	p := tea.NewProgram(watch.New(remote.url, remote.key))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
