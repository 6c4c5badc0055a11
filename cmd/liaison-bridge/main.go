// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/command"
	"github.com/liaisonhq/liaison/lib/config"
	"github.com/liaisonhq/liaison/lib/credential"
	"github.com/liaisonhq/liaison/lib/issuestore"
	"github.com/liaisonhq/liaison/lib/llm"
	"github.com/liaisonhq/liaison/lib/roster"
	"github.com/liaisonhq/liaison/lib/service"
	"github.com/liaisonhq/liaison/lib/tracker"
	"github.com/liaisonhq/liaison/lib/version"
	"github.com/liaisonhq/liaison/messaging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "/etc/liaison/liaison.yaml", "path to the bridge configuration file")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("liaison-bridge %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	credentials, err := credential.Load(cfg.Credentials)
	if err != nil {
		return err
	}
	defer credentials.Close()

	clk := clock.Real()

	// Persistence.
	store, err := issuestore.Open(issuestore.Config{
		Path:         cfg.Store.Path,
		HistoryLimit: cfg.History.Limit,
		HistoryTTL:   time.Duration(cfg.History.TTL),
		Clock:        clk,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	// Identity: directory from config, resolver over the live user
	// cache.
	directory, err := roster.NewDirectory(cfg.People)
	if err != nil {
		return err
	}

	trackerClient, err := tracker.NewClient(tracker.Config{
		Endpoint: cfg.Tracker.Endpoint,
		APIKey:   credentials.TrackerAPIKey,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	userCache := tracker.NewUserCache(tracker.UserCacheConfig{
		Source: trackerClient,
		Clock:  clk,
		Logger: logger,
	})
	resolver := roster.NewResolver(roster.ResolverConfig{
		Directory: directory,
		Users:     userCache,
		Logger:    logger,
	})

	team, err := trackerClient.Team(ctx, cfg.Tracker.Team)
	if err != nil {
		return fmt.Errorf("resolving tracker team: %w", err)
	}
	logger.Info("tracker team resolved", "team_id", team.ID, "team_key", team.Key)

	// Oracle.
	provider, err := newProvider(cfg.Oracle, credentials)
	if err != nil {
		return err
	}
	interpreter := command.NewInterpreter(command.InterpreterConfig{
		Provider:  provider,
		Model:     cfg.Oracle.Model,
		Directory: directory,
		Resolver:  resolver,
		MaxTokens: cfg.Oracle.MaxTokens,
		Logger:    logger,
	})

	// Chat session: resume by token when provisioned, otherwise log
	// in with the password. Both paths validate through the bring-up
	// backoff.
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Chat.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	var session *messaging.DirectSession
	if credentials.MatrixToken != nil {
		session, err = client.SessionFromToken(cfg.BotUserID(), credentials.MatrixToken.String())
	} else {
		session, err = client.Login(ctx, cfg.BotUserID().Localpart(), credentials.MatrixPassword)
	}
	if err != nil {
		return fmt.Errorf("creating matrix session: %w", err)
	}
	defer session.Close()

	if err := connectWithBackoff(ctx, session, clk, logger); err != nil {
		return err
	}

	// Reconciler: seeded before any webhook can arrive.
	reconciler := NewReconciler(store, session, logger)
	if err := reconciler.Seed(ctx); err != nil {
		return err
	}

	dispatcher := NewDispatcher(DispatcherConfig{
		Tracker:  trackerClient,
		Resolver: resolver,
		Store:    store,
		Team:     *team,
		Clock:    clk,
		Logger:   logger,
		Forget:   reconciler.Forget,
	})

	bot := NewBot(BotConfig{
		Session:     session,
		Interpreter: interpreter,
		Dispatcher:  dispatcher,
		Store:       store,
		Logger:      logger,
	})

	// Webhook server.
	webhook := NewWebhookHandler(credentials.WebhookSecret.Bytes(), clk, logger, reconciler.Enqueue)
	mux := http.NewServeMux()
	mux.Handle("POST /webhook", webhook)
	mux.HandleFunc("GET /healthz", func(writer http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(writer, "liaison-bridge %s\n", version.Info())
	})
	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.Webhook.Listen,
		Handler: mux,
		Logger:  logger,
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx)
	}()
	go reconciler.Run(ctx)

	// Initial sync builds room state without replaying old messages,
	// then the incremental loop carries the bridge until shutdown.
	filter := bot.SyncFilter()
	sinceToken, initial, err := service.InitialSync(ctx, session, filter)
	if err != nil {
		return err
	}
	bot.HandleInitial(ctx, initial)
	logger.Info("bridge ready",
		"user_id", session.UserID(),
		"rooms", len(initial.Rooms.Join),
		"webhook", cfg.Webhook.Listen,
	)

	service.RunSyncLoop(ctx, session, service.SyncConfig{Filter: filter}, sinceToken, bot.HandleSync, clk, logger)

	stop()
	if err := <-serverDone; err != nil {
		return err
	}
	return nil
}

// newProvider builds the configured oracle backend.
func newProvider(oracle config.OracleConfig, credentials *credential.Credentials) (llm.Provider, error) {
	switch oracle.Provider {
	case "anthropic":
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:  credentials.OracleAPIKey,
			BaseURL: oracle.BaseURL,
		})
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  credentials.OracleAPIKey,
			BaseURL: oracle.BaseURL,
		})
	default:
		return nil, fmt.Errorf("oracle provider %q is not supported", oracle.Provider)
	}
}
