package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/assistant"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/db"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/delivery"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/feed"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/ops"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/webhook"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TreinoAI backend",
		Long:  "Starts the webhook endpoint, the ops API, the notification feed, and the daily digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "treinoai.yaml", "path to TreinoAI config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	// Notification feed over the watched tables.
	poller, err := feed.NewPoller(feed.PollerOpts{
		DB:           gormDB,
		PollInterval: time.Duration(cfg.Feed.PollIntervalSec) * time.Second,
	})
	if err != nil {
		return err
	}
	manager, err := feed.NewManager(feed.ManagerOpts{
		Source: poller,
		Ring:   feed.NewRing(cfg.Feed.RingCapacity),
	})
	if err != nil {
		return err
	}
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start notification feed: %w", err)
	}
	defer manager.Close()

	// Reply generation and outbound delivery.
	generator, err := assistant.NewGemini(ctx, cfg.Assistant)
	if err != nil {
		return err
	}
	dispatcher, err := delivery.NewHTTPDispatcher(cfg.Outbound)
	if err != nil {
		return err
	}
	tracker, err := delivery.NewTracker(gormDB)
	if err != nil {
		return err
	}

	webhookSrv, err := webhook.NewServer(webhook.ServerOpts{
		DB:           gormDB,
		Generator:    generator,
		Dispatcher:   dispatcher,
		Tracker:      tracker,
		FallbackText: cfg.Assistant.FallbackText,
		HistoryLimit: cfg.Assistant.HistoryTurns * 2, // user + ai turn per exchange
	})
	if err != nil {
		return err
	}

	if cfg.Digest.Enabled {
		go ops.RunDigestLoop(ctx, ops.DigestOpts{
			DB:         gormDB,
			Cron:       cfg.Digest.Cron,
			Dispatcher: dispatcher,
			Recipient:  cfg.Digest.Recipient,
		})
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- webhookSrv.Start(ctx, cfg.Server.WebhookPort, out)
	}()
	go func() {
		errCh <- ops.Start(ctx, ops.StartOpts{
			DB:   gormDB,
			Feed: manager,
			Port: cfg.Server.OpsPort,
			Out:  out,
		})
	}()

	// First server error (or clean shutdown) wins; the shared context tears
	// the other one down.
	err = <-errCh
	cancel()
	if second := <-errCh; err == nil {
		err = second
	}
	if err != nil {
		log.Printf("serve: %v", err)
	}
	return err
}
