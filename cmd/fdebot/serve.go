package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nixo/fdebot/internal/ai"
	"github.com/nixo/fdebot/internal/api"
	"github.com/nixo/fdebot/internal/config"
	"github.com/nixo/fdebot/internal/db"
	"github.com/nixo/fdebot/internal/directory"
	"github.com/nixo/fdebot/internal/grouping"
	"github.com/nixo/fdebot/internal/ingest"
	"github.com/nixo/fdebot/internal/notify"
	"github.com/nixo/fdebot/internal/store"
	"github.com/nixo/fdebot/internal/sweep"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fdebot server",
		Long:  "Starts the Slack events webhook, the ticket API and the cache sweeper. Blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fdebot.yaml", "path to fdebot config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required to serve")
	}

	gormDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	st := store.New(gormDB)

	aiService, err := ai.NewService(cfg.AI)
	if err != nil {
		return err
	}

	vectors := grouping.NewVectorCache()
	embeds := grouping.NewTextEmbeddingCache(aiService)
	matcher := grouping.NewLinearMatcher(vectors, cfg.Grouping.Thresholds)
	engine := grouping.NewEngine(st, embeds, matcher, cfg.Window())

	hub := notify.NewHub()
	processor := ingest.New(st, aiService, engine, hub)

	var dir *directory.Directory
	if cfg.Slack.BotToken != "" {
		dir = directory.NewFromToken(cfg.Slack.BotToken)
	}

	sweeper, err := sweep.New(cfg.SweepEvery(), vectors, embeds)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()
	fmt.Fprintf(out, "Cache sweep every %s\n", cfg.SweepEvery())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Start(ctx, api.ServerOpts{
		Store:         st,
		Processor:     processor,
		Hub:           hub,
		Directory:     dir,
		SigningSecret: cfg.Slack.SigningSecret,
		Port:          cfg.Server.Port,
		Out:           out,
	})
}
