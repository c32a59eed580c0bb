package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/config"
)

var runFlags struct {
	sharedFlags
	category string
	limit    int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl a category and check the external links of its pages",
	RunE:  runRun,
}

func init() {
	runFlags.register(runCmd)
	f := runCmd.Flags()
	f.StringVar(&runFlags.category, "category", "", "category to crawl (required)")
	f.IntVar(&runFlags.limit, "limit", 0, "max pages to process (0 = all)")

	_ = runCmd.MarkFlagRequired("category")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	runFlags.apply(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.log.Info("run_start",
		zap.String("site", cfg.SiteKey()),
		zap.String("category", runFlags.category),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Bool("talk", cfg.ReportTalk),
	)

	err = a.runWithAPI(ctx, func(ctx context.Context) error {
		pages := a.wiki.CategoryPages(ctx, runFlags.category, runFlags.limit)
		return a.orch.Run(ctx, pages)
	})
	if err != nil {
		return fmt.Errorf("check run: %w", err)
	}
	a.log.Info("run_done", zap.Int("dead_urls", a.hist.Len()))
	return nil
}
