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

var resumeFlags sharedFlags

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Re-check only the URLs already known dead, without crawling",
	RunE:  runResume,
}

func init() {
	resumeFlags.register(resumeCmd)
}

func runResume(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	resumeFlags.apply(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.log.Info("resume_run_start", zap.String("site", cfg.SiteKey()))

	if err := a.runWithAPI(ctx, a.orch.Resume); err != nil {
		return fmt.Errorf("resume run: %w", err)
	}
	a.log.Info("resume_run_done", zap.Int("dead_urls", a.hist.Len()))
	return nil
}
