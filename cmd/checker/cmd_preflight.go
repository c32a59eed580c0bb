package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wlbot/weblinkchecker/internal/config"
	"github.com/wlbot/weblinkchecker/internal/exclude"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Validate environment and config before a scheduled run",
	RunE:  runPreflight,
}

func runPreflight(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	failed := false

	fail := func(msg string) { fmt.Fprintln(errOut, "✖", msg); failed = true }
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	cfg := config.FromEnv()

	if strings.TrimSpace(cfg.SiteFamily) == "" || strings.TrimSpace(cfg.SiteLang) == "" {
		fail("SITE_FAMILY/SITE_LANG empty.")
	} else {
		ok("site " + cfg.SiteKey())
	}

	// history dir must be writable or every run loses its state
	if cfg.DatabaseURL == "" {
		probe := filepath.Join(cfg.HistoryDir, ".preflight")
		if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
			fail("HISTORY_DIR not creatable: " + err.Error())
		} else if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			fail("HISTORY_DIR not writable: " + err.Error())
		} else {
			os.Remove(probe)
			ok("HISTORY_DIR writable (" + cfg.HistoryDir + ")")
		}
		warn("DATABASE_URL empty; history goes to the per-site snapshot file.")
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.ExcludeFile != "" {
		if _, err := exclude.Load(cfg.ExcludeFile); err != nil {
			fail("EXCLUDE_FILE invalid: " + err.Error())
		} else {
			ok("EXCLUDE_FILE parses (" + cfg.ExcludeFile + ")")
		}
	}

	if cfg.ReportTalk {
		warn("REPORT_TALK enabled; this run will edit talk pages.")
	}
	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty; no operator notifications.")
	}
	if cfg.APIAddr == "" {
		warn("API_ADDR empty; status API disabled.")
	}

	if failed {
		return fmt.Errorf("preflight failed")
	}
	ok("preflight passed")
	return nil
}
