package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jadenj13/notesync/internals/config"
	"github.com/jadenj13/notesync/internals/git"
	"github.com/jadenj13/notesync/internals/notify"
	"github.com/jadenj13/notesync/internals/syncer"
)

type options struct {
	directory  string
	vault      string
	platform   string
	configPath string
	dryRun     bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "notesync",
		Short:         "Convert Obsidian notes into GitHub repositories and issues",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.directory, "directory", "d", "", "Directory containing git-prefixed markdown files (default: examples)")
	f.StringVar(&opts.vault, "obsidian-vault", "", "Path to your Obsidian vault directory (overrides --directory)")
	f.StringVar(&opts.platform, "platform", "", "Issue tracker to sync to: github or gitlab")
	f.StringVar(&opts.configPath, "config", "", "Config file (default: $NOTESYNC_CONFIG or notesync.toml in the user config dir)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Parse notes and report tickets without calling the tracker")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug detail")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.OutOrStdout(), &slog.HandlerOptions{
		Level: level,
	}))

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn("ignoring .env", "err", err)
	}

	path := opts.configPath
	if path == "" {
		if p, err := config.Path(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.directory != "" {
		cfg.Directory = opts.directory
	}
	if opts.vault != "" {
		cfg.Directory = opts.vault
	}
	if opts.platform != "" {
		cfg.Platform = opts.platform
	}
	dir := config.ExpandPath(cfg.Directory)

	var tracker git.Tracker
	if !opts.dryRun {
		platform, err := cfg.RequireToken()
		if err != nil {
			return err
		}
		factory := git.NewFactory(cfg.GitHub.Token, cfg.GitLab.Token,
			git.WithGitHubBaseURL(cfg.GitHub.BaseURL),
			git.WithGitLabBaseURL(cfg.GitLab.BaseURL),
		)
		tracker, err = factory.TrackerFor(ctx, platform)
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		log.Info("Successfully authenticated", "user", tracker.Login(), "platform", platform)
	}

	s := syncer.NewSyncer(tracker, log,
		syncer.WithLabelColor(cfg.LabelColor),
		syncer.WithDryRun(opts.dryRun),
	)

	log.Info("Processing markdown files", "dir", dir)
	report, err := s.SyncDir(ctx, dir)
	if err != nil {
		// Only credential problems change the exit status.
		log.Error("sync stopped", "dir", dir, "err", err)
	}

	totals := report.Totals()
	log.Info("Sync finished",
		"files", len(report.Files),
		"created", totals[syncer.StatusCreated],
		"skipped", totals[syncer.StatusSkipped],
		"failed", totals[syncer.StatusFailed],
	)

	if cfg.SlackEnabled() {
		var notifier notify.Notifier = notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)
		if err := notifier.NotifyReport(ctx, report); err != nil {
			log.Warn("failed to post slack summary", "err", err)
		}
	}
	return nil
}
