package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/app"
	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/download"
	"github.com/handiism/problem-archiver/internal/logging"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8B500"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		if catalog.IsFatal(err) {
			fmt.Fprintln(os.Stderr, warningStyle.Render("The session was rejected. Sign in again and export a fresh token."))
		}
		os.Exit(1)
	}
}

type rootOptions struct {
	v          *viper.Viper
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.NewViper()}
	defaults := config.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "archiver",
		Short: "Archive a problem catalog to disk.",
		Long: `archiver downloads every problem of the catalog with its code templates,
community answers and official answer. Interrupted runs resume where they
stopped; finished problems are never fetched twice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runArchive(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	pf.String("output", defaults.OutputDir, "archive directory")
	pf.Bool("dev", false, "development logging")

	f := cmd.Flags()
	f.Int("item", 0, "archive a single item by id")
	f.StringSlice("formats", defaults.Formats, "description formats: structured, lightweight, raw")
	f.Bool("templates", defaults.FetchTemplates, "fetch code templates")
	f.Bool("community", defaults.FetchCommunityAnswers, "fetch community answers")
	f.Bool("official", defaults.FetchOfficialAnswer, "fetch the official answer")
	f.Int("concurrency", defaults.Concurrency, "items fetched at once")
	f.String("metrics-textfile", "", "write run metrics to this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show per-item detail")

	bindings := map[string]string{
		"output_dir":              "output",
		"logging.development":     "dev",
		"item_id":                 "item",
		"formats":                 "formats",
		"fetch_templates":         "templates",
		"fetch_community_answers": "community",
		"fetch_official_answer":   "official",
		"concurrency":             "concurrency",
		"metrics.textfile":        "metrics-textfile",
	}
	for key, name := range bindings {
		flag := f.Lookup(name)
		if flag == nil {
			flag = pf.Lookup(name)
		}
		_ = opts.v.BindPFlag(key, flag)
	}

	cmd.AddCommand(newStatusCmd(opts))
	return cmd
}

func (o *rootOptions) load() (*config.Settings, *zap.Logger, error) {
	settings, err := config.Load(o.v, o.configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(settings.Logging.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return settings, logger, nil
}

func runArchive(cmd *cobra.Command, opts *rootOptions) error {
	settings, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Problem Archiver"))
	fmt.Fprintln(out, dimStyle.Render("Output: "+settings.OutputDir))
	fmt.Fprintln(out)

	runner := app.New(settings, logger)
	m, cred, err := runner.Prepare(cmd.Context(), func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !opts.verbose {
			return
		}
		fmt.Fprintln(out, renderEvent(event))
	})
	if err != nil {
		return err
	}

	summary, err := runner.Execute(cmd.Context(), m, cred)
	printSummary(cmd, summary)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, warningStyle.Render("Interrupted. Run again to resume."))
	}
	return err
}

func renderEvent(event download.ProgressEvent) string {
	switch event.Level {
	case download.LevelError:
		return errorStyle.Render(event.Message)
	case download.LevelWarning:
		return warningStyle.Render(event.Message)
	case download.LevelSuccess:
		return successStyle.Render(event.Message)
	case download.LevelInfo:
		return infoStyle.Render(event.Message)
	default:
		return dimStyle.Render(event.Message)
	}
}

func printSummary(cmd *cobra.Command, s download.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Summary"))
	fmt.Fprintf(out, "  total:        %d\n", s.Total)
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("  succeeded:    %d", s.Succeeded)))
	fmt.Fprintf(out, "  already done: %d\n", s.AlreadyDone)
	if s.Failed > 0 {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("  failed:       %d", s.Failed)))
	} else {
		fmt.Fprintf(out, "  failed:       %d\n", s.Failed)
	}
	fmt.Fprintf(out, "  skipped:      %d\n", s.Skipped)
	if s.NotStarted > 0 {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("  not started:  %d", s.NotStarted)))
	}
	if s.ProgressFile != "" {
		fmt.Fprintln(out, dimStyle.Render("Failure details: "+s.ProgressFile))
	}
}
