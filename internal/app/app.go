// Package app wires configuration, credentials, the catalog client and the
// progress store into a ready-to-run download.Manager. Both command line
// front ends go through Runner.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/credential"
	"github.com/handiism/problem-archiver/internal/download"
	apphttp "github.com/handiism/problem-archiver/internal/http"
	"github.com/handiism/problem-archiver/internal/logging"
	"github.com/handiism/problem-archiver/internal/metrics"
	"github.com/handiism/problem-archiver/internal/progress"
)

// Runner prepares and executes one archive run.
type Runner struct {
	Settings *config.Settings

	// Logger is tagged with the run id by New.
	Logger *zap.Logger

	Metrics *metrics.Recorder

	// Fs receives the archive and the progress file.
	Fs afero.Fs

	// Credentials defaults to the environment provider named by
	// Settings.Auth.
	Credentials credential.Provider

	RunID string
}

// New builds a Runner with a fresh run id and metrics registry.
func New(settings *config.Settings, logger *zap.Logger) *Runner {
	runID := uuid.NewString()
	return &Runner{
		Settings: settings,
		Logger:   logging.OrNop(logger).With(zap.String("run_id", runID)),
		Metrics:  metrics.New(),
		Fs:       afero.NewOsFs(),
		Credentials: credential.NewEnvProvider(
			settings.Auth.TokenEnv,
			settings.Auth.CSRFEnv,
			settings.Auth.EnvFile,
		),
		RunID: runID,
	}
}

// OpenStore loads the progress store under Settings.OutputDir.
func (r *Runner) OpenStore() (*progress.Store, error) {
	store := progress.NewStore(r.Fs, r.Settings.OutputDir)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Prepare acquires a credential and builds the manager for this run.
func (r *Runner) Prepare(ctx context.Context, onProgress func(download.ProgressEvent)) (*download.Manager, credential.Credential, error) {
	cred, err := r.Credentials.Acquire(ctx)
	if err != nil {
		return nil, credential.Credential{}, fmt.Errorf("acquire credential: %w", err)
	}
	if !r.Credentials.IsValid(ctx, cred) {
		return nil, credential.Credential{}, &catalog.AuthError{Reason: "credential rejected by provider", Cause: credential.ErrMissing}
	}

	store, err := r.OpenStore()
	if err != nil {
		return nil, credential.Credential{}, err
	}

	httpClient := apphttp.NewClient(apphttp.Options{
		UserAgent: r.Settings.Catalog.UserAgent,
		Timeout:   r.Settings.Catalog.Timeout,
	})
	source := catalog.NewClient(httpClient, catalog.Config{
		Endpoint:      r.Settings.Catalog.Endpoint,
		PageSize:      r.Settings.Catalog.PageSize,
		SessionCookie: r.Settings.Catalog.SessionCookie,
	}, r.Logger)

	m, err := download.NewManager(r.Settings, source, store,
		download.WithFs(r.Fs),
		download.WithLogger(r.Logger),
		download.WithMetrics(r.Metrics),
		download.WithProgress(onProgress),
	)
	if err != nil {
		return nil, credential.Credential{}, err
	}
	return m, cred, nil
}

// Execute runs m and exports the run metrics. Metrics are written even when
// the run fails.
func (r *Runner) Execute(ctx context.Context, m *download.Manager, cred credential.Credential) (download.Summary, error) {
	summary, runErr := m.Run(ctx, cred)

	if err := r.Metrics.WriteTextfile(r.Settings.Metrics.Textfile); err != nil {
		r.Logger.Warn("metrics export failed", zap.Error(err))
	}

	r.Logger.Info("run finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("already_done", summary.AlreadyDone),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("not_started", summary.NotStarted),
		zap.Bool("aborted", summary.Aborted),
		zap.Error(runErr),
	)
	return summary, runErr
}
