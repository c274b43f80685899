package download

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/completion"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/credential"
	apphttp "github.com/handiism/problem-archiver/internal/http"
	"github.com/handiism/problem-archiver/internal/media"
	"github.com/handiism/problem-archiver/internal/metrics"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/progress"
	"github.com/handiism/problem-archiver/internal/retry"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a run progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Summary tallies a finished run.
type Summary struct {
	// Total counts every listed item selected for this run.
	Total int
	// Succeeded counts items completed during this run.
	Succeeded int
	// AlreadyDone counts items completed by an earlier run.
	AlreadyDone int
	// Failed counts failed and partially archived items.
	Failed int
	// Skipped counts locked items the credential cannot access.
	Skipped int
	// NotStarted counts items left undispatched after an abort.
	NotStarted int
	// Aborted is true when a fatal error halted the run.
	Aborted bool
	// ProgressFile is where failure details were recorded.
	ProgressFile string
}

// Manager schedules item archiving.
//
// Items are processed in chunks of Settings.Concurrency. Every item in a
// chunk runs concurrently; the next chunk starts only after the whole chunk
// finished and only if no fatal error was seen.
type Manager struct {
	settings  *config.Settings
	source    catalog.Source
	store     *progress.Store
	fs        afero.Fs
	rewriter  *media.Rewriter
	formats   []model.Format
	requested completion.Requested
	retryOpts []retry.Option

	logger     *zap.Logger
	metrics    *metrics.Recorder
	onProgress func(ProgressEvent)

	aborted   atomic.Bool
	fatalOnce sync.Once
	fatalErr  error

	queued    atomic.Int32
	processed atomic.Int32
}

// Option configures a Manager.
type Option func(*Manager)

// WithFs sets the filesystem archive files are written to. Defaults to the
// OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithRewriter sets the media rewriter.
func WithRewriter(r *media.Rewriter) Option {
	return func(m *Manager) { m.rewriter = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records run metrics on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithProgress sets the progress callback. It may be called from several
// goroutines at once.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(m *Manager) { m.onProgress = fn }
}

// WithRetryOptions appends options to every retry executor the manager
// builds.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(m *Manager) { m.retryOpts = append(m.retryOpts, opts...) }
}

// NewManager creates a Manager for one run.
func NewManager(settings *config.Settings, source catalog.Source, store *progress.Store, opts ...Option) (*Manager, error) {
	formats, err := settings.OutputFormats()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		settings:  settings,
		source:    source,
		store:     store,
		fs:        afero.NewOsFs(),
		formats:   formats,
		requested: settings.Requested(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.rewriter == nil {
		httpClient := apphttp.NewClient(apphttp.Options{UserAgent: settings.Catalog.UserAgent})
		m.rewriter = media.NewRewriter(m.fs, httpClient,
			media.WithRetry(m.newRetry("media")),
			media.WithTimeout(settings.Media.Timeout),
			media.WithMetrics(m.metrics),
			media.WithLogger(m.logger),
		)
	}
	return m, nil
}

// Progress returns how many dispatched items finished and how many were
// queued for this run.
func (m *Manager) Progress() (processed, queued int) {
	return int(m.processed.Load()), int(m.queued.Load())
}

// Run archives every pending item.
//
// The returned error is non-nil when the run could not list items or was
// halted by a fatal error; the summary is valid in both cases.
func (m *Manager) Run(ctx context.Context, cred credential.Credential) (Summary, error) {
	started := time.Now()
	summary := Summary{ProgressFile: m.store.Path()}
	defer func() { m.metrics.RunDuration(time.Since(started).Seconds()) }()

	entitlement, err := retry.Do(ctx, m.newRetry("user_status"), func(ctx context.Context) (catalog.Entitlement, error) {
		return m.source.UserStatus(ctx, cred)
	})
	if err != nil {
		return summary, fmt.Errorf("check entitlement: %w", err)
	}
	m.logger.Info("signed in",
		zap.String("username", entitlement.Username),
		zap.Bool("premium", entitlement.Premium),
	)

	items, err := m.listItems(ctx, cred)
	if err != nil {
		return summary, err
	}

	var pending []model.Item
	for _, item := range items {
		summary.Total++
		switch {
		case m.store.IsCompleted(item.ID):
			summary.AlreadyDone++
			m.metrics.Item("already_done")
		case !entitlement.CanAccess(item):
			summary.Skipped++
			m.metrics.Item("skipped")
			m.progress(ProgressEvent{Message: fmt.Sprintf("- %04d %s (locked, skipped)", item.ID, item.Slug), Level: LevelVerbose})
		default:
			pending = append(pending, item)
		}
	}
	m.queued.Store(int32(len(pending)))
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Found %d items: %d to fetch, %d already done, %d skipped",
			summary.Total, len(pending), summary.AlreadyDone, summary.Skipped),
		Level: LevelInfo,
	})

	dispatched := 0
	for start := 0; start < len(pending); start += m.settings.Concurrency {
		if m.aborted.Load() || ctx.Err() != nil {
			break
		}
		end := min(start+m.settings.Concurrency, len(pending))
		chunk := pending[start:end]
		dispatched = end

		reports := make([]ItemReport, len(chunk))
		var g errgroup.Group
		for i, item := range chunk {
			g.Go(func() error {
				reports[i] = m.processItem(ctx, cred, item)
				return nil
			})
		}
		_ = g.Wait()

		for _, r := range reports {
			if r.Status == completion.StatusComplete && r.Err == nil {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
	}
	summary.NotStarted = len(pending) - dispatched
	summary.Aborted = m.aborted.Load()

	if summary.Aborted {
		return summary, m.fatalErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// listItems collects the items selected for this run. A transient listing
// failure restarts the listing from the first page.
func (m *Manager) listItems(ctx context.Context, cred credential.Credential) ([]model.Item, error) {
	items, err := retry.Do(ctx, m.newRetry("list"), func(ctx context.Context) ([]model.Item, error) {
		var items []model.Item
		for item, err := range m.source.ListAll(ctx, cred) {
			if err != nil {
				return nil, err
			}
			if m.settings.ItemID != 0 {
				if item.ID == m.settings.ItemID {
					return []model.Item{item}, nil
				}
				continue
			}
			items = append(items, item)
		}
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if m.settings.ItemID != 0 && len(items) == 0 {
		return nil, fmt.Errorf("item %d: %w", m.settings.ItemID, catalog.ErrNotFound)
	}
	return items, nil
}

// abort records the first fatal error and stops further chunks.
func (m *Manager) abort(err error) {
	m.fatalOnce.Do(func() {
		m.fatalErr = err
		m.aborted.Store(true)
		m.logger.Error("fatal error, finishing in-flight items", zap.Error(err))
		m.progress(ProgressEvent{Message: fmt.Sprintf("Fatal: %v", err), Level: LevelError})
	})
}

// newRetry builds an executor that only retries transient catalog errors.
func (m *Manager) newRetry(operation string) *retry.Executor {
	opts := []retry.Option{
		retry.WithRetryIf(catalog.IsRetryable),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			m.metrics.Retry(operation)
			m.logger.Warn("retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	}
	opts = append(opts, m.retryOpts...)
	return retry.New(m.settings.Retry.MaxAttempts, m.settings.Retry.BaseDelay, opts...)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
