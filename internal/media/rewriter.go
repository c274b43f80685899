package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	ioutils "github.com/handiism/problem-archiver/internal/io"
	"github.com/handiism/problem-archiver/internal/metrics"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/retry"
)

// DefaultTimeout bounds a single media download attempt.
const DefaultTimeout = 10 * time.Second

// defaultExtension is used when neither the URL nor the bytes reveal a type.
const defaultExtension = ".png"

// Downloader fetches a remote file into memory.
type Downloader interface {
	DownloadBytes(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Rewriter downloads embedded media and rewrites references to local paths.
type Rewriter struct {
	fs         afero.Fs
	downloader Downloader
	retry      *retry.Executor
	timeout    time.Duration
	metrics    *metrics.Recorder
	logger     *zap.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithRetry sets the executor wrapping each download.
func WithRetry(e *retry.Executor) Option {
	return func(r *Rewriter) { r.retry = e }
}

// WithTimeout sets the per-attempt download timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Rewriter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics records download results on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Rewriter) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRewriter creates a Rewriter writing into fs.
func NewRewriter(fs afero.Fs, downloader Downloader, opts ...Option) *Rewriter {
	r := &Rewriter{
		fs:         fs,
		downloader: downloader,
		retry:      retry.New(retry.DefaultMaxAttempts, retry.DefaultBaseDelay),
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite localises the media of doc.
//
// Each distinct remote URL is downloaded once and written to
// mediaDir/<index><ext>. The returned mapping sends every URL to its local
// path (relativePrefix/<index><ext>), or to itself when the download failed.
// The returned document has every occurrence rewritten and Media populated.
func (r *Rewriter) Rewrite(
	ctx context.Context,
	doc model.Document,
	mediaDir string,
	relativePrefix string,
) (model.Document, map[string]string) {
	refs := Extract(doc.Body)
	mapping := make(map[string]string, len(refs))
	for _, ref := range refs {
		mapping[ref.URL] = r.localise(ctx, ref, mediaDir, relativePrefix)
	}

	return model.Document{
		Body:  Substitute(doc.Body, mapping),
		Media: refs,
	}, mapping
}

func (r *Rewriter) localise(ctx context.Context, ref model.MediaRef, mediaDir, relativePrefix string) string {
	data, err := retry.Do(ctx, r.retry, func(ctx context.Context) ([]byte, error) {
		return r.downloader.DownloadBytes(ctx, ref.URL, r.timeout)
	})
	if err != nil {
		r.metrics.Media(metrics.ResultError)
		r.logger.Warn("media download failed, keeping remote reference",
			zap.String("url", ref.URL),
			zap.Error(err),
		)
		return ref.URL
	}

	name := fmt.Sprintf("%d%s", ref.Index, extensionFor(ref.URL, data))
	if err := ioutils.WriteFile(r.fs, filepath.Join(mediaDir, name), data); err != nil {
		r.metrics.Media(metrics.ResultError)
		r.logger.Warn("media write failed, keeping remote reference",
			zap.String("url", ref.URL),
			zap.Error(err),
		)
		return ref.URL
	}

	r.metrics.Media(metrics.ResultOK)
	return path.Join(relativePrefix, name)
}

// extensionFor takes the extension from the URL's last path segment when it
// has one, then falls back to sniffing the bytes, then to .png.
func extensionFor(rawURL string, data []byte) string {
	if u, err := url.Parse(rawURL); err == nil {
		segment := path.Base(u.Path)
		if i := strings.LastIndexByte(segment, '.'); i >= 0 && i < len(segment)-1 {
			return strings.ToLower(segment[i:])
		}
	}
	if ext, ok := ioutils.DetectImageExtension(data); ok {
		return ext
	}
	return defaultExtension
}
