package download

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/completion"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/credential"
	apphttp "github.com/handiism/problem-archiver/internal/http"
	"github.com/handiism/problem-archiver/internal/media"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/progress"
	"github.com/handiism/problem-archiver/internal/retry"
)

const root = "/archive"

var testCred = credential.Credential{Token: "session"}

type fakeSource struct {
	items    []model.Item
	variants []model.Variant
	premium  bool
	delay    time.Duration

	detailErrs       map[int][]error
	missingTemplates map[string]bool
	noCommunity      map[string]bool
	noOfficial       bool
	body             string

	mu            sync.Mutex
	detailCalls   map[int]int
	templateCalls int
	inFlight      int
	maxInFlight   int
}

func newFakeSource(n int) *fakeSource {
	f := &fakeSource{
		variants:    []model.Variant{{Slug: "golang", Name: "Go"}, {Slug: "python3", Name: "Python3"}},
		detailCalls: make(map[int]int),
		detailErrs:  make(map[int][]error),
	}
	for id := 1; id <= n; id++ {
		f.items = append(f.items, model.Item{
			ID:         id,
			Title:      fmt.Sprintf("Item %d", id),
			Slug:       fmt.Sprintf("item-%d", id),
			Difficulty: "Easy",
			Tags:       []string{"Array"},
		})
	}
	return f
}

func (f *fakeSource) idOf(slug string) int {
	var id int
	_, _ = fmt.Sscanf(slug, "item-%d", &id)
	return id
}

func (f *fakeSource) UserStatus(context.Context, credential.Credential) (catalog.Entitlement, error) {
	return catalog.Entitlement{SignedIn: true, Premium: f.premium, Username: "tester"}, nil
}

func (f *fakeSource) ListAll(context.Context, credential.Credential) iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		for _, item := range f.items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) FetchDetail(_ context.Context, _ credential.Credential, slug string) (catalog.Detail, error) {
	id := f.idOf(slug)

	f.mu.Lock()
	f.detailCalls[id]++
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	var err error
	if errs := f.detailErrs[id]; len(errs) > 0 {
		err, f.detailErrs[id] = errs[0], errs[1:]
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if err != nil {
		return catalog.Detail{}, err
	}
	body := f.body
	if body == "" {
		body = "<p>Describe " + slug + "</p>"
	}
	return catalog.Detail{
		Document: model.Document{Body: body},
		Variants: f.variants,
		Metadata: catalog.Metadata{Title: slug, Tags: []string{"Array"}, Hints: []string{"Try <code>map</code>"}},
	}, nil
}

func (f *fakeSource) FetchTemplate(_ context.Context, _ credential.Credential, slug string, v model.Variant) (string, error) {
	f.mu.Lock()
	f.templateCalls++
	f.mu.Unlock()
	if f.missingTemplates[v.Slug] {
		return "", catalog.ErrNotFound
	}
	return "// " + slug + " " + v.Slug, nil
}

func (f *fakeSource) FetchCommunityAnswer(_ context.Context, _ credential.Credential, slug string, v model.Variant) (model.Document, error) {
	if f.noCommunity[v.Slug] {
		return model.Document{}, catalog.ErrNoAnswer
	}
	return model.Document{Body: "community " + slug + " " + v.Slug}, nil
}

func (f *fakeSource) FetchOfficialAnswer(_ context.Context, _ credential.Credential, slug string) (model.Document, error) {
	if f.noOfficial {
		return model.Document{}, catalog.ErrNoAnswer
	}
	return model.Document{Body: "official " + slug}, nil
}

func (f *fakeSource) calls(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[id]
}

type stubDownloader map[string][]byte

func (s stubDownloader) DownloadBytes(_ context.Context, url string, _ time.Duration) ([]byte, error) {
	if data, ok := s[url]; ok {
		return data, nil
	}
	return nil, errors.New("unreachable")
}

type harness struct {
	fs       afero.Fs
	settings *config.Settings
	source   *fakeSource
	events   []ProgressEvent
	mu       sync.Mutex
}

func newHarness(source *fakeSource) *harness {
	settings := config.DefaultSettings()
	settings.OutputDir = root
	settings.Retry.BaseDelay = 0
	settings.Formats = []string{"lightweight", "structured", "raw"}
	return &harness{fs: afero.NewMemMapFs(), settings: settings, source: source}
}

func (h *harness) run(t *testing.T) (Summary, *progress.Store, error) {
	t.Helper()
	store := progress.NewStore(h.fs, root)
	require.NoError(t, store.Load())

	m, err := NewManager(h.settings, h.source, store,
		WithFs(h.fs),
		WithRewriter(media.NewRewriter(h.fs, stubDownloader{"https://cdn.test/fig.png": []byte("png")},
			media.WithRetry(retry.New(1, 0)))),
		WithRetryOptions(retry.WithSleep(func(context.Context, time.Duration) error { return nil })),
		WithProgress(func(e ProgressEvent) {
			h.mu.Lock()
			h.events = append(h.events, e)
			h.mu.Unlock()
		}),
	)
	require.NoError(t, err)

	summary, err := m.Run(context.Background(), testCred)
	processed, queued := m.Progress()
	assert.Equal(t, queued-summary.NotStarted, processed)
	return summary, store, err
}

func (h *harness) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(h.fs, path)
	require.NoError(t, err)
	return ok
}

func TestManager_RunArchivesItems(t *testing.T) {
	source := newFakeSource(2)
	source.noCommunity = map[string]bool{"python3": true}
	h := newHarness(source)

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 2, Succeeded: 2, ProgressFile: filepath.Join(root, "progress.json")}, summary)
	assert.Equal(t, []int{1, 2}, store.Completed())

	paths := model.NewItemPaths(root, source.items[0])
	for _, f := range []string{
		paths.DescriptionFile(model.FormatLightweight),
		paths.DescriptionFile(model.FormatStructured),
		paths.DescriptionFile(model.FormatRaw),
		paths.TemplateFile(model.Variant{Slug: "golang"}),
		paths.TemplateFile(model.Variant{Slug: "python3"}),
		paths.CommunityFile(model.Variant{Slug: "golang"}),
		paths.OfficialFile(),
	} {
		assert.True(t, h.exists(t, f), f)
	}
	assert.False(t, h.exists(t, paths.CommunityFile(model.Variant{Slug: "python3"})))

	md, err := afero.ReadFile(h.fs, paths.DescriptionFile(model.FormatLightweight))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# 1. Item 1")
	assert.Contains(t, string(md), "Describe item-1")
	assert.Contains(t, string(md), "1. Try `map`")

	raw, err := afero.ReadFile(h.fs, paths.DescriptionFile(model.FormatRaw))
	require.NoError(t, err)
	assert.Equal(t, "<p>Describe item-1</p>", string(raw))

	assert.Contains(t, h.events[len(h.events)-1].Message, "✓")
}

func TestManager_SecondRunIsIdempotent(t *testing.T) {
	source := newFakeSource(3)
	h := newHarness(source)

	_, _, err := h.run(t)
	require.NoError(t, err)
	before, err := afero.ReadFile(h.fs, filepath.Join(root, "progress.json"))
	require.NoError(t, err)

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.AlreadyDone)
	assert.Zero(t, summary.Succeeded)
	for id := 1; id <= 3; id++ {
		assert.Equal(t, 1, source.calls(id), "item %d must not be fetched again", id)
	}
	assert.Equal(t, []int{1, 2, 3}, store.Completed())

	after, err := afero.ReadFile(h.fs, filepath.Join(root, "progress.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManager_ConcurrencyBound(t *testing.T) {
	source := newFakeSource(12)
	source.delay = 20 * time.Millisecond
	h := newHarness(source)
	h.settings.Concurrency = 3

	summary, _, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Succeeded)
	assert.LessOrEqual(t, source.maxInFlight, 3)
	assert.Positive(t, source.maxInFlight)
}

func TestManager_SkipsLockedWithoutPremium(t *testing.T) {
	source := newFakeSource(3)
	source.items[1].Locked = true
	h := newHarness(source)

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, source.calls(2))
	assert.False(t, store.IsCompleted(2))
	assert.NotContains(t, store.Failed(), 2)
}

func TestManager_FetchesLockedWithPremium(t *testing.T) {
	source := newFakeSource(1)
	source.items[0].Locked = true
	source.premium = true
	h := newHarness(source)

	summary, _, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Skipped)
}

func TestManager_AbortOnAuthError(t *testing.T) {
	source := newFakeSource(15)
	authErr := &catalog.AuthError{Reason: "session expired"}
	source.detailErrs[7] = []error{authErr}
	h := newHarness(source)
	h.settings.Concurrency = 10

	summary, store, err := h.run(t)

	require.Error(t, err)
	assert.True(t, catalog.IsFatal(err))
	assert.True(t, summary.Aborted)
	assert.Equal(t, 5, summary.NotStarted)
	assert.Equal(t, 9, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	for id := 1; id <= 10; id++ {
		assert.Equal(t, 1, source.calls(id), "item %d was dispatched in the first chunk", id)
	}
	for id := 11; id <= 15; id++ {
		assert.Zero(t, source.calls(id), "item %d must not start after abort", id)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 8, 9, 10}, store.Completed())
	require.Contains(t, store.Failed(), 7)
	assert.Equal(t, "item-7", store.Failed()[7].Slug)
}

func TestManager_PartialItemIsRecordedAsFailed(t *testing.T) {
	source := newFakeSource(1)
	source.missingTemplates = map[string]bool{"python3": true}
	h := newHarness(source)

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	require.Contains(t, store.Failed(), 1)
	failure := store.Failed()[1]
	assert.Contains(t, failure.Reasons, "templates incomplete: 1/2")
	assert.Equal(t, progress.Counts{Total: 2, Achieved: 1}, failure.StatusSnapshot[model.KindTemplates])
	assert.Contains(t, h.events[len(h.events)-1].Message, "! 0001 item-1")
}

func TestManager_RetriesTransientDetailErrors(t *testing.T) {
	source := newFakeSource(1)
	source.detailErrs[1] = []error{&apphttp.StatusError{Code: http.StatusServiceUnavailable}}
	h := newHarness(source)

	summary, _, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, source.calls(1))
}

func TestManager_NotFoundDetailFailsItemOnly(t *testing.T) {
	source := newFakeSource(2)
	source.detailErrs[1] = []error{catalog.ErrNotFound}
	h := newHarness(source)

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, source.calls(1), "not found is not retried")
	assert.Equal(t, completion.StatusFailed, recordedStatus(store, 1))
}

// recordedStatus reads an item's recorded state back from the store.
func recordedStatus(store *progress.Store, id int) completion.Status {
	if store.IsCompleted(id) {
		return completion.StatusComplete
	}
	if _, ok := store.Failed()[id]; ok {
		return completion.StatusFailed
	}
	return ""
}

func TestManager_UnrequestedKindsAreNotFetched(t *testing.T) {
	source := newFakeSource(1)
	source.missingTemplates = map[string]bool{"golang": true, "python3": true}
	h := newHarness(source)
	h.settings.FetchTemplates = false

	summary, _, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, source.templateCalls)
}

func TestManager_NoOfficialAnswerIsNotAFailure(t *testing.T) {
	source := newFakeSource(1)
	source.noOfficial = true
	h := newHarness(source)

	summary, _, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestManager_SingleItem(t *testing.T) {
	source := newFakeSource(3)
	h := newHarness(source)
	h.settings.ItemID = 2

	summary, store, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, []int{2}, store.Completed())
	assert.Zero(t, source.calls(1))

	h.settings.ItemID = 99
	_, _, err = h.run(t)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestManager_LocalisesDescriptionMedia(t *testing.T) {
	source := newFakeSource(1)
	source.body = `<p>See</p><img src="https://cdn.test/fig.png"><img src="https://cdn.test/gone.png">`
	h := newHarness(source)

	_, _, err := h.run(t)
	require.NoError(t, err)

	paths := model.NewItemPaths(root, source.items[0])
	assert.True(t, h.exists(t, filepath.Join(paths.DescriptionDir, "images", "1.png")))

	html, err := afero.ReadFile(h.fs, paths.DescriptionFile(model.FormatStructured))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<img src="images/1.png">`)
	assert.Contains(t, string(html), `<img src="https://cdn.test/gone.png">`)
}

func TestNewManager_RejectsUnknownFormat(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Formats = []string{"pdf"}

	_, err := NewManager(settings, newFakeSource(0), progress.NewStore(afero.NewMemMapFs(), root))
	assert.Error(t, err)
}
