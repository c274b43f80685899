package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/credential"
	"github.com/handiism/problem-archiver/internal/download"
)

func data(v map[string]any) map[string]any {
	return map[string]any{"data": v}
}

// catalogServer serves a one-item catalog.
func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	question := map[string]any{
		"questionId":   "1",
		"title":        "Two Sum",
		"titleSlug":    "two-sum",
		"content":      "<p>Find <code>two</code> numbers.</p>",
		"difficulty":   "Easy",
		"hints":        []string{"use a map"},
		"topicTags":    []map[string]any{{"name": "Array", "slug": "array"}},
		"codeSnippets": []map[string]any{{"lang": "Go", "langSlug": "golang", "code": "func twoSum() {}"}},
	}
	replies := map[string]any{
		"userStatus": data(map[string]any{
			"userStatus": map[string]any{"isSignedIn": true, "username": "alice"},
		}),
		"problemsetQuestionList": data(map[string]any{
			"problemsetQuestionList": map[string]any{
				"total": 1,
				"questions": []map[string]any{{
					"frontendQuestionId": "1",
					"title":              "Two Sum",
					"titleSlug":          "two-sum",
					"difficulty":         "Easy",
					"topicTags":          []map[string]any{{"name": "Array", "slug": "array"}},
				}},
			},
		}),
		"questionData":       data(map[string]any{"question": question}),
		"questionEditorData": data(map[string]any{"question": question}),
		"communitySolutions": data(map[string]any{"questionSolutions": map[string]any{
			"totalNum":  1,
			"solutions": []map[string]any{{"id": 7, "title": "hash map", "post": map[string]any{"content": "use a map"}}},
		}}),
		"officialSolution": data(map[string]any{"question": map[string]any{
			"solution": map[string]any{"id": "1", "content": "## Approach", "canSeeDetail": true},
		}}),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(catalog.DefaultSessionCookie); err != nil || cookie.Value != "session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			OperationName string `json:"operationName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reply, ok := replies[req.OperationName]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRunner(t *testing.T, endpoint string, token string) *Runner {
	t.Helper()
	settings := config.DefaultSettings()
	settings.OutputDir = "/archive"
	settings.Catalog.Endpoint = endpoint
	settings.Retry.BaseDelay = 0
	settings.Metrics.Textfile = filepath.Join(t.TempDir(), "archiver.prom")

	r := New(settings, nil)
	r.Fs = afero.NewMemMapFs()
	r.Credentials = credential.Static{Token: token}
	return r
}

func TestRunner_ArchivesCatalog(t *testing.T) {
	srv := catalogServer(t)
	r := newTestRunner(t, srv.URL+"/graphql", "session")
	require.NotEmpty(t, r.RunID)

	var (
		mu     sync.Mutex
		events []download.ProgressEvent
	)
	m, cred, err := r.Prepare(context.Background(), func(e download.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	require.NoError(t, err)

	summary, err := r.Execute(context.Background(), m, cred)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.NotEmpty(t, events)

	store, err := r.OpenStore()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, store.Completed())

	prom, err := os.ReadFile(r.Settings.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `archiver_items_total{status="complete"} 1`)
}

func TestRunner_MissingCredential(t *testing.T) {
	r := newTestRunner(t, "http://127.0.0.1:1/graphql", "")

	_, _, err := r.Prepare(context.Background(), nil)
	require.ErrorIs(t, err, credential.ErrMissing)
}

func TestRunner_RejectedCredentialIsFatal(t *testing.T) {
	srv := catalogServer(t)
	r := newTestRunner(t, srv.URL+"/graphql", "expired")

	m, cred, err := r.Prepare(context.Background(), nil)
	require.NoError(t, err)

	_, err = r.Execute(context.Background(), m, cred)
	require.Error(t, err)
	assert.True(t, catalog.IsFatal(err))
}

func TestRunner_CorruptProgressFile(t *testing.T) {
	r := newTestRunner(t, "http://127.0.0.1:1/graphql", "session")
	require.NoError(t, afero.WriteFile(r.Fs, "/archive/progress.json", []byte("{"), 0o644))

	_, _, err := r.Prepare(context.Background(), nil)
	require.Error(t, err)
}
