package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSetsUserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	client := NewClient(Options{UserAgent: "test-agent"})
	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "test-agent", string(body))
}

func TestClient_GetStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Options{}).Get(context.Background(), srv.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Code)
	require.True(t, se.Temporary())
}

func TestClient_DownloadBytesTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(Options{}).DownloadBytes(context.Background(), srv.URL, 20*time.Millisecond)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_PostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "token", r.Header.Get("X-Csrftoken"))
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := NewClient(Options{}).PostJSON(
		context.Background(),
		srv.URL,
		map[string]string{"X-Csrftoken": "token"},
		[]*http.Cookie{{Name: "session", Value: "abc"}},
		map[string]string{"q": "hello"},
		&out,
	)
	require.NoError(t, err)
	require.Equal(t, "hello", out["echo"])
}

func TestStatusError_Temporary(t *testing.T) {
	t.Parallel()

	require.True(t, (&StatusError{Code: 429}).Temporary())
	require.True(t, (&StatusError{Code: 502}).Temporary())
	require.False(t, (&StatusError{Code: 404}).Temporary())
	require.False(t, (&StatusError{Code: 403}).Temporary())
}
