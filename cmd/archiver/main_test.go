package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/problem-archiver/internal/download"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/progress"
)

func TestStatusCmd(t *testing.T) {
	dir := t.TempDir()
	store := progress.NewStore(afero.NewOsFs(), dir)
	require.NoError(t, store.Record(progress.Result{
		Item:      model.Item{ID: 1, Title: "Two Sum", Slug: "two-sum"},
		Succeeded: true,
	}))
	require.NoError(t, store.Record(progress.Result{
		Item:    model.Item{ID: 42, Title: "Trapping Rain Water", Slug: "trapping-rain-water"},
		Reasons: []string{"official answer incomplete: 0/1"},
	}))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"status", "--output", dir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Completed: 1")
	assert.Contains(t, out.String(), "Failed:    1")
	assert.Contains(t, out.String(), "0042 trapping-rain-water: official answer incomplete: 0/1")
}

func TestRootCmd_RejectsUnknownFormat(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--output", t.TempDir(), "--formats", "pdf"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRenderEvent(t *testing.T) {
	for _, level := range []download.ProgressLevel{
		download.LevelInfo, download.LevelVerbose, download.LevelWarning, download.LevelError, download.LevelSuccess,
	} {
		assert.Contains(t, renderEvent(download.ProgressEvent{Message: "item 1", Level: level}), "item 1")
	}
}
