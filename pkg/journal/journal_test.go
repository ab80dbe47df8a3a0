package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/synopsis/pkg/condense"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening applies the schema idempotently.
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestRun_AppendAndRound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var opener condense.LogOpener = store.OpenRun
	log, err := opener(ctx, "book.epub")
	require.NoError(t, err)

	require.NoError(t, log.Append(ctx, 0, 0, "first"))
	require.NoError(t, log.Append(ctx, 0, 1, "second"))
	require.NoError(t, log.Append(ctx, 1, 0, "condensed"))

	round0, err := log.Round(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, round0)

	round1, err := log.Round(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"condensed"}, round1)

	missing, err := log.Round(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRun_RejectsOutOfOrderSections(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	log, err := store.OpenRun(ctx, "notes.txt")
	require.NoError(t, err)

	err = log.Append(ctx, 0, 1, "skipped ahead")
	assert.ErrorContains(t, err, "out of order")

	require.NoError(t, log.Append(ctx, 0, 0, "ok"))
	err = log.Append(ctx, 0, 0, "duplicate")
	assert.ErrorContains(t, err, "out of order")
}

func TestRun_IsolatedPerRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	a, err := store.OpenRun(ctx, "a.txt")
	require.NoError(t, err)
	b, err := store.OpenRun(ctx, "b.txt")
	require.NoError(t, err)

	require.NoError(t, a.Append(ctx, 0, 0, "from a"))
	require.NoError(t, b.Append(ctx, 0, 0, "from b"))

	got, err := b.Round(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"from b"}, got)
}

func TestRun_FinishRecordsOutcome(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ok, err := store.OpenRun(ctx, "ok.txt")
	require.NoError(t, err)
	require.NoError(t, ok.Append(ctx, 0, 0, "summary"))
	require.NoError(t, ok.(condense.Finisher).Finish(ctx, nil))

	failed, err := store.OpenRun(ctx, "bad.txt")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, failed.(condense.Finisher).Finish(cancelled, errors.New("oracle down")))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	bySource := map[string]RunInfo{}
	for _, r := range runs {
		bySource[r.Source] = r
	}

	assert.Equal(t, StatusSucceeded, bySource["ok.txt"].Status)
	assert.Equal(t, 1, bySource["ok.txt"].Responses)
	assert.False(t, bySource["ok.txt"].FinishedAt.IsZero())
	assert.Equal(t, ok.(*Run).ID(), bySource["ok.txt"].ID)

	assert.Equal(t, StatusFailed, bySource["bad.txt"].Status)
	assert.Equal(t, "oracle down", bySource["bad.txt"].Error)
	assert.Zero(t, bySource["bad.txt"].Responses)
}
