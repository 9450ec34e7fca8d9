package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "boundarygen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestMigrate_Idempotent(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.CreateRun(ctx, "run-1", "convert", 3))
	require.NoError(t, st.RecordItem(ctx, "run-1", "Isabela", "ok", "", "out/Isabela.geojson"))
	require.NoError(t, st.RecordItem(ctx, "run-1", "Atlantis", "not_found", "boundary: place not found", ""))
	require.NoError(t, st.CompleteRun(ctx, "run-1", 1, 1))
}

func TestCompleteRun_UnknownRun(t *testing.T) {
	st := openTestStore(t)

	err := st.CompleteRun(context.Background(), "missing", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestGeocodeCache_Roundtrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.CachedResponse(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.StoreResponse(ctx, "abc123", []byte(`[{"display_name":"Batanes"}]`)))

	body, ok, err := st.CachedResponse(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"display_name":"Batanes"}]`, string(body))
}

func TestGeocodeCache_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.StoreResponse(ctx, "k", []byte(`"old"`)))
	require.NoError(t, st.StoreResponse(ctx, "k", []byte(`"new"`)))

	body, ok, err := st.CachedResponse(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(body))
}
