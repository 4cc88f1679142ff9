package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	return store
}

func TestSQLiteStore(t *testing.T) {
	storeConformance(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "checkpoints.db")

	store, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, testCheckpoint("run-1", 1, StatusSuspended)))

	reopened, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	cp, err := reopened.LoadLatest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cp.Version)
	assert.Equal(t, StatusSuspended, cp.Status)
	assert.Equal(t, "jd", cp.State.JobDescription)
}

func TestSQLiteStoreDuplicateVersionRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save(ctx, testCheckpoint("run-1", 1, StatusRunning)))
	err := store.Save(ctx, testCheckpoint("run-1", 1, StatusRunning))
	assert.Error(t, err)
}
