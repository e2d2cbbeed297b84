package storage

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary BadgerDB instance for testing.
// It returns the repository instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerRepository, func()) {
	t.Helper()

	testLogger := logrus.New()
	testLogger.SetOutput(os.Stderr)
	testLogger.SetLevel(logrus.ErrorLevel)

	repo, err := NewBadgerRepository(t.TempDir(), 0, testLogger)
	require.NoError(t, err, "Failed to create test BadgerDB repository")

	cleanup := func() {
		assert.NoError(t, repo.Close(), "Failed to close test BadgerDB repository")
	}
	return repo, cleanup
}

func TestBadgerRepository_InsertAndContains(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	channelID := int64(-1001234567890)

	seen, err := repo.Contains(ctx, channelID, 42)
	require.NoError(t, err)
	assert.False(t, seen, "fresh store must not contain any record")

	require.NoError(t, repo.Insert(ctx, channelID, 42))

	seen, err = repo.Contains(ctx, channelID, 42)
	require.NoError(t, err)
	assert.True(t, seen)

	// Same message ID in a different channel is a different record.
	seen, err = repo.Contains(ctx, int64(-1009999999999), 42)
	require.NoError(t, err)
	assert.False(t, seen)

	// Neighbouring message in the same channel is untouched.
	seen, err = repo.Contains(ctx, channelID, 43)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestBadgerRepository_ReinsertIsHarmless(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, 7, 1))
	require.NoError(t, repo.Insert(ctx, 7, 1))

	seen, err := repo.Contains(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestBadgerRepository_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	testLogger := logrus.New()
	testLogger.SetLevel(logrus.ErrorLevel)
	ctx := context.Background()

	repo, err := NewBadgerRepository(dir, 0, testLogger)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, 1, 100))
	require.NoError(t, repo.Close())

	reopened, err := NewBadgerRepository(dir, 0, testLogger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, reopened.Close()) }()

	seen, err := reopened.Contains(ctx, 1, 100)
	require.NoError(t, err)
	assert.True(t, seen, "forward records must survive a restart")
}
