package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/gvoss/internal/database"
	"github.com/jask/gvoss/internal/database/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	// running twice is a no-op
	require.NoError(t, database.RunMigrations(dbPath))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestQueryRepoRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := repository.NewQueryRepo(openTestDB(t))

	label, score := "yes", 0.93
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, repository.Query{
		ID: "a", AskedAt: base, ImageName: "sat.png", ImageSHA256: "img1",
		Question: "Are there any rivers visible?", Label: &label, Score: &score,
		Answer: "yes (Confidence: 0.93)",
	}))
	require.NoError(t, repo.Insert(ctx, repository.Query{
		ID: "b", AskedAt: base.Add(time.Minute), ImageName: "sat.png", ImageSHA256: "img1",
		Question: "How many roads?", Answer: "Error from API: loading", Failed: true,
	}))
	require.NoError(t, repo.Insert(ctx, repository.Query{
		ID: "c", AskedAt: base.Add(2 * time.Minute), ImageName: "cat.jpg", ImageSHA256: "img2",
		Question: "What animal is this?", Answer: "cat (Confidence: 0.99)",
	}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Are there any rivers visible?", got.Question)
	require.Equal(t, "yes", *got.Label)
	require.InDelta(t, 0.93, *got.Score, 1e-9)
	require.True(t, got.AskedAt.Equal(base))
	require.False(t, got.Failed)

	failed, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, failed.Failed)
	require.Nil(t, failed.Label)
	require.Nil(t, failed.Score)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].ID)
	require.Equal(t, "a", all[2].ID)

	two, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)

	byImage, err := repo.ListByImage(ctx, "img1", 10)
	require.NoError(t, err)
	require.Len(t, byImage, 2)
	require.Equal(t, "b", byImage[0].ID)
}

func TestQueryRepoDeleteAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := repository.NewQueryRepo(db)
	for _, id := range []string{"x", "y"} {
		require.NoError(t, repo.Insert(ctx, repository.Query{ID: id, AskedAt: database.Now(), ImageSHA256: "h", Question: "q", Answer: "a"}))
	}

	var n int64
	require.NoError(t, database.WithTx(db, func(tx *sql.Tx) error {
		var err error
		n, err = repo.DeleteAll(ctx, tx)
		return err
	}))
	require.EqualValues(t, 2, n)

	rest, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, rest)
}
