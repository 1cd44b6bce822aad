package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshRunRepositoryLifecycle(t *testing.T) {
	repo := NewRefreshRunRepository(newTestDB(t))
	ctx := context.Background()

	run := &entity.RefreshRun{
		Status:    entity.RefreshRunRunning,
		Topics:    []string{"all", "health"},
		StartedAt: baseTime,
	}
	require.NoError(t, repo.Create(ctx, run))
	require.NotZero(t, run.ID)

	run.Status = entity.RefreshRunCompleted
	run.Stored = 12
	run.Purged = 3
	run.CompletedAt = sql.NullTime{Time: baseTime.Add(2 * time.Second), Valid: true}
	require.NoError(t, repo.Update(ctx, run))

	stored, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RefreshRunCompleted, stored.Status)
	assert.Equal(t, []string{"all", "health"}, []string(stored.Topics))
	assert.Equal(t, 12, stored.Stored)
	assert.EqualValues(t, 3, stored.Purged)
	assert.True(t, stored.CompletedAt.Valid)
}

func TestRefreshRunRepositoryFindRecent(t *testing.T) {
	repo := NewRefreshRunRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.RefreshRun{
			Status:    entity.RefreshRunCompleted,
			StartedAt: baseTime.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.EqualValues(t, 3, runs[0].ID)
}

func TestRefreshRunRepositoryNotFound(t *testing.T) {
	repo := NewRefreshRunRepository(newTestDB(t))
	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, dto.ErrRefreshRunNotFound)
}

func TestUnavailableRefreshRunRepository(t *testing.T) {
	repo := NewUnavailableRefreshRunRepository()
	ctx := context.Background()

	assert.ErrorIs(t, repo.Create(ctx, &entity.RefreshRun{}), dto.ErrRepositoryUnavailable)
	assert.ErrorIs(t, repo.Update(ctx, &entity.RefreshRun{}), dto.ErrRepositoryUnavailable)
	_, err := repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, dto.ErrRepositoryUnavailable)
	_, err = repo.FindRecent(ctx, 10)
	assert.ErrorIs(t, err, dto.ErrRepositoryUnavailable)
}
