package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/repositories"
)

func TestVerificationCleanup_ExpiresOnlyStalePending(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	repo := newFakeVerificationRepo(func() time.Time { return now })
	ctx := context.Background()

	stale, err := repo.UpsertPending(ctx, repositories.UpsertPendingParams{
		UserID: uuid.New(), PhoneNumber: "+13055550100", MaxAttempts: 5, ExpiresAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)
	fresh, err := repo.UpsertPending(ctx, repositories.UpsertPendingParams{
		UserID: uuid.New(), PhoneNumber: "+13055550101", MaxAttempts: 5, ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)
	passed, err := repo.UpsertPending(ctx, repositories.UpsertPendingParams{
		UserID: uuid.New(), PhoneNumber: "+13055550102", MaxAttempts: 5, ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkPassed(ctx, passed.ID, now.Add(-2*time.Hour), nil))

	svc := NewVerificationCleanupService(repo).(*verificationCleanupService)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.CleanupDaily(ctx))

	byID := map[uuid.UUID]models.VerificationStatusType{}
	for _, rec := range repo.snapshot() {
		byID[rec.ID] = rec.Status
	}
	assert.Len(t, byID, 3, "cleanup never deletes")
	assert.Equal(t, models.VerificationStatusExpired, byID[stale.ID])
	assert.Equal(t, models.VerificationStatusPending, byID[fresh.ID])
	assert.Equal(t, models.VerificationStatusPassed, byID[passed.ID])

	n, err := svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRateLimitCleanup(t *testing.T) {
	repo := newFakeRateLimitRepo()
	repo.counts["sms:global"] = 4
	require.NoError(t, NewRateLimitCleanupService(repo).CleanupDaily(context.Background()))
	assert.Empty(t, repo.counts)
}
