package services

import (
	"context"
	"time"

	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
)

// VerificationCleanupService sweeps pending verifications that ran past
// their expiry. Rows are kept as audit history, only their status changes.
type VerificationCleanupService interface {
	ExpireStale(ctx context.Context) (int64, error)
	CleanupDaily(ctx context.Context) error
}

type verificationCleanupService struct {
	repo repositories.PhoneVerificationRepository
	now  func() time.Time
}

func NewVerificationCleanupService(repo repositories.PhoneVerificationRepository) VerificationCleanupService {
	return &verificationCleanupService{repo: repo, now: time.Now}
}

func (s *verificationCleanupService) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx, s.now())
}

func (s *verificationCleanupService) CleanupDaily(ctx context.Context) error {
	n, err := s.ExpireStale(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to expire stale phone_verifications")
		return err
	}
	utils.Logger.Infof("Daily verification sweep completed, %d record(s) expired.", n)
	return nil
}
