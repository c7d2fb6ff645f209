package services

import (
	"context"

	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
)

// RateLimitCleanupService removes lapsed rate limit counters.
type RateLimitCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type rateLimitCleanupService struct {
	repo repositories.RateLimitRepository
}

func NewRateLimitCleanupService(repo repositories.RateLimitRepository) RateLimitCleanupService {
	return &rateLimitCleanupService{repo: repo}
}

func (s *rateLimitCleanupService) CleanupDaily(ctx context.Context) error {
	n, err := s.repo.CleanupExpired(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup expired rate_limit_attempts")
		return err
	}
	utils.Logger.Infof("Daily rate limit counter cleanup completed, %d key(s) removed.", n)
	return nil
}
