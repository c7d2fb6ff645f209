package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
)

// RateLimiterService puts an hourly ceiling on outbound SMS. It is a volume
// guard only; it never de-duplicates or imposes a resend cooldown.
type RateLimiterService interface {
	// CheckSMSRateLimits returns utils.ErrRateLimitExceeded when any tier is
	// over its limit. A limit of 0 disables that tier.
	CheckSMSRateLimits(ctx context.Context, clientID, phoneNumber string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

func (s *rateLimiterService) CheckSMSRateLimits(ctx context.Context, clientID, phoneNumber string) error {
	if clientID == "" {
		clientID = constants.UnknownClientID
	}
	tiers := []struct {
		name  string
		key   string
		limit int
	}{
		{"Global", constants.SMSRateLimitGlobalKey, s.cfg.GlobalSMSLimitPerHour},
		{"Per-client", fmt.Sprintf(constants.SMSRateLimitClientKeyFmt, clientID), s.cfg.SMSLimitPerClientPerHour},
		{"Per-phone", fmt.Sprintf(constants.SMSRateLimitPhoneKeyFmt, phoneNumber), s.cfg.SMSLimitPerNumberPerHour},
	}
	for _, t := range tiers {
		if t.limit <= 0 {
			continue
		}
		allowed, err := s.repo.IncrementAndCheck(ctx, t.key, t.limit, s.window())
		if err != nil {
			return err
		}
		if !allowed {
			utils.Logger.Warnf("%s SMS rate limit exceeded (key: %s)", t.name, t.key)
			return utils.ErrRateLimitExceeded
		}
	}
	return nil
}

func (s *rateLimiterService) window() time.Duration {
	if s.cfg.RateLimitWindow > 0 {
		return s.cfg.RateLimitWindow
	}
	return config.DefaultRateLimitWindow
}
