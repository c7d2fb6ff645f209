package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/dtos"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
	"github.com/yachtly/charter-service/internal/verifyprovider"
)

// PhoneValidator optionally asks an outside service whether a normalized
// number exists. nil means skip the check.
type PhoneValidator func(ctx context.Context, phone string) (bool, error)

// VerificationService proves a user controls a phone number. Codes are
// generated and checked by the provider; this service only keeps the
// bookkeeping (expiry, attempt caps, status) and flips the user's flag.
type VerificationService interface {
	SendCode(ctx context.Context, userID uuid.UUID, phone, clientID string) (*dtos.SendPhoneCodeResponse, error)
	CheckCode(ctx context.Context, userID uuid.UUID, phone, code string) (*dtos.CheckPhoneCodeResponse, error)
}

type verificationService struct {
	cfg           *config.Config
	verifications repositories.PhoneVerificationRepository
	tx            repositories.Transactor
	rateLimiter   RateLimiterService
	provider      verifyprovider.Provider
	validatePhone PhoneValidator
	now           func() time.Time
}

func NewVerificationService(
	cfg *config.Config,
	verifications repositories.PhoneVerificationRepository,
	tx repositories.Transactor,
	rateLimiter RateLimiterService,
	provider verifyprovider.Provider,
	validatePhone PhoneValidator,
) VerificationService {
	return &verificationService{
		cfg:           cfg,
		verifications: verifications,
		tx:            tx,
		rateLimiter:   rateLimiter,
		provider:      provider,
		validatePhone: validatePhone,
		now:           time.Now,
	}
}

func (s *verificationService) SendCode(
	ctx context.Context,
	userID uuid.UUID,
	rawPhone, clientID string,
) (*dtos.SendPhoneCodeResponse, error) {
	phone, err := utils.NormalizePhoneNumber(rawPhone)
	if err != nil {
		return nil, errInvalidPhone
	}
	log := utils.Logger.WithFields(logrus.Fields{"user_id": userID, "phone": phone})

	if err := s.rateLimiter.CheckSMSRateLimits(ctx, clientID, phone); err != nil {
		if errors.Is(err, utils.ErrRateLimitExceeded) {
			return nil, errRateLimited
		}
		log.WithError(err).Error("Rate limit check failed")
		return nil, sendFailure(err)
	}

	if s.validatePhone != nil {
		ok, err := s.validatePhone(ctx, phone)
		if err != nil {
			log.WithError(err).Warn("Phone lookup failed")
			return nil, providerFailure(err, constants.MsgSendFailed)
		}
		if !ok {
			return nil, errInvalidPhone
		}
	}

	started, err := s.provider.StartVerification(ctx, phone, verifyprovider.ChannelSMS)
	if err != nil {
		log.WithError(err).Warn("Provider refused to start verification")
		return nil, providerFailure(err, constants.MsgSendFailed)
	}

	rec, err := s.verifications.UpsertPending(ctx, repositories.UpsertPendingParams{
		UserID:         userID,
		PhoneNumber:    phone,
		MaxAttempts:    s.maxAttempts(),
		ExpiresAt:      s.now().Add(s.codeExpiry()),
		ProviderSID:    nonEmpty(started.SID),
		ProviderStatus: nonEmpty(started.Status),
	})
	if err != nil {
		log.WithError(err).Error("Failed to store pending verification")
		return nil, sendFailure(err)
	}

	log.Info("Verification code sent")
	return &dtos.SendPhoneCodeResponse{
		PhoneNumber: rec.PhoneNumber,
		ExpiresAt:   rec.ExpiresAt,
		Status:      string(rec.Status),
	}, nil
}

func (s *verificationService) CheckCode(
	ctx context.Context,
	userID uuid.UUID,
	rawPhone, code string,
) (*dtos.CheckPhoneCodeResponse, error) {
	phone, err := utils.NormalizePhoneNumber(rawPhone)
	if err != nil {
		return nil, errInvalidPhone
	}
	log := utils.Logger.WithFields(logrus.Fields{"user_id": userID, "phone": phone})

	rec, err := s.verifications.GetLatestPending(ctx, userID, phone)
	if err != nil {
		log.WithError(err).Error("Failed to load pending verification")
		return nil, verifyFailure(err)
	}
	if rec == nil {
		return nil, errNoPending
	}
	log = log.WithField("verification_id", rec.ID)

	now := s.now()
	if rec.IsExpired(now) {
		// A resend may have replaced the code since it was read; the guarded
		// write then leaves the fresh record alone.
		if err := s.verifications.MarkExpired(ctx, rec.ID, now); err != nil && !errors.Is(err, utils.ErrNoRowsUpdated) {
			log.WithError(err).Error("Failed to mark verification expired")
			return nil, verifyFailure(err)
		}
		return nil, errExpired
	}

	if rec.AttemptsExhausted() {
		// Counting the attempt moves the record to FAILED past the cap.
		if _, _, err := s.verifications.IncrementAttempts(ctx, rec.ID); err != nil && !errors.Is(err, utils.ErrNoRowsUpdated) {
			log.WithError(err).Error("Failed to increment verification attempts")
			return nil, verifyFailure(err)
		}
		log.Warn("Verification attempts exhausted")
		return nil, errMaxAttempts
	}

	// The counter moves whatever the provider says, errors included.
	checked, providerErr := s.provider.CheckVerification(ctx, phone, code)
	attempts, status, err := s.verifications.IncrementAttempts(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, utils.ErrNoRowsUpdated) {
			return nil, errNoPending
		}
		log.WithError(err).Error("Failed to increment verification attempts")
		return nil, verifyFailure(err)
	}
	if status == models.VerificationStatusFailed {
		log.Warn("Verification attempts exhausted")
		return nil, errMaxAttempts
	}
	if providerErr != nil {
		log.WithError(providerErr).Warn("Provider check failed")
		return nil, providerFailure(providerErr, constants.MsgVerifyFailed)
	}
	if !checked.Approved {
		log.WithField("attempts", attempts).Info("Verification code rejected")
		return nil, errInvalidCode
	}

	raced := false
	err = s.tx.WithinTx(ctx, func(tx repositories.VerificationTx) error {
		if err := tx.Verifications.MarkPassed(ctx, rec.ID, now, nonEmpty(checked.Status)); err != nil {
			raced = errors.Is(err, utils.ErrNoRowsUpdated)
			return err
		}
		return markUserVerified(ctx, tx.Users, userID, phone)
	})
	if err != nil {
		if raced {
			// A concurrent check resolved the record first.
			return nil, errNoPending
		}
		log.WithError(err).Error("Failed to record verification outcome")
		return nil, verifyFailure(err)
	}

	log.Info("Phone number verified")
	return &dtos.CheckPhoneCodeResponse{
		PhoneNumber:   phone,
		PhoneVerified: true,
		VerifiedAt:    now,
	}, nil
}

// markUserVerified sets phone_verified once. A user already verified on this
// same number is left untouched.
func markUserVerified(ctx context.Context, users repositories.UserRepository, userID uuid.UUID, phone string) error {
	return users.UpdateWithRetry(ctx, userID, func(u *models.User) error {
		if u.PhoneVerified && utils.Val(u.PhoneNumber) == phone {
			return repositories.ErrSkipUpdate
		}
		u.PhoneVerified = true
		u.PhoneNumber = utils.Ptr(phone)
		return nil
	})
}

func (s *verificationService) maxAttempts() int {
	if s.cfg.VerificationMaxAttempts > 0 {
		return s.cfg.VerificationMaxAttempts
	}
	return config.DefaultVerificationMaxAttempts
}

func (s *verificationService) codeExpiry() time.Duration {
	if s.cfg.VerificationCodeExpiry > 0 {
		return s.cfg.VerificationCodeExpiry
	}
	return config.DefaultVerificationCodeExpiry
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
