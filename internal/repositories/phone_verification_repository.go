package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/utils"
)

// UpsertPendingParams describes the pending record a send should leave behind.
type UpsertPendingParams struct {
	UserID         uuid.UUID
	PhoneNumber    string
	MaxAttempts    int
	ExpiresAt      time.Time
	ProviderSID    *string
	ProviderStatus *string
}

type PhoneVerificationRepository interface {
	// UpsertPending inserts a PENDING record or, if one already exists for
	// (user, phone, PHONE), resets it in place. One statement, no race.
	UpsertPending(ctx context.Context, p UpsertPendingParams) (*models.PhoneVerification, error)
	// GetLatestPending returns nil, nil when there is none.
	GetLatestPending(ctx context.Context, userID uuid.UUID, phone string) (*models.PhoneVerification, error)
	// IncrementAttempts counts one check against a PENDING record and moves
	// it to FAILED in the same statement once the count passes max_attempts.
	// A record that is no longer PENDING yields utils.ErrNoRowsUpdated.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, models.VerificationStatusType, error)
	// MarkExpired closes a PENDING record whose expires_at is before now.
	// A record that was resolved or re-sent meanwhile yields utils.ErrNoRowsUpdated.
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkPassed(ctx context.Context, id uuid.UUID, verifiedAt time.Time, providerStatus *string) error
	// ExpireStale flips PENDING records past expiry to EXPIRED and returns
	// how many it touched.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type phoneVerificationRepository struct {
	db DB
}

func NewPhoneVerificationRepository(db DB) PhoneVerificationRepository {
	return &phoneVerificationRepository{db: db}
}

func (r *phoneVerificationRepository) UpsertPending(ctx context.Context, p UpsertPendingParams) (*models.PhoneVerification, error) {
	q := `
		INSERT INTO phone_verifications
			(id, user_id, phone_number, kind, status, attempts, max_attempts,
			 expires_at, provider_sid, provider_status)
		VALUES ($1, $2, $3, $4, 'PENDING', 0, $5, $6, $7, $8)
		ON CONFLICT (user_id, phone_number, kind) WHERE status = 'PENDING'
		DO UPDATE SET
			attempts        = 0,
			max_attempts    = EXCLUDED.max_attempts,
			expires_at      = EXCLUDED.expires_at,
			provider_sid    = EXCLUDED.provider_sid,
			provider_status = EXCLUDED.provider_status,
			updated_at      = NOW()
		RETURNING ` + phoneVerificationColumns
	row := r.db.QueryRow(ctx, q,
		uuid.New(), p.UserID, p.PhoneNumber, string(models.VerificationKindPhone),
		p.MaxAttempts, p.ExpiresAt, p.ProviderSID, p.ProviderStatus,
	)
	rec, err := scanPhoneVerification(row)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, utils.ErrNoRowsUpdated
	}
	return rec, nil
}

func (r *phoneVerificationRepository) GetLatestPending(ctx context.Context, userID uuid.UUID, phone string) (*models.PhoneVerification, error) {
	q := `
		SELECT ` + phoneVerificationColumns + `
		FROM phone_verifications
		WHERE user_id = $1 AND phone_number = $2 AND kind = $3 AND status = 'PENDING'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPhoneVerification(r.db.QueryRow(ctx, q, userID, phone, string(models.VerificationKindPhone)))
}

func (r *phoneVerificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, models.VerificationStatusType, error) {
	q := `
		UPDATE phone_verifications
		SET attempts   = attempts + 1,
		    status     = CASE WHEN attempts + 1 > max_attempts THEN 'FAILED' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING attempts, status
	`
	var (
		attempts int
		status   string
	)
	if err := r.db.QueryRow(ctx, q, id).Scan(&attempts, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", utils.ErrNoRowsUpdated
		}
		return 0, "", err
	}
	return attempts, models.VerificationStatusType(status), nil
}

func (r *phoneVerificationRepository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE phone_verifications
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING' AND expires_at < $2
	`, id, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (r *phoneVerificationRepository) MarkPassed(ctx context.Context, id uuid.UUID, verifiedAt time.Time, providerStatus *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE phone_verifications
		SET status = 'PASSED', verified_at = $2, provider_status = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, id, verifiedAt, providerStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (r *phoneVerificationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE phone_verifications
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'PENDING' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const phoneVerificationColumns = `id, user_id, phone_number, kind, status, attempts, max_attempts,
	expires_at, verified_at, provider_sid, provider_status, created_at, updated_at`

func scanPhoneVerification(row rowScanner) (*models.PhoneVerification, error) {
	var v models.PhoneVerification
	var kind, status string
	err := row.Scan(
		&v.ID, &v.UserID, &v.PhoneNumber, &kind, &status, &v.Attempts, &v.MaxAttempts,
		&v.ExpiresAt, &v.VerifiedAt, &v.ProviderSID, &v.ProviderStatus, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.Kind = models.VerificationKindType(kind)
	v.Status = models.VerificationStatusType(status)
	return &v, nil
}
