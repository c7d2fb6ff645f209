package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
)

// RateLimitRepository keeps fixed-window counters in rate_limit_attempts.
type RateLimitRepository interface {
	// IncrementAndCheck bumps the counter for key, starting a fresh window if
	// the old one lapsed, and reports whether the new count is within limit.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type rateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	q := `
		INSERT INTO rate_limit_attempts (key, attempt_count, expires_at)
		VALUES ($1, 1, NOW() + $2::interval)
		ON CONFLICT (key) DO UPDATE
		SET attempt_count = CASE
				WHEN rate_limit_attempts.expires_at < NOW() THEN 1
				ELSE rate_limit_attempts.attempt_count + 1
			END,
			expires_at = CASE
				WHEN rate_limit_attempts.expires_at < NOW() THEN NOW() + $2::interval
				ELSE rate_limit_attempts.expires_at
			END
		RETURNING attempt_count
	`
	var count int
	if err := r.db.QueryRow(ctx, q, key, window).Scan(&count); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	return count <= limit, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rate_limit_attempts WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
