package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/yachtly/charter-service/internal/utils"
)

// VersionedEntity is anything with an id and a row_version column.
// comparable lets WithRetry detect the "not found" zero value.
type VersionedEntity interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

type UpdateIfVersionFunc[T VersionedEntity] func(ctx context.Context, entity T, expectedVersion int64) (pgconn.CommandTag, error)

type GetByIDFunc[T VersionedEntity] func(ctx context.Context, id string) (T, error)

// ErrSkipUpdate may be returned by a mutate func to end the loop without
// writing. WithRetry then returns nil.
var ErrSkipUpdate = errors.New("skip_update")

const defaultMaxRetries = 3

// WithRetry runs read, mutate, conditional-update until the update lands on
// the version it read or maxRetries is spent.
func WithRetry[T VersionedEntity](
	ctx context.Context,
	maxRetries int,
	id string,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		current, err := getByID(ctx, id)
		if err != nil {
			return err
		}
		var zero T
		if current == zero {
			return utils.ErrNotFound
		}

		expected := current.GetRowVersion()
		if err := mutate(current); err != nil {
			if errors.Is(err, ErrSkipUpdate) {
				return nil
			}
			return err
		}

		tag, err := updateIfVersion(ctx, current, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(expected + 1)
			return nil
		}
		utils.Logger.WithField("id", id).Debugf("row_version conflict, retry %d/%d", attempt+1, maxRetries)
	}
	return fmt.Errorf("%w: %q after %d attempts", utils.ErrRowVersionConflict, id, maxRetries)
}

// BaseVersionedRepo bundles a select-by-id statement with its scanner so a
// concrete repository gets GetByID and UpdateWithRetry for free.
type BaseVersionedRepo[T VersionedEntity] struct {
	db         DB
	selectByID string
	scan       func(row rowScanner) (T, error)
}

func NewBaseRepo[T VersionedEntity](db DB, selectByID string, scan func(rowScanner) (T, error)) *BaseVersionedRepo[T] {
	return &BaseVersionedRepo[T]{db: db, selectByID: selectByID, scan: scan}
}

func (b *BaseVersionedRepo[T]) getByID(ctx context.Context, id string) (T, error) {
	return b.scan(b.db.QueryRow(ctx, b.selectByID, id))
}

func (b *BaseVersionedRepo[T]) updateWithRetry(ctx context.Context, id string, mutate func(T) error, updateIfVersion UpdateIfVersionFunc[T]) error {
	return WithRetry(ctx, defaultMaxRetries, id, b.getByID, updateIfVersion, mutate)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
