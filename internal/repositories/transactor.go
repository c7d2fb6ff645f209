package repositories

import "context"

// VerificationTx holds the repositories one verification outcome writes
// through, all bound to the same transaction.
type VerificationTx struct {
	Verifications PhoneVerificationRepository
	Users         UserRepository
}

// Transactor runs fn in a single transaction. Any error from fn rolls back
// every write fn made.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx VerificationTx) error) error
}

type pgTransactor struct {
	db DB
}

func NewTransactor(db DB) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx VerificationTx) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	return fn(VerificationTx{
		Verifications: NewPhoneVerificationRepository(tx),
		Users:         NewUserRepository(tx),
	})
}
