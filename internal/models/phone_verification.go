package models

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatusType string

const (
	VerificationStatusPending VerificationStatusType = "PENDING"
	VerificationStatusPassed  VerificationStatusType = "PASSED"
	VerificationStatusFailed  VerificationStatusType = "FAILED"
	VerificationStatusExpired VerificationStatusType = "EXPIRED"
)

type VerificationKindType string

const (
	VerificationKindPhone VerificationKindType = "PHONE"
)

// PhoneVerification for phone_verifications table. Rows are kept after they
// resolve so the table doubles as an audit trail.
type PhoneVerification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	PhoneNumber string
	Kind        VerificationKindType
	Status      VerificationStatusType
	Attempts    int
	MaxAttempts int
	ExpiresAt   time.Time
	VerifiedAt  *time.Time

	// Provider correlation, stored for debugging only.
	ProviderSID    *string
	ProviderStatus *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *PhoneVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

func (v *PhoneVerification) AttemptsExhausted() bool {
	return v.Attempts >= v.MaxAttempts
}
