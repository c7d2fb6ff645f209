package dtos

import "time"

// ----------------------
// Phone verification
// ----------------------

// PhoneNumber is free-form here; the service normalizes it to E.164.
type SendPhoneCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
}

type SendPhoneCodeResponse struct {
	PhoneNumber string    `json:"phone_number"`
	ExpiresAt   time.Time `json:"expires_at"`
	Status      string    `json:"status"`
}

type CheckPhoneCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
	Code        string `json:"code" validate:"required,min=4,max=10,numeric"`
}

type CheckPhoneCodeResponse struct {
	PhoneNumber   string    `json:"phone_number"`
	PhoneVerified bool      `json:"phone_verified"`
	VerifiedAt    time.Time `json:"verified_at"`
}

type PhoneStatusResponse struct {
	PhoneNumber   *string `json:"phone_number"`
	PhoneVerified bool    `json:"phone_verified"`
}
