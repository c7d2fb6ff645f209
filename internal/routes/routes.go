package routes

const (
	// Health
	Health = "/health"

	// Phone verification (authenticated)
	VerificationPhoneSend  = "/api/v1/verification/phone/send"
	VerificationPhoneCheck = "/api/v1/verification/phone/check"

	// Signed-in user
	UsersMePhone = "/api/v1/users/me/phone"

	// Public boat browsing
	Boats    = "/api/v1/boats"
	BoatByID = "/api/v1/boats/{id}"
)
