package utils

const (
	OrganizationName                      = "Yachtly"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// Numbers under this prefix never reach the SMS provider when fake phones are accepted.
	TestPhoneNumberBase = "+999"
	TestPhoneCode       = "999999"

	DefaultPhoneRegion = "1"
)
