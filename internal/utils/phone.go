package utils

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"
)

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`) // ITU-T E.164

// IsE164 reports basic E.164 compliance
func IsE164(number string) bool { return e164Regex.MatchString(number) }

// NormalizePhoneNumber turns user input such as "(305) 555-0100", "305.555.0100",
// "1 305 555 0100" or "0044 20 7946 0958" into E.164. Input without a country
// code is read as a NANP number. Anything else returns ErrInvalidPhone.
func NormalizePhoneNumber(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidPhone
	}
	hasPlus := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	var out string
	switch {
	case hasPlus:
		out = "+" + digits
	case strings.HasPrefix(digits, "00"):
		out = "+" + digits[2:]
	case len(digits) == 10:
		out = "+" + DefaultPhoneRegion + digits
	case len(digits) == 11 && strings.HasPrefix(digits, DefaultPhoneRegion):
		out = "+" + digits
	default:
		return "", ErrInvalidPhone
	}

	if !IsE164(out) {
		return "", ErrInvalidPhone
	}
	return out, nil
}

// IsTestPhoneNumber reports whether number lives in the reserved test range.
func IsTestPhoneNumber(number string) bool {
	return strings.HasPrefix(number, TestPhoneNumberBase)
}

// ValidatePhoneNumber validates an E.164 `number`.
//
// When validateWithTwilio is set and a client is provided, it also performs a
// Twilio Lookups V2 fetch. A 404 from Twilio means the number does not exist.
func ValidatePhoneNumber(
	ctx context.Context,
	number string,
	validateWithTwilio bool,
	tw *twilio.RestClient,
) (bool, error) {
	if !IsE164(number) {
		return false, nil
	}
	if !validateWithTwilio || tw == nil || IsTestPhoneNumber(number) {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := tw.LookupsV2.FetchPhoneNumber(number, &lookupsv2.FetchPhoneNumberParams{})
	if err == nil {
		return true, nil
	}
	if restErr, ok := err.(*twilioclient.TwilioRestError); ok {
		if restErr.Status == 404 {
			return false, nil
		}
		return false, fmt.Errorf("twilio lookup failed: %d %s", restErr.Status, restErr.Error())
	}
	return false, err
}
