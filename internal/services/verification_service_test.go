package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/utils"
	"github.com/yachtly/charter-service/internal/verifyprovider"
)

const (
	rawPhone  = "305-555-0100"
	e164Phone = "+13055550100"
	clientID  = "ios-test"
)

type verificationFixture struct {
	svc      *verificationService
	verifs   *fakeVerificationRepo
	users    *fakeUserRepo
	limits   *fakeRateLimitRepo
	provider *mockProvider
	userID   uuid.UUID
	clock    time.Time
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	f := &verificationFixture{
		userID:   uuid.New(),
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		limits:   newFakeRateLimitRepo(),
		provider: &mockProvider{},
	}
	now := func() time.Time { return f.clock }
	f.verifs = newFakeVerificationRepo(now)
	f.users = newFakeUserRepo(&models.User{ID: f.userID, Email: "skipper@example.com", Name: "Skipper"})

	cfg := &config.Config{
		VerificationMaxAttempts:  5,
		VerificationCodeExpiry:   10 * time.Minute,
		GlobalSMSLimitPerHour:    100,
		SMSLimitPerClientPerHour: 20,
		SMSLimitPerNumberPerHour: 5,
		RateLimitWindow:          time.Hour,
	}
	tx := &fakeTransactor{verifs: f.verifs, users: f.users}
	svc := NewVerificationService(cfg, f.verifs, tx, NewRateLimiterService(f.limits, cfg), f.provider, nil)
	f.svc = svc.(*verificationService)
	f.svc.now = now
	return f
}

func (f *verificationFixture) expectStart() {
	f.provider.On("StartVerification", mock.Anything, e164Phone, verifyprovider.ChannelSMS).
		Return(&verifyprovider.StartResult{SID: "VE" + uuid.NewString(), Status: verifyprovider.StatusPending}, nil)
}

func (f *verificationFixture) expectCheck(code string, approved bool) *mock.Call {
	status := verifyprovider.StatusPending
	if approved {
		status = verifyprovider.StatusApproved
	}
	return f.provider.On("CheckVerification", mock.Anything, e164Phone, code).
		Return(&verifyprovider.CheckResult{Approved: approved, Status: status}, nil)
}

func (f *verificationFixture) send(t *testing.T) {
	t.Helper()
	_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
	require.NoError(t, err)
}

func requireAppError(t *testing.T, err error, status int, code, message string) {
	t.Helper()
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *utils.AppError, got %T: %v", err, err)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

// ---------------------------------------------------------------------
// SendCode
// ---------------------------------------------------------------------

func TestSendCode_NormalizesAndCreatesPending(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()

	res, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
	require.NoError(t, err)
	assert.Equal(t, e164Phone, res.PhoneNumber)
	assert.Equal(t, string(models.VerificationStatusPending), res.Status)
	assert.Equal(t, f.clock.Add(10*time.Minute), res.ExpiresAt)

	recs := f.verifs.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, 0, recs[0].Attempts)
	assert.Equal(t, 5, recs[0].MaxAttempts)
	assert.NotNil(t, recs[0].ProviderSID)
	f.provider.AssertExpectations(t)
}

func TestSendCode_TwiceLeavesOnePendingRecord(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("111111", false)

	f.send(t)
	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "111111")
	require.ErrorIs(t, err, utils.ErrInvalidCode)

	f.clock = f.clock.Add(2 * time.Minute)
	f.send(t)

	recs := f.verifs.snapshot()
	require.Len(t, recs, 1, "second send must update the pending record in place")
	assert.Equal(t, models.VerificationStatusPending, recs[0].Status)
	assert.Equal(t, 0, recs[0].Attempts, "attempts reset on resend")
	assert.Equal(t, f.clock.Add(10*time.Minute), recs[0].ExpiresAt)
}

func TestSendCode_InvalidPhone(t *testing.T) {
	f := newVerificationFixture(t)
	_, err := f.svc.SendCode(context.Background(), f.userID, "555-0100", clientID)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone number")
	assert.ErrorIs(t, err, utils.ErrInvalidPhone)
	f.provider.AssertNotCalled(t, "StartVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_ValidatorRejects(t *testing.T) {
	f := newVerificationFixture(t)
	f.svc.validatePhone = func(context.Context, string) (bool, error) { return false, nil }

	_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
	assert.ErrorIs(t, err, utils.ErrInvalidPhone)
	f.provider.AssertNotCalled(t, "StartVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_RateLimited(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()

	for i := 0; i < 5; i++ {
		f.send(t)
	}
	_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
	requireAppError(t, err, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded,
		"Too many verification requests. Please try again later.")
	f.provider.AssertNumberOfCalls(t, "StartVerification", 5)
}

func TestSendCode_ProviderErrorLeavesStateUntouched(t *testing.T) {
	t.Run("provider message passed through", func(t *testing.T) {
		f := newVerificationFixture(t)
		provErr := utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Invalid parameter `To`", utils.ErrExternalServiceFailure)
		f.provider.On("StartVerification", mock.Anything, e164Phone, verifyprovider.ChannelSMS).
			Return((*verifyprovider.StartResult)(nil), provErr)

		_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
		assert.Equal(t, "Invalid parameter `To`", utils.PublicMessage(err, ""))
		assert.Empty(t, f.verifs.snapshot())
	})

	t.Run("fallback message", func(t *testing.T) {
		f := newVerificationFixture(t)
		f.provider.On("StartVerification", mock.Anything, e164Phone, verifyprovider.ChannelSMS).
			Return((*verifyprovider.StartResult)(nil), errors.New("dial tcp: timeout"))

		_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
		requireAppError(t, err, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Failed to send verification code")
		assert.ErrorIs(t, err, utils.ErrExternalServiceFailure)
		assert.Empty(t, f.verifs.snapshot())
	})
}

func TestSendCode_StoreErrorIsGeneric(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.verifs.upsertErr = errStoreDown

	_, err := f.svc.SendCode(context.Background(), f.userID, rawPhone, clientID)
	requireAppError(t, err, http.StatusInternalServerError, utils.ErrCodeInternal,
		"Failed to send verification code")
	assert.ErrorIs(t, err, utils.ErrSendFailed)
}

// ---------------------------------------------------------------------
// CheckCode
// ---------------------------------------------------------------------

func TestCheckCode_DeniedKeepsPendingWithOneAttempt(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("000000", false)
	f.send(t)

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeInvalidCode, "Invalid verification code")

	recs := f.verifs.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, models.VerificationStatusPending, recs[0].Status)
	assert.Equal(t, 1, recs[0].Attempts)
	assert.False(t, f.users.get(f.userID).PhoneVerified)
}

func TestCheckCode_ExpiredSkipsProvider(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.send(t)

	f.clock = f.clock.Add(10*time.Minute + time.Second)
	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
	requireAppError(t, err, http.StatusGone, utils.ErrCodeVerificationExpired,
		"Verification code has expired. Please request a new code.")

	recs := f.verifs.snapshot()
	assert.Equal(t, models.VerificationStatusExpired, recs[0].Status)
	f.provider.AssertNotCalled(t, "CheckVerification", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, f.users.get(f.userID).PhoneVerified)
}

func TestCheckCode_NoPending(t *testing.T) {
	f := newVerificationFixture(t)
	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNoPendingVerification,
		"No pending verification found. Please request a new code.")
}

func TestCheckCode_ExhaustsAfterMaxAttempts(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("000000", false)
	f.send(t)

	for i := 1; i <= 5; i++ {
		_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
		require.ErrorIs(t, err, utils.ErrInvalidCode, "attempt %d", i)
	}

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
	requireAppError(t, err, http.StatusTooManyRequests, utils.ErrCodeMaxAttemptsReached,
		"Maximum verification attempts reached. Please request a new code.")

	recs := f.verifs.snapshot()
	assert.Equal(t, models.VerificationStatusFailed, recs[0].Status)
	assert.Equal(t, 6, recs[0].Attempts)
	f.provider.AssertNumberOfCalls(t, "CheckVerification", 5)
	assert.False(t, f.users.get(f.userID).PhoneVerified)

	// The record is closed; only a fresh send reopens the flow.
	_, err = f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
	assert.ErrorIs(t, err, utils.ErrNoPendingVerification)

	f.send(t)
	recs = f.verifs.snapshot()
	require.Len(t, recs, 2)
	assert.Equal(t, models.VerificationStatusPending, recs[1].Status)
	assert.Equal(t, 0, recs[1].Attempts)
}

func TestCheckCode_ConcurrentAttemptPushesOverLimit(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("424242", true)
	f.send(t)

	// Four misses already recorded, then another request sneaks one in
	// between our read and our increment.
	f.verifs.records[0].Attempts = 4
	f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
		rec.Attempts++
	}

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
	assert.ErrorIs(t, err, utils.ErrMaxAttemptsReached)
	assert.Equal(t, models.VerificationStatusFailed, f.verifs.snapshot()[0].Status)
	assert.False(t, f.users.get(f.userID).PhoneVerified, "approval past the cap must not verify")
}

func TestCheckCode_ProviderErrorStillCounts(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.provider.On("CheckVerification", mock.Anything, e164Phone, "123456").
		Return((*verifyprovider.CheckResult)(nil), errors.New("503 from upstream"))
	f.send(t)

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
	requireAppError(t, err, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure, "Failed to verify code")
	assert.Equal(t, 1, f.verifs.snapshot()[0].Attempts)
	assert.Equal(t, models.VerificationStatusPending, f.verifs.snapshot()[0].Status)
}

func TestCheckCode_ApprovedPassesAndVerifiesUserOnce(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("424242", true)
	f.send(t)

	res, err := f.svc.CheckCode(context.Background(), f.userID, rawPhone, "424242")
	require.NoError(t, err)
	assert.True(t, res.PhoneVerified)
	assert.Equal(t, e164Phone, res.PhoneNumber)
	assert.Equal(t, f.clock, res.VerifiedAt)

	rec := f.verifs.snapshot()[0]
	assert.Equal(t, models.VerificationStatusPassed, rec.Status)
	require.NotNil(t, rec.VerifiedAt)
	assert.Equal(t, f.clock, *rec.VerifiedAt)
	assert.Equal(t, verifyprovider.StatusApproved, utils.Val(rec.ProviderStatus))

	u := f.users.get(f.userID)
	assert.True(t, u.PhoneVerified)
	assert.Equal(t, e164Phone, utils.Val(u.PhoneNumber))
	assert.Equal(t, 1, f.users.writes)

	// PASSED records are out of scope for lookups.
	_, err = f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
	assert.ErrorIs(t, err, utils.ErrNoPendingVerification)

	// Re-verifying the same number does not write the flag again.
	f.send(t)
	_, err = f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.writes)
}

func TestCheckCode_StoreErrorIsGeneric(t *testing.T) {
	f := newVerificationFixture(t)
	f.verifs.getErr = errStoreDown

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
	requireAppError(t, err, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to verify code")
	assert.ErrorIs(t, err, utils.ErrVerifyFailed)
}

func TestCheckCode_UnknownUserFailsGenerically(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("424242", true)
	stranger := uuid.New()

	_, err := f.svc.SendCode(context.Background(), stranger, rawPhone, clientID)
	require.NoError(t, err)
	_, err = f.svc.CheckCode(context.Background(), stranger, rawPhone, "424242")
	assert.ErrorIs(t, err, utils.ErrVerifyFailed)

	// The pass is rolled back with the failed user write.
	rec := f.verifs.snapshot()[0]
	assert.Equal(t, models.VerificationStatusPending, rec.Status)
	assert.Nil(t, rec.VerifiedAt)

	// Once the user exists the same code can be retried.
	require.NoError(t, f.users.Create(context.Background(), &models.User{ID: stranger, Email: "new@example.com"}))
	res, err := f.svc.CheckCode(context.Background(), stranger, rawPhone, "424242")
	require.NoError(t, err)
	assert.True(t, res.PhoneVerified)
	assert.True(t, f.users.get(stranger).PhoneVerified)
	assert.Equal(t, models.VerificationStatusPassed, f.verifs.snapshot()[0].Status)
}

func TestCheckCode_UserWriteConflictLeavesRecordPending(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.expectCheck("424242", true)
	f.send(t)
	f.users.failUpdates = true

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
	requireAppError(t, err, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to verify code")
	assert.ErrorIs(t, err, utils.ErrVerifyFailed)

	rec := f.verifs.snapshot()[0]
	assert.Equal(t, models.VerificationStatusPending, rec.Status)
	assert.Nil(t, rec.VerifiedAt)
	assert.Equal(t, 1, rec.Attempts)
	assert.False(t, f.users.get(f.userID).PhoneVerified)

	f.users.failUpdates = false
	_, err = f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusPassed, f.verifs.snapshot()[0].Status)
	assert.True(t, f.users.get(f.userID).PhoneVerified)
}

func TestCheckCode_ExhaustedRecordLeavesFreshResendAlone(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.send(t)
	f.verifs.records[0].Attempts = 5

	// A resend lands between our read and our write.
	later := f.clock.Add(10 * time.Minute)
	f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
		rec.Attempts = 0
		rec.ExpiresAt = later
	}

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
	assert.ErrorIs(t, err, utils.ErrMaxAttemptsReached)

	rec := f.verifs.snapshot()[0]
	assert.Equal(t, models.VerificationStatusPending, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
	f.provider.AssertNotCalled(t, "CheckVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckCode_ExpiredRecordLeavesFreshResendAlone(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectStart()
	f.send(t)
	f.clock = f.clock.Add(10*time.Minute + time.Second)

	later := f.clock.Add(10 * time.Minute)
	f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
		rec.Attempts = 0
		rec.ExpiresAt = later
	}

	_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
	assert.ErrorIs(t, err, utils.ErrVerificationExpired)

	rec := f.verifs.snapshot()[0]
	assert.Equal(t, models.VerificationStatusPending, rec.Status)
	assert.Equal(t, later, rec.ExpiresAt)
}

func TestCheckCode_ClosingWritesKeepConcurrentPass(t *testing.T) {
	t.Run("exhausted", func(t *testing.T) {
		f := newVerificationFixture(t)
		f.expectStart()
		f.send(t)
		f.verifs.records[0].Attempts = 5
		f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
			rec.Status = models.VerificationStatusPassed
		}

		_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "000000")
		assert.ErrorIs(t, err, utils.ErrMaxAttemptsReached)
		assert.Equal(t, models.VerificationStatusPassed, f.verifs.snapshot()[0].Status)
		assert.Equal(t, 5, f.verifs.snapshot()[0].Attempts)
	})

	t.Run("expired", func(t *testing.T) {
		f := newVerificationFixture(t)
		f.expectStart()
		f.send(t)
		f.clock = f.clock.Add(11 * time.Minute)
		f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
			rec.Status = models.VerificationStatusPassed
		}

		_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "123456")
		assert.ErrorIs(t, err, utils.ErrVerificationExpired)
		assert.Equal(t, models.VerificationStatusPassed, f.verifs.snapshot()[0].Status)
	})

	t.Run("after provider", func(t *testing.T) {
		f := newVerificationFixture(t)
		f.expectStart()
		f.expectCheck("424242", true)
		f.send(t)
		f.verifs.beforeWrite = func(rec *models.PhoneVerification) {
			rec.Status = models.VerificationStatusPassed
		}

		_, err := f.svc.CheckCode(context.Background(), f.userID, e164Phone, "424242")
		assert.ErrorIs(t, err, utils.ErrNoPendingVerification)
		assert.Equal(t, 0, f.users.writes)
	})
}
