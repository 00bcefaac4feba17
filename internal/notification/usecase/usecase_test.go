package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/idempotency"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/mail"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

const testConfig = `
app:
  web: https://shop.example.com
modules:
  notification:
    company_name: Example Shop
    company_address: Jl. Sudirman 1, Jakarta
    support_email: support@example.com
`

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeMail) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	fm := &fakeMail{}
	uc := NewNotification(Dependency{
		RepoMail:    fm,
		Idempotency: idempotency.New(rdb),
		Validator:   v,
		Config:      cfg,
		Clock:       clock.NewFrozen(t0),
		Instrument:  instrument.NewNoop(),
	})

	return uc, fm
}

func otpInput() ConsumeOTPIssuedInput {
	return ConsumeOTPIssuedInput{
		EventID:   "evt-1",
		UserID:    42,
		Username:  "john",
		Email:     "john@example.com",
		OTP:       "048213",
		ExpiresAt: t0.Add(10 * time.Minute),
	}
}

func TestUsecase_ConsumeOTPIssued(t *testing.T) {
	t.Run("renders and sends", func(t *testing.T) {
		// Arrange
		uc, fm := newTestUsecase(t)

		// Act
		err := uc.ConsumeOTPIssued(context.Background(), otpInput())

		// Assert
		require.NoError(t, err)
		msgs := fm.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, []string{"john@example.com"}, msgs[0].To)
		assert.Equal(t, "Your One-Time Password (OTP)", msgs[0].Subject)
		assert.Contains(t, msgs[0].HTMLBody, "048213")
		assert.Contains(t, msgs[0].HTMLBody, "Hi john,")
		assert.Contains(t, msgs[0].HTMLBody, "expires in 10 minutes")
		assert.Contains(t, msgs[0].HTMLBody, "Example Shop")
		assert.Contains(t, msgs[0].HTMLBody, "2025")
	})

	t.Run("redelivery is sent once", func(t *testing.T) {
		uc, fm := newTestUsecase(t)

		require.NoError(t, uc.ConsumeOTPIssued(context.Background(), otpInput()))
		require.NoError(t, uc.ConsumeOTPIssued(context.Background(), otpInput()))

		assert.Len(t, fm.messages(), 1)
	})

	t.Run("invalid payload is dropped", func(t *testing.T) {
		uc, fm := newTestUsecase(t)
		in := otpInput()
		in.OTP = "12ab"

		err := uc.ConsumeOTPIssued(context.Background(), in)

		assert.NoError(t, err)
		assert.Empty(t, fm.messages())
	})

	t.Run("send failure is retried", func(t *testing.T) {
		uc, fm := newTestUsecase(t)
		fm.err = errors.New("smtp down")

		err := uc.ConsumeOTPIssued(context.Background(), otpInput())
		require.Error(t, err)

		fm.err = nil
		err = uc.ConsumeOTPIssued(context.Background(), otpInput())

		assert.NoError(t, err)
		assert.Len(t, fm.messages(), 1)
	})
}

func TestUsecase_ConsumePasswordReset(t *testing.T) {
	// Arrange
	uc, fm := newTestUsecase(t)

	// Act
	err := uc.ConsumePasswordReset(context.Background(), ConsumePasswordResetInput{
		EventID:    "evt-2",
		UserID:     42,
		Username:   "john",
		Email:      "john@example.com",
		ResetToken: "abc123",
		ExpiresAt:  t0.Add(time.Hour),
	})

	// Assert
	require.NoError(t, err)
	msgs := fm.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reset your password", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTMLBody, "https://shop.example.com/reset-password?token=abc123")
	assert.Contains(t, msgs[0].HTMLBody, "expires in 60 minutes")
}

func TestExpiryMinutes(t *testing.T) {
	assert.Equal(t, 10, expiryMinutes(t0, t0.Add(10*time.Minute)))
	assert.Equal(t, 1, expiryMinutes(t0, t0.Add(-time.Minute)))
}
