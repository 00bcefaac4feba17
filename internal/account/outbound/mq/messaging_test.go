package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/messaging"
	"github.com/shandysiswandi/accountd/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	msg   messaging.OutgoingMessage
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, msg messaging.OutgoingMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, msg: msg})
	return nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func TestMessaging_PublishOTPIssued(t *testing.T) {
	// Arrange
	pub := &fakePublisher{}
	m := NewMessaging(pub, fixedID("evt-1"), instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "cid-123")
	exp := time.Date(2025, 5, 1, 8, 10, 0, 0, time.UTC)

	// Act
	err := m.PublishOTPIssued(ctx, usecase.OTPIssuedEvent{
		UserID:            42,
		Username:          "alice",
		Email:             "alice@example.com",
		OTP:               "123456",
		VerificationToken: "abcdef012345",
		ExpiresAt:         exp,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, event.OTPIssuedDestination, pub.sent[0].topic)
	assert.Equal(t, "42", string(pub.sent[0].msg.Key))
	assert.Equal(t, "cid-123", pub.sent[0].msg.Headers[keyOfCorrelationID])

	var got event.OTPIssuedMessage
	require.NoError(t, json.Unmarshal(pub.sent[0].msg.Body, &got))
	assert.Equal(t, event.OTPIssuedMessage{
		EventID:           "evt-1",
		UserID:            42,
		Username:          "alice",
		Email:             "alice@example.com",
		OTP:               "123456",
		VerificationToken: "abcdef012345",
		ExpiresAt:         exp,
	}, got)
}

func TestMessaging_PublishPasswordResetRequested(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		pub := &fakePublisher{}
		m := NewMessaging(pub, fixedID("evt-2"), instrument.NewNoop())

		err := m.PublishPasswordResetRequested(context.Background(), usecase.PasswordResetEvent{
			UserID: 7, Email: "bob@example.com", ResetToken: "secret",
		})

		require.NoError(t, err)
		require.Len(t, pub.sent, 1)
		assert.Equal(t, event.PasswordResetRequestedDestination, pub.sent[0].topic)
		assert.JSONEq(t, `{"event_id":"evt-2","user_id":7,"username":"","email":"bob@example.com","reset_token":"secret","expires_at":"0001-01-01T00:00:00Z"}`, string(pub.sent[0].msg.Body))
	})

	t.Run("publish error", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		m := NewMessaging(pub, fixedID("evt-3"), instrument.NewNoop())

		err := m.PublishPasswordResetRequested(context.Background(), usecase.PasswordResetEvent{UserID: 7})

		assert.EqualError(t, err, "broker down")
	})
}
