package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/messaging"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, uuid uid.StringID, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, uuid: uuid, ins: ins}
}

func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) (err error) {
	ctx, span := m.ins.Tracer("account.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer func() { endSpan(span, err) }()

	return m.publish(ctx, event.OTPIssuedDestination, msg.UserID, event.OTPIssuedMessage{
		EventID:           m.uuid.Generate(),
		UserID:            msg.UserID,
		Username:          msg.Username,
		Email:             msg.Email,
		OTP:               msg.OTP,
		VerificationToken: msg.VerificationToken,
		ExpiresAt:         msg.ExpiresAt,
	})
}

func (m *Messaging) PublishPasswordResetRequested(ctx context.Context, msg usecase.PasswordResetEvent) (err error) {
	ctx, span := m.ins.Tracer("account.outbound.mq").Start(ctx, "PublishPasswordResetRequested")
	defer func() { endSpan(span, err) }()

	return m.publish(ctx, event.PasswordResetRequestedDestination, msg.UserID, event.PasswordResetRequestedMessage{
		EventID:    m.uuid.Generate(),
		UserID:     msg.UserID,
		Username:   msg.Username,
		Email:      msg.Email,
		ResetToken: msg.ResetToken,
		ExpiresAt:  msg.ExpiresAt,
	})
}

// publish keys messages by user so brokers that partition keep one user's
// events in order.
func (m *Messaging) publish(ctx context.Context, topic string, userID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return m.client.Publish(ctx, topic, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(userID, 10)),
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
