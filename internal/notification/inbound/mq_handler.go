package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/notification/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/messaging"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(keyOfCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OTPIssuedNotification emails a freshly issued OTP. The body carries the
// plaintext code, so it is never logged.
func (h *MQHandler) OTPIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPIssuedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp issued notification", "msg_id", msg.ID, "attempt", msg.Attempt)

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued notification", "msg_id", msg.ID, "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPIssued(ctx, usecase.ConsumeOTPIssuedInput{
		EventID:   payload.EventID,
		UserID:    payload.UserID,
		Username:  payload.Username,
		Email:     payload.Email,
		OTP:       payload.OTP,
		ExpiresAt: payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued", "msg_id", msg.ID, "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordResetNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: password reset notification", "msg_id", msg.ID, "attempt", msg.Attempt)

	var payload event.PasswordResetRequestedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password reset notification", "msg_id", msg.ID, "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordReset(ctx, usecase.ConsumePasswordResetInput{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		Username:   payload.Username,
		Email:      payload.Email,
		ResetToken: payload.ResetToken,
		ExpiresAt:  payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password reset", "msg_id", msg.ID, "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
