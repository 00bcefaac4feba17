package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/accountd/internal/notification/entity"
)

type ConsumeOTPIssuedInput struct {
	EventID   string    `validate:"required"`
	UserID    int64     `validate:"required,gt=0"`
	Username  string    `validate:"required"`
	Email     string    `validate:"required,email"`
	OTP       string    `validate:"required,otp"`
	ExpiresAt time.Time `validate:"required"`
}

func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["username"] = in.Username
	data["otp"] = in.OTP
	data["expiry_minutes"] = expiryMinutes(s.clock.Now(), in.ExpiresAt)

	return s.sendEmail(ctx, emailInput{
		EventID:      in.EventID,
		UserID:       in.UserID,
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyAccountOTP,
		TemplateData: data,
	})
}
