package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/shandysiswandi/accountd/internal/notification/entity"
)

type ConsumePasswordResetInput struct {
	EventID    string    `validate:"required"`
	UserID     int64     `validate:"required,gt=0"`
	Username   string    `validate:"required"`
	Email      string    `validate:"required,email"`
	ResetToken string    `validate:"required"`
	ExpiresAt  time.Time `validate:"required"`
}

func (s *Usecase) ConsumePasswordReset(ctx context.Context, in ConsumePasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["username"] = in.Username
	data["reset_url"] = s.cfg.GetString("app.web") + "/reset-password?token=" + url.QueryEscape(in.ResetToken)
	data["expiry_minutes"] = expiryMinutes(s.clock.Now(), in.ExpiresAt)

	return s.sendEmail(ctx, emailInput{
		EventID:      in.EventID,
		UserID:       in.UserID,
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyAccountPasswordReset,
		TemplateData: data,
	})
}
