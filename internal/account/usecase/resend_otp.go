package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type ResendOTPInput struct {
	Email string `validate:"required,email"`
}

// ResendOTPOutput is empty when no OTP was sent, so callers cannot tell an
// unknown email from a verified one.
type ResendOTPOutput struct {
	VerificationToken string
	ExpiresAt         time.Time
}

func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) (*ResendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoUser.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "resend otp for unknown email", "email", in.Email)
		return &ResendOTPOutput{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.Verified {
		slog.WarnContext(ctx, "resend otp for verified user", "user_id", user.ID)
		return &ResendOTPOutput{}, nil
	}

	existing, err := s.repoToken.GetTokenByUserAndType(ctx, user.ID, entity.TokenTypeOTP)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get otp token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if existing != nil {
		now := s.clock.Now()
		if now.Sub(existing.CreatedAt) < s.resendInterval() {
			slog.WarnContext(ctx, "resend otp rate limited", "user_id", user.ID)
			return nil, goerror.NewBusiness("Please wait before requesting a new OTP", goerror.KindTooManyRequests)
		}

		if existing.IsBlocked && !existing.CooldownElapsed(now, s.cooldown()) {
			slog.WarnContext(ctx, "resend otp while blocked", "user_id", user.ID)
			return nil, goerror.NewVerification(blockedReason(s.cooldown()))
		}
	}

	vd, err := s.issueOTP(ctx, *user)
	if err != nil {
		return nil, err
	}

	return &ResendOTPOutput{VerificationToken: vd.VerificationToken, ExpiresAt: vd.ExpiresAt}, nil
}
