package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`
}

// PasswordForgot emails a reset secret when the account exists. The result
// is the same either way.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) error {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoUser.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password forgot for unknown email", "email", in.Email)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoToken.DeleteTokensByUserAndType(ctx, user.ID, entity.TokenTypePasswordReset); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete reset tokens", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	secret := s.secret.Generate()
	now := s.clock.Now()
	tok, err := s.repoToken.CreateToken(ctx, entity.NewToken{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Secret:    secret,
		Type:      entity.TokenTypePasswordReset,
		ExpiresAt: now.Add(s.passwordResetExpiry()),
		CreatedAt: now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create reset token", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	ev := PasswordResetEvent{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ResetToken: secret,
		ExpiresAt:  tok.ExpiresAt,
	}
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPasswordResetRequested(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish password reset requested", "user_id", ev.UserID, "error", err)
		}
		return nil
	})

	return nil
}
