package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

const reasonInvalidResetToken = "Invalid or expired reset token"

type PasswordResetInput struct {
	Token       string `validate:"required,hexadecimal,len=64"`
	NewPassword string `validate:"required,password"`
}

// PasswordReset sets a new password and removes every token of the user,
// which also ends all sessions.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tok, err := s.repoToken.GetTokenBySecret(ctx, entity.TokenTypePasswordReset, in.Token)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "reset token not found")
		return goerror.NewVerification(reasonInvalidResetToken)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get reset token", "error", err)
		return goerror.NewServer(err)
	}

	if tok.IsExpired(s.clock.Now()) {
		if err := s.repoToken.DeleteToken(ctx, tok.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete expired token", "token_id", tok.ID, "error", err)
		}
		slog.WarnContext(ctx, "reset token expired", "user_id", tok.UserID)
		return goerror.NewVerification(reasonInvalidResetToken)
	}

	passwordHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoUser.UpdateUserPassword(ctx, tok.UserID, string(passwordHash)); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "owner of reset token not found", "user_id", tok.UserID)
			return goerror.NewVerification(reasonInvalidResetToken)
		}
		slog.ErrorContext(ctx, "failed to repo update user password", "user_id", tok.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoToken.DeleteTokensByUser(ctx, tok.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user tokens", "user_id", tok.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
