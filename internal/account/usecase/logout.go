package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type LogoutInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// Logout deletes the stored refresh token of the user. Access tokens stay
// valid until they expire.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoToken.DeleteTokensByUserAndType(ctx, in.UserID, entity.TokenTypeRefresh); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete refresh tokens", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
