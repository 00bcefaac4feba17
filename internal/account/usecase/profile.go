package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type ProfileInput struct {
	UserID int64 `validate:"required,gt=0"`
}

func (s *Usecase) Profile(ctx context.Context, in ProfileInput) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoUser.GetUserByID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "profile of unknown user", "user_id", in.UserID)
		return nil, goerror.NewBusiness("User not found", goerror.KindNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
