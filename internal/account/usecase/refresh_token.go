package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
}

type RefreshTokenOutput struct {
	AccessToken string
}

// RefreshToken exchanges a refresh token for a new access token. The
// signature is checked first; the stored record must also still exist and
// match. The refresh token itself is not rotated.
func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	claims, err := s.refreshJWT.Verify(in.RefreshToken)
	if err != nil {
		slog.WarnContext(ctx, "refresh token rejected by signer", "error", err)
		return nil, goerror.NewBusiness(msgInvalidRefreshToken, goerror.KindAuthentication)
	}

	tok, err := s.repoToken.GetRefreshTokenByUser(ctx, claims.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token record not found", "user_id", claims.UserID)
		return nil, goerror.NewBusiness(msgInvalidRefreshToken, goerror.KindAuthentication)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get refresh token by user", "user_id", claims.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.validStoredRefresh(tok, in.RefreshToken, s.clock.Now()) {
		slog.WarnContext(ctx, "refresh token record does not back presented token",
			"user_id", claims.UserID,
			"blocked", tok.IsBlocked,
		)
		return nil, goerror.NewBusiness(msgInvalidRefreshToken, goerror.KindAuthentication)
	}

	user, err := s.repoUser.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "owner of refresh token not found", "user_id", claims.UserID)
		return nil, goerror.NewBusiness(msgInvalidRefreshToken, goerror.KindAuthentication)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", claims.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	access, err := signToken(s.accessJWT, *user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshTokenOutput{AccessToken: access}, nil
}
