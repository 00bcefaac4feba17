package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
)

const (
	msgInvalidCredential   = "Invalid email or password"
	msgInvalidRefreshToken = "Invalid refresh token"
)

// Session is a freshly issued token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
}

func subjectOf(user entity.User) jwt.Subject {
	return jwt.Subject{UserID: user.ID, Email: user.Email, Role: user.Role.String()}
}

// signToken issues a bearer token for user with signer. Access and refresh
// tokens differ only in the signer's secret, audience and TTL.
func signToken(signer jwt.JWT, user entity.User) (string, error) {
	return signer.Generate(subjectOf(user))
}

// issueSession signs an access and a refresh token for user and replaces the
// stored refresh token. Delete and create are not atomic; a failure between
// them leaves the user without a session.
func (s *Usecase) issueSession(ctx context.Context, user entity.User) (*Session, error) {
	access, err := signToken(s.accessJWT, user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refresh, err := signToken(s.refreshJWT, user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoToken.DeleteTokensByUserAndType(ctx, user.ID, entity.TokenTypeRefresh); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete refresh tokens", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if _, err := s.repoToken.CreateToken(ctx, entity.NewToken{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Secret:    refresh,
		Type:      entity.TokenTypeRefresh,
		ExpiresAt: now.Add(s.refreshTokenTTL()),
		CreatedAt: now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Session{AccessToken: access, RefreshToken: refresh}, nil
}

// validStoredRefresh reports whether the stored record still backs the
// presented refresh token.
func (s *Usecase) validStoredRefresh(tok *entity.Token, presented string, now time.Time) bool {
	return !tok.IsBlocked && !tok.IsExpired(now) && s.hmac.Verify(tok.TokenHash, presented)
}
