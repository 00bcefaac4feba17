package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginOutput carries either a session or, for unverified users,
// Verification. Never both.
type LoginOutput struct {
	User         entity.User
	Session      *Session
	Verification *VerificationData
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoUser.GetUserCredentialByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidCredential, goerror.KindAuthentication)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(cred.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", cred.ID)
		return nil, goerror.NewBusiness(msgInvalidCredential, goerror.KindAuthentication)
	}

	if !cred.Verified {
		vd, err := s.pendingOTP(ctx, cred.ID)
		if err != nil {
			return nil, err
		}
		if vd == nil {
			if vd, err = s.issueOTP(ctx, cred.User); err != nil {
				return nil, err
			}
		}

		return &LoginOutput{User: cred.User, Verification: vd}, nil
	}

	sess, err := s.issueSession(ctx, cred.User)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{User: cred.User, Session: sess}, nil
}
