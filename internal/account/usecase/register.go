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

type RegisterInput struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,password"`
	Role     string
	Avatar   string `validate:"omitempty,url,max=2048"`
	Phone    string `validate:"omitempty,e164"`
}

type RegisterOutput struct {
	User              entity.User
	VerificationToken string
	ExpiresAt         time.Time
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	role := entity.ParseRole(in.Role)
	if role.IsElevated() {
		slog.WarnContext(ctx, "registration with elevated role rejected", "role", role.String())
		return nil, goerror.NewBusiness("You are not authorized to create an admin account", goerror.KindUnauthorized)
	}
	if !role.IsValid() {
		return nil, goerror.NewInvalidInput(nil, "role", "role must be one of customer, seller")
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Avatar = strings.TrimSpace(in.Avatar)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.ensureUnique(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	passwordHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoUser.CreateUser(ctx, entity.NewUser{
		ID:           s.uid.Generate(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Avatar:       in.Avatar,
		Phone:        in.Phone,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "user created concurrently", "email", in.Email, "username", in.Username)
		return nil, goerror.NewBusiness("Email or username already registered", goerror.KindConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	vd, err := s.issueOTP(ctx, *user)
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{
		User:              *user,
		VerificationToken: vd.VerificationToken,
		ExpiresAt:         vd.ExpiresAt,
	}, nil
}

func (s *Usecase) ensureUnique(ctx context.Context, email, username string) error {
	_, err := s.repoUser.GetUserByEmail(ctx, email)
	if err == nil {
		slog.WarnContext(ctx, "email already registered", "email", email)
		return goerror.NewBusiness("Email already registered", goerror.KindConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	_, err = s.repoUser.GetUserByUsername(ctx, username)
	if err == nil {
		slog.WarnContext(ctx, "username already taken", "username", username)
		return goerror.NewBusiness("Username already taken", goerror.KindConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", username, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
