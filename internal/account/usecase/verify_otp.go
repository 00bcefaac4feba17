package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Email             string `validate:"required,email"`
	OTP               string `validate:"required,otp"`
	VerificationToken string `validate:"required,hexadecimal,max=64"`
}

type VerifyOTPOutput struct {
	Verified        bool
	AlreadyVerified bool
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.OTP = strings.TrimSpace(in.OTP)
	in.VerificationToken = strings.TrimSpace(in.VerificationToken)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	tok, err := s.repoToken.GetTokenByVerificationToken(ctx, in.VerificationToken)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification token not found")
		return nil, goerror.NewVerification(reasonInvalidVerificationToken)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get token by verification token", "error", err)
		return nil, goerror.NewServer(err)
	}
	if tok.Type != entity.TokenTypeOTP {
		slog.WarnContext(ctx, "verification token has unexpected type", "token_id", tok.ID, "type", tok.Type.String())
		return nil, goerror.NewVerification(reasonInvalidVerificationToken)
	}

	user, err := s.repoUser.GetUserByID(ctx, tok.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "owner of verification token not found", "user_id", tok.UserID)
		return nil, goerror.NewVerification(reasonInvalidVerificationToken)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", tok.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.Email != in.Email {
		slog.WarnContext(ctx, "verification token does not belong to email", "user_id", user.ID)
		return nil, goerror.NewVerification(reasonInvalidVerificationToken)
	}

	if user.Verified {
		return &VerifyOTPOutput{Verified: true, AlreadyVerified: true}, nil
	}

	// The attempt is counted before any check so that expired or blocked
	// tokens cannot be probed for free.
	attempt, err := s.repoToken.RecordAttempt(ctx, tok.ID, s.clock.Now(), s.maxAttempts())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "token removed during verification", "token_id", tok.ID)
		return nil, goerror.NewVerification(reasonOTPExpired)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo record attempt", "token_id", tok.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.validateTokenForVerification(ctx, attempt); err != nil {
		return nil, err
	}

	if !s.hmac.Verify(attempt.Token.TokenHash, in.OTP) {
		slog.WarnContext(ctx, "otp mismatch",
			"user_id", user.ID,
			"token_id", tok.ID,
			"attempts", attempt.Token.VerificationAttempts,
		)
		return nil, goerror.NewVerification(reasonInvalidOTP)
	}

	if err := s.repoUser.MarkUserVerified(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark user verified", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoToken.DeleteToken(ctx, tok.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete consumed token", "token_id", tok.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyOTPOutput{Verified: true}, nil
}
