package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

const (
	otpMin = 100000
	otpMax = 999999
)

const (
	reasonInvalidVerificationToken = "Invalid or expired verification token"
	reasonOTPExpired               = "OTP has expired. Please request a new OTP."
	reasonInvalidOTP               = "Invalid OTP. Please try again."
)

var otpSpan = big.NewInt(otpMax - otpMin + 1)

// generateOTP returns a uniformly random 6 digit code in [100000, 999999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

func blockedReason(cooldown time.Duration) string {
	return fmt.Sprintf("Too many failed attempts. Please try again in %d minutes.", int(cooldown.Minutes()))
}

// VerificationData lets the client continue an OTP flow without ever seeing
// the code itself.
type VerificationData struct {
	VerificationToken string
	ExpiresAt         time.Time
}

// issueOTP replaces any OTP of user with a new one and emails the code.
func (s *Usecase) issueOTP(ctx context.Context, user entity.User) (*VerificationData, error) {
	code, err := s.generateOTP()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoToken.DeleteTokensByUserAndType(ctx, user.ID, entity.TokenTypeOTP); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete otp tokens", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	tok, err := s.repoToken.CreateToken(ctx, entity.NewToken{
		ID:                s.uid.Generate(),
		UserID:            user.ID,
		Secret:            code,
		VerificationToken: s.correlator.Generate(),
		Type:              entity.TokenTypeOTP,
		ExpiresAt:         now.Add(s.otpExpiry()),
		CreatedAt:         now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.dispatchOTP(ctx, OTPIssuedEvent{
		UserID:            user.ID,
		Username:          user.Username,
		Email:             user.Email,
		OTP:               code,
		VerificationToken: tok.VerificationToken,
		ExpiresAt:         tok.ExpiresAt,
	})

	return &VerificationData{VerificationToken: tok.VerificationToken, ExpiresAt: tok.ExpiresAt}, nil
}

// dispatchOTP publishes the email event after the caller has decided its
// response. Failures are logged only.
func (s *Usecase) dispatchOTP(ctx context.Context, ev OTPIssuedEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPIssued(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued", "user_id", ev.UserID, "error", err)
		}
		return nil
	})
}

// pendingOTP returns the verification data of an OTP that can be handed out
// again instead of issuing a new one: it was created within the resend
// interval and is neither expired nor blocked. A blocked token inside its
// cooldown yields a verification error.
func (s *Usecase) pendingOTP(ctx context.Context, userID int64) (*VerificationData, error) {
	tok, err := s.repoToken.GetTokenByUserAndType(ctx, userID, entity.TokenTypeOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp token", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if tok.IsBlocked && !tok.CooldownElapsed(now, s.cooldown()) {
		slog.WarnContext(ctx, "otp token is blocked", "user_id", userID, "token_id", tok.ID)
		return nil, goerror.NewVerification(blockedReason(s.cooldown()))
	}

	if !tok.IsBlocked && !tok.IsExpired(now) && now.Sub(tok.CreatedAt) < s.resendInterval() {
		return &VerificationData{VerificationToken: tok.VerificationToken, ExpiresAt: tok.ExpiresAt}, nil
	}

	return nil, nil
}

// validateTokenForVerification decides whether a token may be compared after
// its attempt was recorded. A blocked token whose cooldown has elapsed is
// unblocked with the current attempt as the first of the new window; an
// expired token is deleted.
func (s *Usecase) validateTokenForVerification(ctx context.Context, attempt *entity.TokenAttempt) error {
	now := s.clock.Now()
	tok := attempt.Token

	if attempt.WasBlocked {
		if !attempt.CooldownElapsed(now, s.cooldown()) {
			slog.WarnContext(ctx, "verification attempt on blocked token", "token_id", tok.ID, "attempts", tok.VerificationAttempts)
			return goerror.NewVerification(blockedReason(s.cooldown()))
		}

		if err := s.repoToken.ResetAttempts(ctx, tok.ID, 1); err != nil {
			if errors.Is(err, goerror.ErrNotFound) {
				return goerror.NewVerification(reasonOTPExpired)
			}
			slog.ErrorContext(ctx, "failed to repo reset token attempts", "token_id", tok.ID, "error", err)
			return goerror.NewServer(err)
		}
		slog.InfoContext(ctx, "verification cooldown elapsed, attempts reset", "token_id", tok.ID)
	}

	if tok.IsExpired(now) {
		if err := s.repoToken.DeleteToken(ctx, tok.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete expired token", "token_id", tok.ID, "error", err)
		}
		slog.WarnContext(ctx, "verification attempt on expired token", "token_id", tok.ID)
		return goerror.NewVerification(reasonOTPExpired)
	}

	return nil
}
