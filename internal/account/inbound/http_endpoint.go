package inbound

import (
	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for registration, verification and
// session workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates an unverified account and emails an OTP.
// @Summary Register account
// @Description Creates a customer or seller account and sends a one-time password to the email address.
// @Tags Account
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.envelope{data=RegisterResponse} "Account created"
// @Failure 400 {object} router.envelope "Validation error"
// @Failure 401 {object} router.envelope "Elevated role requested"
// @Failure 409 {object} router.envelope "Email or username already registered"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Avatar:   req.Avatar,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		User:              toUserResponse(resp.User),
		VerificationToken: resp.VerificationToken,
		ExpiresAt:         resp.ExpiresAt,
	}, nil
}

// VerifyOTP confirms an account with the emailed code.
// @Summary Verify OTP
// @Description Checks the OTP against the verification token. Five failed attempts block the token for the cooldown period.
// @Tags Account
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verification payload"
// @Success 200 {object} router.envelope{data=VerifyOTPResponse} "Account verified"
// @Failure 400 {object} router.envelope "Invalid, expired or blocked OTP"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email:             req.Email,
		OTP:               req.OTP,
		VerificationToken: req.VerificationToken,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Verified: resp.Verified, already: resp.AlreadyVerified}, nil
}

// ResendOTP issues a new OTP for an unverified account.
// @Summary Resend OTP
// @Description Replaces the pending OTP. The response does not reveal whether the email is registered.
// @Tags Account
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "Resend payload"
// @Success 200 {object} router.envelope{data=ResendOTPResponse} "OTP sent when applicable"
// @Failure 400 {object} router.envelope "Validation error or blocked token"
// @Failure 429 {object} router.envelope "Requested too soon"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/resend-otp [post]
func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	out := ResendOTPResponse{VerificationToken: resp.VerificationToken}
	if !resp.ExpiresAt.IsZero() {
		out.ExpiresAt = &resp.ExpiresAt
	}

	return out, nil
}

// Login authenticates a user.
// @Summary Login
// @Description Returns access and refresh tokens for verified accounts, or verification data for unverified ones.
// @Tags Account, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.envelope{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.envelope "Validation error or blocked token"
// @Failure 401 {object} router.envelope "Invalid email or password"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	out := LoginResponse{User: toUserResponse(resp.User)}
	if resp.Session != nil {
		out.AccessToken = resp.Session.AccessToken
		out.RefreshToken = resp.Session.RefreshToken
	}
	if resp.Verification != nil {
		out.VerificationData = &VerificationDataResponse{
			VerificationToken: resp.Verification.VerificationToken,
			ExpiresAt:         resp.Verification.ExpiresAt,
		}
	}

	return out, nil
}

// RefreshToken issues a new access token.
// @Summary Refresh access token
// @Description Exchanges a valid refresh token for a new access token. The refresh token is not rotated.
// @Tags Account, Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.envelope{data=RefreshTokenResponse} "New access token"
// @Failure 400 {object} router.envelope "Validation error"
// @Failure 401 {object} router.envelope "Invalid refresh token"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/refresh-token [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{AccessToken: resp.AccessToken}, nil
}

// Logout revokes the stored refresh token of the caller.
// @Summary Logout
// @Tags Account, Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.envelope "Logged out"
// @Failure 401 {object} router.envelope "Authentication required"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.KindUnauthorized)
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{UserID: clm.UserID}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// PasswordForgot emails a password reset token.
// @Summary Forgot password
// @Description Sends a reset token when the email is registered. The response is the same either way.
// @Tags Account, Password
// @Accept json
// @Produce json
// @Param request body PasswordForgotRequest true "Forgot password payload"
// @Success 200 {object} router.envelope "Reset email sent when applicable"
// @Failure 400 {object} router.envelope "Validation error"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/forgot-password [post]
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return PasswordForgotResponse{}, nil
}

// PasswordReset sets a new password using a reset token.
// @Summary Reset password
// @Description Sets a new password and revokes every token of the account.
// @Tags Account, Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Reset password payload"
// @Success 200 {object} router.envelope "Password reset"
// @Failure 400 {object} router.envelope "Validation error or invalid token"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/reset-password [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return PasswordResetResponse{}, nil
}

// Profile returns the authenticated user.
// @Summary Get profile
// @Tags Account, Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.envelope{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.envelope "Authentication required"
// @Failure 404 {object} router.envelope "User not found"
// @Failure 500 {object} router.envelope "Internal server error"
// @Router /users/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.KindUnauthorized)
	}

	user, err := h.uc.Profile(r.Context(), usecase.ProfileInput{UserID: clm.UserID})
	if err != nil {
		return nil, err
	}

	return ProfileResponse{UserResponse: toUserResponse(*user)}, nil
}
