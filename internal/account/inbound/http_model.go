package inbound

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/entity"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Avatar    string    `json:"avatar,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u entity.User) UserResponse {
	return UserResponse{
		ID:        strconv.FormatInt(u.ID, 10),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		Verified:  u.Verified,
		Avatar:    u.Avatar,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type VerificationDataResponse struct {
	VerificationToken string    `json:"verificationToken"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
	Phone    string `json:"phone"`
}

type RegisterResponse struct {
	User              UserResponse `json:"user"`
	VerificationToken string       `json:"verificationToken"`
	ExpiresAt         time.Time    `json:"expiresAt"`
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

func (RegisterResponse) Message() string {
	return "Account created successfully. Please verify your account with the OTP sent to your email."
}

type VerifyOTPRequest struct {
	Email             string `json:"email"`
	OTP               string `json:"otp"`
	VerificationToken string `json:"verificationToken"`
}

type VerifyOTPResponse struct {
	Verified bool `json:"verified"`

	already bool
}

func (r VerifyOTPResponse) Message() string {
	if r.already {
		return "Your account is already verified"
	}
	return "Account verified successfully"
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type ResendOTPResponse struct {
	VerificationToken string     `json:"verificationToken,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}

func (ResendOTPResponse) Message() string {
	return "If the account exists and is not verified, an OTP has been sent. Please check your email."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User             UserResponse              `json:"user"`
	AccessToken      string                    `json:"accessToken,omitempty"`
	RefreshToken     string                    `json:"refreshToken,omitempty"`
	VerificationData *VerificationDataResponse `json:"verificationData,omitempty"`
}

func (r LoginResponse) Message() string {
	if r.VerificationData != nil {
		return "Account is not verified. Please verify your account with the OTP sent to your email."
	}
	return "Login successful"
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (RefreshTokenResponse) Message() string {
	return "Access token refreshed successfully"
}

type ProfileResponse struct {
	UserResponse
}

func (ProfileResponse) Message() string {
	return "Profile retrieved successfully"
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out successfully"
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type PasswordForgotResponse struct{}

func (PasswordForgotResponse) Message() string {
	return "If an account with that email exists, we have sent a password reset link."
}

type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password has been reset successfully. Please log in again."
}
