package inbound

import (
	"context"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error

	Profile(ctx context.Context, in usecase.ProfileInput) (*entity.User, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration & verification
	r.POST("/users/register", end.Register)
	r.POST("/users/verify-otp", end.VerifyOTP)
	r.POST("/users/resend-otp", end.ResendOTP)

	// Session
	r.POST("/users/login", end.Login)
	r.POST("/users/refresh-token", end.RefreshToken)
	r.POST("/users/logout", end.Logout, r.Authenticated())

	// Password
	r.POST("/users/forgot-password", end.PasswordForgot)
	r.POST("/users/reset-password", end.PasswordReset)

	// Profile
	r.GET("/users/profile", end.Profile, r.Authenticated())
}
