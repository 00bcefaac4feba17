package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

var testUser = entity.User{
	ID:        1234567890123456789,
	Username:  "john",
	Email:     "john@example.com",
	Role:      entity.RoleCustomer,
	CreatedAt: testNow,
	UpdatedAt: testNow,
}

type fakeUC struct {
	register       func(usecase.RegisterInput) (*usecase.RegisterOutput, error)
	verifyOTP      func(usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	resendOTP      func(usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)
	login          func(usecase.LoginInput) (*usecase.LoginOutput, error)
	refreshToken   func(usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	logout         func(usecase.LogoutInput) error
	passwordForgot func(usecase.PasswordForgotInput) error
	passwordReset  func(usecase.PasswordResetInput) error
	profile        func(usecase.ProfileInput) (*entity.User, error)
}

func (f *fakeUC) Register(_ context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	return f.register(in)
}

func (f *fakeUC) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	return f.verifyOTP(in)
}

func (f *fakeUC) ResendOTP(_ context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error) {
	return f.resendOTP(in)
}

func (f *fakeUC) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	return f.login(in)
}

func (f *fakeUC) RefreshToken(_ context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	return f.refreshToken(in)
}

func (f *fakeUC) Logout(_ context.Context, in usecase.LogoutInput) error {
	return f.logout(in)
}

func (f *fakeUC) PasswordForgot(_ context.Context, in usecase.PasswordForgotInput) error {
	return f.passwordForgot(in)
}

func (f *fakeUC) PasswordReset(_ context.Context, in usecase.PasswordResetInput) error {
	return f.passwordReset(in)
}

func (f *fakeUC) Profile(_ context.Context, in usecase.ProfileInput) (*entity.User, error) {
	return f.profile(in)
}

type fakeVerifier struct{}

func (fakeVerifier) Generate(jwt.Subject) (string, error) { return "", nil }

func (fakeVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good-access" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "1234567890123456789"},
		UserID:           testUser.ID,
		UserEmail:        testUser.Email,
		UserRole:         testUser.Role.String(),
	}, nil
}

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "cid-1" }

type result struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Data       map[string]any    `json:"data"`
	Errors     map[string]string `json:"errors"`
}

func newTestServer(t *testing.T, uc *fakeUC) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(""))
	require.NoError(t, err)

	ro := router.NewRouter(router.Config{
		Config: cfg,
		UUID:   fixedUUID{},
		JWT:    fakeVerifier{},
		Clock:  clock.NewFrozen(testNow),
	})
	RegisterHTTPEndpoint(ro, uc)

	return ro
}

func do(t *testing.T, ro *router.Router, method, path, body, bearer string) (int, result) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	return rec.Code, res
}

func TestHTTPEndpoint_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		// Arrange
		var got usecase.RegisterInput
		ro := newTestServer(t, &fakeUC{register: func(in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
			got = in
			return &usecase.RegisterOutput{
				User:              testUser,
				VerificationToken: "a1b2c3d4e5f6",
				ExpiresAt:         testNow.Add(10 * time.Minute),
			}, nil
		}})

		// Act
		code, res := do(t, ro, http.MethodPost, "/users/register",
			`{"username":"john","email":"john@example.com","password":"Sup3rSecret!","role":"customer"}`, "")

		// Assert
		assert.Equal(t, http.StatusCreated, code)
		assert.True(t, res.Success)
		assert.Equal(t, "john", got.Username)
		assert.Equal(t, "customer", got.Role)
		assert.Equal(t, "a1b2c3d4e5f6", res.Data["verificationToken"])
		user := res.Data["user"].(map[string]any)
		assert.Equal(t, "1234567890123456789", user["id"])
		assert.Equal(t, false, user["verified"])
		assert.NotContains(t, user, "password")
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{})

		code, res := do(t, ro, http.MethodPost, "/users/register", `{"username":"john","admin":true}`, "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, res.Success)
	})

	t.Run("conflict", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{register: func(usecase.RegisterInput) (*usecase.RegisterOutput, error) {
			return nil, goerror.NewBusiness("Email already registered", goerror.KindConflict)
		}})

		code, res := do(t, ro, http.MethodPost, "/users/register", `{"email":"john@example.com"}`, "")

		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "Email already registered", res.Message)
	})
}

func TestHTTPEndpoint_VerifyOTP(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{verifyOTP: func(in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
			assert.Equal(t, "123456", in.OTP)
			assert.Equal(t, "a1b2c3d4e5f6", in.VerificationToken)
			return &usecase.VerifyOTPOutput{Verified: true}, nil
		}})

		code, res := do(t, ro, http.MethodPost, "/users/verify-otp",
			`{"email":"john@example.com","otp":"123456","verificationToken":"a1b2c3d4e5f6"}`, "")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Account verified successfully", res.Message)
		assert.Equal(t, true, res.Data["verified"])
	})

	t.Run("already verified", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{verifyOTP: func(usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
			return &usecase.VerifyOTPOutput{Verified: true, AlreadyVerified: true}, nil
		}})

		_, res := do(t, ro, http.MethodPost, "/users/verify-otp", `{"email":"john@example.com"}`, "")

		assert.Equal(t, "Your account is already verified", res.Message)
	})

	t.Run("verification failure carries reason", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{verifyOTP: func(usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
			return nil, goerror.NewVerification("Invalid OTP")
		}})

		code, res := do(t, ro, http.MethodPost, "/users/verify-otp", `{"email":"john@example.com"}`, "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid OTP", res.Errors["reason"])
	})
}

func TestHTTPEndpoint_ResendOTP(t *testing.T) {
	t.Run("unknown email gives generic answer", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{resendOTP: func(usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error) {
			return &usecase.ResendOTPOutput{}, nil
		}})

		code, res := do(t, ro, http.MethodPost, "/users/resend-otp", `{"email":"ghost@example.com"}`, "")

		assert.Equal(t, http.StatusOK, code)
		assert.NotContains(t, res.Data, "verificationToken")
		assert.NotContains(t, res.Data, "expiresAt")
	})

	t.Run("too many requests", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{resendOTP: func(usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error) {
			return nil, goerror.NewBusiness("Please wait before requesting another OTP", goerror.KindTooManyRequests)
		}})

		code, _ := do(t, ro, http.MethodPost, "/users/resend-otp", `{"email":"john@example.com"}`, "")

		assert.Equal(t, http.StatusTooManyRequests, code)
	})
}

func TestHTTPEndpoint_Login(t *testing.T) {
	t.Run("verified user gets tokens", func(t *testing.T) {
		u := testUser
		u.Verified = true
		ro := newTestServer(t, &fakeUC{login: func(usecase.LoginInput) (*usecase.LoginOutput, error) {
			return &usecase.LoginOutput{
				User:    u,
				Session: &usecase.Session{AccessToken: "at", RefreshToken: "rt"},
			}, nil
		}})

		code, res := do(t, ro, http.MethodPost, "/users/login", `{"email":"john@example.com","password":"x"}`, "")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Login successful", res.Message)
		assert.Equal(t, "at", res.Data["accessToken"])
		assert.Equal(t, "rt", res.Data["refreshToken"])
		assert.NotContains(t, res.Data, "verificationData")
	})

	t.Run("unverified user gets verification data", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{login: func(usecase.LoginInput) (*usecase.LoginOutput, error) {
			return &usecase.LoginOutput{
				User: testUser,
				Verification: &usecase.VerificationData{
					VerificationToken: "a1b2c3d4e5f6",
					ExpiresAt:         testNow.Add(10 * time.Minute),
				},
			}, nil
		}})

		code, res := do(t, ro, http.MethodPost, "/users/login", `{"email":"john@example.com","password":"x"}`, "")

		assert.Equal(t, http.StatusOK, code)
		assert.NotContains(t, res.Data, "accessToken")
		vd := res.Data["verificationData"].(map[string]any)
		assert.Equal(t, "a1b2c3d4e5f6", vd["verificationToken"])
	})

	t.Run("wrong credentials", func(t *testing.T) {
		ro := newTestServer(t, &fakeUC{login: func(usecase.LoginInput) (*usecase.LoginOutput, error) {
			return nil, goerror.NewBusiness("Invalid email or password", goerror.KindAuthentication)
		}})

		code, res := do(t, ro, http.MethodPost, "/users/login", `{"email":"john@example.com","password":"x"}`, "")

		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid email or password", res.Message)
	})
}

func TestHTTPEndpoint_RefreshToken(t *testing.T) {
	ro := newTestServer(t, &fakeUC{refreshToken: func(in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
		assert.Equal(t, "rt", in.RefreshToken)
		return &usecase.RefreshTokenOutput{AccessToken: "new-at"}, nil
	}})

	code, res := do(t, ro, http.MethodPost, "/users/refresh-token", `{"refreshToken":"rt"}`, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "new-at", res.Data["accessToken"])
}

func TestHTTPEndpoint_Authenticated(t *testing.T) {
	uc := &fakeUC{
		profile: func(in usecase.ProfileInput) (*entity.User, error) {
			assert.Equal(t, testUser.ID, in.UserID)
			u := testUser
			return &u, nil
		},
		logout: func(in usecase.LogoutInput) error {
			assert.Equal(t, testUser.ID, in.UserID)
			return nil
		},
	}
	ro := newTestServer(t, uc)

	t.Run("profile without token", func(t *testing.T) {
		code, _ := do(t, ro, http.MethodGet, "/users/profile", "", "")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("profile with bad token", func(t *testing.T) {
		code, _ := do(t, ro, http.MethodGet, "/users/profile", "", "forged")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("profile", func(t *testing.T) {
		code, res := do(t, ro, http.MethodGet, "/users/profile", "", "good-access")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "john@example.com", res.Data["email"])
	})

	t.Run("logout", func(t *testing.T) {
		code, res := do(t, ro, http.MethodPost, "/users/logout", "", "good-access")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Logged out successfully", res.Message)
	})
}

func TestHTTPEndpoint_Password(t *testing.T) {
	uc := &fakeUC{
		passwordForgot: func(in usecase.PasswordForgotInput) error {
			assert.Equal(t, "john@example.com", in.Email)
			return nil
		},
		passwordReset: func(in usecase.PasswordResetInput) error {
			if in.Token != "reset-secret" {
				return goerror.NewVerification("Invalid or expired reset token")
			}
			return nil
		},
	}
	ro := newTestServer(t, uc)

	code, _ := do(t, ro, http.MethodPost, "/users/forgot-password", `{"email":"john@example.com"}`, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, ro, http.MethodPost, "/users/reset-password", `{"token":"nope","newPassword":"N3wSecret!"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, ro, http.MethodPost, "/users/reset-password", `{"token":"reset-secret","newPassword":"N3wSecret!"}`, "")
	assert.Equal(t, http.StatusOK, code)
}
