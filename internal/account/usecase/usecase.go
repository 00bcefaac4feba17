package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/goroutine"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyOTPExpiry            = "modules.account.otp_expiry_minutes"
	keyMaxAttempts          = "modules.account.max_verification_attempts"
	keyVerificationCooldown = "modules.account.verification_cooldown_minutes"
	keyResendInterval       = "modules.account.resend_interval_seconds"
	keyPasswordResetExpiry  = "modules.account.password_reset_expiry_minutes"
	keyRefreshTokenTTL      = "jwt.refresh.ttl_days"
	keySweepGrace           = "modules.account.sweep_grace_seconds"

	defaultMaxAttempts      = 5
	defaultCooldown         = 30 * time.Minute
	defaultResendInterval   = 60 * time.Second
	defaultOTPExpiry        = 10 * time.Minute
	defaultPasswordResetTTL = 60 * time.Minute
	defaultRefreshTokenTTL  = 7 * 24 * time.Hour
	defaultSweepGracePeriod = time.Minute
)

type OTPIssuedEvent struct {
	UserID            int64
	Username          string
	Email             string
	OTP               string
	VerificationToken string
	ExpiresAt         time.Time
}

type PasswordResetEvent struct {
	UserID     int64
	Username   string
	Email      string
	ResetToken string
	ExpiresAt  time.Time
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
	PublishPasswordResetRequested(ctx context.Context, msg PasswordResetEvent) error
}

type repoUser interface {
	CreateUser(ctx context.Context, in entity.NewUser) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserCredentialByEmail(ctx context.Context, email string) (*entity.UserCredential, error)
	MarkUserVerified(ctx context.Context, id int64) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

type repoToken interface {
	CreateToken(ctx context.Context, in entity.NewToken) (*entity.Token, error)
	GetTokenByUserAndType(ctx context.Context, userID int64, t entity.TokenType) (*entity.Token, error)
	GetTokenByVerificationToken(ctx context.Context, verificationToken string) (*entity.Token, error)
	GetRefreshTokenByUser(ctx context.Context, userID int64) (*entity.Token, error)
	GetTokenBySecret(ctx context.Context, t entity.TokenType, secret string) (*entity.Token, error)
	DeleteToken(ctx context.Context, id int64) error
	DeleteTokensByUser(ctx context.Context, userID int64) error
	DeleteTokensByUserAndType(ctx context.Context, userID int64, t entity.TokenType) error
	RecordAttempt(ctx context.Context, id int64, at time.Time, maxAttempts int) (*entity.TokenAttempt, error)
	ResetAttempts(ctx context.Context, id int64, attempts int) error
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

type Usecase struct {
	repoUser      repoUser
	repoToken     repoToken
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	password      hash.Hash
	hmac          hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	correlator    uid.StringID
	secret        uid.StringID
	clock         clock.Clocker
	accessJWT     jwt.JWT
	refreshJWT    jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	generateOTP   func() (string, error)
}

type Dependency struct {
	RepoUser      repoUser
	RepoToken     repoToken
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	// Password hashes account passwords (bcrypt or argon2id).
	Password hash.Hash
	// HMAC compares presented secrets against stored token hashes.
	HMAC hash.Hash
	UID  uid.NumberID
	UUID uid.StringID
	// Correlator generates public verification tokens (6 random bytes, hex).
	Correlator uid.StringID
	// Secret generates long-lived secrets (32 random bytes, hex).
	Secret     uid.StringID
	Clock      clock.Clocker
	AccessJWT  jwt.JWT
	RefreshJWT jwt.JWT
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoUser:      dep.RepoUser,
		repoToken:     dep.RepoToken,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		uuid:          dep.UUID,
		correlator:    dep.Correlator,
		secret:        dep.Secret,
		clock:         dep.Clock,
		accessJWT:     dep.AccessJWT,
		refreshJWT:    dep.RefreshJWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		generateOTP:   generateOTP,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}

func (s *Usecase) duration(key string, unit func(string) time.Duration, fallback time.Duration) time.Duration {
	if d := unit(key); d > 0 {
		return d
	}
	return fallback
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt(keyMaxAttempts); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) cooldown() time.Duration {
	return s.duration(keyVerificationCooldown, s.cfg.GetMinute, defaultCooldown)
}

func (s *Usecase) resendInterval() time.Duration {
	return s.duration(keyResendInterval, s.cfg.GetSecond, defaultResendInterval)
}

func (s *Usecase) otpExpiry() time.Duration {
	return s.duration(keyOTPExpiry, s.cfg.GetMinute, defaultOTPExpiry)
}

func (s *Usecase) passwordResetExpiry() time.Duration {
	return s.duration(keyPasswordResetExpiry, s.cfg.GetMinute, defaultPasswordResetTTL)
}

func (s *Usecase) refreshTokenTTL() time.Duration {
	return s.duration(keyRefreshTokenTTL, s.cfg.GetDay, defaultRefreshTokenTTL)
}

func (s *Usecase) sweepGrace() time.Duration {
	return s.duration(keySweepGrace, s.cfg.GetSecond, defaultSweepGracePeriod)
}
