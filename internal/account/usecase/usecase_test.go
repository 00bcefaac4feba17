package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/account/outbound/cache"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/goroutine"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const testConfig = `
modules:
  account:
    otp_expiry_minutes: 60
    max_verification_attempts: 5
    verification_cooldown_minutes: 30
    resend_interval_seconds: 60
    password_reset_expiry_minutes: 60
    sweep_grace_seconds: 60
jwt:
  refresh:
    ttl_days: 7
`

const testPassword = "Sup3rSecret!"

var t0 = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*entity.UserCredential
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*entity.UserCredential{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, in entity.NewUser) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == in.Email || strings.EqualFold(u.Username, in.Username) {
			return nil, goerror.ErrConflict
		}
	}

	cred := &entity.UserCredential{
		User: entity.User{
			ID:        in.ID,
			Username:  in.Username,
			Email:     in.Email,
			Role:      in.Role,
			Avatar:    in.Avatar,
			Phone:     in.Phone,
			CreatedAt: t0,
			UpdatedAt: t0,
		},
		PasswordHash: in.PasswordHash,
	}
	f.users[in.ID] = cred

	user := cred.User
	return &user, nil
}

func (f *fakeUserRepo) find(match func(*entity.UserCredential) bool) (*entity.UserCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	cred, err := f.find(func(u *entity.UserCredential) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	return &cred.User, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	cred, err := f.find(func(u *entity.UserCredential) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	return &cred.User, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	cred, err := f.find(func(u *entity.UserCredential) bool { return strings.EqualFold(u.Username, username) })
	if err != nil {
		return nil, err
	}
	return &cred.User, nil
}

func (f *fakeUserRepo) GetUserCredentialByEmail(_ context.Context, email string) (*entity.UserCredential, error) {
	return f.find(func(u *entity.UserCredential) bool { return u.Email == email })
}

func (f *fakeUserRepo) MarkUserVerified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (f *fakeUserRepo) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	otps   []OTPIssuedEvent
	resets []PasswordResetEvent
}

func (f *fakePublisher) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otps = append(f.otps, msg)
	return nil
}

func (f *fakePublisher) PublishPasswordResetRequested(_ context.Context, msg PasswordResetEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, msg)
	return nil
}

func (f *fakePublisher) otpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.otps)
}

func (f *fakePublisher) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resets)
}

// countingTokenRepo records how often the refresh record is looked up.
type countingTokenRepo struct {
	*cache.Cache
	refreshLookups atomic.Int32
}

func (c *countingTokenRepo) GetRefreshTokenByUser(ctx context.Context, userID int64) (*entity.Token, error) {
	c.refreshLookups.Inc()
	return c.Cache.GetRefreshTokenByUser(ctx, userID)
}

type testEnv struct {
	uc         *Usecase
	users      *fakeUserRepo
	tokens     *countingTokenRepo
	pub        *fakePublisher
	clock      *clock.Frozen
	hmac       hash.Hash
	password   hash.Hash
	accessJWT  *jwt.Symmetric
	refreshJWT *jwt.Symmetric
}

func newSigner(t *testing.T, clk *clock.Frozen, secret, audience string, ttl time.Duration) *jwt.Symmetric {
	t.Helper()

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat(secret, 64)),
		Issuer:    "accountd",
		Audiences: []string{audience},
		TTL:       ttl,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	return signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFrozen(t0)
	hmac := hash.NewHMACSHA256("token-secret")
	password := hash.NewBcrypt(4, "pepper")
	ins := instrument.NewNoop()

	mgr := goroutine.NewManager(10)
	t.Cleanup(func() { _ = mgr.Wait() })

	env := &testEnv{
		users:      newFakeUserRepo(),
		tokens:     &countingTokenRepo{Cache: cache.NewCache(client, hmac, clk, ins, cache.Config{Grace: time.Minute})},
		pub:        &fakePublisher{},
		clock:      clk,
		hmac:       hmac,
		password:   password,
		accessJWT:  newSigner(t, clk, "a", "accountd-access", 24*time.Hour),
		refreshJWT: newSigner(t, clk, "r", "accountd-refresh", 7*24*time.Hour),
	}

	env.uc = New(Dependency{
		RepoUser:      env.users,
		RepoToken:     env.tokens,
		RepoMessaging: env.pub,
		Validator:     v,
		Config:        cfg,
		Password:      password,
		HMAC:          hmac,
		UID:           sf,
		UUID:          uid.NewUUID(),
		Correlator:    uid.NewHex(6),
		Secret:        uid.NewHex(32),
		Clock:         clk,
		AccessJWT:     env.accessJWT,
		RefreshJWT:    env.refreshJWT,
		Instrument:    ins,
		Goroutine:     mgr,
	})

	return env
}

// waitOTP blocks until the n-th OTP event was published and returns it.
func (e *testEnv) waitOTP(t *testing.T, n int) OTPIssuedEvent {
	t.Helper()

	require.Eventually(t, func() bool { return e.pub.otpCount() >= n }, time.Second, 5*time.Millisecond)

	e.pub.mu.Lock()
	defer e.pub.mu.Unlock()
	return e.pub.otps[n-1]
}

func (e *testEnv) waitReset(t *testing.T, n int) PasswordResetEvent {
	t.Helper()

	require.Eventually(t, func() bool { return e.pub.resetCount() >= n }, time.Second, 5*time.Millisecond)

	e.pub.mu.Lock()
	defer e.pub.mu.Unlock()
	return e.pub.resets[n-1]
}

func (e *testEnv) register(t *testing.T, username, email string) *RegisterOutput {
	t.Helper()

	out, err := e.uc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return out
}

// registerVerified creates a user whose email is already confirmed.
func (e *testEnv) registerVerified(t *testing.T, username, email string) *RegisterOutput {
	t.Helper()

	out := e.register(t, username, email)
	require.NoError(t, e.users.MarkUserVerified(context.Background(), out.User.ID))
	return out
}

func wrongOTP(code string) string {
	if code == "100000" {
		return "100001"
	}
	return "100000"
}

func requireKind(t *testing.T, err error, kind goerror.Kind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, goerror.KindOf(err), "error: %v", err)
}
