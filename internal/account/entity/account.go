package entity

import "time"

// User is an account as returned by default queries. It never carries the
// password hash.
type User struct {
	ID        int64
	Username  string
	Email     string
	Role      Role
	Verified  bool
	Avatar    string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredential is the login view of a user, including the password hash.
type UserCredential struct {
	User
	PasswordHash string
}

type NewUser struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Avatar       string
	Phone        string
}

// Token is a stored secret. TokenHash is the HMAC of the plaintext; the
// plaintext itself is never persisted.
type Token struct {
	ID                   int64
	UserID               int64
	TokenHash            string
	VerificationToken    string
	Type                 TokenType
	ExpiresAt            time.Time
	CreatedAt            time.Time
	VerificationAttempts int
	LastAttemptAt        *time.Time
	IsBlocked            bool
}

// IsExpired reports whether the token is past its expiry at now.
func (t Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// CooldownElapsed reports whether cooldown has passed since the last
// attempt. A token that was never attempted has no cooldown.
func (t Token) CooldownElapsed(now time.Time, cooldown time.Duration) bool {
	return cooldownElapsed(t.LastAttemptAt, now, cooldown)
}

func cooldownElapsed(last *time.Time, now time.Time, cooldown time.Duration) bool {
	if last == nil {
		return true
	}
	return !now.Before(last.Add(cooldown))
}

// NewToken is the input for creating a token. Secret is plaintext and is
// hashed by the store before it is written.
type NewToken struct {
	ID                int64
	UserID            int64
	Secret            string
	VerificationToken string
	Type              TokenType
	ExpiresAt         time.Time
	CreatedAt         time.Time
}

// TokenAttempt is the outcome of recording a verification attempt: the
// token after the update plus the state it had before.
type TokenAttempt struct {
	Token             Token
	WasBlocked        bool
	PrevLastAttemptAt *time.Time
}

// CooldownElapsed reports whether cooldown passed between the previous
// attempt and now.
func (a TokenAttempt) CooldownElapsed(now time.Time, cooldown time.Duration) bool {
	return cooldownElapsed(a.PrevLastAttemptAt, now, cooldown)
}
