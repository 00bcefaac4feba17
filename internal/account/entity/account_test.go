package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleCustomer, ParseRole(""))
	assert.Equal(t, RoleSeller, ParseRole(" Seller "))
	assert.True(t, ParseRole("ADMIN").IsElevated())
	assert.True(t, ParseRole("superadmin").IsElevated())
	assert.False(t, ParseRole("customer").IsElevated())
	assert.False(t, ParseRole("root").IsValid())
}

func TestTokenType_IsValid(t *testing.T) {
	assert.True(t, TokenTypeOTP.IsValid())
	assert.True(t, TokenTypeRefresh.IsValid())
	assert.False(t, TokenType("session").IsValid())
}

func TestToken_IsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := Token{ExpiresAt: now}

	assert.False(t, tok.IsExpired(now))
	assert.True(t, tok.IsExpired(now.Add(time.Nanosecond)))
}

func TestCooldownElapsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-30 * time.Minute)
	recent := now.Add(-29 * time.Minute)

	assert.True(t, Token{}.CooldownElapsed(now, 30*time.Minute))
	assert.True(t, Token{LastAttemptAt: &last}.CooldownElapsed(now, 30*time.Minute))
	assert.False(t, Token{LastAttemptAt: &recent}.CooldownElapsed(now, 30*time.Minute))
	assert.True(t, TokenAttempt{PrevLastAttemptAt: &last}.CooldownElapsed(now, 30*time.Minute))
	assert.False(t, TokenAttempt{PrevLastAttemptAt: &recent}.CooldownElapsed(now, 30*time.Minute))
}
