package entity

import "strings"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) String() string {
	return string(r)
}

// IsElevated reports whether the role cannot be claimed through self-registration.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes raw. An empty value defaults to RoleCustomer.
func ParseRole(raw string) Role {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return RoleCustomer
	}
	return Role(raw)
}

type TokenType string

const (
	// TokenTypeOTP is a 6 digit code sent by email and paired with a public
	// verification token.
	TokenTypeOTP TokenType = "otp"

	// TokenTypeEmailVerification is a long-lived link secret for email checks.
	TokenTypeEmailVerification TokenType = "email_verification"

	// TokenTypePasswordReset is a long-lived secret sent by email to reset a password.
	TokenTypePasswordReset TokenType = "password_reset"

	// TokenTypeRefresh is the server-side copy of an issued refresh JWT.
	TokenTypeRefresh TokenType = "refresh_token"
)

func (t TokenType) String() string {
	return string(t)
}

// SecretIndexed reports whether tokens of this type can be found by their
// secret. OTP codes repeat across users, so an OTP is only reachable through
// its owner or its verification token.
func (t TokenType) SecretIndexed() bool {
	return t.IsValid() && t != TokenTypeOTP
}

func (t TokenType) IsValid() bool {
	switch t {
	case TokenTypeOTP, TokenTypeEmailVerification, TokenTypePasswordReset, TokenTypeRefresh:
		return true
	default:
		return false
	}
}
