// Package jwt signs and verifies JSON Web Tokens.
//
// It includes:
//   - Claims, the registered claims plus the authenticated user's identity.
//   - Symmetric, an HS512 implementation bound to one secret, issuer and audience.
//   - Context helpers that carry verified claims from middleware to handlers.
//
// Access and refresh tokens are two Symmetric instances with distinct secrets
// and audiences, so one kind never verifies as the other.
package jwt
