package entity

import "time"

// TokenClaims is the claim set carried by an issued bearer token.
// Tokens are stateless: nothing is stored server-side after issuance.
type TokenClaims struct {
	Subject   string    // Username the token was issued to ("user_name" on the wire).
	IssuedAt  time.Time // "iat", unix seconds encoded as a string.
	ExpiresAt time.Time // "exp", unix seconds encoded as a string.
}
