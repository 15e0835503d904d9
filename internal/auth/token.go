package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Token derives the admin session token from the server secret and the admin
// password. It is a capability proof, not an identity: any session holding
// this exact value is the admin. The token only changes when the secret or
// the password changes.
func Token(secret, password string) string {
	sum := sha256.Sum256([]byte(secret + password))
	return hex.EncodeToString(sum[:])
}

// TokenEqual compares a presented session value against the expected token
// in constant time.
func TokenEqual(presented, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
