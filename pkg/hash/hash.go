package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is deliberately high: passwords are human-chosen.
	PasswordCost = 12
	// TokenCost is lower: refresh tokens come from a CSPRNG-backed signer,
	// so offline guessing is already infeasible.
	TokenCost = 10
)

// invalidHash is compared against the supplied password whenever no account
// matches the login email, so unknown-email and wrong-password lookups cost
// the same wall time.
var invalidHash, _ = bcrypt.GenerateFromPassword([]byte("login-sentinel-invalid"), PasswordCost)

func Password(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ComparePassword(hashed, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

// CompareInvalid burns one bcrypt comparison against a fixed hash. It never
// succeeds; it exists so the no-such-account path is not observably faster
// than the wrong-password path.
func CompareInvalid(raw string) {
	_ = bcrypt.CompareHashAndPassword(invalidHash, []byte(raw))
}

// Token hashes a refresh token for storage. bcrypt reads at most 72 bytes
// and two JWTs minted in the same second share a long prefix, so the token
// is reduced to a SHA-256 digest first; otherwise a rotated-out token could
// still match the stored hash.
func Token(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(digest(raw), TokenCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CompareToken(hashed, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), digest(raw)) == nil
}

func digest(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return []byte(hex.EncodeToString(sum[:]))
}
