package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used when the config doesn't set one.
// Roughly 250ms per hash on current server hardware: negligible for a login,
// expensive for a brute-force attacker. Raise it as hardware gets faster.
const defaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
//
// bcrypt generates a random salt per hash and embeds salt and cost in the
// digest, so the digest string is self-contained and stored as-is in the
// hashed_password column. The cost is injectable so tests can run at the
// bcrypt minimum instead of paying ~250ms per operation.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. A cost outside bcrypt's
// valid range falls back to the default.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService at bcrypt's minimum
// cost. Only for tests; far too weak for stored credentials.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt digest of plaintext.
//
// bcrypt silently truncates input beyond 72 bytes, so longer passwords are
// rejected explicitly rather than partially hashed.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored bcrypt digest.
//
// It fails closed: a malformed or empty digest (e.g. an account created via
// GitHub login, which has no password) simply returns false. The comparison
// inside bcrypt is constant-time, so response timing does not reveal where
// a mismatch occurred.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
