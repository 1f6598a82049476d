package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/codesleeps/palmers/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used for every stored password.
const DefaultHashCost = 12

// MinPasswordLength is the shortest password CheckStrength accepts.
const MinPasswordLength = 8

// PasswordSymbols is the punctuation set a password must draw at least one
// character from.
const PasswordSymbols = "@$!%*?&"

// Strength policy violations, reported in this order.
const (
	ViolationLength    = "Password must be at least 8 characters long"
	ViolationLowercase = "Password must contain at least one lowercase letter"
	ViolationUppercase = "Password must contain at least one uppercase letter"
	ViolationDigit     = "Password must contain at least one number"
	ViolationSymbol    = "Password must contain at least one special character (@$!%*?&)"
)

// PasswordHasher hashes and verifies passwords with bcrypt. It holds no
// mutable state and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given bcrypt cost; a
// non-positive cost selects DefaultHashCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = DefaultHashCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plaintext. The only failure is the
// underlying transform failing (bcrypt refuses inputs over 72 bytes), which
// is reported as common.ErrHashing.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrHashing, err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A wrong password is
// (false, nil); a digest bcrypt cannot parse is (false, common.ErrHashing)
// so that callers never mistake a corrupt record for a bad login.
func (h *PasswordHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", common.ErrHashing, err)
	}
}

// StrengthReport is the outcome of CheckStrength.
type StrengthReport struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations"`
}

// CheckStrength applies the password policy and returns every rule the
// password breaks, not just the first.
func CheckStrength(plaintext string) StrengthReport {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	violations := []string{}
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		violations = append(violations, ViolationLength)
	}
	if !hasLower {
		violations = append(violations, ViolationLowercase)
	}
	if !hasUpper {
		violations = append(violations, ViolationUppercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}
	if !hasSymbol {
		violations = append(violations, ViolationSymbol)
	}

	return StrengthReport{OK: len(violations) == 0, Violations: violations}
}
