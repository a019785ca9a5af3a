package security

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the fixed bcrypt work factor for every stored hash.
const PasswordCost = 10

// ErrPasswordTooLong is returned for inputs over bcrypt's 72 byte limit.
// Multi-byte characters count per byte, not per rune.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword hashes a plain text password with bcrypt. Every call uses a
// fresh salt, so the same input never yields the same hash twice.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// VerifyPassword is the boolean form of CheckPassword.
func VerifyPassword(plain, hash string) bool {
	return CheckPassword(hash, plain) == nil
}
