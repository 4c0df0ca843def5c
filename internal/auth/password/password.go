// Package password hashes and verifies user credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns a salted bcrypt hash of the password. The salt is random per
// call, so hashing the same input twice yields different outputs.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plain matches the encoded hash. Malformed hashes
// verify as false rather than erroring.
func Verify(plain, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}
