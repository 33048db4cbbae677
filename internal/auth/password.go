// Package auth hashes and verifies user passwords for the CLI's local
// user store. bookmarkd has no network-facing login flow today, but
// credentials are still hashed at rest the same way a server-backed
// deployment of this store would, so adding one later doesn't mean
// touching the schema or this package.
package auth

import "golang.org/x/crypto/bcrypt"

// cost matches the bcrypt default; bumping it only makes sense once
// hashing runs on request-serving hardware instead of a local CLI.
const cost = bcrypt.DefaultCost

// HashPassword returns a bcrypt hash of password suitable for
// store.CreateUser's passwordHash argument.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
