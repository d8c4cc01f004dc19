package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for admin password hashes
const BcryptCost = 12

// HashPassword hashes a plain password with bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword reports whether password matches hashedPassword
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
