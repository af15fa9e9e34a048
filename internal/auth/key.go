package auth

import "golang.org/x/crypto/bcrypt"

// HashClientKey returns the bcrypt hash stored in AUTH_CLIENT_KEY_HASH.
func HashClientKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckClientKey(key, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
