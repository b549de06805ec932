package security

import "golang.org/x/crypto/bcrypt"

// bcryptCost applies at hash time only. Verification reads the cost factor
// embedded in the stored hash, so raising this later keeps old hashes valid.
const bcryptCost = 12

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword returns false for any mismatch or malformed hash rather
// than surfacing an error; callers treat all failures as bad credentials.
func VerifyPassword(encoded, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}
