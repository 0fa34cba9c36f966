package service

import "golang.org/x/crypto/bcrypt"

// SecretVerifier compares a plaintext transaction PIN against a stored hash.
// The engine never manages token issuance or session state; it only needs
// this comparison.
type SecretVerifier interface {
	Verify(hash, plaintext string) bool
}

// BcryptVerifier verifies PINs hashed with bcrypt.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPIN hashes a plaintext PIN for storage. Used at account provisioning.
func HashPIN(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
