package user

import "golang.org/x/crypto/bcrypt"

// CredentialChecker is the one-way password primitive.
type CredentialChecker interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type BcryptChecker struct {
	Cost int
}

func (b BcryptChecker) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hashed), err
}

func (b BcryptChecker) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
