package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type BcryptPasswordHasher struct {
	cost int
}

// NewBcryptPasswordHasherWithCost falls back to bcrypt.DefaultCost when cost
// is outside what bcrypt accepts, so a bad BCRYPT_COST never breaks login.
func NewBcryptPasswordHasherWithCost(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns nil when plain matches hash.
func (h *BcryptPasswordHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
