// Package access gates the premium tier behind a shared password.
package access

import (
	"errors"
	"fmt"

	"github.com/okian/platecheck/internal/domain/model"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel kinds for access errors.
var (
	ErrPremiumDisabled = errors.New("premium tier is not configured")
	ErrWrongPassword   = errors.New("wrong premium password")
)

// Gate checks premium passwords against a bcrypt hash.
type Gate struct {
	hash []byte
}

// NewGate returns a gate for hash. An empty hash disables the premium tier.
func NewGate(hash string) (*Gate, error) {
	if hash == "" {
		return &Gate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("premium password hash: %w", err)
	}
	return &Gate{hash: []byte(hash)}, nil
}

// HashPassword produces a hash suitable for premium_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Enabled reports whether a premium password is configured.
func (g *Gate) Enabled() bool { return g != nil && len(g.hash) > 0 }

// Verify checks password.
func (g *Gate) Verify(password string) error {
	if !g.Enabled() {
		return ErrPremiumDisabled
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Tier resolves the tier a caller may use. No password means the standard
// tier; a password must be correct to unlock premium.
func (g *Gate) Tier(password string) (model.ModelTier, error) {
	if password == "" {
		return model.TierStandard, nil
	}
	if err := g.Verify(password); err != nil {
		return "", err
	}
	return model.TierPremium, nil
}
