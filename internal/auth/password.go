// Package auth содержит хеширование паролей и выпуск JWT для администраторов и покупателей.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// PasswordHasher хеширует и сверяет пароли через bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher создаёт hasher; cost вне допустимого диапазона заменяется на bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash возвращает bcrypt-хеш пароля.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", domain.ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify сверяет пароль с хешем; несовпадение возвращает ErrInvalidCredentials.
func (h *PasswordHasher) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return domain.ErrInvalidCredentials
	default:
		return fmt.Errorf("verify password: %w", err)
	}
}
