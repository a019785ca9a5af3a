package accounts

import (
	"errors"
	"fmt"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/security"
)

func hashPassword(plain string) (string, error) {
	hash, err := security.HashPassword(plain)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", account.Invalid("La contraseña no puede superar 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
