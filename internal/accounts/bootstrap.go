package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/security"
)

// Default admin seeded on an empty usersWork collection. The password must be
// changed after the first login.
const (
	DefaultAdminEmail     = "admin@creciendojuntos.com"
	DefaultAdminUsername  = "admin"
	DefaultAdminPassword  = "admin123"
	DefaultAdminDocumento = "00000000"
)

// BootstrapAdmin returns the existing admin when there is one, otherwise it
// creates the default admin. created reports which case happened.
func (s *StaffService) BootstrapAdmin(ctx context.Context) (staff.Staff, bool, error) {
	existing, err := s.store.FindAdmin(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return staff.Staff{}, false, err
	}

	hash, err := security.HashPassword(DefaultAdminPassword)
	if err != nil {
		return staff.Staff{}, false, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	admin := staff.Staff{
		Nombres:         "Administrador",
		Apellidos:       "Sistema",
		Email:           DefaultAdminEmail,
		PasswordHash:    hash,
		NombreUsuario:   DefaultAdminUsername,
		FechaNacimiento: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		TipoDocumento:   "DNI",
		NumeroDocumento: DefaultAdminDocumento,
		Sexo:            "Otro",
		NumeroCelular:   "+51999999999",
		Rol:             staff.RoleAdmin,
		Activo:          account.BoolPtr(true),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Insert(ctx, &admin); err != nil {
		return staff.Staff{}, false, err
	}

	s.log.WarnContext(ctx, "default admin created, change its password", "staff_id", admin.ID.Hex())
	return admin, true, nil
}
