package staff

import (
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RolePsicologo  Role = "psicologo"
	RoleSecretaria Role = "secretaria"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePsicologo, RoleSecretaria:
		return true
	}
	return false
}

// Staff is a document of the usersWork collection.
type Staff struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Nombres         string             `bson:"nombres" json:"nombres"`
	Apellidos       string             `bson:"apellidos" json:"apellidos"`
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"passwordHash" json:"-"` // never leaves the server
	NombreUsuario   string             `bson:"nombreUsuario" json:"nombreUsuario"`
	FechaNacimiento time.Time          `bson:"fechaNacimiento" json:"fechaNacimiento"`
	TipoDocumento   string             `bson:"tipoDocumento" json:"tipoDocumento"`
	NumeroDocumento string             `bson:"numeroDocumento" json:"numeroDocumento"`
	Sexo            string             `bson:"sexo" json:"sexo"`
	Direccion       string             `bson:"direccion" json:"direccion"`
	NumeroCelular   string             `bson:"numeroCelular" json:"numeroCelular"`
	Rol             Role               `bson:"rol" json:"rol"`
	PhotoKey        *string            `bson:"photoKey" json:"photoKey"`
	Activo          *bool              `bson:"activo,omitempty" json:"activo"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (s Staff) IsActive() bool {
	return account.ActiveOrDefault(s.Activo)
}

func (s Staff) IsAdmin() bool {
	return s.Rol == RoleAdmin && s.IsActive()
}

type CreateRequest struct {
	Nombres         string  `json:"nombres" binding:"required,max=120"`
	Apellidos       string  `json:"apellidos" binding:"required,max=120"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=6,max=72"`
	NombreUsuario   string  `json:"nombreUsuario" binding:"required,min=3,max=60"`
	FechaNacimiento string  `json:"fechaNacimiento" binding:"required"`
	TipoDocumento   string  `json:"tipoDocumento" binding:"required,max=20"`
	NumeroDocumento string  `json:"numeroDocumento" binding:"required,max=30"`
	Sexo            string  `json:"sexo" binding:"required,max=20"`
	Direccion       string  `json:"direccion" binding:"omitempty,max=200"`
	NumeroCelular   string  `json:"numeroCelular" binding:"required,max=30"`
	Rol             Role    `json:"rol" binding:"required,oneof=admin psicologo secretaria"`
	PhotoKey        *string `json:"photoKey"`
}

// UpdateRequest is the admin edit of a staff account. Every field is optional.
type UpdateRequest struct {
	Nombres         *string                `json:"nombres" binding:"omitempty,max=120"`
	Apellidos       *string                `json:"apellidos" binding:"omitempty,max=120"`
	Email           *string                `json:"email" binding:"omitempty,email"`
	Password        *string                `json:"password" binding:"omitempty,min=6,max=72"`
	NombreUsuario   *string                `json:"nombreUsuario" binding:"omitempty,min=3,max=60"`
	FechaNacimiento *string                `json:"fechaNacimiento"`
	TipoDocumento   *string                `json:"tipoDocumento" binding:"omitempty,max=20"`
	NumeroDocumento *string                `json:"numeroDocumento" binding:"omitempty,max=30"`
	Sexo            *string                `json:"sexo" binding:"omitempty,max=20"`
	Direccion       *string                `json:"direccion" binding:"omitempty,max=200"`
	NumeroCelular   *string                `json:"numeroCelular" binding:"omitempty,max=30"`
	Rol             *Role                  `json:"rol" binding:"omitempty,oneof=admin psicologo secretaria"`
	PhotoKey        account.OptionalString `json:"photoKey"`
	Activo          *bool                  `json:"activo"`
}

// SelfUpdateRequest is what any staff member may change on their own profile.
type SelfUpdateRequest struct {
	Nombres       *string                `json:"nombres" binding:"omitempty,max=120"`
	Apellidos     *string                `json:"apellidos" binding:"omitempty,max=120"`
	NumeroCelular *string                `json:"numeroCelular" binding:"omitempty,max=30"`
	Direccion     *string                `json:"direccion" binding:"omitempty,max=200"`
	PhotoKey      account.OptionalString `json:"photoKey"`
}

// Changes is the resolved write set; nil pointers are left untouched.
type Changes struct {
	Nombres         *string
	Apellidos       *string
	Email           *string
	PasswordHash    *string
	NombreUsuario   *string
	FechaNacimiento *time.Time
	TipoDocumento   *string
	NumeroDocumento *string
	Sexo            *string
	Direccion       *string
	NumeroCelular   *string
	Rol             *Role
	PhotoKeySet     bool
	PhotoKey        *string
	Activo          *bool
	UpdatedAt       time.Time
}
