package patient

import (
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Patient is a document of the users collection.
type Patient struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Nombre       string             `bson:"nombre" json:"nombre"`
	Apellidos    string             `bson:"apellidos" json:"apellidos"`
	Email        string             `bson:"email" json:"email"`
	Telefono     string             `bson:"telefono" json:"telefono"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // never leaves the server
	PhotoKey     *string            `bson:"photoKey" json:"photoKey"`
	Activo       *bool              `bson:"activo,omitempty" json:"activo"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p Patient) IsActive() bool {
	return account.ActiveOrDefault(p.Activo)
}

func (p Patient) FullName() string {
	if p.Apellidos == "" {
		return p.Nombre
	}
	return p.Nombre + " " + p.Apellidos
}

type RegisterRequest struct {
	Nombre    string  `json:"nombre" binding:"required,max=120"`
	Apellidos string  `json:"apellidos" binding:"required,max=120"`
	Email     string  `json:"email" binding:"required,email"`
	Telefono  string  `json:"telefono" binding:"required,max=30"`
	Password  string  `json:"password" binding:"required,min=6,max=72"`
	PhotoKey  *string `json:"photoKey"`
}

// SelfUpdateRequest is what a patient may change on their own profile.
type SelfUpdateRequest struct {
	Nombre    *string                `json:"nombre" binding:"omitempty,max=120"`
	Apellidos *string                `json:"apellidos" binding:"omitempty,max=120"`
	Telefono  *string                `json:"telefono" binding:"omitempty,max=30"`
	PhotoKey  account.OptionalString `json:"photoKey"`
}

// AdminUpdateRequest is the back-office edit of a patient.
type AdminUpdateRequest struct {
	Nombre    *string                `json:"nombre" binding:"omitempty,max=120"`
	Apellidos *string                `json:"apellidos" binding:"omitempty,max=120"`
	Email     *string                `json:"email" binding:"omitempty,email"`
	Telefono  *string                `json:"telefono" binding:"omitempty,max=30"`
	PhotoKey  account.OptionalString `json:"photoKey"`
	Activo    *bool                  `json:"activo"`
}

// Changes is the resolved set of fields to write. Nil means untouched;
// a PhotoKey change with a nil value clears the reference.
type Changes struct {
	Nombre      *string
	Apellidos   *string
	Email       *string
	Telefono    *string
	PhotoKeySet bool
	PhotoKey    *string
	Activo      *bool
	UpdatedAt   time.Time
}
