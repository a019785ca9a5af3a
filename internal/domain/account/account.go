// Package account holds what the patient and staff realms share without
// merging their schemas: the error taxonomy, write-boundary normalization,
// unique-field descriptors and the active/inactive state machine.
package account

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("insufficient role")
	ErrSelfDeactivation   = errors.New("cannot deactivate own account")

	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrDocumentTaken = errors.New("document number already registered")
)

// IsConflict reports whether err is one of the unique-field collisions.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrDocumentTaken)
}

// Collections.
const (
	CollectionPatients = "users"
	CollectionStaff    = "usersWork"
)

// Unique field names as stored.
const (
	FieldEmail           = "email"
	FieldNombreUsuario   = "nombreUsuario"
	FieldNumeroDocumento = "numeroDocumento"
)

// UniqueField describes one value that must not belong to a different record.
// Err is returned when it does.
type UniqueField struct {
	Name  string
	Value string
	Err   error
}

func EmailField(email string) UniqueField {
	return UniqueField{Name: FieldEmail, Value: NormalizeEmail(email), Err: ErrEmailTaken}
}

func UsernameField(username string) UniqueField {
	return UniqueField{Name: FieldNombreUsuario, Value: NormalizeUsername(username), Err: ErrUsernameTaken}
}

func DocumentField(numero string) UniqueField {
	return UniqueField{Name: FieldNumeroDocumento, Value: strings.TrimSpace(numero), Err: ErrDocumentTaken}
}

// ConflictForField maps a stored field name back to its conflict error. Used
// when the storage layer reports a unique index violation.
func ConflictForField(name string) error {
	switch name {
	case FieldEmail:
		return ErrEmailTaken
	case FieldNombreUsuario:
		return ErrUsernameTaken
	case FieldNumeroDocumento:
		return ErrDocumentTaken
	default:
		return ErrEmailTaken
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Status is the logical-deletion state of an account.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func StatusOf(activo bool) Status {
	if activo {
		return StatusActive
	}
	return StatusInactive
}

// Toggle flips the flag. Both states are always reachable from each other.
func Toggle(activo bool) bool {
	return !activo
}

// ListFilter pages a collection newest first. A zero AfterID starts at the top.
type ListFilter struct {
	Limit          int
	AfterCreatedAt time.Time
	AfterID        primitive.ObjectID
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func (f ListFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}

// ValidationError carries a client-readable reason and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
