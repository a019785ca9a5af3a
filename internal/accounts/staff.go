package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StaffStore interface {
	UniqueChecker
	Insert(ctx context.Context, s *staff.Staff) error
	GetByID(ctx context.Context, id primitive.ObjectID) (staff.Staff, error)
	GetByEmail(ctx context.Context, email string) (staff.Staff, error)
	FindAdmin(ctx context.Context) (staff.Staff, error)
	Update(ctx context.Context, id primitive.ObjectID, c staff.Changes) (staff.Staff, error)
	List(ctx context.Context, f account.ListFilter) ([]staff.Staff, error)
}

type StaffService struct {
	store  StaffStore
	photos PhotoConfirmer
	log    *slog.Logger
	now    func() time.Time
}

func NewStaffService(store StaffStore, photos PhotoConfirmer, log *slog.Logger) *StaffService {
	if log == nil {
		log = slog.Default()
	}
	return &StaffService{store: store, photos: photos, log: log, now: time.Now}
}

func (s *StaffService) Create(ctx context.Context, req staff.CreateRequest) (staff.Staff, error) {
	email := account.NormalizeEmail(req.Email)
	username := account.NormalizeUsername(req.NombreUsuario)
	documento := strings.TrimSpace(req.NumeroDocumento)

	if !req.Rol.Valid() {
		return staff.Staff{}, account.Invalid("rol inválido")
	}

	fecha, err := account.ParseDate(req.FechaNacimiento)
	if err != nil {
		return staff.Staff{}, err
	}

	err = CheckUnique(ctx, s.store, primitive.NilObjectID,
		account.EmailField(email),
		account.UsernameField(username),
		account.DocumentField(documento),
	)
	if err != nil {
		return staff.Staff{}, err
	}

	photoKey, err := photoOnCreate(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return staff.Staff{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return staff.Staff{}, err
	}

	now := s.now().UTC()
	st := staff.Staff{
		Nombres:         strings.TrimSpace(req.Nombres),
		Apellidos:       strings.TrimSpace(req.Apellidos),
		Email:           email,
		PasswordHash:    hash,
		NombreUsuario:   username,
		FechaNacimiento: fecha,
		TipoDocumento:   req.TipoDocumento,
		NumeroDocumento: documento,
		Sexo:            req.Sexo,
		Direccion:       req.Direccion,
		NumeroCelular:   req.NumeroCelular,
		Rol:             req.Rol,
		PhotoKey:        photoKey,
		Activo:          account.BoolPtr(true),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Insert(ctx, &st); err != nil {
		return staff.Staff{}, err
	}
	settlePhoto(ctx, s.photos, photoKey)

	s.log.InfoContext(ctx, "audit", "action", "staff.create", "target_id", st.ID.Hex(), "rol", st.Rol)
	return st, nil
}

// Authenticate answers ErrInvalidCredentials for every failure mode so the
// login endpoint cannot be used to probe which emails exist.
func (s *StaffService) Authenticate(ctx context.Context, email, password string) (staff.Staff, error) {
	st, err := s.store.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return staff.Staff{}, account.ErrInvalidCredentials
		}
		return staff.Staff{}, err
	}

	if !security.VerifyPassword(password, st.PasswordHash) || !st.IsActive() {
		return staff.Staff{}, account.ErrInvalidCredentials
	}
	return st, nil
}

// AuthorizeAdmin reloads the caller and checks the role on every call; the
// decision is never cached.
func (s *StaffService) AuthorizeAdmin(ctx context.Context, callerID string) (staff.Staff, error) {
	id, err := primitive.ObjectIDFromHex(callerID)
	if err != nil {
		return staff.Staff{}, account.ErrForbidden
	}

	caller, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return staff.Staff{}, account.ErrForbidden
		}
		return staff.Staff{}, err
	}

	if !caller.IsAdmin() {
		return staff.Staff{}, account.ErrForbidden
	}
	return caller, nil
}

func (s *StaffService) Get(ctx context.Context, rawID string) (staff.Staff, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return staff.Staff{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *StaffService) List(ctx context.Context, f account.ListFilter) ([]staff.Staff, error) {
	return s.store.List(ctx, f)
}

func (s *StaffService) UpdateSelf(ctx context.Context, rawID string, req staff.SelfUpdateRequest) (staff.Staff, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return staff.Staff{}, err
	}

	set, key, err := resolvePhoto(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return staff.Staff{}, err
	}

	st, err := s.store.Update(ctx, id, staff.Changes{
		Nombres:       req.Nombres,
		Apellidos:     req.Apellidos,
		NumeroCelular: req.NumeroCelular,
		Direccion:     req.Direccion,
		PhotoKeySet:   set,
		PhotoKey:      key,
		UpdatedAt:     s.now().UTC(),
	})
	if err != nil {
		return staff.Staff{}, err
	}
	settlePhoto(ctx, s.photos, key)
	return st, nil
}

// AdminUpdate applies a partial edit. Unique fields are checked in the order
// email, username, document, each excluding the target itself.
func (s *StaffService) AdminUpdate(ctx context.Context, actorID, rawID string, req staff.UpdateRequest) (staff.Staff, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return staff.Staff{}, err
	}

	if req.Activo != nil && !*req.Activo && sameAccount(actorID, id) {
		return staff.Staff{}, account.ErrSelfDeactivation
	}

	c := staff.Changes{
		Nombres:       req.Nombres,
		Apellidos:     req.Apellidos,
		TipoDocumento: req.TipoDocumento,
		Sexo:          req.Sexo,
		Direccion:     req.Direccion,
		NumeroCelular: req.NumeroCelular,
		Activo:        req.Activo,
		UpdatedAt:     s.now().UTC(),
	}

	var unique []account.UniqueField
	if req.Email != nil {
		email := account.NormalizeEmail(*req.Email)
		c.Email = &email
		unique = append(unique, account.EmailField(email))
	}
	if req.NombreUsuario != nil {
		username := account.NormalizeUsername(*req.NombreUsuario)
		c.NombreUsuario = &username
		unique = append(unique, account.UsernameField(username))
	}
	if req.NumeroDocumento != nil {
		documento := strings.TrimSpace(*req.NumeroDocumento)
		c.NumeroDocumento = &documento
		unique = append(unique, account.DocumentField(documento))
	}

	if err := CheckUnique(ctx, s.store, id, unique...); err != nil {
		return staff.Staff{}, err
	}

	if req.Rol != nil {
		if !req.Rol.Valid() {
			return staff.Staff{}, account.Invalid("rol inválido")
		}
		c.Rol = req.Rol
	}

	if req.FechaNacimiento != nil {
		fecha, err := account.ParseDate(*req.FechaNacimiento)
		if err != nil {
			return staff.Staff{}, err
		}
		c.FechaNacimiento = &fecha
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return staff.Staff{}, err
		}
		c.PasswordHash = &hash
	}

	c.PhotoKeySet, c.PhotoKey, err = resolvePhoto(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return staff.Staff{}, err
	}

	st, err := s.store.Update(ctx, id, c)
	if err != nil {
		return staff.Staff{}, err
	}
	settlePhoto(ctx, s.photos, c.PhotoKey)

	s.log.InfoContext(ctx, "audit", "action", "staff.update", "target_id", st.ID.Hex())
	return st, nil
}

// Deactivate is the delete-shaped transition: one way, never a hard delete.
func (s *StaffService) Deactivate(ctx context.Context, actorID, rawID string) (staff.Staff, error) {
	return s.setActive(ctx, actorID, rawID, false)
}

func (s *StaffService) Toggle(ctx context.Context, actorID, rawID string) (staff.Staff, error) {
	current, err := s.Get(ctx, rawID)
	if err != nil {
		return staff.Staff{}, err
	}
	return s.setActive(ctx, actorID, rawID, account.Toggle(current.IsActive()))
}

func (s *StaffService) setActive(ctx context.Context, actorID, rawID string, activo bool) (staff.Staff, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return staff.Staff{}, err
	}

	if !activo && sameAccount(actorID, id) {
		return staff.Staff{}, account.ErrSelfDeactivation
	}

	st, err := s.store.Update(ctx, id, staff.Changes{Activo: &activo, UpdatedAt: s.now().UTC()})
	if err != nil {
		return staff.Staff{}, err
	}

	s.log.InfoContext(ctx, "audit", "action", "staff.set_active", "target_id", st.ID.Hex(), "status", account.StatusOf(activo))
	return st, nil
}

// sameAccount compares parsed ids; hex ids are case-insensitive.
func sameAccount(actorID string, id primitive.ObjectID) bool {
	actor, err := primitive.ObjectIDFromHex(actorID)
	return err == nil && actor == id
}
