package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaffRepo keeps the usersWork collection in a map. unique emulates the
// unique indexes on email, nombreUsuario and numeroDocumento.
type StaffRepo struct {
	mu     sync.RWMutex
	items  map[primitive.ObjectID]staff.Staff
	unique bool
}

func NewStaffRepo(unique bool) *StaffRepo {
	return &StaffRepo{
		items:  make(map[primitive.ObjectID]staff.Staff),
		unique: unique,
	}
}

func (r *StaffRepo) Insert(ctx context.Context, s *staff.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unique {
		if err := r.uniqueLocked(s.Email, s.NombreUsuario, s.NumeroDocumento, primitive.NilObjectID); err != nil {
			return err
		}
	}

	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	r.items[s.ID] = *s
	return nil
}

func (r *StaffRepo) GetByID(ctx context.Context, id primitive.ObjectID) (staff.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return staff.Staff{}, account.ErrNotFound
	}
	return s, nil
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.Email == email {
			return s, nil
		}
	}
	return staff.Staff{}, account.ErrNotFound
}

func (r *StaffRepo) FindAdmin(ctx context.Context) (staff.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.Rol == staff.RoleAdmin {
			return s, nil
		}
	}
	return staff.Staff{}, account.ErrNotFound
}

func (r *StaffRepo) ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.existsLocked(field, value, exclude), nil
}

func (r *StaffRepo) existsLocked(field, value string, exclude primitive.ObjectID) bool {
	for id, s := range r.items {
		if !exclude.IsZero() && id == exclude {
			continue
		}
		switch field {
		case account.FieldEmail:
			if s.Email == value {
				return true
			}
		case account.FieldNombreUsuario:
			if s.NombreUsuario == value {
				return true
			}
		case account.FieldNumeroDocumento:
			if s.NumeroDocumento == value {
				return true
			}
		}
	}
	return false
}

func (r *StaffRepo) uniqueLocked(email, username, document string, exclude primitive.ObjectID) error {
	if email != "" && r.existsLocked(account.FieldEmail, email, exclude) {
		return account.ErrEmailTaken
	}
	if username != "" && r.existsLocked(account.FieldNombreUsuario, username, exclude) {
		return account.ErrUsernameTaken
	}
	if document != "" && r.existsLocked(account.FieldNumeroDocumento, document, exclude) {
		return account.ErrDocumentTaken
	}
	return nil
}

func (r *StaffRepo) Update(ctx context.Context, id primitive.ObjectID, c staff.Changes) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return staff.Staff{}, account.ErrNotFound
	}

	if r.unique {
		if err := r.uniqueLocked(deref(c.Email), deref(c.NombreUsuario), deref(c.NumeroDocumento), id); err != nil {
			return staff.Staff{}, err
		}
	}

	setString(&s.Nombres, c.Nombres)
	setString(&s.Apellidos, c.Apellidos)
	setString(&s.Email, c.Email)
	setString(&s.PasswordHash, c.PasswordHash)
	setString(&s.NombreUsuario, c.NombreUsuario)
	if c.FechaNacimiento != nil {
		s.FechaNacimiento = *c.FechaNacimiento
	}
	setString(&s.TipoDocumento, c.TipoDocumento)
	setString(&s.NumeroDocumento, c.NumeroDocumento)
	setString(&s.Sexo, c.Sexo)
	setString(&s.Direccion, c.Direccion)
	setString(&s.NumeroCelular, c.NumeroCelular)
	if c.Rol != nil {
		s.Rol = *c.Rol
	}
	if c.PhotoKeySet {
		s.PhotoKey = c.PhotoKey
	}
	if c.Activo != nil {
		s.Activo = account.BoolPtr(*c.Activo)
	}
	s.UpdatedAt = c.UpdatedAt

	r.items[id] = s
	return s, nil
}

func (r *StaffRepo) List(ctx context.Context, f account.ListFilter) ([]staff.Staff, error) {
	r.mu.RLock()
	all := make([]staff.Staff, 0, len(r.items))
	for _, s := range r.items {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})

	out := make([]staff.Staff, 0, f.EffectiveLimit())
	for _, s := range all {
		if !f.AfterID.IsZero() && !newerFirst(f.AfterCreatedAt, f.AfterID, s.CreatedAt, s.ID) {
			continue
		}
		out = append(out, s)
		if len(out) == f.EffectiveLimit() {
			break
		}
	}
	return out, nil
}

func (r *StaffRepo) HasPhotoKey(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.PhotoKey != nil && *s.PhotoKey == key {
			return true, nil
		}
	}
	return false, nil
}

// Count is used by tests to assert no record was created.
func (r *StaffRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
