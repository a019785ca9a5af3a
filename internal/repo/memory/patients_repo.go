package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientsRepo keeps the users collection in a map. With unique set it
// rejects duplicate emails on write the way the Mongo unique index does;
// without it, only the service-level pre-check stands between duplicates.
type PatientsRepo struct {
	mu     sync.RWMutex
	items  map[primitive.ObjectID]patient.Patient
	unique bool
}

func NewPatientsRepo(unique bool) *PatientsRepo {
	return &PatientsRepo{
		items:  make(map[primitive.ObjectID]patient.Patient),
		unique: unique,
	}
}

func (r *PatientsRepo) Insert(ctx context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unique && r.existsLocked(account.FieldEmail, p.Email, primitive.NilObjectID) {
		return account.ErrEmailTaken
	}

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.items[p.ID] = *p
	return nil
}

func (r *PatientsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (patient.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return patient.Patient{}, account.ErrNotFound
	}
	return p, nil
}

func (r *PatientsRepo) GetByEmail(ctx context.Context, email string) (patient.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.Email == email {
			return p, nil
		}
	}
	return patient.Patient{}, account.ErrNotFound
}

func (r *PatientsRepo) ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.existsLocked(field, value, exclude), nil
}

func (r *PatientsRepo) existsLocked(field, value string, exclude primitive.ObjectID) bool {
	for id, p := range r.items {
		if !exclude.IsZero() && id == exclude {
			continue
		}
		if field == account.FieldEmail && p.Email == value {
			return true
		}
	}
	return false
}

func (r *PatientsRepo) Update(ctx context.Context, id primitive.ObjectID, c patient.Changes) (patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return patient.Patient{}, account.ErrNotFound
	}

	if c.Email != nil && r.unique && r.existsLocked(account.FieldEmail, *c.Email, id) {
		return patient.Patient{}, account.ErrEmailTaken
	}

	setString(&p.Nombre, c.Nombre)
	setString(&p.Apellidos, c.Apellidos)
	setString(&p.Email, c.Email)
	setString(&p.Telefono, c.Telefono)
	if c.PhotoKeySet {
		p.PhotoKey = c.PhotoKey
	}
	if c.Activo != nil {
		p.Activo = account.BoolPtr(*c.Activo)
	}
	p.UpdatedAt = c.UpdatedAt

	r.items[id] = p
	return p, nil
}

func (r *PatientsRepo) List(ctx context.Context, f account.ListFilter) ([]patient.Patient, error) {
	r.mu.RLock()
	all := make([]patient.Patient, 0, len(r.items))
	for _, p := range r.items {
		all = append(all, p)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})

	out := make([]patient.Patient, 0, f.EffectiveLimit())
	for _, p := range all {
		if !f.AfterID.IsZero() && !newerFirst(f.AfterCreatedAt, f.AfterID, p.CreatedAt, p.ID) {
			continue
		}
		out = append(out, p)
		if len(out) == f.EffectiveLimit() {
			break
		}
	}
	return out, nil
}

func (r *PatientsRepo) HasPhotoKey(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.PhotoKey != nil && *p.PhotoKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *PatientsRepo) Ping(ctx context.Context) error {
	return nil
}

// newerFirst orders by (createdAt desc, id desc), the same order the Mongo
// list query uses.
func newerFirst(aAt time.Time, aID primitive.ObjectID, bAt time.Time, bID primitive.ObjectID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID.Hex() > bID.Hex()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Count is used by tests to assert no record was created.
func (r *PatientsRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
