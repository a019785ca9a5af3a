package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"github.com/creciendojuntos/backoffice/internal/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PatientStore interface {
	UniqueChecker
	Insert(ctx context.Context, p *patient.Patient) error
	GetByID(ctx context.Context, id primitive.ObjectID) (patient.Patient, error)
	GetByEmail(ctx context.Context, email string) (patient.Patient, error)
	Update(ctx context.Context, id primitive.ObjectID, c patient.Changes) (patient.Patient, error)
	List(ctx context.Context, f account.ListFilter) ([]patient.Patient, error)
}

type PatientService struct {
	store  PatientStore
	photos PhotoConfirmer
	log    *slog.Logger
	now    func() time.Time
}

func NewPatientService(store PatientStore, photos PhotoConfirmer, log *slog.Logger) *PatientService {
	if log == nil {
		log = slog.Default()
	}
	return &PatientService{store: store, photos: photos, log: log, now: time.Now}
}

func (s *PatientService) Register(ctx context.Context, req patient.RegisterRequest) (patient.Patient, error) {
	email := account.NormalizeEmail(req.Email)

	if err := CheckUnique(ctx, s.store, primitive.NilObjectID, account.EmailField(email)); err != nil {
		return patient.Patient{}, err
	}

	photoKey, err := photoOnCreate(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return patient.Patient{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return patient.Patient{}, err
	}

	now := s.now().UTC()
	p := patient.Patient{
		Nombre:       strings.TrimSpace(req.Nombre),
		Apellidos:    strings.TrimSpace(req.Apellidos),
		Email:        email,
		Telefono:     strings.TrimSpace(req.Telefono),
		PasswordHash: hash,
		PhotoKey:     photoKey,
		Activo:       account.BoolPtr(true),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// the unique index may still reject a concurrent duplicate here
	if err := s.store.Insert(ctx, &p); err != nil {
		return patient.Patient{}, err
	}
	settlePhoto(ctx, s.photos, photoKey)

	s.log.InfoContext(ctx, "patient registered", "patient_id", p.ID.Hex())
	return p, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email, a wrong
// password and an inactive account alike.
func (s *PatientService) Authenticate(ctx context.Context, email, password string) (patient.Patient, error) {
	p, err := s.store.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return patient.Patient{}, account.ErrInvalidCredentials
		}
		return patient.Patient{}, err
	}

	if !security.VerifyPassword(password, p.PasswordHash) || !p.IsActive() {
		return patient.Patient{}, account.ErrInvalidCredentials
	}
	return p, nil
}

func (s *PatientService) Get(ctx context.Context, rawID string) (patient.Patient, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return patient.Patient{}, err
	}
	return s.store.GetByID(ctx, id)
}

func (s *PatientService) List(ctx context.Context, f account.ListFilter) ([]patient.Patient, error) {
	return s.store.List(ctx, f)
}

func (s *PatientService) UpdateSelf(ctx context.Context, rawID string, req patient.SelfUpdateRequest) (patient.Patient, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return patient.Patient{}, err
	}

	set, key, err := resolvePhoto(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return patient.Patient{}, err
	}

	p, err := s.store.Update(ctx, id, patient.Changes{
		Nombre:      req.Nombre,
		Apellidos:   req.Apellidos,
		Telefono:    req.Telefono,
		PhotoKeySet: set,
		PhotoKey:    key,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return patient.Patient{}, err
	}
	settlePhoto(ctx, s.photos, key)
	return p, nil
}

func (s *PatientService) AdminUpdate(ctx context.Context, rawID string, req patient.AdminUpdateRequest) (patient.Patient, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return patient.Patient{}, err
	}

	c := patient.Changes{
		Nombre:    req.Nombre,
		Apellidos: req.Apellidos,
		Telefono:  req.Telefono,
		Activo:    req.Activo,
		UpdatedAt: s.now().UTC(),
	}

	if req.Email != nil {
		email := account.NormalizeEmail(*req.Email)
		if err := CheckUnique(ctx, s.store, id, account.EmailField(email)); err != nil {
			return patient.Patient{}, err
		}
		c.Email = &email
	}

	c.PhotoKeySet, c.PhotoKey, err = resolvePhoto(ctx, s.photos, req.PhotoKey)
	if err != nil {
		return patient.Patient{}, err
	}

	p, err := s.store.Update(ctx, id, c)
	if err != nil {
		return patient.Patient{}, err
	}
	settlePhoto(ctx, s.photos, c.PhotoKey)

	s.log.InfoContext(ctx, "audit", "action", "patient.update", "target_id", p.ID.Hex())
	return p, nil
}

func (s *PatientService) SetActive(ctx context.Context, rawID string, activo bool) (patient.Patient, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return patient.Patient{}, err
	}

	p, err := s.store.Update(ctx, id, patient.Changes{Activo: &activo, UpdatedAt: s.now().UTC()})
	if err != nil {
		return patient.Patient{}, err
	}

	s.log.InfoContext(ctx, "audit", "action", "patient.set_active", "target_id", p.ID.Hex(), "status", account.StatusOf(activo))
	return p, nil
}

// Toggle flips activo. Reads then writes; two admins toggling the same
// patient at once may both observe the same starting state.
func (s *PatientService) Toggle(ctx context.Context, rawID string) (patient.Patient, error) {
	current, err := s.Get(ctx, rawID)
	if err != nil {
		return patient.Patient{}, err
	}
	return s.SetActive(ctx, rawID, account.Toggle(current.IsActive()))
}
