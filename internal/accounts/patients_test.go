package accounts_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/creciendojuntos/backoffice/internal/accounts"
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"github.com/creciendojuntos/backoffice/internal/repo/memory"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeConfirmer struct {
	confirmFn func(ctx context.Context, key string) error
	calls     []string
	settled   []string
}

func (f *fakeConfirmer) Verify(ctx context.Context, key string) error {
	f.calls = append(f.calls, key)
	if f.confirmFn != nil {
		return f.confirmFn(ctx, key)
	}
	return nil
}

func (f *fakeConfirmer) Settle(ctx context.Context, key string) {
	f.settled = append(f.settled, key)
}

func registerReq(email string) patient.RegisterRequest {
	return patient.RegisterRequest{
		Nombre:    "Ana",
		Apellidos: "Pérez",
		Email:     email,
		Telefono:  "999",
		Password:  "secret1",
	}
}

func TestPatientRegister_NormalizesEmailAndHidesHash(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)

	p, err := svc.Register(context.Background(), registerReq("  Ana@X.com "))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if p.Email != "ana@x.com" {
		t.Fatalf("expected normalized email, got %q", p.Email)
	}
	if p.PasswordHash == "" || p.PasswordHash == "secret1" {
		t.Fatalf("expected bcrypt hash, got %q", p.PasswordHash)
	}
	if !p.IsActive() {
		t.Fatalf("new patient should be active")
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "passwordHash") || strings.Contains(string(b), p.PasswordHash) {
		t.Fatalf("hash leaked in json: %s", b)
	}
}

func TestPatientRegister_PasswordOverBcryptLimit(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)

	// 40 runes, 80 bytes
	req := registerReq("ana@x.com")
	req.Password = strings.Repeat("ñ", 40)

	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, account.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}

	if _, err := repo.GetByEmail(context.Background(), "ana@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("nothing should be stored, got %v", err)
	}
}

func TestPatientRegister_DuplicateEmailCreatesNothing(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerReq("ana@x.com")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, registerReq("ANA@x.com"))
	if !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected 1 record, got %d", repo.Count())
	}
}

// barrierPatients holds every caller after the uniqueness pre-check until all
// of them have passed it, forcing the check-then-write interleaving.
type barrierPatients struct {
	*memory.PatientsRepo
	wg *sync.WaitGroup
}

func (b *barrierPatients) ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error) {
	taken, err := b.PatientsRepo.ExistsByField(ctx, field, value, exclude)
	b.wg.Done()
	b.wg.Wait()
	return taken, err
}

func TestPatientRegister_ConcurrentDuplicates(t *testing.T) {
	tests := []struct {
		name        string
		uniqueIndex bool
		wantRecords int
		wantErrs    int
	}{
		{name: "without unique index both writes land", uniqueIndex: false, wantRecords: 2, wantErrs: 0},
		{name: "unique index rejects the second write", uniqueIndex: true, wantRecords: 1, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wg sync.WaitGroup
			wg.Add(2)

			repo := memory.NewPatientsRepo(tt.uniqueIndex)
			svc := accounts.NewPatientService(&barrierPatients{PatientsRepo: repo, wg: &wg}, nil, nil)

			errs := make(chan error, 2)
			var done sync.WaitGroup
			for i := 0; i < 2; i++ {
				done.Add(1)
				go func() {
					defer done.Done()
					_, err := svc.Register(context.Background(), registerReq("race@x.com"))
					errs <- err
				}()
			}
			done.Wait()
			close(errs)

			failed := 0
			for err := range errs {
				if err == nil {
					continue
				}
				if !errors.Is(err, account.ErrEmailTaken) {
					t.Fatalf("unexpected error: %v", err)
				}
				failed++
			}

			if failed != tt.wantErrs {
				t.Fatalf("expected %d conflicts, got %d", tt.wantErrs, failed)
			}
			if repo.Count() != tt.wantRecords {
				t.Fatalf("expected %d records, got %d", tt.wantRecords, repo.Count())
			}
		})
	}
}

func TestPatientAuthenticate(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Register(ctx, registerReq("ana@x.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "ANA@x.com", "secret1"); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}

	if _, err := svc.Authenticate(ctx, "ana@x.com", "wrong"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@x.com", "secret1"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.SetActive(ctx, p.ID.Hex(), false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@x.com", "secret1"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("inactive: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPatientAdminUpdate_EmailConflictLeavesTargetUnchanged(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerReq("ana@x.com")); err != nil {
		t.Fatalf("register ana: %v", err)
	}
	luis, err := svc.Register(ctx, registerReq("luis@x.com"))
	if err != nil {
		t.Fatalf("register luis: %v", err)
	}

	_, err = svc.AdminUpdate(ctx, luis.ID.Hex(), patient.AdminUpdateRequest{
		Email:  account.StringPtr("ana@x.com"),
		Nombre: account.StringPtr("Otro"),
	})
	if !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := svc.Get(ctx, luis.ID.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "luis@x.com" || got.Nombre != "Ana" {
		t.Fatalf("target changed: %+v", got)
	}

	// keeping its own email is not a conflict
	if _, err := svc.AdminUpdate(ctx, luis.ID.Hex(), patient.AdminUpdateRequest{Email: account.StringPtr("LUIS@x.com")}); err != nil {
		t.Fatalf("self email: %v", err)
	}
}

func TestPatientToggle_TwiceRestoresState(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	svc := accounts.NewPatientService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Register(ctx, registerReq("ana@x.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := svc.Toggle(ctx, p.ID.Hex())
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if first.IsActive() {
		t.Fatalf("expected inactive after first toggle")
	}

	second, err := svc.Toggle(ctx, p.ID.Hex())
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !second.IsActive() {
		t.Fatalf("expected active after second toggle")
	}
}

func TestPatientUpdateSelf_PhotoKey(t *testing.T) {
	ctx := context.Background()
	missing := errors.New("missing object")

	tests := []struct {
		name      string
		body      string
		confirm   func(ctx context.Context, key string) error
		wantErr   error
		wantKey   *string
		wantCalls int
	}{
		{name: "absent leaves photo", body: `{"nombre":"Ana María"}`, wantKey: account.StringPtr("old.jpg")},
		{name: "null clears without storage check", body: `{"photoKey":null}`, wantKey: nil},
		{name: "new key is confirmed", body: `{"photoKey":"new.jpg"}`, wantKey: account.StringPtr("new.jpg"), wantCalls: 1},
		{
			name:      "unconfirmed key rejected",
			body:      `{"photoKey":"ghost.jpg"}`,
			confirm:   func(ctx context.Context, key string) error { return missing },
			wantErr:   missing,
			wantKey:   account.StringPtr("old.jpg"),
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewPatientsRepo(true)
			confirmer := &fakeConfirmer{}
			svc := accounts.NewPatientService(repo, confirmer, nil)

			req := registerReq("ana@x.com")
			req.PhotoKey = account.StringPtr("old.jpg")
			p, err := svc.Register(ctx, req)
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			confirmer.calls = nil
			confirmer.settled = nil
			confirmer.confirmFn = tt.confirm

			var upd patient.SelfUpdateRequest
			if err := json.Unmarshal([]byte(tt.body), &upd); err != nil {
				t.Fatalf("decode: %v", err)
			}

			_, err = svc.UpdateSelf(ctx, p.ID.Hex(), upd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("update: %v", err)
			}

			got, _ := svc.Get(ctx, p.ID.Hex())
			if (got.PhotoKey == nil) != (tt.wantKey == nil) {
				t.Fatalf("photoKey = %v, want %v", got.PhotoKey, tt.wantKey)
			}
			if got.PhotoKey != nil && *got.PhotoKey != *tt.wantKey {
				t.Fatalf("photoKey = %q, want %q", *got.PhotoKey, *tt.wantKey)
			}
			if len(confirmer.calls) != tt.wantCalls {
				t.Fatalf("expected %d confirm calls, got %d", tt.wantCalls, len(confirmer.calls))
			}

			wantSettled := 0
			if tt.wantErr == nil && tt.wantCalls > 0 {
				wantSettled = 1
			}
			if len(confirmer.settled) != wantSettled {
				t.Fatalf("expected %d settled keys, got %v", wantSettled, confirmer.settled)
			}
		})
	}
}

func TestPatientUpdate_FailedWriteKeepsUploadPending(t *testing.T) {
	repo := memory.NewPatientsRepo(true)
	confirmer := &fakeConfirmer{}
	svc := accounts.NewPatientService(repo, confirmer, nil)

	upd := patient.SelfUpdateRequest{PhotoKey: account.OptionalString{Set: true, Value: account.StringPtr("new.jpg")}}
	_, err := svc.UpdateSelf(context.Background(), primitive.NewObjectID().Hex(), upd)
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if len(confirmer.calls) != 1 {
		t.Fatalf("expected the key to be verified, got %v", confirmer.calls)
	}
	if len(confirmer.settled) != 0 {
		t.Fatalf("a failed write must not settle the upload: %v", confirmer.settled)
	}
}

func TestPatientGet_InvalidAndMissingID(t *testing.T) {
	svc := accounts.NewPatientService(memory.NewPatientsRepo(true), nil, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "not-an-id"); !errors.Is(err, account.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Get(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
