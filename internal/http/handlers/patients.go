package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/gin-gonic/gin"
)

type PatientAccounts interface {
	Register(ctx context.Context, req patient.RegisterRequest) (patient.Patient, error)
	Authenticate(ctx context.Context, email, password string) (patient.Patient, error)
	Get(ctx context.Context, id string) (patient.Patient, error)
	UpdateSelf(ctx context.Context, id string, req patient.SelfUpdateRequest) (patient.Patient, error)
	AdminUpdate(ctx context.Context, id string, req patient.AdminUpdateRequest) (patient.Patient, error)
	SetActive(ctx context.Context, id string, activo bool) (patient.Patient, error)
	Toggle(ctx context.Context, id string) (patient.Patient, error)
	List(ctx context.Context, f account.ListFilter) ([]patient.Patient, error)
}

// PatientsHandler serves the public realm: login, self-registration and the
// patient's own profile.
type PatientsHandler struct {
	accounts     PatientAccounts
	sessions     SessionIssuer
	log          *slog.Logger
	prom         *observability.Prom
	secureCookie bool
}

func NewPatientsHandler(accounts PatientAccounts, sessions SessionIssuer, log *slog.Logger, prom *observability.Prom, secureCookie bool) *PatientsHandler {
	return &PatientsHandler{
		accounts:     accounts,
		sessions:     sessions,
		log:          log,
		prom:         prom,
		secureCookie: secureCookie,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *PatientsHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		h.prom.ObserveLogin(string(auth.RealmPatient), loginResult(err))
		respondServiceError(ctx, h.log, errorMapping{op: "patient.login"}, err)
		return
	}

	token, expiresAt, err := h.sessions.GeneratePatientToken(p.ID.Hex(), photoKeyOf(p.PhotoKey))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "session token", "err", err)
		RespondInternal(ctx, msgInternal)
		return
	}

	h.prom.ObserveLogin(string(auth.RealmPatient), "ok")
	setSessionCookie(ctx, auth.PatientCookie, token, expiresAt, h.secureCookie)

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      p,
	})
}

// Logout only drops the cookie. Tokens are stateless and stay valid until
// they expire.
func (h *PatientsHandler) Logout(ctx *gin.Context) {
	clearSessionCookie(ctx, auth.PatientCookie, h.secureCookie)
	ctx.Status(http.StatusNoContent)
}

func (h *PatientsHandler) Register(ctx *gin.Context) {
	var req patient.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.Register(cctx, req)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{
			op:             "patient.register",
			conflictStatus: http.StatusConflict,
			conflict:       "El correo ya está registrado",
		}, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"ok":     true,
		"userId": p.ID.Hex(),
		"user":   p,
	})
}

func (h *PatientsHandler) Me(ctx *gin.Context) {
	id, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.Get(cctx, id)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "patient.me"}, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": p})
}

func (h *PatientsHandler) UpdateMe(ctx *gin.Context) {
	var req patient.SelfUpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.UpdateSelf(cctx, id, req)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "patient.update_me"}, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "user": p})
}
