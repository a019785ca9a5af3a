package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/accounts"
	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/gin-gonic/gin"
)

type StaffAccounts interface {
	Create(ctx context.Context, req staff.CreateRequest) (staff.Staff, error)
	Authenticate(ctx context.Context, email, password string) (staff.Staff, error)
	Get(ctx context.Context, id string) (staff.Staff, error)
	List(ctx context.Context, f account.ListFilter) ([]staff.Staff, error)
	UpdateSelf(ctx context.Context, id string, req staff.SelfUpdateRequest) (staff.Staff, error)
	AdminUpdate(ctx context.Context, actorID, id string, req staff.UpdateRequest) (staff.Staff, error)
	Deactivate(ctx context.Context, actorID, id string) (staff.Staff, error)
	Toggle(ctx context.Context, actorID, id string) (staff.Staff, error)
	BootstrapAdmin(ctx context.Context) (staff.Staff, bool, error)
}

type StaffAuthConfig struct {
	AdminInitSecret string
	AllowOpenInit   bool // dev only: init-admin without a configured secret
	SecureCookie    bool
}

// StaffAuthHandler serves the syscreju login, the admin bootstrap and the
// caller's own profile.
type StaffAuthHandler struct {
	accounts StaffAccounts
	sessions SessionIssuer
	cfg      StaffAuthConfig
	log      *slog.Logger
	prom     *observability.Prom
}

func NewStaffAuthHandler(accounts StaffAccounts, sessions SessionIssuer, cfg StaffAuthConfig, log *slog.Logger, prom *observability.Prom) *StaffAuthHandler {
	return &StaffAuthHandler{
		accounts: accounts,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		prom:     prom,
	}
}

// Login answers the same 401 for an unknown email, a wrong password and a
// deactivated account.
func (h *StaffAuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		h.prom.ObserveLogin(string(auth.RealmStaff), loginResult(err))
		respondServiceError(ctx, h.log, errorMapping{op: "staff.login"}, err)
		return
	}

	token, expiresAt, err := h.sessions.GenerateStaffToken(s.ID.Hex())
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "session token", "err", err)
		RespondInternal(ctx, msgInternal)
		return
	}

	h.prom.ObserveLogin(string(auth.RealmStaff), "ok")
	setSessionCookie(ctx, auth.StaffCookie, token, expiresAt, h.cfg.SecureCookie)

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"expiresAt": expiresAt,
		"user":      s,
	})
}

func (h *StaffAuthHandler) Logout(ctx *gin.Context) {
	clearSessionCookie(ctx, auth.StaffCookie, h.cfg.SecureCookie)
	ctx.Status(http.StatusNoContent)
}

type InitAdminRequest struct {
	Secret string `json:"secret"`
}

// InitAdmin seeds the default admin. With a configured secret the caller
// must present it; without one the route only works in development.
func (h *StaffAuthHandler) InitAdmin(ctx *gin.Context) {
	var req InitAdminRequest

	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &req) {
		return
	}

	if h.cfg.AdminInitSecret != "" {
		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.cfg.AdminInitSecret)) != 1 {
			RespondUnauthorized(ctx, "No autorizado. La clave secreta no coincide.")
			return
		}
	} else if !h.cfg.AllowOpenInit {
		RespondInternal(ctx, "ADMIN_INIT_SECRET no está configurado.")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	admin, created, err := h.accounts.BootstrapAdmin(cctx)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.init_admin"}, err)
		return
	}

	if !created {
		ctx.JSON(http.StatusOK, gin.H{
			"message": "El usuario admin ya existe",
			"user":    admin,
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"message":         "Usuario admin creado exitosamente",
		"user":            admin,
		"defaultPassword": accounts.DefaultAdminPassword,
	})
}

func (h *StaffAuthHandler) Me(ctx *gin.Context) {
	id, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Get(cctx, id)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.me"}, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": s})
}

func (h *StaffAuthHandler) UpdateMe(ctx *gin.Context) {
	var req staff.SelfUpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.UpdateSelf(cctx, id, req)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.update_me"}, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": s})
}
