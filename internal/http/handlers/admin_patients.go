package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"github.com/gin-gonic/gin"
)

// AdminPatientsHandler is the back-office view of the users collection.
// Routes are mounted behind RequireStaff and RequireAdmin.
type AdminPatientsHandler struct {
	accounts PatientAccounts
	log      *slog.Logger
}

func NewAdminPatientsHandler(accounts PatientAccounts, log *slog.Logger) *AdminPatientsHandler {
	return &AdminPatientsHandler{accounts: accounts, log: log}
}

var patientErrors = errorMapping{notFound: msgPatientNotFound}

func (h *AdminPatientsHandler) mapping(op string) errorMapping {
	m := patientErrors
	m.op = op
	return m
}

func (h *AdminPatientsHandler) List(ctx *gin.Context) {
	f, ok := listFilterFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	items, err := h.accounts.List(cctx, f)
	if err != nil {
		respondServiceError(ctx, h.log, h.mapping("patients.list"), err)
		return
	}

	var next *string
	if n := len(items); n > 0 {
		next = nextCursor(f, n, items[n-1].CreatedAt, items[n-1].ID)
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"nextCursor": next,
	})
}

func (h *AdminPatientsHandler) Get(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.Get(cctx, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, h.log, h.mapping("patients.get"), err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"paciente": p})
}

func (h *AdminPatientsHandler) Update(ctx *gin.Context) {
	var req patient.AdminUpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.AdminUpdate(cctx, ctx.Param("id"), req)
	if err != nil {
		respondServiceError(ctx, h.log, h.mapping("patients.update"), err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "paciente": p})
}

// Deactivate is the DELETE route. Records are never removed.
func (h *AdminPatientsHandler) Deactivate(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.SetActive(cctx, ctx.Param("id"), false)
	if err != nil {
		respondServiceError(ctx, h.log, h.mapping("patients.deactivate"), err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Paciente desactivado correctamente",
		"paciente": p,
	})
}

func (h *AdminPatientsHandler) Toggle(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.accounts.Toggle(cctx, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, h.log, h.mapping("patients.toggle"), err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "paciente": p})
}
