package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// StaffUsersHandler is admin-only CRUD over usersWork.
type StaffUsersHandler struct {
	accounts StaffAccounts
	log      *slog.Logger
}

func NewStaffUsersHandler(accounts StaffAccounts, log *slog.Logger) *StaffUsersHandler {
	return &StaffUsersHandler{accounts: accounts, log: log}
}

func (h *StaffUsersHandler) List(ctx *gin.Context) {
	f, ok := listFilterFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	items, err := h.accounts.List(cctx, f)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.list"}, err)
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

func (h *StaffUsersHandler) Create(ctx *gin.Context) {
	var req staff.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Create(cctx, req)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.create"}, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Usuario creado exitosamente",
		"user":    s,
	})
}

func (h *StaffUsersHandler) Get(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Get(cctx, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.get"}, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": s})
}

func (h *StaffUsersHandler) Update(ctx *gin.Context) {
	var req staff.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	actorID, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.AdminUpdate(cctx, actorID, ctx.Param("id"), req)
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.update"}, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": s})
}

// Deactivate is the DELETE route: sets activo=false, never removes the row.
func (h *StaffUsersHandler) Deactivate(ctx *gin.Context) {
	actorID, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Deactivate(cctx, actorID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.deactivate"}, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Usuario desactivado correctamente",
		"user":    s,
	})
}

func (h *StaffUsersHandler) Toggle(ctx *gin.Context) {
	actorID, _ := middlewares.ActorIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	s, err := h.accounts.Toggle(cctx, actorID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, h.log, errorMapping{op: "staff.toggle"}, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": s})
}
