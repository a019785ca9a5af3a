package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// APIError is the error body. The message sits under "error" as a plain
// string, which is what the back-office pages read.
type APIError struct {
	Message   string      `json:"error"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// Client-facing messages. The front end shows these verbatim.
const (
	msgInvalidCredentials = "Credenciales inválidas"
	msgUnauthenticated    = "No autenticado"
	msgForbidden          = "No autorizado. Solo administradores pueden realizar esta acción."
	msgNotFound           = "Usuario no encontrado"
	msgPatientNotFound    = "Paciente no encontrado"
	msgSelfDeactivation   = "No puedes eliminar tu propio usuario"
	msgInternal           = "Error interno del servidor"
)

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, APIError{
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, status int, message string) {
	RespondError(ctx, status, "conflict", message, nil)
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return "El nombre de usuario ya está en uso"
	case errors.Is(err, account.ErrDocumentTaken):
		return "El número de documento ya está registrado"
	default:
		return "El correo electrónico ya está registrado"
	}
}

// errorMapping tunes respondServiceError for one route.
type errorMapping struct {
	op             string
	conflictStatus int
	conflict       string
	notFound       string
}

// respondServiceError turns a service error into the error envelope.
// Anything outside the account taxonomy is logged and reported as a bare 500.
func respondServiceError(ctx *gin.Context, log *slog.Logger, m errorMapping, err error) {
	var verr *account.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, verr.Msg, nil)
	case errors.Is(err, account.ErrValidation):
		RespondBadRequest(ctx, "Solicitud inválida", nil)
	case account.IsConflict(err):
		status := m.conflictStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		msg := m.conflict
		if msg == "" {
			msg = conflictMessage(err)
		}
		RespondConflict(ctx, status, msg)
	case errors.Is(err, account.ErrInvalidCredentials):
		RespondUnauthorized(ctx, msgInvalidCredentials)
	case errors.Is(err, account.ErrForbidden):
		RespondForbidden(ctx, msgForbidden)
	case errors.Is(err, account.ErrSelfDeactivation):
		RespondBadRequest(ctx, msgSelfDeactivation, nil)
	case errors.Is(err, account.ErrNotFound):
		msg := m.notFound
		if msg == "" {
			msg = msgNotFound
		}
		RespondNotFound(ctx, msg)
	default:
		log.ErrorContext(ctx.Request.Context(), "request failed", "op", m.op, "err", err)
		RespondInternal(ctx, msgInternal)
	}
}
