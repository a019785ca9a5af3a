package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/gin-gonic/gin"
)

type AdminAuthorizer interface {
	AuthorizeAdmin(ctx context.Context, callerID string) (staff.Staff, error)
}

// RequireAdmin must run after RequireStaff. The caller's role and activo
// flag are read from the database on every request, so a demotion or
// deactivation takes effect immediately.
func RequireAdmin(authz AdminAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := ActorIDFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "No autenticado")
			return
		}

		_, err := authz.AuthorizeAdmin(c.Request.Context(), actorID)
		if err != nil {
			if errors.Is(err, account.ErrForbidden) {
				abortWithError(c, http.StatusForbidden, "forbidden", "Acceso denegado: se requiere rol admin")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "role lookup failed", "err", err)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Error interno del servidor")
			return
		}

		c.Next()
	}
}
