package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionIssuer interface {
	GeneratePatientToken(userID, photoKey string) (string, time.Time, error)
	GenerateStaffToken(userID string) (string, time.Time, error)
}

// storeTimeout bounds the account store work of one request.
const storeTimeout = 3 * time.Second

func setSessionCookie(ctx *gin.Context, name, token string, expiresAt time.Time, secure bool) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, token, maxAge, "/", "", secure, true)
}

func clearSessionCookie(ctx *gin.Context, name string, secure bool) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, "", -1, "/", "", secure, true)
}

func photoKeyOf(key *string) string {
	if key == nil {
		return ""
	}
	return *key
}

// listFilterFromQuery reads ?limit= and ?cursor=. It writes the 400 itself.
func listFilterFromQuery(ctx *gin.Context) (account.ListFilter, bool) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit inválido", gin.H{"limit": raw})
			return account.ListFilter{}, false
		}
		limit = n
	}

	f, err := utils.ListFilterFrom(limit, ctx.Query("cursor"))
	if err != nil {
		RespondBadRequest(ctx, "cursor inválido", nil)
		return account.ListFilter{}, false
	}
	return f, true
}

// nextCursor returns a cursor only when the page came back full.
func nextCursor(f account.ListFilter, n int, lastCreatedAt time.Time, lastID primitive.ObjectID) *string {
	if n == 0 || n < f.EffectiveLimit() {
		return nil
	}
	c, err := utils.EncodeAccountCursor(lastCreatedAt, lastID)
	if err != nil {
		return nil
	}
	return &c
}

func loginResult(err error) string {
	if errors.Is(err, account.ErrInvalidCredentials) {
		return "invalid"
	}
	return "error"
}
