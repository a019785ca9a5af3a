package middlewares

import (
	"net/http"
	"strings"

	"github.com/creciendojuntos/backoffice/internal/actorctx"
	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionVerifier interface {
	Verify(token string, realm auth.Realm) (*auth.Claims, error)
}

type AuthMiddleware struct {
	sessions SessionVerifier
}

func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func (m *AuthMiddleware) RequirePatient() gin.HandlerFunc {
	return m.require(auth.RealmPatient)
}

func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return m.require(auth.RealmStaff)
}

// RequireSession accepts a valid session from either realm. Used by the
// photo endpoints, which both back-office and patients call.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return m.require(auth.RealmStaff, auth.RealmPatient)
}

func (m *AuthMiddleware) require(realms ...auth.Realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, realm := range realms {
			claims, ok := m.verify(c, realm)
			if !ok {
				continue
			}

			c.Set(CtxActorID, claims.UserID)
			c.Set(CtxRealm, claims.Realm)
			c.Set(CtxPhotoKey, claims.PhotoKey)
			c.Request = c.Request.WithContext(actorctx.WithActorID(c.Request.Context(), claims.UserID))

			c.Next()
			return
		}

		abortWithError(c, http.StatusUnauthorized, "unauthorized", "No autenticado")
	}
}

// verify tries the Authorization header first and then the realm's session
// cookie. A stale bearer token does not hide a valid cookie.
func (m *AuthMiddleware) verify(c *gin.Context, realm auth.Realm) (*auth.Claims, bool) {
	for _, raw := range tokensFrom(c, realm) {
		claims, err := m.sessions.Verify(raw, realm)
		if err == nil {
			return claims, true
		}
	}
	return nil, false
}

func tokensFrom(c *gin.Context, realm auth.Realm) []string {
	var out []string
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); raw != "" {
			out = append(out, raw)
		}
	}

	if cookie, err := c.Cookie(realm.Cookie()); err == nil && cookie != "" {
		out = append(out, cookie)
	}
	return out
}

// Helpers so handlers don't need to know the magic keys.

func ActorIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxActorID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func RealmFromContext(c *gin.Context) (auth.Realm, bool) {
	v, ok := c.Get(CtxRealm)
	if !ok {
		return "", false
	}
	realm, ok := v.(auth.Realm)
	return realm, ok
}
