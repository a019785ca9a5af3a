package middlewares_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/creciendojuntos/backoffice/internal/actorctx"
	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthorizer struct {
	authorizeFn func(ctx context.Context, callerID string) (staff.Staff, error)
	calls       int
}

func (f *fakeAuthorizer) AuthorizeAdmin(ctx context.Context, callerID string) (staff.Staff, error) {
	f.calls++
	return f.authorizeFn(ctx, callerID)
}

func newSessions() *auth.Manager {
	return auth.NewManager("test-secret", time.Hour, time.Hour)
}

func TestAuthMiddleware_Realms(t *testing.T) {
	sessions := newSessions()
	m := middlewares.NewAuthMiddleware(sessions)

	patientTok, _, _ := sessions.GeneratePatientToken("p1", "")
	staffTok, _, _ := sessions.GenerateStaffToken("s1")

	r := gin.New()
	echo := func(c *gin.Context) {
		id, _ := middlewares.ActorIDFromContext(c)
		fromCtx, _ := actorctx.ActorIDFrom(c.Request.Context())
		c.String(http.StatusOK, id+"|"+fromCtx)
	}
	r.GET("/patient", m.RequirePatient(), echo)
	r.GET("/staff", m.RequireStaff(), echo)
	r.GET("/any", m.RequireSession(), echo)

	tests := []struct {
		name     string
		path     string
		header   string
		cookie   *http.Cookie
		wantCode int
		wantBody string
	}{
		{name: "patient bearer", path: "/patient", header: "Bearer " + patientTok, wantCode: http.StatusOK, wantBody: "p1|p1"},
		{name: "patient cookie", path: "/patient", cookie: &http.Cookie{Name: auth.PatientCookie, Value: patientTok}, wantCode: http.StatusOK, wantBody: "p1|p1"},
		{name: "staff token on patient route", path: "/patient", header: "Bearer " + staffTok, wantCode: http.StatusUnauthorized},
		{name: "patient token on staff route", path: "/staff", header: "Bearer " + patientTok, wantCode: http.StatusUnauthorized},
		{name: "staff cookie", path: "/staff", cookie: &http.Cookie{Name: auth.StaffCookie, Value: staffTok}, wantCode: http.StatusOK, wantBody: "s1|s1"},
		{name: "any accepts staff", path: "/any", header: "Bearer " + staffTok, wantCode: http.StatusOK, wantBody: "s1|s1"},
		{name: "any accepts patient", path: "/any", header: "Bearer " + patientTok, wantCode: http.StatusOK, wantBody: "p1|p1"},
		{name: "missing", path: "/any", wantCode: http.StatusUnauthorized},
		{name: "garbage", path: "/staff", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "stale bearer falls back to cookie", path: "/staff", header: "Bearer nope", cookie: &http.Cookie{Name: auth.StaffCookie, Value: staffTok}, wantCode: http.StatusOK, wantBody: "s1|s1"},
		{name: "patient bearer with staff cookie on any", path: "/any", header: "Bearer " + patientTok, cookie: &http.Cookie{Name: auth.StaffCookie, Value: staffTok}, wantCode: http.StatusOK, wantBody: "s1|s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Fatalf("got body %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	sessions := newSessions()
	m := middlewares.NewAuthMiddleware(sessions)
	tok, _, _ := sessions.GenerateStaffToken("s1")

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "admin", err: nil, wantCode: http.StatusOK},
		{name: "not admin", err: account.ErrForbidden, wantCode: http.StatusForbidden},
		{name: "store down", err: errors.New("mongo down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := &fakeAuthorizer{authorizeFn: func(ctx context.Context, callerID string) (staff.Staff, error) {
				if callerID != "s1" {
					t.Fatalf("unexpected caller %q", callerID)
				}
				return staff.Staff{}, tt.err
			}}

			r := gin.New()
			r.GET("/admin", m.RequireStaff(), middlewares.RequireAdmin(authz), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodGet, "/admin", nil)
				req.Header.Set("Authorization", "Bearer "+tok)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				if w.Code != tt.wantCode {
					t.Fatalf("got %d, want %d", w.Code, tt.wantCode)
				}
			}

			// no caching: every request hits the store
			if authz.calls != 2 {
				t.Fatalf("expected 2 lookups, got %d", authz.calls)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := middlewares.NewRateLimiter(2, time.Minute)

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(middlewares.KeyByIPAndEmail), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	ana := `{"email":"ana@x.com","password":"x"}`
	for i := 0; i < 2; i++ {
		w := post(ana)
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: got %d", i, w.Code)
		}
		if w.Body.String() != ana {
			t.Fatalf("body not restored: %q", w.Body.String())
		}
	}

	w := post(`{"email":"ANA@x.com","password":"y"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	if w := post(`{"email":"luis@x.com"}`); w.Code != http.StatusOK {
		t.Fatalf("other account should not be limited, got %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name     string
		body     string
		ct       string
		wantCode int
	}{
		{name: "json", body: `{}`, ct: "application/json; charset=utf-8", wantCode: http.StatusNoContent},
		{name: "form", body: `a=b`, ct: "application/x-www-form-urlencoded", wantCode: http.StatusUnsupportedMediaType},
		{name: "bodyless", body: "", wantCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(tt.body))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing allow-origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin must not be allowed")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(16))
	r.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
	}{
		{name: "small", body: `{"a":1}`, wantCode: http.StatusNoContent},
		{name: "declared too large", body: `{"nombre":"demasiado largo"}`, wantCode: http.StatusRequestEntityTooLarge},
		{name: "chunked too large", body: `{"nombre":"demasiado largo"}`, chunked: true, wantCode: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
