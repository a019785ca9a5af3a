package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/http/handlers"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/creciendojuntos/backoffice/internal/storage"
	"github.com/gin-gonic/gin"
)

type fakePresigner struct {
	putFn func(ctx context.Context, key, contentType string) (storage.PresignedURL, error)
	getFn func(ctx context.Context, key string) (storage.PresignedURL, error)
}

func (f *fakePresigner) PresignPut(ctx context.Context, key, contentType string) (storage.PresignedURL, error) {
	return f.putFn(ctx, key, contentType)
}

func (f *fakePresigner) PresignGet(ctx context.Context, key string) (storage.PresignedURL, error) {
	return f.getFn(ctx, key)
}

type fakeTracker struct {
	trackFn func(ctx context.Context, key string) error
	calls   int
}

func (f *fakeTracker) Track(ctx context.Context, key string) error {
	f.calls++
	if f.trackFn != nil {
		return f.trackFn(ctx, key)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asActor stands in for the auth middleware.
func asActor(realm auth.Realm, id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxActorID, id)
		c.Set(middlewares.CtxRealm, realm)
		c.Next()
	}
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPresign(t *testing.T) {
	gin.SetMode(gin.TestMode)

	expires := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)
	okPut := func(ctx context.Context, key, contentType string) (storage.PresignedURL, error) {
		return storage.PresignedURL{
			URL:       "https://fotos.s3.amazonaws.com/" + key,
			Method:    http.MethodPut,
			Headers:   http.Header{"X-Amz-Server-Side-Encryption": {"AES256"}},
			ExpiresAt: expires,
		}, nil
	}

	tests := []struct {
		name      string
		realm     auth.Realm
		body      string
		put       func(ctx context.Context, key, contentType string) (storage.PresignedURL, error)
		trackErr  error
		wantCode  int
		wantTrack int
		wantMsg   string
	}{
		{name: "own key", realm: auth.RealmPatient, body: `{"key":"users/p1/photos/a.jpg","contentType":"image/jpeg"}`, put: okPut, wantCode: http.StatusOK, wantTrack: 1},
		{name: "tracking failure still answers", realm: auth.RealmPatient, body: `{"key":"users/p1/photos/a.jpg","contentType":"image/jpeg"}`, put: okPut, trackErr: errors.New("redis down"), wantCode: http.StatusOK, wantTrack: 1},
		{name: "foreign key", realm: auth.RealmPatient, body: `{"key":"users/p2/photos/a.jpg","contentType":"image/jpeg"}`, put: okPut, wantCode: http.StatusForbidden},
		{name: "staff any key", realm: auth.RealmStaff, body: `{"key":"users/p2/photos/a.jpg","contentType":"image/png"}`, put: okPut, wantCode: http.StatusOK, wantTrack: 1},
		{name: "missing content type", realm: auth.RealmStaff, body: `{"key":"users/p2/photos/a.jpg"}`, put: okPut, wantCode: http.StatusBadRequest},
		{
			name:  "bucket not configured",
			realm: auth.RealmStaff,
			body:  `{"key":"users/p2/photos/a.jpg","contentType":"image/png"}`,
			put: func(ctx context.Context, key, contentType string) (storage.PresignedURL, error) {
				return storage.PresignedURL{}, storage.ErrBucketNotConfigured
			},
			wantCode: http.StatusInternalServerError,
			wantMsg:  "S3_BUCKET_NAME not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &fakeTracker{trackFn: func(ctx context.Context, key string) error { return tt.trackErr }}
			h := handlers.NewPhotosHandler(&fakePresigner{putFn: tt.put}, tracker, discardLogger(), nil)

			actor := "p1"
			if tt.realm == auth.RealmStaff {
				actor = "s1"
			}
			r := gin.New()
			r.POST("/s3/presign", asActor(tt.realm, actor), h.Presign)

			w := postJSON(r, "/s3/presign", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tracker.calls != tt.wantTrack {
				t.Fatalf("tracked %d times, want %d", tracker.calls, tt.wantTrack)
			}

			if tt.wantMsg != "" {
				var env struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &env)
				if env.Error != tt.wantMsg {
					t.Fatalf("got message %q, want %q", env.Error, tt.wantMsg)
				}
			}

			if tt.wantCode == http.StatusOK {
				var resp struct {
					URL       string    `json:"url"`
					Key       string    `json:"key"`
					ExpiresAt time.Time `json:"expiresAt"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.URL == "" || !strings.HasPrefix(resp.Key, "users/") || !resp.ExpiresAt.Equal(expires) {
					t.Fatalf("unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestPresignGet_ReturnsURL(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotKey string
	presigner := &fakePresigner{getFn: func(ctx context.Context, key string) (storage.PresignedURL, error) {
		gotKey = key
		return storage.PresignedURL{URL: "https://signed/" + key, Method: http.MethodGet}, nil
	}}
	h := handlers.NewPhotosHandler(presigner, &fakeTracker{}, discardLogger(), nil)

	r := gin.New()
	r.POST("/s3/presign-get", asActor(auth.RealmStaff, "s1"), h.PresignGet)

	w := postJSON(r, "/s3/presign-get", `{"key":"usersWork/s9/photos/x.png"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, body=%s", w.Code, w.Body.String())
	}
	if gotKey != "usersWork/s9/photos/x.png" {
		t.Fatalf("presigned wrong key %q", gotKey)
	}
}
