package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/creciendojuntos/backoffice/internal/storage"
	"github.com/gin-gonic/gin"
)

type ObjectPresigner interface {
	PresignPut(ctx context.Context, key, contentType string) (storage.PresignedURL, error)
	PresignGet(ctx context.Context, key string) (storage.PresignedURL, error)
}

type UploadTracker interface {
	Track(ctx context.Context, key string) error
}

// PhotosHandler hands out presigned URLs. Bytes go straight from the browser
// to the bucket; the key is attached to an account later through a profile
// update, which checks that the object exists.
type PhotosHandler struct {
	objects ObjectPresigner
	uploads UploadTracker
	log     *slog.Logger
	prom    *observability.Prom
}

func NewPhotosHandler(objects ObjectPresigner, uploads UploadTracker, log *slog.Logger, prom *observability.Prom) *PhotosHandler {
	return &PhotosHandler{objects: objects, uploads: uploads, log: log, prom: prom}
}

type PresignRequest struct {
	Key         string `json:"key" binding:"required,max=1024"`
	ContentType string `json:"contentType" binding:"required,max=100"`
}

type PresignGetRequest struct {
	Key string `json:"key" binding:"required,max=1024"`
}

type PhotoKeyRequest struct {
	Realm     string `json:"realm" binding:"required,oneof=users usersWork"`
	AccountID string `json:"accountId" binding:"required"`
	Filename  string `json:"filename" binding:"required,max=255"`
}

func (h *PhotosHandler) Presign(ctx *gin.Context) {
	var req PresignRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !h.keyAllowed(ctx, req.Key) {
		return
	}
	if !strings.HasPrefix(strings.ToLower(req.ContentType), "image/") {
		RespondBadRequest(ctx, "contentType debe ser una imagen", gin.H{"contentType": req.ContentType})
		return
	}

	url, err := h.objects.PresignPut(ctx.Request.Context(), req.Key, req.ContentType)
	if err != nil {
		h.respondStorageError(ctx, "photos.presign_put", err)
		return
	}

	if err := h.uploads.Track(ctx.Request.Context(), req.Key); err != nil {
		// the URL is still usable; the object just will not be swept if orphaned
		h.log.WarnContext(ctx.Request.Context(), "upload tracking failed", "key", req.Key, "err", err)
	}

	h.prom.ObservePresign("put")
	ctx.JSON(http.StatusOK, gin.H{
		"url":       url.URL,
		"key":       req.Key,
		"headers":   url.Headers,
		"expiresAt": url.ExpiresAt,
	})
}

func (h *PhotosHandler) PresignGet(ctx *gin.Context) {
	var req PresignGetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !h.keyAllowed(ctx, req.Key) {
		return
	}

	url, err := h.objects.PresignGet(ctx.Request.Context(), req.Key)
	if err != nil {
		h.respondStorageError(ctx, "photos.presign_get", err)
		return
	}

	h.prom.ObservePresign("get")
	ctx.JSON(http.StatusOK, gin.H{
		"url":       url.URL,
		"expiresAt": url.ExpiresAt,
	})
}

// PhotoKey names a fresh object for an account's photo.
func (h *PhotosHandler) PhotoKey(ctx *gin.Context) {
	var req PhotoKeyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if realm, _ := middlewares.RealmFromContext(ctx); realm == auth.RealmPatient {
		actorID, _ := middlewares.ActorIDFromContext(ctx)
		if req.Realm != account.CollectionPatients || req.AccountID != actorID {
			RespondForbidden(ctx, "Solo puedes subir tu propia foto")
			return
		}
	}

	key, err := storage.PhotoKey(req.Realm, req.AccountID, req.Filename)
	if err != nil {
		RespondBadRequest(ctx, "Datos de la foto inválidos", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"key": key})
}

// keyAllowed rejects malformed keys, and keys outside the caller's own prefix
// for patients. Staff may touch any photo.
func (h *PhotosHandler) keyAllowed(ctx *gin.Context, key string) bool {
	if !storage.ValidKey(key) {
		RespondBadRequest(ctx, "key inválido", gin.H{"key": key})
		return false
	}

	if realm, _ := middlewares.RealmFromContext(ctx); realm == auth.RealmPatient {
		actorID, _ := middlewares.ActorIDFromContext(ctx)
		if !strings.HasPrefix(key, account.CollectionPatients+"/"+actorID+"/") {
			RespondForbidden(ctx, "Solo puedes acceder a tu propia foto")
			return false
		}
	}
	return true
}

func (h *PhotosHandler) respondStorageError(ctx *gin.Context, op string, err error) {
	if errors.Is(err, storage.ErrBucketNotConfigured) {
		RespondInternal(ctx, "S3_BUCKET_NAME not configured")
		return
	}

	h.log.ErrorContext(ctx.Request.Context(), "storage failure", "op", op, "err", err)
	RespondInternal(ctx, msgInternal)
}
