package http

import (
	"log/slog"
	"time"

	"github.com/creciendojuntos/backoffice/internal/http/handlers"
	"github.com/creciendojuntos/backoffice/internal/http/middlewares"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "backoffice-api"

type RouterConfig struct {
	Env             string
	CORSOrigins     []string
	MaxBodyBytes    int64
	LoginRateLimit  int
	AdminInitSecret string
}

// RouterDeps are the collaborators the routes are wired to. Gatherer and
// Prom may be nil, in which case /metrics is not mounted.
type RouterDeps struct {
	Log      *slog.Logger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Store    handlers.Pinger
	Sessions interface {
		middlewares.SessionVerifier
		handlers.SessionIssuer
	}
	Patients handlers.PatientAccounts
	Staff    interface {
		handlers.StaffAccounts
		middlewares.AdminAuthorizer
	}
	Photos  handlers.ObjectPresigner
	Uploads handlers.UploadTracker
}

func NewRouter(cfg RouterConfig, deps RouterDeps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestLogger(deps.Log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Store)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	secure := cfg.Env != "dev"
	authMw := middlewares.NewAuthMiddleware(deps.Sessions)
	loginLimiter := middlewares.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	presignLimiter := middlewares.NewRateLimiter(60, time.Minute)

	// patient realm
	patients := handlers.NewPatientsHandler(deps.Patients, deps.Sessions, deps.Log, deps.Prom, secure)

	r.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIPAndEmail), patients.Login)
	r.POST("/auth/logout", patients.Logout)
	r.POST("/users/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), patients.Register)

	me := r.Group("/users/me", authMw.RequirePatient())
	me.GET("", patients.Me)
	me.PUT("", patients.UpdateMe)

	// staff realm
	staffAuth := handlers.NewStaffAuthHandler(deps.Staff, deps.Sessions, handlers.StaffAuthConfig{
		AdminInitSecret: cfg.AdminInitSecret,
		AllowOpenInit:   cfg.Env == "dev",
		SecureCookie:    secure,
	}, deps.Log, deps.Prom)

	sys := r.Group("/syscreju")
	sys.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIPAndEmail), staffAuth.Login)
	sys.POST("/auth/logout", staffAuth.Logout)
	sys.POST("/init-admin", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), staffAuth.InitAdmin)

	staffSession := sys.Group("", authMw.RequireStaff())
	staffSession.GET("/users/me", staffAuth.Me)
	staffSession.PUT("/users/me", staffAuth.UpdateMe)

	admin := staffSession.Group("", middlewares.RequireAdmin(deps.Staff))

	staffUsers := handlers.NewStaffUsersHandler(deps.Staff, deps.Log)
	admin.GET("/users", staffUsers.List)
	admin.POST("/users", staffUsers.Create)
	admin.GET("/users/:id", staffUsers.Get)
	admin.PUT("/users/:id", staffUsers.Update)
	admin.DELETE("/users/:id", staffUsers.Deactivate)
	admin.POST("/users/:id/toggle", staffUsers.Toggle)

	adminPatients := handlers.NewAdminPatientsHandler(deps.Patients, deps.Log)
	admin.GET("/pacientes", adminPatients.List)
	admin.GET("/pacientes/:id", adminPatients.Get)
	admin.PUT("/pacientes/:id", adminPatients.Update)
	admin.DELETE("/pacientes/:id", adminPatients.Deactivate)
	admin.POST("/pacientes/:id/toggle", adminPatients.Toggle)

	// photos
	photos := handlers.NewPhotosHandler(deps.Photos, deps.Uploads, deps.Log, deps.Prom)

	s3 := r.Group("/s3", authMw.RequireSession(), presignLimiter.RateLimiterMiddleware(middlewares.KeyByActorOrIP))
	s3.POST("/presign", photos.Presign)
	s3.POST("/presign-get", photos.PresignGet)
	s3.POST("/photo-key", photos.PhotoKey)

	return r
}
