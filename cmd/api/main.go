package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creciendojuntos/backoffice/internal/accounts"
	"github.com/creciendojuntos/backoffice/internal/auth"
	"github.com/creciendojuntos/backoffice/internal/config"
	httpx "github.com/creciendojuntos/backoffice/internal/http"
	"github.com/creciendojuntos/backoffice/internal/http/handlers"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/creciendojuntos/backoffice/internal/queue/redisclient"
	"github.com/creciendojuntos/backoffice/internal/repo/memory"
	"github.com/creciendojuntos/backoffice/internal/repo/mongodb"
	"github.com/creciendojuntos/backoffice/internal/storage"
	"github.com/creciendojuntos/backoffice/internal/uploads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "backoffice-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// account stores
	var (
		patientStore accounts.PatientStore
		staffStore   accounts.StaffStore
		storeHealth  handlers.Pinger
		closeStore   = func() {}
	)

	switch cfg.StoreBackend {
	case "memory":
		log.Warn("using in-memory account store; data is lost on restart")
		patients := memory.NewPatientsRepo(true)
		patientStore, staffStore, storeHealth = patients, memory.NewStaffRepo(true), patients
	default:
		client, err := mongodb.Connect(cfg.MongoURI)
		if err != nil {
			log.Error("mongo connect failed", "err", err)
			os.Exit(1)
		}
		closeStore = func() { _ = client.Disconnect(context.Background()) }

		db := client.Database(cfg.DBName)

		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = mongodb.EnsureIndexes(idxCtx, db)
		cancel()
		if err != nil {
			// duplicates already in the collection block the unique index
			log.Error("ensure indexes failed", "err", err)
			os.Exit(1)
		}

		patientStore = mongodb.NewPatientsRepo(db, prom)
		staffStore = mongodb.NewStaffRepo(db, prom)
		storeHealth = mongodb.Health{Client: client}
	}
	defer closeStore()

	// photos
	objects, err := storage.New(ctx, storage.Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
		PresignTTL:      cfg.PresignTTL,
	})
	if err != nil {
		log.Error("object storage init failed", "err", err)
		os.Exit(1)
	}
	if cfg.S3Bucket == "" {
		log.Warn("S3_BUCKET_NAME not configured; photo endpoints will fail")
	}

	var registry *uploads.Registry
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable; uploads will not be tracked until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		registry = uploads.NewRegistry(rdb)
	}

	var photos accounts.PhotoConfirmer
	if cfg.S3Bucket != "" {
		photos = uploads.NewConfirmer(objects, registry, log)
	}

	// services
	patientSvc := accounts.NewPatientService(patientStore, photos, log)
	staffSvc := accounts.NewStaffService(staffStore, photos, log)

	// set up routers with the log
	router := httpx.NewRouter(httpx.RouterConfig{
		Env:             cfg.Env,
		CORSOrigins:     cfg.CORSOrigins,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		LoginRateLimit:  cfg.LoginRateLimit,
		AdminInitSecret: cfg.AdminInitSecret,
	}, httpx.RouterDeps{
		Log:      log,
		Prom:     prom,
		Gatherer: reg,
		Store:    storeHealth,
		Sessions: auth.NewManager(cfg.SessionSecret, cfg.PatientTTL, cfg.StaffTTL),
		Patients: patientSvc,
		Staff:    staffSvc,
		Photos:   objects,
		Uploads:  registry,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
