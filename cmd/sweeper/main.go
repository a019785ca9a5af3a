package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creciendojuntos/backoffice/internal/config"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/creciendojuntos/backoffice/internal/queue/redisclient"
	"github.com/creciendojuntos/backoffice/internal/repo/mongodb"
	"github.com/creciendojuntos/backoffice/internal/storage"
	"github.com/creciendojuntos/backoffice/internal/sweeper"
	"github.com/creciendojuntos/backoffice/internal/uploads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	if cfg.RedisAddr == "" || cfg.S3Bucket == "" {
		log.Error("sweeper needs REDIS_ADDR and S3_BUCKET_NAME")
		os.Exit(1)
	}

	// the sweeper must see every account, so it never runs on the memory store
	client, err := mongodb.Connect(cfg.MongoURI)
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.DBName)
	prom := observability.NewProm(prometheus.DefaultRegisterer)

	objects, err := storage.New(ctx, storage.Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
	})
	if err != nil {
		log.Error("object storage init failed", "err", err)
		os.Exit(1)
	}

	rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer rdb.Close()

	s := sweeper.New(sweeper.Config{
		Interval: cfg.SweepInterval,
		Grace:    cfg.OrphanGrace,
	}, uploads.NewRegistry(rdb), objects, log, prom,
		mongodb.NewPatientsRepo(db, prom),
		mongodb.NewStaffRepo(db, prom),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", s.HealthHandler(rdb))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.SweeperPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("sweeper health server starting", "port", cfg.SweeperPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	if err := s.Run(ctx); err != nil {
		log.Error("sweeper stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("sweeper shutdown complete")
}
