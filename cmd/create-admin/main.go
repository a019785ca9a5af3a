// create-admin seeds the default back-office administrator when none exists.
// It is the offline equivalent of POST /syscreju/init-admin.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/creciendojuntos/backoffice/internal/accounts"
	"github.com/creciendojuntos/backoffice/internal/config"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"github.com/creciendojuntos/backoffice/internal/repo/mongodb"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	uri := flag.String("mongo-uri", cfg.MongoURI, "MongoDB connection string")
	dbName := flag.String("db", cfg.DBName, "database name")
	flag.Parse()

	client, err := mongodb.Connect(*uri)
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := client.Database(*dbName)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Error("ensure indexes failed", "err", err)
		os.Exit(1)
	}

	svc := accounts.NewStaffService(mongodb.NewStaffRepo(db, nil), nil, log)

	admin, created, err := svc.BootstrapAdmin(ctx)
	if err != nil {
		log.Error("create admin failed", "err", err)
		os.Exit(1)
	}

	if !created {
		fmt.Printf("An admin already exists: %s (%s)\n", admin.Email, admin.NombreUsuario)
		return
	}

	fmt.Println("Admin created")
	fmt.Printf("  email:    %s\n", admin.Email)
	fmt.Printf("  username: %s\n", admin.NombreUsuario)
	fmt.Printf("  password: %s\n", accounts.DefaultAdminPassword)
	fmt.Println("Change the password after the first login.")
}
