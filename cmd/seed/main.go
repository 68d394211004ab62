// Command seed loads staff users and teams from a YAML fixture into Postgres.
//
//	go run ./cmd/seed -file fixtures/staff.yaml
package main

import (
	"context"
	"flag"
	"os"
	"time"

	assignrepo "estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/seed"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"
)

func main() {
	path := flag.String("file", "fixtures/staff.yaml", "YAML fixture with users and teams")
	migrate := flag.Bool("migrate", true, "apply pending migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Error("failed to open fixture", "error", err, "path", *path)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	fixture, err := seed.Parse(f)
	if err != nil {
		log.Error("invalid fixture", "error", err, "path", *path)
		os.Exit(1)
	}

	res, err := seed.Apply(ctx, assignrepo.New(pool), fixture, time.Now().UTC())
	if err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	log.Info("fixtures seeded", "users", res.Users, "teams", res.Teams, "members", res.Members)
}
