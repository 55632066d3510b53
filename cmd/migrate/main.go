package main

import (
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/kiwari-pos/venue-api/internal/config"
	"github.com/kiwari-pos/venue-api/internal/database"
)

func main() {
	down := flag.Int("down", 0, "Roll back this many migrations instead of applying pending ones")
	flag.Parse()

	cfg := config.Load()

	m, closeFn, err := database.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("Unable to open migrations: %v", err)
	}
	defer closeFn()

	if *down > 0 {
		err = m.Steps(-*down)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("Schema is empty")
	case err != nil:
		log.Fatalf("Read schema version: %v", err)
	default:
		log.Printf("Schema at version %d (dirty: %v)", version, dirty)
	}
}
