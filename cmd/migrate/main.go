package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	"github.com/uzmarket/delivery/internal/platform/migrations"
	"github.com/uzmarket/delivery/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var down bool
	flag.BoolVar(&down, "down", false, "roll back all migrations instead of applying them")
	flag.Parse()

	log := logger.NewDefault("migrate")

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Error("DATABASE_DSN is required")
		os.Exit(1)
	}

	fsys, dir := migrations.Source()
	source, err := iofs.New(fsys, dir)
	if err != nil {
		log.WithError(err).Error("load migration source")
		os.Exit(1)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		log.WithError(err).Error("open database for migration")
		os.Exit(1)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.WithError(err).Error("migration failed")
		os.Exit(1)
	}

	log.Info("migrations complete")
}
