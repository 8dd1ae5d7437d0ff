package main

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/migrations"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
)

// Usage: migrate [-config path] up|down|force <version>|version
func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, TimeFormat: time.RFC3339, Output: os.Stdout, Console: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := sqlx.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal(err, "failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err, "failed to ping database")
	}

	dbDriver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		log.Fatal(err, "failed to create database driver")
	}

	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal(err, "failed to create source driver")
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatal(err, "failed to create migrator")
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		if flag.NArg() < 2 {
			log.Fatal(errors.New("missing version"), "usage: migrate force <version>")
		}
		version, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatal(convErr, "invalid version")
		}
		err = m.Force(version)
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
			log.Fatal(verErr, "failed to read version")
		}
		log.Info("schema version", "version", version, "dirty", dirty)
		return
	default:
		log.Fatal(errors.New("unknown command"), "usage: migrate up|down|force <version>|version", "command", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal(err, "migration failed", "command", cmd)
	}
	log.Info("migrations complete", "command", cmd)
}
