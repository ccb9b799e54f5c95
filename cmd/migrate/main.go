package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yonetim/adminpanel/internal/app"
	"github.com/yonetim/adminpanel/internal/platform/db"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-steps n] up|down|list\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := app.NewLogger(&app.Config{LogFormat: os.Getenv("LOG_FORMAT"), AppEnv: os.Getenv("APP_ENV")})
	dsn := os.Getenv("PG_DSN")

	switch flag.Arg(0) {
	case "up":
		if dsn == "" {
			logger.Error("PG_DSN must be provided")
			os.Exit(1)
		}
		if err := db.MigrateUp(dsn); err != nil {
			logger.Error("migrate up", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	case "down":
		if dsn == "" {
			logger.Error("PG_DSN must be provided")
			os.Exit(1)
		}
		if err := db.MigrateDown(dsn, *steps); err != nil {
			logger.Error("migrate down", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations rolled back", slog.Int("steps", *steps))
	case "list":
		names, err := db.MigrationFiles()
		if err != nil {
			logger.Error("list migrations", slog.Any("error", err))
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}
