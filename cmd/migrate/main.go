package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/migrate"
	"go-canteenadmin/internal/repository/database"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "config file, empty for environment only")
	schema := flag.Bool("schema", true, "run AutoMigrate")
	fixMeals := flag.Bool("fix-meal-types", true, "normalize legacy dishes.meal_types values")
	fillSlots := flag.Bool("fill-menu-slots", true, "set menus.slot_active for active menus created before the column existed")
	dryRun := flag.Bool("dry-run", false, "report data fixes without writing")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.New(database.Config{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		lg.Fatal("db_open_failed", zap.Error(err))
	}
	defer database.Close(db)

	if *schema {
		if err := database.AutoMigrateModels(db, model.All()...); err != nil {
			lg.Fatal("auto_migrate_failed", zap.Error(err))
		}
		lg.Info("auto_migrate_done")
	}
	gw := database.NewGateway(db, time.Minute)
	if *fixMeals {
		rep, err := migrate.NormalizeMealTypes(context.Background(), gw, lg, *dryRun)
		if err != nil {
			lg.Fatal("meal_types_normalize_failed", zap.Error(err), zap.Int("scanned", rep.Scanned))
		}
		lg.Info("meal_types_normalize_done",
			zap.Int("scanned", rep.Scanned),
			zap.Int("fixed", rep.Fixed),
			zap.Strings("emptied", rep.Emptied),
			zap.Bool("dry_run", *dryRun))
	}
	if *fillSlots {
		rep, err := migrate.BackfillMenuSlots(context.Background(), gw, lg, *dryRun)
		if err != nil {
			lg.Fatal("menu_slots_backfill_failed", zap.Error(err), zap.Int("scanned", rep.Scanned))
		}
		lg.Info("menu_slots_backfill_done",
			zap.Int("scanned", rep.Scanned),
			zap.Int("filled", rep.Filled),
			zap.Strings("duplicates", rep.Duplicates),
			zap.Bool("dry_run", *dryRun))
	}
}
