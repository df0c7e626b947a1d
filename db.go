package main

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"planner/models"
	"planner/pkg/config"
	"planner/pkg/logger"
)

func openDB(cfg config.Config) (*gorm.DB, error) {
	if err := cfg.RequireDB(); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}
	return db, nil
}

// migrate runs AutoMigrate model by model so a failure on one table does not
// block the others. Failures are logged and ignored.
func migrate(db *gorm.DB) {
	log := logger.WithComponent("db")
	steps := []struct {
		table string
		model any
	}{
		{"users", &models.User{}},
		{"goals", &models.Goal{}},
		{"pdf_ingestions", &models.PDFIngestion{}},
		{"tasks", &models.Task{}},
		{"daily_availabilities", &models.DailyAvailability{}},
		{"recommendation_history", &models.RecommendationHistory{}},
	}
	for _, s := range steps {
		if err := db.AutoMigrate(s.model); err != nil {
			log.Warn().Err(err).Str("table", s.table).Msg("migration warning")
		}
	}
}
