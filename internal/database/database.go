package database

import (
	"fmt"
	"log"

	"flipduel/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate runs automatic migrations against the given connection
func Migrate(db *gorm.DB) error {
	// Core identity and ledger models first
	coreModels := []interface{}{
		&models.User{},
		&models.LedgerAccount{},
		&models.PlatformState{},
	}

	for _, model := range coreModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Duel registry models
	duelModels := []interface{}{
		&models.Duel{},
		&models.DuelParticipant{},
		&models.DuelEvent{},
	}

	for _, model := range duelModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Settlement engine models
	tradingModels := []interface{}{
		&models.Portfolio{},
		&models.Holding{},
		&models.TradeRecord{},
	}

	for _, model := range tradingModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	// Oracle models
	oracleModels := []interface{}{
		&models.AssetPrice{},
		&models.OracleState{},
		&models.OracleUpdater{},
	}

	for _, model := range oracleModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
