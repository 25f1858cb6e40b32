package migrations

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BenAji/agora-go/internal/domain/events"
	"github.com/BenAji/agora-go/internal/domain/watchlist"
	"github.com/BenAji/agora-go/internal/infrastructure/persistence/postgres/connection"
)

// MigrationRecord tracks the migration history
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;unique"`
	Version   int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for migration records
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *connection.Database, logger *zap.Logger) error {
	logger.Info("Starting automatic database migration...")

	// Enable UUID extension for PostgreSQL
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		logger.Error("Failed to create UUID extension", zap.Error(err))
		return fmt.Errorf("failed to create UUID extension: %v", err)
	}

	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		logger.Error("Failed to create migrations table", zap.Error(err))
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		txDB := &connection.Database{DB: tx}

		var lastVersion int
		if err := txDB.Model(&MigrationRecord{}).Select("COALESCE(MAX(version), 0)").Scan(&lastVersion).Error; err != nil {
			return fmt.Errorf("failed to get last version: %v", err)
		}

		// Companies come first: events and subscriptions reference them.
		models := []interface{}{
			&events.Company{},
			&events.Event{},
			&events.Host{},
			&watchlist.Subscription{},
		}

		for i, model := range models {
			modelName := fmt.Sprintf("%T", model)

			var record MigrationRecord
			err := txDB.Where("name = ?", modelName).First(&record).Error
			isNewMigration := err == gorm.ErrRecordNotFound

			if err := txDB.AutoMigrate(model); err != nil {
				logger.Error("Failed to migrate model",
					zap.String("model", modelName),
					zap.Error(err),
				)
				return fmt.Errorf("failed to migrate %s: %v", modelName, err)
			}

			if isNewMigration {
				record = MigrationRecord{
					Name:      modelName,
					Version:   lastVersion + i + 1,
					AppliedAt: time.Now(),
				}
				if err := txDB.Create(&record).Error; err != nil {
					logger.Error("Failed to record migration",
						zap.String("model", modelName),
						zap.Error(err),
					)
					return fmt.Errorf("failed to record migration for %s: %v", modelName, err)
				}
				logger.Info("Applied new migration",
					zap.String("model", modelName),
					zap.Int("version", record.Version),
				)
			}
		}

		if err := seedDefaultCompanies(tx); err != nil {
			return err
		}

		logger.Info("Database migration completed successfully")
		return nil
	})
}

// seedDefaultCompanies inserts the starter coverage universe so a fresh
// install has rows on the grid before any subscription exists.
func seedDefaultCompanies(db *gorm.DB) error {
	defaults := []events.Company{
		{Ticker: "BLK", Name: "BlackRock Inc", Sector: "Financials", Subsector: "Asset Management", DisplayRank: 1},
		{Ticker: "JPM", Name: "JPMorgan Chase & Co", Sector: "Financials", Subsector: "Banks", DisplayRank: 2},
		{Ticker: "MSFT", Name: "Microsoft Corp", Sector: "Information Technology", Subsector: "Software", DisplayRank: 3},
		{Ticker: "NVDA", Name: "NVIDIA Corp", Sector: "Information Technology", Subsector: "Semiconductors", DisplayRank: 4},
		{Ticker: "XOM", Name: "Exxon Mobil Corp", Sector: "Energy", Subsector: "Oil & Gas", DisplayRank: 5},
		{Ticker: "UNH", Name: "UnitedHealth Group Inc", Sector: "Health Care", Subsector: "Managed Care", DisplayRank: 6},
	}

	for _, company := range defaults {
		if err := db.Where("ticker = ?", company.Ticker).FirstOrCreate(&company).Error; err != nil {
			return fmt.Errorf("failed to seed company %s: %w", company.Ticker, err)
		}
	}
	return nil
}
