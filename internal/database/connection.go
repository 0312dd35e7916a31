// internal/database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	switch cfg.Driver {
	case "sqlite":
		DB, err = gorm.Open(sqlite.Open(cfg.DSN()), gormConfig)
	default:
		if cfg.EnsureDatabase {
			if err := ensureDatabase(cfg); err != nil {
				return nil, fmt.Errorf("failed to ensure database exists: %w", err)
			}
		}
		DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer; serialise through one connection.
		sqlDB.SetMaxOpenConns(1)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established successfully")
	return DB, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ensureDatabase creates the configured postgres database through the
// maintenance database when it is missing.
func ensureDatabase(cfg config.DatabaseConfig) error {
	if cfg.Database == "" {
		return nil
	}

	sqlDB, err := sql.Open("postgres", cfg.MaintenanceDSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	logrus.WithField("database", cfg.Database).Info("Creating database")
	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Database))
	return err
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RevokedToken{},
		&models.Business{},
		&models.Category{},
		&models.AttributeName{},
		&models.Product{},
		&models.Attribute{},
		&models.Inventory{},
		&models.ProductVariant{},
		&models.VariantAttribute{},
		&models.InventoryVariant{},
		&models.ProductImage{},
		&models.PaymentMethod{},
		&models.Sale{},
		&models.SaleItem{},
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_business_created ON products(business_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_attributes_product_name ON attributes(product_id, attribute_name_id)",
		"CREATE INDEX IF NOT EXISTS idx_variant_attributes_variant_name ON variant_attributes(variant_id, attribute_name_id)",
		"CREATE INDEX IF NOT EXISTS idx_categories_business_nombre ON categories(business_id, nombre)",
		"CREATE INDEX IF NOT EXISTS idx_sales_business_date ON sales(business_id, sale_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires ON revoked_tokens(expires_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// SeedInitialData seeds the payment method catalogue. Safe to run repeatedly.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	paymentMethods := []models.PaymentMethod{
		{Name: "Efectivo", IsActive: true},
		{Name: "Transferencia", IsActive: true},
		{Name: "Pago Móvil", IsActive: true},
		{Name: "Punto de Venta", IsActive: true},
	}

	for _, method := range paymentMethods {
		var count int64
		if err := db.Model(&models.PaymentMethod{}).Where("name = ?", method.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up payment method %s: %w", method.Name, err)
		}

		if count == 0 {
			if err := db.Create(&method).Error; err != nil {
				return fmt.Errorf("failed to create payment method %s: %w", method.Name, err)
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// WithTransaction runs fn inside one unit of work. The transaction commits
// when fn returns nil and rolls back on any error or panic.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			logrus.WithError(rbErr).Warn("Transaction rollback failed")
		}
		return err
	}

	return tx.Commit().Error
}
