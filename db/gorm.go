package db

import (
	"fmt"
	"log"
	"time"

	"veestributes/config"
	"veestributes/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB is the GORM connection instance. It coexists with DB
// (*sql.DB); the platform catalog and distribution attempts use GORM
// while the older repositories stay on database/sql.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to the database with GORM.")
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// MigrateDistributionModels migrates the platform catalog and
// distribution attempt tables and seeds the default platforms.
func MigrateDistributionModels() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := GormDB.AutoMigrate(&model.Platform{}, &model.DistributionAttempt{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	if err := seedPlatforms(); err != nil {
		return err
	}

	log.Println("Distribution models migrated successfully with GORM.")
	return nil
}

// seedPlatforms inserts the built-in platform catalog. Existing rows
// are left untouched so operators can edit them.
func seedPlatforms() error {
	defaults := []model.Platform{
		{Name: "spotify", Domain: "open.spotify.com", IsActive: true, SupportedFormats: "mp3,flac,ogg"},
		{Name: "apple music", Domain: "music.apple.com", IsActive: true, SupportedFormats: "mp3,flac"},
		{Name: "youtube music", Domain: "music.youtube.com", IsActive: true, SupportedFormats: "mp3,flac,ogg"},
	}

	for _, platform := range defaults {
		var count int64
		if err := GormDB.Model(&model.Platform{}).Where("name = ?", platform.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check platform %s: %w", platform.Name, err)
		}
		if count > 0 {
			continue
		}
		if err := GormDB.Create(&platform).Error; err != nil {
			return fmt.Errorf("failed to seed platform %s: %w", platform.Name, err)
		}
	}

	return nil
}
