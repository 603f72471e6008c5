package database

import (
	"github.com/poolrides/carpool-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Ride{},
		&models.Review{},
	)
	if err != nil {
		return err
	}

	// Constrain the role column to the closed role set
	if db.Dialector.Name() == "postgres" && db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		if err := db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('rider', 'driver', 'admin'))`).Error; err != nil {
			return err
		}
	}

	return nil
}
