package bootstrap

import (
	"gorm.io/gorm"

	"aidapay/internal/models"
)

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Transaction{})
}
