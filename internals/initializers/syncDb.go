package initializers

import (
	"github.com/Codingstar67/ping-buddy/internals/models"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
		&models.User{},
	)
	if err != nil {
		panic("Failed to migrate database")
	}
}
