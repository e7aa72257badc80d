package initializers

import (
	"log"

	"github.com/Codingstar67/ping-buddy/internals/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Global DB variable to be used across the application
var DB *gorm.DB

func ConnectToDb() {
	var err error
	dsn := config.GetEnvAsStr("DB_URL", "pingbuddy.db")
	log.Println("Connecting to database at:", dsn)

	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Failed to connect to DB")
	}
}
