package postgres

import (
	"log"

	"github.com/kavelio/reservation-service/internal/config"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.ReservationConfig) *gorm.DB {
	dsn := cfg.ReservationDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(&models.ReservationModel{}, &models.TransitionLogModel{}, &models.VendorModel{})

	return db
}
