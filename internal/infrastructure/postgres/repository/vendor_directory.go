package repository

import (
	"context"

	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type PGVendorDirectory struct {
	DB *gorm.DB
}

func NewPGVendorDirectory(db *gorm.DB) *PGVendorDirectory {
	return &PGVendorDirectory{DB: db}
}

func (d *PGVendorDirectory) VendorExists(ctx context.Context, vendorID string) (bool, error) {
	var count int64
	err := d.DB.WithContext(ctx).
		Model(&models.VendorModel{}).
		Where("id = ? AND active", vendorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
