package models

import "time"

type VendorModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VendorModel) TableName() string {
	return "vendors"
}
