package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization holds per-tenant settings. The two percentages must sum to 100,
// validated when saved, not when read; a missing row falls back to 75/25.
type Organization struct {
	ID                           string     `gorm:"primaryKey;size:64"`
	Name                         string     `gorm:"not null"`
	TeacherSalaryPercentage      string     `gorm:"type:decimal(5,2);not null;default:75"`
	OrganizationSalaryPercentage string     `gorm:"type:decimal(5,2);not null;default:25"`
	CreatedAt                    *time.Time `gorm:"autoCreateTime"`
	UpdatedAt                    *time.Time `gorm:"autoUpdateTime"`
}

func MigrateOrganizationDB(db *gorm.DB) error {
	return db.AutoMigrate(&Organization{})
}
