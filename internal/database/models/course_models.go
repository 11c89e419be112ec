package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is a teachable offering. Responsibility for a course is implied by
// three independent signals (instructor name, creator id, assigned teacher
// list); nothing keeps them consistent with each other.
type Course struct {
	ID                 string      `gorm:"primaryKey;size:64"`
	OrgID              string      `gorm:"index;not null;size:64"`
	Title              string      `gorm:"not null"`
	Description        *string     `gorm:"type:text"`
	Instructor         string      `gorm:"size:255"`
	CreatorID          string      `gorm:"size:64"`
	AssignedTeacherIDs StringArray `gorm:"type:jsonb"`
	IsActive           bool        `gorm:"default:true"`
	CreatedAt          *time.Time  `gorm:"autoCreateTime"`
	UpdatedAt          *time.Time  `gorm:"autoUpdateTime"`
}

func MigrateCourseDB(db *gorm.DB) error {
	return db.AutoMigrate(&Course{})
}
