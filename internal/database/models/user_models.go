package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleInstructor = "instructor"
	RoleOrgAdmin   = "org_admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID          string `gorm:"primaryKey;size:64"`
	OrgID       string `gorm:"index;not null;size:64;index:idx_users_org_email,unique"`
	Email       string `gorm:"not null;index:idx_users_org_email,unique"`
	Password    string `gorm:"not null"`
	DisplayName string `gorm:"not null"`
	Role        string `gorm:"index;not null;size:32"`
	// LegacyUID carries the identifier from the previous identity system. Course
	// creator references may point at either ID or LegacyUID.
	LegacyUID string     `gorm:"index;size:64"`
	IsActive  bool       `gorm:"default:true"`
	LastLogin *time.Time
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`
}

func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleInstructor
}

func MigrateUserDB(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
