package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PayrollStatusPending   = "pending"
	PayrollStatusPaid      = "paid"
	PayrollStatusCancelled = "cancelled"

	CalculationTypeManual    = "manual"
	CalculationTypeAutomatic = "automatic"
)

// PayrollEntry is one teacher's compensation for one pay period. For automatic
// entries at most one row exists per (org, employee, period); payments are
// merged into it keyed by membership in PaymentIDs.
type PayrollEntry struct {
	ID              string `gorm:"primaryKey;size:64"`
	OrgID           string `gorm:"index;not null;size:64"`
	EmployeeID      string `gorm:"index;not null;size:64"`
	EmployeeName    string `gorm:"not null"`
	PayPeriod       string `gorm:"index;not null;size:7"`
	BaseSalary      string `gorm:"type:decimal(12,2);not null"`
	Allowances      string `gorm:"type:decimal(12,2);not null;default:0"`
	Bonus           string `gorm:"type:decimal(12,2);not null;default:0"`
	Deductions      string `gorm:"type:decimal(12,2);not null;default:0"`
	NetSalary       string `gorm:"type:decimal(12,2);not null"`
	Status          string `gorm:"index;not null;size:16"`
	CalculationType string `gorm:"index;not null;size:16"`
	PaymentIDs      StringArray      `gorm:"type:jsonb"`
	Contributions   ContributionList `gorm:"type:jsonb"`
	Notes           *string          `gorm:"type:text"`
	// Revision is bumped on every write so a stale read-modify-write is
	// detectable; aggregation itself runs under a row lock.
	Revision  int64      `gorm:"not null;default:0"`
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`
}

func MigratePayrollDB(db *gorm.DB) error {
	return db.AutoMigrate(&PayrollEntry{})
}
