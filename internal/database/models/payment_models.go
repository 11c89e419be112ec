package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment is one student billing event. Amounts are stored as decimal strings
// and only ever manipulated through shopspring/decimal.
type Payment struct {
	ID            string      `gorm:"primaryKey;size:64"`
	OrgID         string      `gorm:"index;not null;size:64"`
	StudentID     string      `gorm:"index;not null;size:64"`
	Amount        string      `gorm:"type:decimal(12,2);not null"`
	Status        string      `gorm:"index;not null;size:16"`
	Month         string      `gorm:"size:2"`
	Year          string      `gorm:"size:4"`
	ClassIDs      StringArray `gorm:"type:jsonb"`
	TransactionID string      `gorm:"size:64"`
	Notes         *string     `gorm:"type:text"`
	CreatedAt     *time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     *time.Time  `gorm:"autoUpdateTime"`
}

// PayPeriod returns the YYYY-MM label the payment belongs to, or "" when the
// month or year is missing.
func (p Payment) PayPeriod() string {
	if p.Month == "" || p.Year == "" {
		return ""
	}
	return p.Year + "-" + p.Month
}

func MigratePaymentDB(db *gorm.DB) error {
	return db.AutoMigrate(&Payment{})
}
