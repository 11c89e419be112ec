package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan StringArray: %v", value)
	}
	return json.Unmarshal(bytes, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Contribution is one machine-readable audit record of a payment folded into a
// payroll entry.
type Contribution struct {
	PaymentID   string    `json:"payment_id"`
	Amount      string    `json:"amount"`
	RecordedAt  time.Time `json:"recorded_at"`
	Description string    `json:"description"`
}

type ContributionList []Contribution

func (l *ContributionList) Scan(value interface{}) error {
	if value == nil {
		*l = ContributionList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan ContributionList: %v", value)
	}
	return json.Unmarshal(bytes, l)
}

func (l ContributionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}
