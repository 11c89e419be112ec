package engine

import (
	"sort"

	"academix-system/internal/database/models"
)

// Skip reasons surfaced in reconciliation summaries.
const (
	SkipStatusNotCompleted = "status_not_completed"
	SkipMissingPeriod      = "missing_period"
	SkipNoClassReference   = "no_class_reference"
	SkipNoTeacherFound     = "no_teacher_found"
	SkipAlreadyRecorded    = "already_recorded"
)

type SkippedPayment struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

// Eligible reports whether a payment may contribute to payroll, with the skip
// reason when it may not. Only completed payments carrying a month/year and at
// least one class reference qualify.
func Eligible(p models.Payment) (bool, string) {
	if p.Status != models.PaymentStatusCompleted {
		return false, SkipStatusNotCompleted
	}
	if p.PayPeriod() == "" {
		return false, SkipMissingPeriod
	}
	if len(p.ClassIDs) == 0 {
		return false, SkipNoClassReference
	}
	return true, ""
}

func FilterEligible(payments []models.Payment) ([]models.Payment, []SkippedPayment) {
	var eligible []models.Payment
	var skipped []SkippedPayment
	for _, p := range payments {
		if ok, reason := Eligible(p); !ok {
			skipped = append(skipped, SkippedPayment{PaymentID: p.ID, Reason: reason})
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible, skipped
}

func GroupByPeriod(payments []models.Payment) map[string][]models.Payment {
	groups := make(map[string][]models.Payment)
	for _, p := range payments {
		period := p.PayPeriod()
		groups[period] = append(groups[period], p)
	}
	return groups
}

// SortedPeriods returns the group keys in chronological order; YYYY-MM labels
// sort correctly as strings.
func SortedPeriods(groups map[string][]models.Payment) []string {
	periods := make([]string, 0, len(groups))
	for period := range groups {
		periods = append(periods, period)
	}
	sort.Strings(periods)
	return periods
}
