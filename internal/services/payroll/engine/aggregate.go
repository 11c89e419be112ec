package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"academix-system/internal/database/models"
)

type ActionType int

const (
	ActionCreate ActionType = iota
	ActionUpdate
	ActionSkip
)

// Action is the planned effect of folding one payment share into payroll. For
// Create the Entry has no ID yet; for Update it is the full desired row state
// including the bumped revision.
type Action struct {
	Type   ActionType
	Reason string
	Entry  models.PayrollEntry
}

func netSalary(base, allowances, bonus, deductions decimal.Decimal) decimal.Decimal {
	return base.Add(allowances).Add(bonus).Sub(deductions)
}

// PlanContribution decides how a teacher's share of one payment lands in the
// (employee, pay period) payroll slot. existing is the current automatic entry
// for that slot, or nil when none exists.
//
// Absent slot: a fresh pending automatic entry is created with the share as
// base salary. Existing slot without this payment: the share is added to the
// base, net is recomputed preserving allowances/bonus/deductions, and the
// status is left alone so a paid entry stays paid. Existing slot that already
// recorded this payment: skipped, which is what makes re-running a bulk
// reconciliation harmless.
func PlanContribution(payment models.Payment, teacher models.User, salary decimal.Decimal, existing *models.PayrollEntry, now time.Time) Action {
	contribution := models.Contribution{
		PaymentID:   payment.ID,
		Amount:      salary.StringFixed(2),
		RecordedAt:  now,
		Description: fmt.Sprintf("student payment %s (%s) share for period %s", payment.ID, payment.Amount, payment.PayPeriod()),
	}

	if existing == nil {
		return Action{
			Type: ActionCreate,
			Entry: models.PayrollEntry{
				OrgID:           payment.OrgID,
				EmployeeID:      IdentityKey(teacher),
				EmployeeName:    teacher.DisplayName,
				PayPeriod:       payment.PayPeriod(),
				BaseSalary:      salary.StringFixed(2),
				Allowances:      "0.00",
				Bonus:           "0.00",
				Deductions:      "0.00",
				NetSalary:       salary.StringFixed(2),
				Status:          models.PayrollStatusPending,
				CalculationType: models.CalculationTypeAutomatic,
				PaymentIDs:      models.StringArray{payment.ID},
				Contributions:   models.ContributionList{contribution},
				Revision:        1,
			},
		}
	}

	if existing.PaymentIDs.Contains(payment.ID) {
		return Action{Type: ActionSkip, Reason: SkipAlreadyRecorded, Entry: *existing}
	}

	base, _ := decimal.NewFromString(existing.BaseSalary)
	allowances, _ := decimal.NewFromString(existing.Allowances)
	bonus, _ := decimal.NewFromString(existing.Bonus)
	deductions, _ := decimal.NewFromString(existing.Deductions)

	base = base.Add(salary)

	updated := *existing
	updated.BaseSalary = base.StringFixed(2)
	updated.NetSalary = netSalary(base, allowances, bonus, deductions).StringFixed(2)
	updated.PaymentIDs = append(append(models.StringArray{}, existing.PaymentIDs...), payment.ID)
	updated.Contributions = append(append(models.ContributionList{}, existing.Contributions...), contribution)
	updated.Revision = existing.Revision + 1

	return Action{Type: ActionUpdate, Entry: updated}
}
