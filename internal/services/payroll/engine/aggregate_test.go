package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academix-system/internal/database/models"
)

func completedPayment(id, amount string) models.Payment {
	return models.Payment{
		ID:       id,
		OrgID:    "org1",
		Amount:   amount,
		Status:   models.PaymentStatusCompleted,
		Month:    "03",
		Year:     "2025",
		ClassIDs: models.StringArray{"c1"},
	}
}

func TestPlanContributionCreatesPendingEntry(t *testing.T) {
	payment := completedPayment("p1", "1000.00")
	alice := teacher("t1", "Alice")
	now := time.Now()

	action := PlanContribution(payment, alice, dec(t, "750.00"), nil, now)

	require.Equal(t, ActionCreate, action.Type)
	entry := action.Entry
	assert.Equal(t, "org1", entry.OrgID)
	assert.Equal(t, "t1", entry.EmployeeID)
	assert.Equal(t, "Alice", entry.EmployeeName)
	assert.Equal(t, "2025-03", entry.PayPeriod)
	assert.Equal(t, "750.00", entry.BaseSalary)
	assert.Equal(t, "750.00", entry.NetSalary)
	assert.Equal(t, "0.00", entry.Allowances)
	assert.Equal(t, models.PayrollStatusPending, entry.Status)
	assert.Equal(t, models.CalculationTypeAutomatic, entry.CalculationType)
	assert.Equal(t, models.StringArray{"p1"}, entry.PaymentIDs)
	require.Len(t, entry.Contributions, 1)
	assert.Equal(t, "p1", entry.Contributions[0].PaymentID)
	assert.Equal(t, "750.00", entry.Contributions[0].Amount)
	assert.Equal(t, int64(1), entry.Revision)
}

func TestPlanContributionUpdatesExistingEntry(t *testing.T) {
	existing := &models.PayrollEntry{
		ID:              "e1",
		OrgID:           "org1",
		EmployeeID:      "t1",
		PayPeriod:       "2025-03",
		BaseSalary:      "750.00",
		Allowances:      "10.00",
		Bonus:           "5.00",
		Deductions:      "2.50",
		NetSalary:       "762.50",
		Status:          models.PayrollStatusPending,
		CalculationType: models.CalculationTypeAutomatic,
		PaymentIDs:      models.StringArray{"p1"},
		Contributions:   models.ContributionList{{PaymentID: "p1", Amount: "750.00"}},
		Revision:        1,
	}

	action := PlanContribution(completedPayment("p2", "200.00"), teacher("t1", "Alice"), dec(t, "150.00"), existing, time.Now())

	require.Equal(t, ActionUpdate, action.Type)
	entry := action.Entry
	assert.Equal(t, "900.00", entry.BaseSalary)
	assert.Equal(t, "912.50", entry.NetSalary)
	assert.Equal(t, "10.00", entry.Allowances)
	assert.Equal(t, models.StringArray{"p1", "p2"}, entry.PaymentIDs)
	assert.Len(t, entry.Contributions, 2)
	assert.Equal(t, int64(2), entry.Revision)

	// input row untouched
	assert.Equal(t, "750.00", existing.BaseSalary)
	assert.Equal(t, int64(1), existing.Revision)
}

func TestPlanContributionPreservesPaidStatus(t *testing.T) {
	existing := &models.PayrollEntry{
		ID:              "e1",
		OrgID:           "org1",
		EmployeeID:      "t1",
		PayPeriod:       "2025-03",
		BaseSalary:      "100.00",
		Allowances:      "0.00",
		Bonus:           "0.00",
		Deductions:      "0.00",
		NetSalary:       "100.00",
		Status:          models.PayrollStatusPaid,
		CalculationType: models.CalculationTypeAutomatic,
		PaymentIDs:      models.StringArray{"p1"},
		Revision:        2,
	}

	action := PlanContribution(completedPayment("p2", "100.00"), teacher("t1", "Alice"), dec(t, "75.00"), existing, time.Now())

	require.Equal(t, ActionUpdate, action.Type)
	assert.Equal(t, models.PayrollStatusPaid, action.Entry.Status)
	assert.Equal(t, "175.00", action.Entry.BaseSalary)
}

func TestPlanContributionSkipsRecordedPayment(t *testing.T) {
	existing := &models.PayrollEntry{
		ID:         "e1",
		BaseSalary: "750.00",
		PaymentIDs: models.StringArray{"p1"},
		Revision:   1,
	}

	action := PlanContribution(completedPayment("p1", "1000.00"), teacher("t1", "Alice"), dec(t, "750.00"), existing, time.Now())

	require.Equal(t, ActionSkip, action.Type)
	assert.Equal(t, SkipAlreadyRecorded, action.Reason)
	assert.Equal(t, "750.00", action.Entry.BaseSalary)
}

// applyAction simulates the store side of posting: Create inserts the planned
// entry, Update replaces the slot. Skip leaves it alone.
func applyAction(slots map[string]*models.PayrollEntry, key string, action Action) {
	switch action.Type {
	case ActionCreate, ActionUpdate:
		entry := action.Entry
		slots[key] = &entry
	}
}

func TestThreePaymentsAccumulateIntoOneEntry(t *testing.T) {
	alice := teacher("t1", "Alice")
	split := DefaultSplit()
	slots := make(map[string]*models.PayrollEntry)
	now := time.Now()

	payments := []models.Payment{
		completedPayment("p1", "100.00"),
		completedPayment("p2", "200.00"),
		completedPayment("p3", "300.00"),
	}

	post := func(p models.Payment) {
		amount := dec(t, p.Amount)
		shares, _ := SplitPayment(amount, split, []ClassTeachers{
			{CourseID: "c1", Teachers: []models.User{alice}},
		})
		require.Len(t, shares, 1)
		key := "t1/" + p.PayPeriod()
		applyAction(slots, key, PlanContribution(p, alice, shares[0].Salary, slots[key], now))
	}

	for _, p := range payments {
		post(p)
	}

	require.Len(t, slots, 1)
	entry := slots["t1/2025-03"]
	require.NotNil(t, entry)
	assert.Equal(t, "450.00", entry.BaseSalary)
	assert.Equal(t, "450.00", entry.NetSalary)
	assert.Equal(t, models.StringArray{"p1", "p2", "p3"}, entry.PaymentIDs)
	assert.Equal(t, int64(3), entry.Revision)

	// re-running the same batch changes nothing
	for _, p := range payments {
		post(p)
	}
	entry = slots["t1/2025-03"]
	assert.Equal(t, "450.00", entry.BaseSalary)
	assert.Len(t, entry.PaymentIDs, 3)
	assert.Equal(t, int64(3), entry.Revision)
}

func TestAggregationIsOrderIndependent(t *testing.T) {
	alice := teacher("t1", "Alice")
	now := time.Now()

	run := func(ids []string) *models.PayrollEntry {
		amounts := map[string]string{"p1": "100.00", "p2": "200.00"}
		slots := make(map[string]*models.PayrollEntry)
		for _, id := range ids {
			p := completedPayment(id, amounts[id])
			salary := dec(t, p.Amount).Mul(decimal.NewFromInt(75)).Div(decimal.NewFromInt(100))
			key := "t1/" + p.PayPeriod()
			applyAction(slots, key, PlanContribution(p, alice, salary, slots[key], now))
		}
		return slots["t1/2025-03"]
	}

	forward := run([]string{"p1", "p2"})
	backward := run([]string{"p2", "p1"})

	require.NotNil(t, forward)
	require.NotNil(t, backward)
	assert.Equal(t, forward.BaseSalary, backward.BaseSalary)
	assert.Equal(t, forward.NetSalary, backward.NetSalary)
	assert.ElementsMatch(t, forward.PaymentIDs, backward.PaymentIDs)
}
