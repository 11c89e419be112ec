package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academix-system/internal/database/models"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		name    string
		payment models.Payment
		ok      bool
		reason  string
	}{
		{
			name:    "completed with period and class",
			payment: completedPayment("p1", "100.00"),
			ok:      true,
		},
		{
			name: "pending",
			payment: models.Payment{
				ID: "p2", Status: models.PaymentStatusPending,
				Month: "03", Year: "2025", ClassIDs: models.StringArray{"c1"},
			},
			reason: SkipStatusNotCompleted,
		},
		{
			name: "failed",
			payment: models.Payment{
				ID: "p3", Status: models.PaymentStatusFailed,
				Month: "03", Year: "2025", ClassIDs: models.StringArray{"c1"},
			},
			reason: SkipStatusNotCompleted,
		},
		{
			name: "missing month",
			payment: models.Payment{
				ID: "p4", Status: models.PaymentStatusCompleted,
				Year: "2025", ClassIDs: models.StringArray{"c1"},
			},
			reason: SkipMissingPeriod,
		},
		{
			name: "no class reference",
			payment: models.Payment{
				ID: "p5", Status: models.PaymentStatusCompleted,
				Month: "03", Year: "2025",
			},
			reason: SkipNoClassReference,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := Eligible(tc.payment)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestFilterEligible(t *testing.T) {
	payments := []models.Payment{
		completedPayment("p1", "100.00"),
		{ID: "p2", Status: models.PaymentStatusPending, Month: "03", Year: "2025", ClassIDs: models.StringArray{"c1"}},
		completedPayment("p3", "200.00"),
		{ID: "p4", Status: models.PaymentStatusCompleted, Month: "03", Year: "2025"},
	}

	eligible, skipped := FilterEligible(payments)

	require.Len(t, eligible, 2)
	assert.Equal(t, "p1", eligible[0].ID)
	assert.Equal(t, "p3", eligible[1].ID)

	require.Len(t, skipped, 2)
	assert.Equal(t, SkippedPayment{PaymentID: "p2", Reason: SkipStatusNotCompleted}, skipped[0])
	assert.Equal(t, SkippedPayment{PaymentID: "p4", Reason: SkipNoClassReference}, skipped[1])
}

func TestGroupByPeriodAndSortedPeriods(t *testing.T) {
	jan := completedPayment("p1", "100.00")
	jan.Month, jan.Year = "01", "2025"
	dec24 := completedPayment("p2", "100.00")
	dec24.Month, dec24.Year = "12", "2024"
	mar := completedPayment("p3", "100.00")
	marTwo := completedPayment("p4", "100.00")

	groups := GroupByPeriod([]models.Payment{jan, dec24, mar, marTwo})

	require.Len(t, groups, 3)
	assert.Len(t, groups["2025-03"], 2)
	assert.Len(t, groups["2025-01"], 1)
	assert.Len(t, groups["2024-12"], 1)

	assert.Equal(t, []string{"2024-12", "2025-01", "2025-03"}, SortedPeriods(groups))
}
