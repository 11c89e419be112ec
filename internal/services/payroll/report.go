package payroll

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"academix-system/internal/database/models"
)

type EmployeePayrollSummary struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	TotalEarned  string `json:"total_earned"`
	TotalPaid    string `json:"total_paid"`
	TotalPending string `json:"total_pending"`
	EntryCount   int32  `json:"entry_count"`
}

type PayrollReport struct {
	PayPeriod         string                   `json:"pay_period,omitempty"`
	TotalEarned       string                   `json:"total_earned"`
	TotalPaid         string                   `json:"total_paid"`
	TotalPending      string                   `json:"total_pending"`
	EmployeeSummaries []EmployeePayrollSummary `json:"employee_summaries"`
}

// Report aggregates payroll per employee, optionally narrowed to one pay
// period. Cached for the org; invalidated on any entry write.
func (s *Service) Report(ctx context.Context, orgID, payPeriod string) (*PayrollReport, error) {
	cacheKey := PAYROLL_REPORT_CACHE_PREFIX + orgID + ":" + payPeriod

	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached PayrollReport
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return &cached, nil
		}
	} else if err != redis.Nil {
		s.log.Warnw("redis error on payroll report cache, falling back to DB", "error", err)
	}

	baseQuery := s.db.WithContext(ctx).Model(&models.PayrollEntry{}).Where("org_id = ?", orgID)
	if payPeriod != "" {
		baseQuery = baseQuery.Where("pay_period = ?", payPeriod)
	}

	var rows []struct {
		EmployeeID   string
		EmployeeName string
		TotalEarned  string
		TotalPaid    string
		EntryCount   int32
	}
	err = baseQuery.
		Select("employee_id, "+
			"MAX(employee_name) as employee_name, "+
			"COALESCE(SUM(net_salary), 0) as total_earned, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN net_salary ELSE 0 END), 0) as total_paid, "+
			"COUNT(*) as entry_count", models.PayrollStatusPaid).
		Group("employee_id").
		Order("employee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &PayrollReport{PayPeriod: payPeriod}
	totalEarned := decimal.Zero
	totalPaid := decimal.Zero

	for _, row := range rows {
		earned, _ := decimal.NewFromString(row.TotalEarned)
		paid, _ := decimal.NewFromString(row.TotalPaid)
		pending := earned.Sub(paid)

		totalEarned = totalEarned.Add(earned)
		totalPaid = totalPaid.Add(paid)

		report.EmployeeSummaries = append(report.EmployeeSummaries, EmployeePayrollSummary{
			EmployeeID:   row.EmployeeID,
			EmployeeName: row.EmployeeName,
			TotalEarned:  earned.StringFixed(2),
			TotalPaid:    paid.StringFixed(2),
			TotalPending: pending.StringFixed(2),
			EntryCount:   row.EntryCount,
		})
	}

	report.TotalEarned = totalEarned.StringFixed(2)
	report.TotalPaid = totalPaid.StringFixed(2)
	report.TotalPending = totalEarned.Sub(totalPaid).StringFixed(2)

	if jsonData, err := json.Marshal(report); err == nil {
		s.redis.Set(ctx, cacheKey, jsonData, CACHE_TTL_LONG)
	}
	return report, nil
}
