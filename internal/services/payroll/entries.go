package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academix-system/internal/database/models"
)

var (
	ErrEntryNotFound = errors.New("payroll entry not found")
	ErrNotPending    = errors.New("only pending payroll entries can be paid")
)

// MarkPaid transitions one pending entry to paid. Paying is an explicit user
// action, never automatic.
func (s *Service) MarkPaid(ctx context.Context, orgID, entryID string) (*models.PayrollEntry, error) {
	var entry models.PayrollEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND org_id = ?", entryID, orgID).
			First(&entry).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEntryNotFound
			}
			return err
		}

		if entry.Status != models.PayrollStatusPending {
			return fmt.Errorf("%w: current status %s", ErrNotPending, entry.Status)
		}

		entry.Status = models.PayrollStatusPaid
		entry.Revision++
		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.InvalidatePayrollCaches(ctx, orgID, entryID)
	return &entry, nil
}

// BulkMarkPaid pays every given entry, collecting per-entry failures instead
// of aborting on the first one.
func (s *Service) BulkMarkPaid(ctx context.Context, orgID string, entryIDs []string) (paid []string, errs []string) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, entryID := range entryIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			if _, err := s.MarkPaid(ctx, orgID, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("entry %s: %v", id, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			paid = append(paid, id)
			mu.Unlock()
		}(entryID)
	}

	wg.Wait()
	return paid, errs
}

type ManualEntryInput struct {
	EmployeeID   string
	EmployeeName string
	PayPeriod    string
	BaseSalary   string
	Allowances   string
	Bonus        string
	Deductions   string
	Notes        *string
}

func recomputeNet(base, allowances, bonus, deductions string) (string, error) {
	b, err := decimal.NewFromString(base)
	if err != nil {
		return "", fmt.Errorf("invalid base salary %q: %w", base, err)
	}
	a, err := decimal.NewFromString(allowances)
	if err != nil {
		return "", fmt.Errorf("invalid allowances %q: %w", allowances, err)
	}
	bo, err := decimal.NewFromString(bonus)
	if err != nil {
		return "", fmt.Errorf("invalid bonus %q: %w", bonus, err)
	}
	d, err := decimal.NewFromString(deductions)
	if err != nil {
		return "", fmt.Errorf("invalid deductions %q: %w", deductions, err)
	}
	return b.Add(a).Add(bo).Sub(d).StringFixed(2), nil
}

// CreateManualEntry records a hand-entered payroll entry. Manual entries are
// exempt from the one-per-period rule that automatic entries follow.
func (s *Service) CreateManualEntry(ctx context.Context, orgID string, input ManualEntryInput) (*models.PayrollEntry, error) {
	net, err := recomputeNet(input.BaseSalary, input.Allowances, input.Bonus, input.Deductions)
	if err != nil {
		return nil, err
	}

	base, _ := decimal.NewFromString(input.BaseSalary)
	allowances, _ := decimal.NewFromString(input.Allowances)
	bonus, _ := decimal.NewFromString(input.Bonus)
	deductions, _ := decimal.NewFromString(input.Deductions)

	entry := models.PayrollEntry{
		ID:              uuid.NewString(),
		OrgID:           orgID,
		EmployeeID:      input.EmployeeID,
		EmployeeName:    input.EmployeeName,
		PayPeriod:       input.PayPeriod,
		BaseSalary:      base.StringFixed(2),
		Allowances:      allowances.StringFixed(2),
		Bonus:           bonus.StringFixed(2),
		Deductions:      deductions.StringFixed(2),
		NetSalary:       net,
		Status:          models.PayrollStatusPending,
		CalculationType: models.CalculationTypeManual,
		PaymentIDs:      models.StringArray{},
		Contributions:   models.ContributionList{},
		Notes:           input.Notes,
		Revision:        1,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}

	s.InvalidatePayrollCaches(ctx, orgID)
	return &entry, nil
}

type EntryAdjustment struct {
	Allowances *string
	Bonus      *string
	Deductions *string
	Notes      *string
}

// AdjustEntry edits the independently editable money fields of an entry and
// recomputes net salary from whatever the row then holds.
func (s *Service) AdjustEntry(ctx context.Context, orgID, entryID string, adj EntryAdjustment) (*models.PayrollEntry, error) {
	var entry models.PayrollEntry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND org_id = ?", entryID, orgID).
			First(&entry).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEntryNotFound
			}
			return err
		}

		if adj.Allowances != nil {
			entry.Allowances = *adj.Allowances
		}
		if adj.Bonus != nil {
			entry.Bonus = *adj.Bonus
		}
		if adj.Deductions != nil {
			entry.Deductions = *adj.Deductions
		}
		if adj.Notes != nil {
			entry.Notes = adj.Notes
		}

		net, err := recomputeNet(entry.BaseSalary, entry.Allowances, entry.Bonus, entry.Deductions)
		if err != nil {
			return err
		}
		entry.NetSalary = net
		entry.Revision++

		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.InvalidatePayrollCaches(ctx, orgID, entryID)
	return &entry, nil
}
