// Package engine holds the payroll computation core: resolving the teachers
// responsible for a class, splitting student payments into teacher shares, and
// planning how a share is folded into a payroll entry. Everything here is pure
// and operates on in-memory values so the rules are testable without a store.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"academix-system/internal/database/models"
)

var hundred = decimal.NewFromInt(100)

// PercentSplit is the organization-configured division of a payment between
// teachers and the organization. It is threaded in explicitly so the split is
// pinned for a whole batch instead of re-read mid-run.
type PercentSplit struct {
	Teacher      decimal.Decimal
	Organization decimal.Decimal
}

func DefaultSplit() PercentSplit {
	return PercentSplit{
		Teacher:      decimal.NewFromInt(75),
		Organization: decimal.NewFromInt(25),
	}
}

func NewPercentSplit(teacherPct, orgPct string) (PercentSplit, error) {
	t, err := decimal.NewFromString(teacherPct)
	if err != nil {
		return PercentSplit{}, fmt.Errorf("invalid teacher percentage %q: %w", teacherPct, err)
	}
	o, err := decimal.NewFromString(orgPct)
	if err != nil {
		return PercentSplit{}, fmt.Errorf("invalid organization percentage %q: %w", orgPct, err)
	}
	if t.IsNegative() || o.IsNegative() {
		return PercentSplit{}, fmt.Errorf("percentages must not be negative")
	}
	if !t.Add(o).Equal(hundred) {
		return PercentSplit{}, fmt.Errorf("percentages must sum to 100, got %s", t.Add(o))
	}
	return PercentSplit{Teacher: t, Organization: o}, nil
}

// ClassTeachers pairs one class referenced by a payment with its resolved
// teacher pool. An empty pool means the class is skipped.
type ClassTeachers struct {
	CourseID string
	Teachers []models.User
}

// TeacherShare is one teacher's cut of a single payment, already merged across
// every class of that payment the teacher is responsible for.
type TeacherShare struct {
	Teacher   models.User
	CourseIDs []string
	Salary    decimal.Decimal
}

// SplitPayment divides a payment amount across the referenced classes, splits
// each class portion equally among that class's teachers, and applies the
// teacher percentage. A payment referencing N classes contributes amount/N per
// class; classes without a resolved teacher forfeit their portion. The second
// return value is the organization's cut of the full amount.
func SplitPayment(amount decimal.Decimal, split PercentSplit, classes []ClassTeachers) ([]TeacherShare, decimal.Decimal) {
	orgShare := amount.Mul(split.Organization).Div(hundred)
	if len(classes) == 0 {
		return nil, orgShare
	}

	classAmount := amount.Div(decimal.NewFromInt(int64(len(classes))))

	var shares []TeacherShare
	index := make(map[string]int)

	for _, ct := range classes {
		if len(ct.Teachers) == 0 {
			continue
		}
		perTeacher := classAmount.Div(decimal.NewFromInt(int64(len(ct.Teachers))))
		salary := perTeacher.Mul(split.Teacher).Div(hundred)

		for _, t := range ct.Teachers {
			key := IdentityKey(t)
			if i, ok := index[key]; ok {
				shares[i].Salary = shares[i].Salary.Add(salary)
				shares[i].CourseIDs = append(shares[i].CourseIDs, ct.CourseID)
				continue
			}
			index[key] = len(shares)
			shares = append(shares, TeacherShare{
				Teacher:   t,
				CourseIDs: []string{ct.CourseID},
				Salary:    salary,
			})
		}
	}

	return shares, orgShare
}
