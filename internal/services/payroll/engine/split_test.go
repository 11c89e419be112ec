package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academix-system/internal/database/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestNewPercentSplit(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		split, err := NewPercentSplit("75.00", "25.00")
		require.NoError(t, err)
		assert.True(t, split.Teacher.Equal(decimal.NewFromInt(75)))
		assert.True(t, split.Organization.Equal(decimal.NewFromInt(25)))
	})

	t.Run("sum not 100", func(t *testing.T) {
		_, err := NewPercentSplit("75.00", "30.00")
		assert.Error(t, err)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := NewPercentSplit("-10.00", "110.00")
		assert.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := NewPercentSplit("abc", "25.00")
		assert.Error(t, err)
	})
}

func TestSplitPaymentSingleTeacher(t *testing.T) {
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{teacher("t1", "Alice")}},
	}

	shares, orgShare := SplitPayment(dec(t, "1000.00"), DefaultSplit(), classes)

	require.Len(t, shares, 1)
	assert.Equal(t, "750.00", shares[0].Salary.StringFixed(2))
	assert.Equal(t, []string{"c1"}, shares[0].CourseIDs)
	assert.Equal(t, "250.00", orgShare.StringFixed(2))
}

func TestSplitPaymentTwoTeachersShareEqually(t *testing.T) {
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{
			teacher("t1", "Alice"),
			teacher("t2", "Bob"),
		}},
	}

	shares, _ := SplitPayment(dec(t, "1000.00"), DefaultSplit(), classes)

	require.Len(t, shares, 2)
	assert.Equal(t, "375.00", shares[0].Salary.StringFixed(2))
	assert.Equal(t, "375.00", shares[1].Salary.StringFixed(2))
}

func TestSplitPaymentDividesAcrossClasses(t *testing.T) {
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{teacher("t1", "Alice")}},
		{CourseID: "c2", Teachers: []models.User{teacher("t2", "Bob")}},
	}

	shares, _ := SplitPayment(dec(t, "100.00"), DefaultSplit(), classes)

	require.Len(t, shares, 2)
	assert.Equal(t, "37.50", shares[0].Salary.StringFixed(2))
	assert.Equal(t, "37.50", shares[1].Salary.StringFixed(2))
}

func TestSplitPaymentMergesTeacherAcrossClasses(t *testing.T) {
	alice := teacher("t1", "Alice")
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{alice}},
		{CourseID: "c2", Teachers: []models.User{alice}},
	}

	shares, _ := SplitPayment(dec(t, "100.00"), DefaultSplit(), classes)

	require.Len(t, shares, 1)
	assert.Equal(t, "75.00", shares[0].Salary.StringFixed(2))
	assert.ElementsMatch(t, []string{"c1", "c2"}, shares[0].CourseIDs)
}

func TestSplitPaymentClassWithoutTeacherForfeits(t *testing.T) {
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{teacher("t1", "Alice")}},
		{CourseID: "c2", Teachers: nil},
	}

	shares, _ := SplitPayment(dec(t, "100.00"), DefaultSplit(), classes)

	require.Len(t, shares, 1)
	assert.Equal(t, "37.50", shares[0].Salary.StringFixed(2))
}

func TestSplitPaymentNoClasses(t *testing.T) {
	shares, orgShare := SplitPayment(dec(t, "100.00"), DefaultSplit(), nil)

	assert.Empty(t, shares)
	assert.Equal(t, "25.00", orgShare.StringFixed(2))
}

func TestSplitPaymentShareSumMatchesTeacherCut(t *testing.T) {
	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{
			teacher("t1", "Alice"),
			teacher("t2", "Bob"),
			teacher("t3", "Carol"),
		}},
	}

	shares, _ := SplitPayment(dec(t, "100.00"), DefaultSplit(), classes)

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Salary)
	}
	assert.Equal(t, "75.00", sum.StringFixed(2))
}

func TestSplitPaymentCustomSplit(t *testing.T) {
	split, err := NewPercentSplit("60.00", "40.00")
	require.NoError(t, err)

	classes := []ClassTeachers{
		{CourseID: "c1", Teachers: []models.User{teacher("t1", "Alice")}},
	}

	shares, orgShare := SplitPayment(dec(t, "500.00"), split, classes)

	require.Len(t, shares, 1)
	assert.Equal(t, "300.00", shares[0].Salary.StringFixed(2))
	assert.Equal(t, "200.00", orgShare.StringFixed(2))
}
