// Package payroll applies the engine's payroll plans to the store: posting
// payment shares into payroll entries under row locks, running bulk
// reconciliation with progress reporting, and serving payroll reports.
package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academix-system/internal/database/models"
	"academix-system/internal/services/payroll/engine"
)

const (
	PAYROLL_CACHE_PREFIX        = "payroll:"
	PAYROLL_REPORT_CACHE_PREFIX = "payroll_report:"
	TEACHERS_CACHE_PREFIX       = "users:teachers:"
	RECONCILE_PROGRESS_PREFIX   = "payroll_reconcile_progress:"
	RECONCILE_LOCK_PREFIX       = "payroll_reconcile_lock:"

	CACHE_TTL_SHORT  = 5 * time.Minute
	CACHE_TTL_MEDIUM = 30 * time.Minute
	CACHE_TTL_LONG   = 2 * time.Hour

	RECONCILE_LOCK_TTL = 30 * time.Minute
)

type Service struct {
	db    *gorm.DB
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewService(db *gorm.DB, redisClient *redis.Client, log *zap.SugaredLogger) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
		log:   log,
	}
}

// PostResult summarizes what posting did for one payment (or a whole run when
// merged by the reconciliation driver).
type PostResult struct {
	Created int                     `json:"created"`
	Updated int                     `json:"updated"`
	Skipped []engine.SkippedPayment `json:"skipped,omitempty"`
	Errors  []string                `json:"errors,omitempty"`
}

func (r *PostResult) merge(other PostResult) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Errors = append(r.Errors, other.Errors...)
}

// SplitForOrg reads the organization's percentage split. The percentages are
// validated at save time only, so here they are taken as stored; a missing
// organization row falls back to the default 75/25.
func (s *Service) SplitForOrg(ctx context.Context, orgID string) engine.PercentSplit {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", orgID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			s.log.Warnw("failed to load organization settings, using default split", "org_id", orgID, "error", err)
		} else {
			s.log.Warnw("organization settings missing, using default split", "org_id", orgID)
		}
		return engine.DefaultSplit()
	}

	teacherPct, err := decimal.NewFromString(org.TeacherSalaryPercentage)
	if err != nil {
		return engine.DefaultSplit()
	}
	orgPct, err := decimal.NewFromString(org.OrganizationSalaryPercentage)
	if err != nil {
		return engine.DefaultSplit()
	}
	return engine.PercentSplit{Teacher: teacherPct, Organization: orgPct}
}

// Teachers returns the org's teacher users through a redis read-through cache.
// A store failure degrades to an empty list rather than failing the caller.
func (s *Service) Teachers(ctx context.Context, orgID string) []models.User {
	cacheKey := TEACHERS_CACHE_PREFIX + orgID

	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached []models.User
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached
		}
	} else if err != redis.Nil {
		s.log.Warnw("redis error on teachers cache, falling back to DB", "error", err)
	}

	var teachers []models.User
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND role IN ?", orgID, []string{models.RoleTeacher, models.RoleInstructor}).
		Find(&teachers).Error; err != nil {
		s.log.Errorw("failed to load teachers, continuing with empty set", "org_id", orgID, "error", err)
		return nil
	}

	if jsonData, err := json.Marshal(teachers); err == nil {
		s.redis.Set(ctx, cacheKey, jsonData, CACHE_TTL_MEDIUM)
	}
	return teachers
}

func (s *Service) InvalidateTeacherCache(ctx context.Context, orgID string) {
	s.redis.Del(ctx, TEACHERS_CACHE_PREFIX+orgID)
}

// InvalidatePayrollCaches drops every cached report variant for the org plus
// the given entry caches. Reports are cached per pay period, hence the pattern
// delete.
func (s *Service) InvalidatePayrollCaches(ctx context.Context, orgID string, entryIDs ...string) {
	if keys, err := s.redis.Keys(ctx, PAYROLL_REPORT_CACHE_PREFIX+orgID+":*").Result(); err == nil && len(keys) > 0 {
		s.redis.Del(ctx, keys...)
	}
	for _, id := range entryIDs {
		s.redis.Del(ctx, PAYROLL_CACHE_PREFIX+id)
	}
}

// PostPayment folds one payment into payroll, loading the referenced courses
// and the org's teachers itself. Best-effort by contract: the caller saved the
// payment already and this never makes that save fail.
func (s *Service) PostPayment(ctx context.Context, payment models.Payment, split engine.PercentSplit) PostResult {
	if ok, reason := engine.Eligible(payment); !ok {
		return PostResult{Skipped: []engine.SkippedPayment{{PaymentID: payment.ID, Reason: reason}}}
	}

	courseByID := s.coursesByID(ctx, payment.OrgID, payment.ClassIDs)
	teachers := s.Teachers(ctx, payment.OrgID)

	return s.postPaymentData(ctx, payment, split, courseByID, teachers)
}

func (s *Service) coursesByID(ctx context.Context, orgID string, classIDs []string) map[string]models.Course {
	var courses []models.Course
	query := s.db.WithContext(ctx).Where("org_id = ?", orgID)
	if len(classIDs) > 0 {
		query = query.Where("id IN ?", classIDs)
	}
	if err := query.Find(&courses).Error; err != nil {
		s.log.Errorw("failed to load courses, continuing with empty set", "org_id", orgID, "error", err)
		return map[string]models.Course{}
	}

	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID
}

// postPaymentData is the shared posting path for single payments and the bulk
// driver, which preloads courses and teachers once for the whole run.
func (s *Service) postPaymentData(ctx context.Context, payment models.Payment, split engine.PercentSplit, courseByID map[string]models.Course, teachers []models.User) PostResult {
	var result PostResult

	classes := make([]engine.ClassTeachers, 0, len(payment.ClassIDs))
	for _, classID := range payment.ClassIDs {
		course, ok := courseByID[classID]
		if !ok {
			s.log.Warnw("payment references unknown class, skipping its portion",
				"payment_id", payment.ID, "class_id", classID)
			result.Skipped = append(result.Skipped, engine.SkippedPayment{PaymentID: payment.ID, Reason: engine.SkipNoTeacherFound})
			classes = append(classes, engine.ClassTeachers{CourseID: classID})
			continue
		}

		resolved := engine.ResolveTeachers(course, teachers)
		if len(resolved) == 0 {
			s.log.Warnw("no teacher resolved for class, skipping its portion",
				"payment_id", payment.ID, "class_id", classID)
			result.Skipped = append(result.Skipped, engine.SkippedPayment{PaymentID: payment.ID, Reason: engine.SkipNoTeacherFound})
		}
		classes = append(classes, engine.ClassTeachers{CourseID: classID, Teachers: resolved})
	}

	amount, err := decimal.NewFromString(payment.Amount)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("payment %s: invalid amount %q", payment.ID, payment.Amount))
		return result
	}

	shares, _ := engine.SplitPayment(amount, split, classes)

	var touched []string
	for _, share := range shares {
		action, err := s.postShare(ctx, payment, share.Teacher, share.Salary)
		if err != nil {
			s.log.Errorw("failed to post payroll share",
				"payment_id", payment.ID, "employee_id", engine.IdentityKey(share.Teacher), "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("payment %s, employee %s: %v", payment.ID, engine.IdentityKey(share.Teacher), err))
			continue
		}
		switch action.Type {
		case engine.ActionCreate:
			result.Created++
			touched = append(touched, action.Entry.ID)
		case engine.ActionUpdate:
			result.Updated++
			touched = append(touched, action.Entry.ID)
		case engine.ActionSkip:
			result.Skipped = append(result.Skipped, engine.SkippedPayment{PaymentID: payment.ID, Reason: action.Reason})
		}
	}

	if len(touched) > 0 {
		s.InvalidatePayrollCaches(ctx, payment.OrgID, touched...)
	}
	return result
}

// postShare runs the aggregation state machine for one (teacher, pay period)
// slot inside a transaction, taking a row lock on the existing automatic entry
// so concurrent posts against the same slot serialize.
func (s *Service) postShare(ctx context.Context, payment models.Payment, teacher models.User, salary decimal.Decimal) (engine.Action, error) {
	var action engine.Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PayrollEntry
		var existingPtr *models.PayrollEntry

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("org_id = ? AND employee_id = ? AND pay_period = ? AND calculation_type = ?",
				payment.OrgID, engine.IdentityKey(teacher), payment.PayPeriod(), models.CalculationTypeAutomatic).
			First(&existing).Error
		if err == nil {
			existingPtr = &existing
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		action = engine.PlanContribution(payment, teacher, salary, existingPtr, time.Now())

		switch action.Type {
		case engine.ActionCreate:
			action.Entry.ID = uuid.NewString()
			if err := tx.Create(&action.Entry).Error; err != nil {
				return err
			}
		case engine.ActionUpdate:
			res := tx.Model(&models.PayrollEntry{}).
				Where("id = ? AND revision = ?", existing.ID, existing.Revision).
				Updates(map[string]interface{}{
					"base_salary":   action.Entry.BaseSalary,
					"net_salary":    action.Entry.NetSalary,
					"payment_ids":   action.Entry.PaymentIDs,
					"contributions": action.Entry.Contributions,
					"revision":      action.Entry.Revision,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("payroll entry %s was modified concurrently", existing.ID)
			}
		}
		return nil
	})

	return action, err
}
