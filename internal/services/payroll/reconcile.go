package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"academix-system/internal/database/models"
	"academix-system/internal/services/payroll/engine"
)

var ErrReconcileRunning = errors.New("a reconciliation run is already in progress for this organization")

// ReconcileProgress is written to redis as the driver advances so a client can
// poll a progress indicator during a long run.
type ReconcileProgress struct {
	RunID         string     `json:"run_id"`
	Processed     int        `json:"processed"`
	Total         int        `json:"total"`
	CurrentPeriod string     `json:"current_period"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

type ReconcileSummary struct {
	RunID      string                  `json:"run_id"`
	Processed  int                     `json:"processed"`
	Eligible   int                     `json:"eligible"`
	Created    int                     `json:"created"`
	Updated    int                     `json:"updated"`
	Skipped    []engine.SkippedPayment `json:"skipped,omitempty"`
	SkipCounts map[string]int          `json:"skip_counts"`
	Errors     []string                `json:"errors,omitempty"`
}

// Reconcile scans the organization's full payment history and posts every
// eligible payment into payroll, month group by month group in chronological
// order. Payments are processed one at a time; re-running over an unchanged
// payment set is a no-op because the aggregator skips already-recorded payment
// ids. A redis lock rejects a second concurrent run for the same org.
func (s *Service) Reconcile(ctx context.Context, orgID string) (*ReconcileSummary, error) {
	runID := uuid.NewString()
	lockKey := RECONCILE_LOCK_PREFIX + orgID

	acquired, err := s.redis.SetNX(ctx, lockKey, runID, RECONCILE_LOCK_TTL).Result()
	if err != nil {
		s.log.Warnw("redis error acquiring reconcile lock, proceeding unlocked", "org_id", orgID, "error", err)
	} else if !acquired {
		return nil, ErrReconcileRunning
	}
	defer s.redis.Del(context.Background(), lockKey)

	var payments []models.Payment
	if err := s.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&payments).Error; err != nil {
		return nil, err
	}

	// Split and lookup data are pinned once for the whole run.
	split := s.SplitForOrg(ctx, orgID)
	teachers := s.Teachers(ctx, orgID)
	courseByID := s.coursesByID(ctx, orgID, nil)

	eligible, skipped := engine.FilterEligible(payments)
	groups := engine.GroupByPeriod(eligible)
	periods := engine.SortedPeriods(groups)

	summary := &ReconcileSummary{
		RunID:      runID,
		Eligible:   len(eligible),
		Skipped:    skipped,
		SkipCounts: make(map[string]int),
	}

	progress := ReconcileProgress{
		RunID:     runID,
		Total:     len(eligible),
		StartedAt: time.Now(),
	}
	s.setProgress(ctx, orgID, progress)

	for _, period := range periods {
		progress.CurrentPeriod = period
		for _, payment := range groups[period] {
			res := s.postPaymentData(ctx, payment, split, courseByID, teachers)
			summary.Created += res.Created
			summary.Updated += res.Updated
			summary.Skipped = append(summary.Skipped, res.Skipped...)
			summary.Errors = append(summary.Errors, res.Errors...)

			summary.Processed++
			progress.Processed = summary.Processed
			s.setProgress(ctx, orgID, progress)
		}
	}

	for _, sk := range summary.Skipped {
		summary.SkipCounts[sk.Reason]++
	}

	now := time.Now()
	progress.FinishedAt = &now
	progress.CurrentPeriod = ""
	s.setProgress(ctx, orgID, progress)

	s.log.Infow("payroll reconciliation finished",
		"org_id", orgID, "run_id", runID,
		"processed", summary.Processed, "created", summary.Created,
		"updated", summary.Updated, "skipped", len(summary.Skipped), "errors", len(summary.Errors))

	return summary, nil
}

// Progress returns the latest reconciliation progress for the org, or nil when
// no run has been recorded.
func (s *Service) Progress(ctx context.Context, orgID string) (*ReconcileProgress, error) {
	val, err := s.redis.Get(ctx, RECONCILE_PROGRESS_PREFIX+orgID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var progress ReconcileProgress
	if err := json.Unmarshal([]byte(val), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (s *Service) setProgress(ctx context.Context, orgID string, progress ReconcileProgress) {
	jsonData, err := json.Marshal(progress)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, RECONCILE_PROGRESS_PREFIX+orgID, jsonData, CACHE_TTL_LONG).Err(); err != nil {
		s.log.Warnw("failed to record reconcile progress", "org_id", orgID, "error", err)
	}
}
