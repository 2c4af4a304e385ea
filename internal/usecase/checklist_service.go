package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/vitos/trade_checklist/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 4
	// DefaultMaxRangeDays bounds a single range evaluation.
	DefaultMaxRangeDays = 366
)

// ChecklistService builds checklist days from telemetry, the trader's rule
// records and their plan/journal context.
type ChecklistService struct {
	telemetry  domain.TelemetryProvider
	rules      domain.RuleRecordRepository
	plans      domain.PlanRepository
	journal    domain.JournalRepository
	evaluator  *RuleEvaluator
	reconciler *ConfigReconciler
	tracker    *RangeTracker
	defaults   domain.RuleSettings
	workers    int
	maxDays    int
	logger     *zap.Logger
}

func NewChecklistService(
	telemetry domain.TelemetryProvider,
	rules domain.RuleRecordRepository,
	plans domain.PlanRepository,
	journal domain.JournalRepository,
	defaults domain.RuleSettings,
	workers int,
	logger *zap.Logger,
) *ChecklistService {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &ChecklistService{
		telemetry:  telemetry,
		rules:      rules,
		plans:      plans,
		journal:    journal,
		evaluator:  NewRuleEvaluator(),
		reconciler: NewConfigReconciler(),
		tracker:    NewRangeTracker(),
		defaults:   defaults.Clone(),
		workers:    workers,
		maxDays:    DefaultMaxRangeDays,
		logger:     logger,
	}
}

// WithMaxRangeDays overrides the longest window Range accepts.
func (s *ChecklistService) WithMaxRangeDays(days int) *ChecklistService {
	if days > 0 {
		s.maxDays = days
	}
	return s
}

// SeedDefaults stores the default rule records for trader unless a
// collection already exists.
func (s *ChecklistService) SeedDefaults(ctx context.Context, trader string) (bool, error) {
	seeded, err := s.rules.SeedRuleRecords(ctx, trader, s.reconciler.Records(s.defaults))
	if err != nil {
		return false, fmt.Errorf("seed rule records for %s: %w", trader, err)
	}
	if seeded {
		s.logger.Info("Seeded default rule records", zap.String("trader", trader))
	}
	return seeded, nil
}

func (s *ChecklistService) RuleRecords(ctx context.Context, trader string) ([]*domain.RuleRecord, error) {
	return s.rules.ListRuleRecords(ctx, trader)
}

// Settings merges the trader's rule records over the defaults. A failed
// read leaves the defaults in place.
func (s *ChecklistService) Settings(ctx context.Context, trader string) domain.RuleSettings {
	records, err := s.rules.ListRuleRecords(ctx, trader)
	if err != nil {
		s.logger.Warn("Failed to load rule records, using defaults", zap.String("trader", trader), zap.Error(err))
		return s.defaults.Clone()
	}
	return s.reconciler.Apply(s.defaults, records)
}

// UpdateSettings writes settings back onto the trader's stored records and
// returns the settings as they now read back.
func (s *ChecklistService) UpdateSettings(ctx context.Context, trader string, settings domain.RuleSettings) (domain.RuleSettings, error) {
	if err := settings.Validate(); err != nil {
		return domain.RuleSettings{}, err
	}
	records, err := s.rules.ListRuleRecords(ctx, trader)
	if err != nil {
		return domain.RuleSettings{}, fmt.Errorf("load rule records: %w", err)
	}
	patched, err := s.reconciler.Patch(settings, records)
	if err != nil {
		return domain.RuleSettings{}, err
	}
	if err := s.rules.ReplaceRuleRecords(ctx, trader, patched); err != nil {
		return domain.RuleSettings{}, fmt.Errorf("save rule records: %w", err)
	}
	// ranges evaluated under the old thresholds must not commit
	s.tracker.Invalidate(trader)
	s.logger.Info("Rule settings updated", zap.String("trader", trader), zap.Int("records", len(patched)))
	return s.reconciler.Apply(s.defaults, patched), nil
}

// Day evaluates a single day.
func (s *ChecklistService) Day(ctx context.Context, trader string, date time.Time) (*domain.ChecklistDay, error) {
	tel, err := s.telemetry.Get(ctx, trader, domain.DayStart(date))
	if err != nil {
		return nil, fmt.Errorf("get telemetry: %w", err)
	}
	return s.buildDay(ctx, tel, s.Settings(ctx, trader)), nil
}

// Range evaluates every day in [start, end] and returns them ascending.
func (s *ChecklistService) Range(ctx context.Context, trader string, start, end time.Time) ([]*domain.ChecklistDay, error) {
	start, end = domain.DayStart(start), domain.DayStart(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidRange, domain.DateKey(end), domain.DateKey(start))
	}
	if n := int(end.Sub(start)/(24*time.Hour)) + 1; n > s.maxDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", domain.ErrInvalidRange, n, s.maxDays)
	}
	tel, err := s.telemetry.GetRange(ctx, trader, start, end)
	if err != nil {
		return nil, fmt.Errorf("get telemetry range: %w", err)
	}
	want := len(domain.DaysBetween(start, end))
	if len(tel) != want {
		return nil, fmt.Errorf("telemetry covers %d of %d days", len(tel), want)
	}
	settings := s.Settings(ctx, trader)

	days := make([]*domain.ChecklistDay, len(tel))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range tel {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			days[i] = s.buildDay(gctx, t, settings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// LoadActiveRange evaluates a range and makes it the trader's active one.
// It returns ErrStaleRange when a newer load started meanwhile.
func (s *ChecklistService) LoadActiveRange(ctx context.Context, trader string, start, end time.Time) (*ActiveRange, error) {
	token := s.tracker.Begin(trader)
	days, err := s.Range(ctx, trader, start, end)
	if err != nil {
		return nil, err
	}
	r := &ActiveRange{
		Trader:  trader,
		Start:   domain.DayStart(start),
		End:     domain.DayStart(end),
		Days:    days,
		Summary: SummarizeRange(days),
	}
	if !s.tracker.Commit(trader, token, r) {
		s.logger.Debug("Dropped superseded range", zap.String("trader", trader))
		return nil, domain.ErrStaleRange
	}
	return r, nil
}

// ActiveRange returns the trader's last committed range.
func (s *ChecklistService) ActiveRange(trader string) (*ActiveRange, bool) {
	return s.tracker.Active(trader)
}

// buildDay never fails: unreadable plan or journal context counts as absent.
func (s *ChecklistService) buildDay(ctx context.Context, t *domain.DayTelemetry, settings domain.RuleSettings) *domain.ChecklistDay {
	date := domain.DayStart(t.Date)

	var plan *domain.PreTradePlan
	plans, err := s.plans.ListPlans(ctx, t.Trader, date)
	if err != nil {
		s.logger.Warn("Failed to load plans", zap.String("trader", t.Trader), zap.Time("date", date), zap.Error(err))
	} else if len(plans) > 0 {
		plan = plans[0]
	}

	entries, err := s.journal.ListJournalEntries(ctx, t.Trader, date)
	if err != nil {
		s.logger.Warn("Failed to load journal", zap.String("trader", t.Trader), zap.Time("date", date), zap.Error(err))
		entries = nil
	}

	equityOpen, equityClose, dd := t.EquityOpen, t.EquityClose, t.DrawdownPercent
	day := &domain.ChecklistDay{
		Date:        date,
		Trader:      t.Trader,
		EquityOpen:  &equityOpen,
		EquityClose: &equityClose,
		DDPercent:   &dd,
		TradesCount: t.TradesCount,
		Checks:      s.evaluator.Evaluate(*t, settings, plan, entries),
	}
	if len(entries) > 0 {
		q := url.Values{"trader": {t.Trader}, "date": {domain.DateKey(date)}}
		day.JournalURL = "/api/journal?" + q.Encode()
	}
	return day
}
