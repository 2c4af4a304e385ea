package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/trade_checklist/internal/domain"
	"go.uber.org/zap"
)

// JournalService records pre-trade plans and pre-entry journal entries.
type JournalService struct {
	plans     domain.PlanRepository
	journal   domain.JournalRepository
	telemetry domain.TelemetryProvider
	now       func() time.Time
	logger    *zap.Logger
}

func NewJournalService(
	plans domain.PlanRepository,
	journal domain.JournalRepository,
	telemetry domain.TelemetryProvider,
	logger *zap.Logger,
) *JournalService {
	return &JournalService{
		plans:     plans,
		journal:   journal,
		telemetry: telemetry,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *JournalService) WithClock(now func() time.Time) *JournalService {
	s.now = now
	return s
}

// SubmitPlan stores plan as the current plan for its trader and date.
// Earlier plans for the date stay in the history.
func (s *JournalService) SubmitPlan(ctx context.Context, plan domain.PreTradePlan) (*domain.PreTradePlan, error) {
	if strings.TrimSpace(plan.Trader) == "" {
		return nil, fmt.Errorf("plan trader is required")
	}
	plan.ID = uuid.NewString()
	plan.SubmittedAt = s.now().UTC()
	if plan.Date.IsZero() {
		plan.Date = plan.SubmittedAt
	}
	plan.Date = domain.DayStart(plan.Date)
	plan.Windows = append([]domain.PlanWindow(nil), plan.Windows...)

	if err := s.plans.SavePlan(ctx, &plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.logger.Info("Pre-trade plan submitted",
		zap.String("trader", plan.Trader),
		zap.String("date", domain.DateKey(plan.Date)),
		zap.Float64("rr_target", plan.RewardRiskTarget))
	return &plan, nil
}

// CurrentPlan returns the newest plan for the date, or nil if none.
func (s *JournalService) CurrentPlan(ctx context.Context, trader string, date time.Time) (*domain.PreTradePlan, error) {
	plans, err := s.plans.ListPlans(ctx, trader, domain.DayStart(date))
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return plans[0], nil
}

func (s *JournalService) PlanHistory(ctx context.Context, trader string, date time.Time) ([]*domain.PreTradePlan, error) {
	return s.plans.ListPlans(ctx, trader, domain.DayStart(date))
}

// AddJournalEntry appends an entry dated now. Risk percentages use the
// day's opening equity; without telemetry they are left at zero.
func (s *JournalService) AddJournalEntry(ctx context.Context, trader string, in domain.JournalInput) (*domain.TradeJournalEntry, error) {
	if strings.TrimSpace(trader) == "" {
		return nil, fmt.Errorf("journal trader is required")
	}
	now := s.now()

	var equity float64
	tel, err := s.telemetry.Get(ctx, trader, domain.DayStart(now))
	if err != nil {
		s.logger.Warn("No telemetry for journal entry, equity risk left at zero", zap.String("trader", trader), zap.Error(err))
	} else if tel != nil {
		equity = tel.EquityOpen
	}

	entry := domain.NewTradeJournalEntry(uuid.NewString(), trader, now, in, equity)
	if err := s.journal.SaveJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save journal entry: %w", err)
	}
	s.logger.Info("Journal entry added",
		zap.String("trader", trader),
		zap.String("id", entry.ID),
		zap.Float64("cash_risk", entry.CashRisk))
	return entry, nil
}

func (s *JournalService) RemoveJournalEntry(ctx context.Context, trader, id string) error {
	return s.journal.DeleteJournalEntry(ctx, trader, id)
}

func (s *JournalService) JournalEntries(ctx context.Context, trader string, date time.Time) ([]*domain.TradeJournalEntry, error) {
	return s.journal.ListJournalEntries(ctx, trader, domain.DayStart(date))
}
