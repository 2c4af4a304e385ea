package usecase

import (
	"fmt"
	"strings"

	"github.com/vitos/trade_checklist/internal/domain"
)

// RuleEvaluator turns one day's telemetry into rule verdicts. It holds no
// state; the same inputs always yield the same checks in the same order.
type RuleEvaluator struct{}

func NewRuleEvaluator() *RuleEvaluator {
	return &RuleEvaluator{}
}

// Evaluate returns one check per domain.RuleKeys entry, in that order.
// A nil plan or empty journal is not an error: the dependent rules fail
// with a note instead.
func (e *RuleEvaluator) Evaluate(t domain.DayTelemetry, s domain.RuleSettings, plan *domain.PreTradePlan, journal []*domain.TradeJournalEntry) []domain.RuleCheck {
	return []domain.RuleCheck{
		e.maxRisk(t, s),
		e.noOvertrade(t, s),
		e.stopLossRequired(t),
		e.maxSL(t, s),
		e.maxDailyDD(t, s),
		e.sessionAllowed(s),
		e.slTPChange(s),
		e.rrTargetDeclared(s, plan),
		e.journalBeforeTrade(s, journal),
	}
}

func levelFor(pass bool, fail domain.CheckLevel) domain.CheckLevel {
	if pass {
		return domain.LevelInfo
	}
	return fail
}

func (e *RuleEvaluator) maxRisk(t domain.DayTelemetry, s domain.RuleSettings) domain.RuleCheck {
	pass := t.RiskPerTradePercent <= s.MaxRiskPercent
	c := domain.RuleCheck{
		Key:         domain.RuleMaxRiskPercent,
		Title:       "Max risk per trade",
		Description: "Risk on any single trade stays within the configured share of equity",
		Pass:        pass,
		Level:       levelFor(pass, domain.LevelError),
		Value:       domain.Percent(t.RiskPerTradePercent),
		Limit:       domain.Percent(s.MaxRiskPercent),
	}
	if !pass {
		c.Notes = fmt.Sprintf("Risked %.2f%% on a trade, limit is %.2f%%", t.RiskPerTradePercent, s.MaxRiskPercent)
	}
	return c
}

func (e *RuleEvaluator) noOvertrade(t domain.DayTelemetry, s domain.RuleSettings) domain.RuleCheck {
	// TODO: confirm with product whether the limit is inclusive; kept as <= for now.
	pass := t.TradesCount <= s.MaxPositions
	c := domain.RuleCheck{
		Key:         domain.RuleNoOvertrade,
		Title:       "No overtrading",
		Description: "Number of trades stays within the position limit",
		Pass:        pass,
		Level:       levelFor(pass, domain.LevelWarning),
		Value:       domain.Count(t.TradesCount),
		Limit:       domain.Count(s.MaxPositions),
	}
	if !pass {
		c.Notes = fmt.Sprintf("%d trades opened, limit is %d", t.TradesCount, s.MaxPositions)
	}
	return c
}

func (e *RuleEvaluator) stopLossRequired(t domain.DayTelemetry) domain.RuleCheck {
	c := domain.RuleCheck{
		Key:         domain.RuleStopLossRequired,
		Title:       "Stop loss on every trade",
		Description: "Every trade is protected by a stop loss",
		Pass:        t.AllTradesHaveSL,
		Level:       levelFor(t.AllTradesHaveSL, domain.LevelError),
	}
	if !t.AllTradesHaveSL {
		c.Notes = "At least one trade was opened without a stop loss"
	}
	return c
}

// maxSL measures the same per-trade risk figure as maxRisk. Telemetry has
// no separate stop-distance measurement yet.
func (e *RuleEvaluator) maxSL(t domain.DayTelemetry, s domain.RuleSettings) domain.RuleCheck {
	pass := t.RiskPerTradePercent <= s.MaxSLPercent
	c := domain.RuleCheck{
		Key:         domain.RuleMaxSLPercent,
		Title:       "Max stop loss",
		Description: "Loss at stop stays within the configured share of equity",
		Pass:        pass,
		Level:       levelFor(pass, domain.LevelError),
		Value:       domain.Percent(t.RiskPerTradePercent),
		Limit:       domain.Percent(s.MaxSLPercent),
	}
	if !pass {
		c.Notes = fmt.Sprintf("Stop loss risk %.2f%% exceeds %.2f%%", t.RiskPerTradePercent, s.MaxSLPercent)
	}
	return c
}

func (e *RuleEvaluator) maxDailyDD(t domain.DayTelemetry, s domain.RuleSettings) domain.RuleCheck {
	pass := t.DrawdownPercent <= s.MaxDailyDDPercent
	c := domain.RuleCheck{
		Key:         domain.RuleMaxDailyDD,
		Title:       "Max daily drawdown",
		Description: "Peak-to-trough equity decline stays within the daily ceiling",
		Pass:        pass,
		Level:       levelFor(pass, domain.LevelError),
		Value:       domain.Percent(t.DrawdownPercent),
		Limit:       domain.Percent(s.MaxDailyDDPercent),
	}
	if !pass {
		c.Notes = fmt.Sprintf("Drawdown reached %.2f%%, ceiling is %.2f%%", t.DrawdownPercent, s.MaxDailyDDPercent)
	}
	return c
}

// sessionAllowed is informational until order-level timestamps are
// available; it only lists the configured sessions.
func (e *RuleEvaluator) sessionAllowed(s domain.RuleSettings) domain.RuleCheck {
	notes := "No trading sessions configured"
	if len(s.Sessions) > 0 {
		parts := make([]string, len(s.Sessions))
		for i, sess := range s.Sessions {
			parts[i] = sess.String()
		}
		notes = "Allowed sessions: " + strings.Join(parts, "; ")
	}
	if s.TradeOutsideSessionsIsError {
		notes += ". Trading outside these sessions counts as a violation"
	}
	return domain.RuleCheck{
		Key:         domain.RuleSessionAllowed,
		Title:       "Trade only in allowed sessions",
		Description: "Positions are opened inside configured trading sessions",
		Pass:        true,
		Level:       domain.LevelInfo,
		Notes:       notes,
	}
}

func (e *RuleEvaluator) slTPChange(s domain.RuleSettings) domain.RuleCheck {
	return domain.RuleCheck{
		Key:         domain.RuleMaxSLTPChangePercent,
		Title:       "Max SL/TP change",
		Description: "Stop loss and take profit are not moved beyond the allowed change after placement",
		Pass:        true,
		Level:       domain.LevelWarning,
		Limit:       domain.Percent(s.MaxSLTPChangePercent),
		Notes:       "Requires real-time order monitoring; cannot be verified from end-of-day data",
	}
}

func (e *RuleEvaluator) rrTargetDeclared(s domain.RuleSettings, plan *domain.PreTradePlan) domain.RuleCheck {
	c := domain.RuleCheck{
		Key:         domain.RuleRRTargetDeclared,
		Title:       "First trade has a declared goal",
		Description: "A pre-trade plan with a reward:risk target is submitted before the first trade",
		Pass:        true,
		Level:       domain.LevelInfo,
		Limit:       domain.Ratio(s.MinRRAllowed),
	}
	if !s.RequireFirstTradeGoal {
		c.Notes = "Not required"
		return c
	}
	if plan == nil {
		c.Pass = false
		c.Level = domain.LevelWarning
		c.Notes = "No pre-trade plan declared for this date"
		return c
	}

	c.Value = domain.Ratio(plan.RewardRiskTarget)
	var missing []string
	if plan.RewardRiskTarget < s.MinRRAllowed {
		missing = append(missing, fmt.Sprintf("reward:risk below 1:%.2f", s.MinRRAllowed))
	}
	if strings.TrimSpace(plan.Mood) == "" {
		missing = append(missing, "mood not set")
	}
	if plan.PlannedTrades <= 0 {
		missing = append(missing, "planned trade count not set")
	}
	if len(plan.Windows) == 0 {
		missing = append(missing, "no entry windows")
	}
	if plan.ExpectedHighTime == "" || plan.ExpectedLowTime == "" {
		missing = append(missing, "expected high/low times not set")
	}
	if len(missing) > 0 {
		c.Pass = false
		c.Level = domain.LevelWarning
		c.Notes = "Plan incomplete: " + strings.Join(missing, ", ")
		return c
	}
	c.Notes = "Plan declared"
	return c
}

func (e *RuleEvaluator) journalBeforeTrade(s domain.RuleSettings, journal []*domain.TradeJournalEntry) domain.RuleCheck {
	c := domain.RuleCheck{
		Key:         domain.RuleJournalBeforeNewTrade,
		Title:       "Journal before each trade",
		Description: "A pre-entry journal entry is written before opening a position",
		Pass:        true,
		Level:       domain.LevelInfo,
		Value:       domain.Count(len(journal)),
		Limit:       domain.Count(1),
	}
	if !s.RequireJournalBeforeTrade {
		c.Notes = "Not required"
		return c
	}
	if len(journal) == 0 {
		c.Pass = false
		c.Level = domain.LevelWarning
		c.Notes = "No journal entries for this date"
	}
	return c
}
