package usecase

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"regexp"
	"strings"

	"github.com/vitos/trade_checklist/internal/domain"
)

// Condition payload keys per category.
const (
	condMaxRiskPercent     = "max_risk_percent"
	condMaxPositions       = "max_positions"
	condMaxLotsPerTrade    = "max_lots_per_trade"
	condMaxSLPercent       = "max_sl_percent"
	condMaxDailyDDPercent  = "max_daily_dd_percent"
	condMinRR              = "min_rr"
	condSessions           = "sessions"
	condOutsideIsViolation = "outside_is_violation"
	condRequired           = "required"
	condMaxChangePercent   = "max_change_percent"
)

var journalNamePattern = regexp.MustCompile(`(?i)\bjournal`)

// namePatterns maps legacy record names to categories. Order matters:
// the SL/TP change rule also contains "max sl".
var namePatterns = []struct {
	substr   string
	category domain.RuleCategory
}{
	{"max sl/tp change", domain.CategorySLTPChange},
	{"max risk", domain.CategoryMaxRisk},
	{"no overtrade", domain.CategoryNoOvertrade},
	{"max daily dd", domain.CategoryMaxDailyDD},
	{"rr target declared", domain.CategoryRRTarget},
	{"allowed trading sessions", domain.CategorySessions},
	{"first trade must have goal", domain.CategoryFirstTradeGoal},
}

var knownCategories = map[domain.RuleCategory]bool{
	domain.CategoryMaxRisk:        true,
	domain.CategoryNoOvertrade:    true,
	domain.CategoryMaxSL:          true,
	domain.CategoryMaxDailyDD:     true,
	domain.CategoryRRTarget:       true,
	domain.CategorySessions:       true,
	domain.CategoryFirstTradeGoal: true,
	domain.CategorySLTPChange:     true,
	domain.CategoryJournal:        true,
}

// seedOrder is the record order used when building a fresh collection.
var seedOrder = []domain.RuleCategory{
	domain.CategoryMaxRisk,
	domain.CategoryNoOvertrade,
	domain.CategoryMaxSL,
	domain.CategoryMaxDailyDD,
	domain.CategoryRRTarget,
	domain.CategorySessions,
	domain.CategoryFirstTradeGoal,
	domain.CategorySLTPChange,
	domain.CategoryJournal,
}

// ConfigReconciler converts between stored rule records and RuleSettings.
type ConfigReconciler struct{}

func NewConfigReconciler() *ConfigReconciler {
	return &ConfigReconciler{}
}

// Classify returns the record's category. An explicit known tag wins;
// untagged records fall back to matching their name.
func (r *ConfigReconciler) Classify(rec *domain.RuleRecord) domain.RuleCategory {
	if rec == nil {
		return domain.CategoryUnknown
	}
	if knownCategories[rec.Category] {
		return rec.Category
	}
	name := strings.ToLower(rec.Name)
	if strings.Contains(name, "max sl") && strings.Contains(name, "change") {
		return domain.CategorySLTPChange
	}
	for _, p := range namePatterns {
		if strings.Contains(name, p.substr) {
			return p.category
		}
	}
	if strings.Contains(name, "max sl") {
		return domain.CategoryMaxSL
	}
	if journalNamePattern.MatchString(name) {
		return domain.CategoryJournal
	}
	return domain.CategoryUnknown
}

// Apply merges the records' conditions over base. Missing or malformed
// fields keep the base value.
func (r *ConfigReconciler) Apply(base domain.RuleSettings, records []*domain.RuleRecord) domain.RuleSettings {
	s := base.Clone()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		c := rec.Conditions
		switch r.Classify(rec) {
		case domain.CategoryMaxRisk:
			if v, ok := numberField(c, condMaxRiskPercent); ok {
				s.MaxRiskPercent = v
			}
		case domain.CategoryNoOvertrade:
			if v, ok := intField(c, condMaxPositions); ok {
				s.MaxPositions = v
			}
			if v, ok := numberField(c, condMaxLotsPerTrade); ok {
				s.MaxLotsPerTrade = v
			}
		case domain.CategoryMaxSL:
			if v, ok := numberField(c, condMaxSLPercent); ok {
				s.MaxSLPercent = v
			}
		case domain.CategoryMaxDailyDD:
			if v, ok := numberField(c, condMaxDailyDDPercent); ok {
				s.MaxDailyDDPercent = v
			}
		case domain.CategoryRRTarget:
			if v, ok := numberField(c, condMinRR); ok {
				s.MinRRAllowed = v
			}
		case domain.CategorySessions:
			if v, ok := sessionsField(c, condSessions); ok {
				s.Sessions = v
			}
			if v, ok := boolField(c, condOutsideIsViolation); ok {
				s.TradeOutsideSessionsIsError = v
			}
		case domain.CategoryFirstTradeGoal:
			if v, ok := boolField(c, condRequired); ok {
				s.RequireFirstTradeGoal = v
			}
		case domain.CategorySLTPChange:
			if v, ok := numberField(c, condMaxChangePercent); ok {
				s.MaxSLTPChangePercent = v
			}
		case domain.CategoryJournal:
			if v, ok := boolField(c, condRequired); ok {
				s.RequireJournalBeforeTrade = v
			}
		}
	}
	return s
}

// Patch writes s back onto a copy of records. Matched records get new
// thresholds, a category tag and a regenerated name and description;
// unknown condition keys and unmatched records are kept unchanged.
func (r *ConfigReconciler) Patch(s domain.RuleSettings, records []*domain.RuleRecord) ([]*domain.RuleRecord, error) {
	if len(records) == 0 {
		return nil, domain.ErrNoRuleRecords
	}
	out := make([]*domain.RuleRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		cp := *rec
		cp.Conditions = maps.Clone(rec.Conditions)
		category := r.Classify(rec)
		if category != domain.CategoryUnknown {
			if cp.Conditions == nil {
				cp.Conditions = make(map[string]any)
			}
			cp.Category = category
			patchConditions(category, s, cp.Conditions)
			cp.Name, cp.Description = recordText(category, s)
		}
		out = append(out, &cp)
	}
	return out, nil
}

// Records builds a complete collection for s, one record per category.
func (r *ConfigReconciler) Records(s domain.RuleSettings) []*domain.RuleRecord {
	templates := make([]*domain.RuleRecord, len(seedOrder))
	for i, c := range seedOrder {
		templates[i] = &domain.RuleRecord{
			ID:       string(c),
			Category: c,
			Enabled:  true,
		}
	}
	out, _ := r.Patch(s, templates)
	return out
}

func patchConditions(category domain.RuleCategory, s domain.RuleSettings, c map[string]any) {
	switch category {
	case domain.CategoryMaxRisk:
		c[condMaxRiskPercent] = s.MaxRiskPercent
	case domain.CategoryNoOvertrade:
		c[condMaxPositions] = s.MaxPositions
		c[condMaxLotsPerTrade] = s.MaxLotsPerTrade
	case domain.CategoryMaxSL:
		c[condMaxSLPercent] = s.MaxSLPercent
	case domain.CategoryMaxDailyDD:
		c[condMaxDailyDDPercent] = s.MaxDailyDDPercent
	case domain.CategoryRRTarget:
		c[condMinRR] = s.MinRRAllowed
	case domain.CategorySessions:
		sessions := make([]any, len(s.Sessions))
		for i, sess := range s.Sessions {
			m := map[string]any{"start": sess.Start, "end": sess.End, "tz": sess.TZ}
			if sess.Label != "" {
				m["label"] = sess.Label
			}
			sessions[i] = m
		}
		c[condSessions] = sessions
		c[condOutsideIsViolation] = s.TradeOutsideSessionsIsError
	case domain.CategoryFirstTradeGoal:
		c[condRequired] = s.RequireFirstTradeGoal
	case domain.CategorySLTPChange:
		c[condMaxChangePercent] = s.MaxSLTPChangePercent
	case domain.CategoryJournal:
		c[condRequired] = s.RequireJournalBeforeTrade
	}
}

func recordText(category domain.RuleCategory, s domain.RuleSettings) (name, description string) {
	switch category {
	case domain.CategoryMaxRisk:
		return fmt.Sprintf("Max risk %.2f%% per trade", s.MaxRiskPercent),
			fmt.Sprintf("Risk on a single trade must not exceed %.2f%% of equity", s.MaxRiskPercent)
	case domain.CategoryNoOvertrade:
		return fmt.Sprintf("No overtrade: max %d positions", s.MaxPositions),
			fmt.Sprintf("Open at most %d positions per day and at most %g lots per trade", s.MaxPositions, s.MaxLotsPerTrade)
	case domain.CategoryMaxSL:
		return fmt.Sprintf("Max SL %.2f%%", s.MaxSLPercent),
			fmt.Sprintf("Loss at stop must not exceed %.2f%% of equity", s.MaxSLPercent)
	case domain.CategoryMaxDailyDD:
		return fmt.Sprintf("Max daily DD %.2f%%", s.MaxDailyDDPercent),
			fmt.Sprintf("Stop trading once the day's drawdown reaches %.2f%%", s.MaxDailyDDPercent)
	case domain.CategoryRRTarget:
		return fmt.Sprintf("RR target declared (min 1:%.2f)", s.MinRRAllowed),
			fmt.Sprintf("Declare a reward:risk target of at least 1:%.2f before the first trade", s.MinRRAllowed)
	case domain.CategorySessions:
		parts := make([]string, len(s.Sessions))
		for i, sess := range s.Sessions {
			parts[i] = sess.String()
		}
		desc := "Trade only during: " + strings.Join(parts, "; ")
		if len(parts) == 0 {
			desc = "No trading sessions configured"
		}
		if s.TradeOutsideSessionsIsError {
			desc += ". Trading outside sessions is a violation"
		}
		return fmt.Sprintf("Allowed trading sessions (%d)", len(s.Sessions)), desc
	case domain.CategoryFirstTradeGoal:
		return "First trade must have goal", requiredText(s.RequireFirstTradeGoal, "A pre-trade plan")
	case domain.CategorySLTPChange:
		return fmt.Sprintf("Max SL/TP change %.2f%%", s.MaxSLTPChangePercent),
			fmt.Sprintf("Stop loss and take profit may move at most %.2f%% after placement", s.MaxSLTPChangePercent)
	case domain.CategoryJournal:
		return "Journal before new trade", requiredText(s.RequireJournalBeforeTrade, "A pre-entry journal entry")
	}
	return "", ""
}

func requiredText(required bool, what string) string {
	if required {
		return what + " is required before trading"
	}
	return what + " is optional"
}

func numberField(c map[string]any, key string) (float64, bool) {
	raw, ok := c[key]
	if !ok {
		return 0, false
	}
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	// thresholds are never negative; RuleSettings.Validate agrees
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func intField(c map[string]any, key string) (int, bool) {
	v, ok := numberField(c, key)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

func boolField(c map[string]any, key string) (bool, bool) {
	v, ok := c[key].(bool)
	return v, ok
}

// sessionsField accepts a list of {start, end, tz, label?} objects. Any
// malformed element rejects the whole list.
func sessionsField(c map[string]any, key string) ([]domain.Session, bool) {
	raw, ok := c[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]domain.Session, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		start, ok1 := m["start"].(string)
		end, ok2 := m["end"].(string)
		tz, ok3 := m["tz"].(string)
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		label, _ := m["label"].(string)
		out = append(out, domain.Session{Start: start, End: end, TZ: tz, Label: label})
	}
	return out, true
}
