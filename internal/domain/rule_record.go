package domain

// RuleCategory tags an external rule record with the setting it controls.
type RuleCategory string

const (
	CategoryUnknown        RuleCategory = ""
	CategoryMaxRisk        RuleCategory = "max_risk"
	CategoryNoOvertrade    RuleCategory = "no_overtrade"
	CategoryMaxSL          RuleCategory = "max_sl"
	CategoryMaxDailyDD     RuleCategory = "max_daily_dd"
	CategoryRRTarget       RuleCategory = "rr_target_declared"
	CategorySessions       RuleCategory = "allowed_sessions"
	CategoryFirstTradeGoal RuleCategory = "first_trade_goal"
	CategorySLTPChange     RuleCategory = "max_sl_tp_change"
	CategoryJournal        RuleCategory = "journal_before_trade"
)

// RuleRecord is a rule as stored by the external rule-record source. The
// Conditions payload is loosely typed; keys the service does not know are
// kept as-is.
type RuleRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    RuleCategory   `json:"category,omitempty"`
	Enabled     bool           `json:"enabled"`
	Conditions  map[string]any `json:"conditions"`
}
