package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Session is an allowed trading window. Start and End are "HH:MM" clock
// times in TZ (an IANA zone name).
type Session struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	TZ    string `json:"tz" yaml:"tz"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

func (s Session) String() string {
	out := fmt.Sprintf("%s-%s %s", s.Start, s.End, s.TZ)
	if s.Label != "" {
		out += " (" + s.Label + ")"
	}
	return out
}

// RuleSettings holds the thresholds and toggles the rules are checked
// against. Callers replace it wholesale on edit.
type RuleSettings struct {
	MaxRiskPercent              float64   `json:"max_risk_percent" yaml:"max_risk_percent"`
	MaxPositions                int       `json:"max_positions" yaml:"max_positions"`
	MaxLotsPerTrade             float64   `json:"max_lots_per_trade" yaml:"max_lots_per_trade"`
	MaxSLPercent                float64   `json:"max_sl_percent" yaml:"max_sl_percent"`
	MaxDailyDDPercent           float64   `json:"max_daily_dd_percent" yaml:"max_daily_dd_percent"`
	MinRRAllowed                float64   `json:"min_rr_allowed" yaml:"min_rr_allowed"`
	Sessions                    []Session `json:"sessions" yaml:"sessions"`
	TradeOutsideSessionsIsError bool      `json:"trade_outside_sessions_is_error" yaml:"trade_outside_sessions_is_error"`
	MaxSLTPChangePercent        float64   `json:"max_sl_tp_change_percent" yaml:"max_sl_tp_change_percent"`
	RequireFirstTradeGoal       bool      `json:"require_first_trade_goal" yaml:"require_first_trade_goal"`
	RequireJournalBeforeTrade   bool      `json:"require_journal_before_trade" yaml:"require_journal_before_trade"`
}

func DefaultRuleSettings() RuleSettings {
	return RuleSettings{
		MaxRiskPercent:    5,
		MaxPositions:      5,
		MaxLotsPerTrade:   1,
		MaxSLPercent:      2,
		MaxDailyDDPercent: 5,
		MinRRAllowed:      2,
		Sessions: []Session{
			{Start: "08:00", End: "12:00", TZ: "Europe/London", Label: "London"},
			{Start: "09:30", End: "16:00", TZ: "America/New_York", Label: "New York"},
		},
		MaxSLTPChangePercent: 0,
	}
}

// Clone returns a copy that shares no slices with s.
func (s RuleSettings) Clone() RuleSettings {
	out := s
	if s.Sessions != nil {
		out.Sessions = append([]Session(nil), s.Sessions...)
	}
	return out
}

// Validate reports the first malformed threshold or session.
func (s RuleSettings) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"max_risk_percent", s.MaxRiskPercent},
		{"max_positions", float64(s.MaxPositions)},
		{"max_lots_per_trade", s.MaxLotsPerTrade},
		{"max_sl_percent", s.MaxSLPercent},
		{"max_daily_dd_percent", s.MaxDailyDDPercent},
		{"min_rr_allowed", s.MinRRAllowed},
		{"max_sl_tp_change_percent", s.MaxSLTPChangePercent},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, c.name)
		}
	}
	for i, sess := range s.Sessions {
		if _, err := time.Parse("15:04", sess.Start); err != nil {
			return fmt.Errorf("%w: session %d start %q", ErrInvalidSettings, i, sess.Start)
		}
		if _, err := time.Parse("15:04", sess.End); err != nil {
			return fmt.Errorf("%w: session %d end %q", ErrInvalidSettings, i, sess.End)
		}
		if strings.TrimSpace(sess.TZ) == "" {
			return fmt.Errorf("%w: session %d has no time zone", ErrInvalidSettings, i)
		}
		if _, err := time.LoadLocation(sess.TZ); err != nil {
			return fmt.Errorf("%w: session %d time zone %q", ErrInvalidSettings, i, sess.TZ)
		}
	}
	return nil
}
