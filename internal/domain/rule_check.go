package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RuleKey identifies a rule verdict. Keys are unique within one day's checks.
type RuleKey string

const (
	RuleMaxRiskPercent        RuleKey = "max_risk_percent"
	RuleNoOvertrade           RuleKey = "no_overtrade"
	RuleStopLossRequired      RuleKey = "stop_loss_required"
	RuleMaxSLPercent          RuleKey = "max_sl_percent"
	RuleMaxDailyDD            RuleKey = "max_daily_dd"
	RuleSessionAllowed        RuleKey = "session_allowed"
	RuleMaxSLTPChangePercent  RuleKey = "max_sl_tp_change_percent"
	RuleRRTargetDeclared      RuleKey = "rr_target_declared"
	RuleJournalBeforeNewTrade RuleKey = "journal_before_new_trade"
)

// RuleKeys is the evaluation order of every verdict.
var RuleKeys = []RuleKey{
	RuleMaxRiskPercent,
	RuleNoOvertrade,
	RuleStopLossRequired,
	RuleMaxSLPercent,
	RuleMaxDailyDD,
	RuleSessionAllowed,
	RuleMaxSLTPChangePercent,
	RuleRRTargetDeclared,
	RuleJournalBeforeNewTrade,
}

type CheckLevel string

const (
	LevelInfo    CheckLevel = "info"
	LevelWarning CheckLevel = "warning"
	LevelError   CheckLevel = "error"
)

// RuleCheck is one rule's verdict for one day.
type RuleCheck struct {
	Key         RuleKey    `json:"key"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Pass        bool       `json:"pass"`
	Level       CheckLevel `json:"level,omitempty"`
	Value       *Quantity  `json:"value,omitempty"`
	Limit       *Quantity  `json:"limit,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Quantity is a measured value or threshold: either a raw count or a
// preformatted string such as "1.50%".
type Quantity struct {
	count  int
	text   string
	isText bool
}

func Count(n int) *Quantity {
	return &Quantity{count: n}
}

func Text(s string) *Quantity {
	return &Quantity{text: s, isText: true}
}

// Percent formats p with two decimals and a percent sign.
func Percent(p float64) *Quantity {
	return Text(fmt.Sprintf("%.2f%%", p))
}

// Ratio formats a reward:risk ratio as "1:2.00".
func Ratio(r float64) *Quantity {
	return Text(fmt.Sprintf("1:%.2f", r))
}

// Int returns the count and true when q holds a raw count.
func (q *Quantity) Int() (int, bool) {
	if q == nil || q.isText {
		return 0, false
	}
	return q.count, true
}

func (q *Quantity) String() string {
	if q == nil {
		return ""
	}
	if q.isText {
		return q.text
	}
	return strconv.Itoa(q.count)
}

func (q *Quantity) MarshalJSON() ([]byte, error) {
	if q.isText {
		return json.Marshal(q.text)
	}
	return json.Marshal(q.count)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Quantity{count: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quantity must be a number or a string: %w", err)
	}
	*q = Quantity{text: s, isText: true}
	return nil
}
