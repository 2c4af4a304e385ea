package domain

import "time"

// ChecklistDay is one trader's telemetry and rule verdicts for one day.
type ChecklistDay struct {
	Date        time.Time   `json:"date"`
	Trader      string      `json:"trader"`
	EquityOpen  *float64    `json:"equity_open,omitempty"`
	EquityClose *float64    `json:"equity_close,omitempty"`
	DDPercent   *float64    `json:"dd_percent,omitempty"`
	JournalURL  string      `json:"journal_url,omitempty"`
	TradesCount int         `json:"trades_count"`
	Checks      []RuleCheck `json:"checks"`
}

// ExportRow is the flat projection of a ChecklistDay used for CSV export.
type ExportRow struct {
	Date            string
	Trader          string
	TradesCount     int
	DDPercent       *float64
	PassRatePercent float64
}
