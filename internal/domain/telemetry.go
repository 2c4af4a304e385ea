package domain

import "time"

// DayTelemetry is the end-of-day account summary for one trader.
type DayTelemetry struct {
	Date                time.Time `json:"date"`
	Trader              string    `json:"trader"`
	TradesCount         int       `json:"trades_count"`
	RiskPerTradePercent float64   `json:"risk_per_trade_percent"` // largest risk taken on a single trade
	DrawdownPercent     float64   `json:"drawdown_percent"`
	AllTradesHaveSL     bool      `json:"all_trades_have_sl"`
	EquityOpen          float64   `json:"equity_open"`
	EquityClose         float64   `json:"equity_close"`
}

// DayStart truncates t to UTC midnight.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a day as YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// ParseDate parses a YYYY-MM-DD string to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// DaysBetween returns every UTC day in [start, end], ascending.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = DayStart(start), DayStart(end)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
