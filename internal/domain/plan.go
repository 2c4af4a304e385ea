package domain

import "time"

// PlanHistoryLimit bounds the stored plans per trader and date.
const PlanHistoryLimit = 20

type PlanWindow struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`
	Label string `json:"label,omitempty"`
}

// PreTradePlan is what a trader declares before the first trade of a day.
type PreTradePlan struct {
	ID               string       `json:"id"`
	Trader           string       `json:"trader"`
	Date             time.Time    `json:"date"`
	Mood             string       `json:"mood"`
	PlannedTrades    int          `json:"planned_trades"`
	Windows          []PlanWindow `json:"windows"`
	ExpectedHighTime string       `json:"expected_high_time,omitempty"`
	ExpectedLowTime  string       `json:"expected_low_time,omitempty"`
	RewardRiskTarget float64      `json:"reward_risk_target"`
	Notes            string       `json:"notes,omitempty"`
	SubmittedAt      time.Time    `json:"submitted_at"`
}
