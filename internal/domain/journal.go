package domain

import (
	"math"
	"time"
)

// TradeJournalEntry is written before opening a position. Entries are
// append-only; the derived fields are fixed at save time.
type TradeJournalEntry struct {
	ID            string    `json:"id"`
	Trader        string    `json:"trader"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	Mood          string    `json:"mood"`
	Conditions    string    `json:"conditions"`
	EntryPrice    float64   `json:"entry_price"`
	PositionSize  float64   `json:"position_size"`
	StopLoss      float64   `json:"stop_loss"`
	RewardRisk    float64   `json:"reward_risk"`
	ValuePerPoint float64   `json:"value_per_point"`

	CashRisk        float64 `json:"cash_risk"`
	EquityRiskPct   float64 `json:"equity_risk_pct"`
	PotentialProfit float64 `json:"potential_profit"`
	LossAtStop      float64 `json:"loss_at_stop"`
}

// JournalInput carries the trader-entered fields of a journal entry.
type JournalInput struct {
	Mood          string  `json:"mood"`
	Conditions    string  `json:"conditions"`
	EntryPrice    float64 `json:"entry_price"`
	PositionSize  float64 `json:"position_size"`
	StopLoss      float64 `json:"stop_loss"`
	RewardRisk    float64 `json:"reward_risk"`
	ValuePerPoint float64 `json:"value_per_point"`
}

// NewTradeJournalEntry builds an entry and computes its risk figures
// against the given account equity.
func NewTradeJournalEntry(id, trader string, createdAt time.Time, in JournalInput, equity float64) *TradeJournalEntry {
	cashRisk := math.Abs(in.EntryPrice-in.StopLoss) * in.PositionSize * in.ValuePerPoint
	var equityPct float64
	if equity > 0 {
		equityPct = cashRisk / equity * 100
	}
	return &TradeJournalEntry{
		ID:              id,
		Trader:          trader,
		Date:            DayStart(createdAt),
		CreatedAt:       createdAt.UTC(),
		Mood:            in.Mood,
		Conditions:      in.Conditions,
		EntryPrice:      in.EntryPrice,
		PositionSize:    in.PositionSize,
		StopLoss:        in.StopLoss,
		RewardRisk:      in.RewardRisk,
		ValuePerPoint:   in.ValuePerPoint,
		CashRisk:        cashRisk,
		EquityRiskPct:   equityPct,
		PotentialProfit: cashRisk * in.RewardRisk,
		LossAtStop:      cashRisk,
	}
}
