package domain

import (
	"context"
	"time"
)

// TelemetryProvider supplies end-of-day telemetry.
type TelemetryProvider interface {
	Get(ctx context.Context, trader string, date time.Time) (*DayTelemetry, error)
	// GetRange returns one entry per calendar day in [start, end], ascending.
	GetRange(ctx context.Context, trader string, start, end time.Time) ([]*DayTelemetry, error)
}

// RuleRecordRepository is the external rule-record source.
type RuleRecordRepository interface {
	ListRuleRecords(ctx context.Context, trader string) ([]*RuleRecord, error)
	// ReplaceRuleRecords fails with ErrNoRuleRecords when the trader has no
	// stored collection.
	ReplaceRuleRecords(ctx context.Context, trader string, records []*RuleRecord) error
	// SeedRuleRecords stores records only when the trader has none yet.
	SeedRuleRecords(ctx context.Context, trader string, records []*RuleRecord) (bool, error)
}

// PlanRepository keeps a bounded plan history per trader and date.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan *PreTradePlan) error
	// ListPlans returns at most PlanHistoryLimit plans, newest first.
	ListPlans(ctx context.Context, trader string, date time.Time) ([]*PreTradePlan, error)
}

// JournalRepository stores append-only journal entries.
type JournalRepository interface {
	SaveJournalEntry(ctx context.Context, entry *TradeJournalEntry) error
	DeleteJournalEntry(ctx context.Context, trader, id string) error
	ListJournalEntries(ctx context.Context, trader string, date time.Time) ([]*TradeJournalEntry, error)
}
