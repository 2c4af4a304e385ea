package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/usecase"
	"go.uber.org/zap"
)

func TestJournalService_SubmitPlanKeepsHistory(t *testing.T) {
	store := NewMockStore()
	now := time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC)
	svc := usecase.NewJournalService(store, store, sampleTelemetry(), zap.NewNop()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.SubmitPlan(ctx, domain.PreTradePlan{})
	assert.Error(t, err)

	first, err := svc.SubmitPlan(ctx, domain.PreTradePlan{Trader: "alice", Mood: "tired", RewardRiskTarget: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, jan2, first.Date, "date defaults to submission day")
	assert.Equal(t, now, first.SubmittedAt)

	now = now.Add(time.Minute)
	second, err := svc.SubmitPlan(ctx, domain.PreTradePlan{Trader: "alice", Date: jan2.Add(5 * time.Hour), Mood: "calm", RewardRiskTarget: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, err := svc.CurrentPlan(ctx, "alice", jan2)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	history, err := svc.PlanHistory(ctx, "alice", jan2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[1].ID)

	none, err := svc.CurrentPlan(ctx, "alice", jan3)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestJournalService_AddJournalEntryComputesRisk(t *testing.T) {
	store := NewMockStore()
	now := jan1.Add(10 * time.Hour)
	svc := usecase.NewJournalService(store, store, sampleTelemetry(), zap.NewNop()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	entry, err := svc.AddJournalEntry(ctx, "alice", domain.JournalInput{
		Mood:          "focused",
		Conditions:    "trend day",
		EntryPrice:    1.1000,
		StopLoss:      1.0950,
		PositionSize:  2,
		ValuePerPoint: 1000,
		RewardRisk:    3,
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, entry.CashRisk, 1e-9)
	assert.InDelta(t, 1.0, entry.EquityRiskPct, 1e-9, "equity open on jan 1 is 1000")
	assert.InDelta(t, 30.0, entry.PotentialProfit, 1e-9)
	assert.InDelta(t, 10.0, entry.LossAtStop, 1e-9)

	entries, err := svc.JournalEntries(ctx, "alice", jan1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, svc.RemoveJournalEntry(ctx, "alice", entry.ID))
	assert.ErrorIs(t, svc.RemoveJournalEntry(ctx, "alice", entry.ID), domain.ErrNotFound)

	_, err = svc.AddJournalEntry(ctx, "", domain.JournalInput{})
	assert.Error(t, err)
}

func TestJournalService_AddJournalEntryWithoutTelemetry(t *testing.T) {
	store := NewMockStore()
	svc := usecase.NewJournalService(store, store, &MockTelemetry{Err: errUnavailable}, zap.NewNop())

	entry, err := svc.AddJournalEntry(context.Background(), "alice", domain.JournalInput{EntryPrice: 10, StopLoss: 9, PositionSize: 1, ValuePerPoint: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, entry.CashRisk)
	assert.Zero(t, entry.EquityRiskPct)
}
