package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitos/trade_checklist/internal/domain"
)

var errUnavailable = errors.New("upstream unavailable")

// MockTelemetry returns fixed telemetry per date key.
type MockTelemetry struct {
	Days map[string]domain.DayTelemetry
	Err  error
	// Short drops the last day of every range.
	Short bool
	// Entered, when set, is sent to as GetRange starts.
	Entered chan struct{}
	// Block, when set, is received from before GetRange returns.
	Block chan struct{}
}

func (m *MockTelemetry) Get(ctx context.Context, trader string, date time.Time) (*domain.DayTelemetry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	t := m.Days[domain.DateKey(date)]
	t.Date = domain.DayStart(date)
	t.Trader = trader
	return &t, nil
}

func (m *MockTelemetry) GetRange(ctx context.Context, trader string, start, end time.Time) ([]*domain.DayTelemetry, error) {
	if m.Entered != nil {
		m.Entered <- struct{}{}
	}
	if m.Block != nil {
		<-m.Block
	}
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*domain.DayTelemetry
	for _, d := range domain.DaysBetween(start, end) {
		t, _ := m.Get(ctx, trader, d)
		out = append(out, t)
	}
	if m.Short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// MockStore is an in-memory rule, plan and journal store.
type MockStore struct {
	mu         sync.Mutex
	Records    map[string][]*domain.RuleRecord
	Plans      map[string][]*domain.PreTradePlan
	Entries    map[string][]*domain.TradeJournalEntry
	ListErr    error
	ContextErr error
	// PlansEntered and PlansBlock pause ListPlans the same way
	// MockTelemetry pauses GetRange.
	PlansEntered chan struct{}
	PlansBlock   chan struct{}
}

func NewMockStore() *MockStore {
	return &MockStore{
		Records: make(map[string][]*domain.RuleRecord),
		Plans:   make(map[string][]*domain.PreTradePlan),
		Entries: make(map[string][]*domain.TradeJournalEntry),
	}
}

func key(trader string, date time.Time) string {
	return trader + "/" + domain.DateKey(date)
}

func (m *MockStore) ListRuleRecords(ctx context.Context, trader string) ([]*domain.RuleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Records[trader], nil
}

func (m *MockStore) ReplaceRuleRecords(ctx context.Context, trader string, records []*domain.RuleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records[trader]) == 0 {
		return domain.ErrNoRuleRecords
	}
	m.Records[trader] = records
	return nil
}

func (m *MockStore) SeedRuleRecords(ctx context.Context, trader string, records []*domain.RuleRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records[trader]) > 0 {
		return false, nil
	}
	m.Records[trader] = records
	return true, nil
}

func (m *MockStore) SavePlan(ctx context.Context, plan *domain.PreTradePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(plan.Trader, plan.Date)
	plans := append([]*domain.PreTradePlan{plan}, m.Plans[k]...)
	if len(plans) > domain.PlanHistoryLimit {
		plans = plans[:domain.PlanHistoryLimit]
	}
	m.Plans[k] = plans
	return nil
}

func (m *MockStore) ListPlans(ctx context.Context, trader string, date time.Time) ([]*domain.PreTradePlan, error) {
	if m.PlansEntered != nil {
		m.PlansEntered <- struct{}{}
	}
	if m.PlansBlock != nil {
		<-m.PlansBlock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ContextErr != nil {
		return nil, m.ContextErr
	}
	return m.Plans[key(trader, date)], nil
}

func (m *MockStore) SaveJournalEntry(ctx context.Context, entry *domain.TradeJournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(entry.Trader, entry.Date)
	m.Entries[k] = append(m.Entries[k], entry)
	return nil
}

func (m *MockStore) DeleteJournalEntry(ctx context.Context, trader, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, entries := range m.Entries {
		for i, e := range entries {
			if e.Trader == trader && e.ID == id {
				m.Entries[k] = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (m *MockStore) ListJournalEntries(ctx context.Context, trader string, date time.Time) ([]*domain.TradeJournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ContextErr != nil {
		return nil, m.ContextErr
	}
	return m.Entries[key(trader, date)], nil
}
