package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/infrastructure/storage"
	"github.com/vitos/trade_checklist/internal/usecase"
	"go.uber.org/zap"
)

// fixedTelemetry reports the same day shape for every date.
type fixedTelemetry struct {
	day domain.DayTelemetry
}

func (f *fixedTelemetry) Get(ctx context.Context, trader string, date time.Time) (*domain.DayTelemetry, error) {
	t := f.day
	t.Trader = trader
	t.Date = domain.DayStart(date)
	return &t, nil
}

func (f *fixedTelemetry) GetRange(ctx context.Context, trader string, start, end time.Time) ([]*domain.DayTelemetry, error) {
	var out []*domain.DayTelemetry
	for _, d := range domain.DaysBetween(start, end) {
		t, _ := f.Get(ctx, trader, d)
		out = append(out, t)
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *usecase.ChecklistService) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tel := &fixedTelemetry{day: domain.DayTelemetry{
		TradesCount: 6, RiskPerTradePercent: 1, DrawdownPercent: 2, AllTradesHaveSL: true, EquityOpen: 5000, EquityClose: 5100,
	}}
	log := zap.NewNop()
	checklist := usecase.NewChecklistService(tel, store, store, store, domain.DefaultRuleSettings(), 2, log)
	journal := usecase.NewJournalService(store, store, tel, log)
	return NewServer(0, checklist, journal, log), checklist
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChecklistRange(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/checklist?trader=alice&start=2024-01-01&end=2024-01-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got usecase.ActiveRange
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Days, 3)
	assert.Equal(t, "2024-01-01", domain.DateKey(got.Days[0].Date))
	assert.Equal(t, 3, got.Summary.Days)
	// six trades fail no_overtrade; everything else passes with defaults
	assert.InDelta(t, 8.0/9.0, got.Summary.MeanRate, 1e-9)

	v, ok := got.Days[0].Checks[1].Value.Int()
	require.True(t, ok)
	assert.Equal(t, 6, v)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/checklist?start=2024-01-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/checklist?trader=a&start=2024-01-05&end=2024-01-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/checklist?trader=a&start=yesterday", nil).Code)
}

func TestChecklistRange_RejectsOversizedWindow(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/checklist?trader=alice&start=1900-01-01&end=2024-12-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 366 allowed")

	rec = do(t, s, http.MethodGet, "/api/export.csv?trader=alice&start=0001-01-01&end=9999-12-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/checklist?trader=alice&start=2024-01-01&end=2024-12-31", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "a full leap year fits")
}

func TestChecklistRange_ReloadsActiveWindow(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/checklist?trader=alice&start=2024-01-01&end=2024-01-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/checklist?trader=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got usecase.ActiveRange
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Days, 3)
	assert.Equal(t, "2024-01-01", domain.DateKey(got.Start))
	assert.Equal(t, "2024-01-03", domain.DateKey(got.End))

	// another trader has no active window and gets the last seven days
	rec = do(t, s, http.MethodGet, "/api/checklist?trader=bob", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Days, 7)
}

func TestChecklistDay(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/checklist/day?trader=alice&date=2024-02-29", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 9, got.Compliance.Total)
	assert.Equal(t, 8, got.Compliance.Passed)
}

func TestExportCSV(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/export.csv?trader=alice&start=2024-01-01&end=2024-01-02&filename=report.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, `attachment; filename="report.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,trader,trades,ddPercent,passRate", lines[0])
	assert.Equal(t, "2024-01-01,alice,6,2,88.89", lines[1])

	rec = do(t, s, http.MethodGet, "/api/export.csv?trader=alice&start=2024-01-01&end=2024-01-01", nil)
	assert.Equal(t, `attachment; filename="checklist_alice_2024-01-01_2024-01-01.csv"`, rec.Header().Get("Content-Disposition"))
}

func TestSettings_UpdateRequiresLoadedRecords(t *testing.T) {
	s, checklist := newTestServer(t)

	next := domain.DefaultRuleSettings()
	next.MaxPositions = 8
	rec := do(t, s, http.MethodPut, "/api/settings?trader=alice", next)
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, err := checklist.SeedDefaults(context.Background(), "alice")
	require.NoError(t, err)

	rec = do(t, s, http.MethodPut, "/api/settings?trader=alice", next)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/settings?trader=alice", nil)
	var got domain.RuleSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 8, got.MaxPositions)

	rec = do(t, s, http.MethodGet, "/api/rules?trader=alice", nil)
	var records []domain.RuleRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 9)
	assert.Equal(t, "No overtrade: max 8 positions", records[1].Name)

	// trades=6 now within the limit
	rec = do(t, s, http.MethodGet, "/api/checklist/day?trader=alice&date=2024-01-01", nil)
	var day dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &day))
	assert.Equal(t, 9, day.Compliance.Passed)

	next.MaxDailyDDPercent = -1
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/settings?trader=alice", next).Code)
}

func TestPlansAndJournal(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/plans", map[string]any{
		"trader": "alice", "date": "2024-03-01", "mood": "calm", "planned_trades": 2,
		"windows": []map[string]string{{"start": "09:00", "end": "10:00"}}, "reward_risk_target": 2.5,
		"expected_high_time": "10:00", "expected_low_time": "15:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/plans", map[string]any{"trader": "alice", "date": "03/01/2024"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/plans", map[string]any{"mood": "x"}).Code)

	rec = do(t, s, http.MethodGet, "/api/plans?trader=alice&date=2024-03-01", nil)
	var plans []domain.PreTradePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "calm", plans[0].Mood)

	rec = do(t, s, http.MethodPost, "/api/journal?trader=alice", domain.JournalInput{
		Mood: "ok", EntryPrice: 100, StopLoss: 98, PositionSize: 1, ValuePerPoint: 25, RewardRisk: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry domain.TradeJournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, 50.0, entry.CashRisk)
	assert.InDelta(t, 1.0, entry.EquityRiskPct, 1e-9)

	rec = do(t, s, http.MethodGet, "/api/journal?trader=alice&date="+domain.DateKey(entry.Date), nil)
	var entries []domain.TradeJournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/journal/"+entry.ID+"?trader=alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/journal/"+entry.ID+"?trader=alice", nil).Code)
}

func TestMetricsAndStatus(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/checklist/day?trader=alice&date=2024-01-01", nil)
	do(t, s, http.MethodGet, "/api/export.csv?trader=alice&start=2024-01-01&end=2024-01-01", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "checklist_days_evaluated_total 1")
	assert.Contains(t, body, `checklist_rule_failures_total{level="warning",rule="no_overtrade"} 1`)
	assert.Contains(t, body, "checklist_exports_total 1")
	assert.Contains(t, body, `route="GET /api/checklist/day"`)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/status", nil).Code)
}

func TestWebsocketReceivesDayAfterJournal(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.hub.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?trader=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	rec := do(t, s, http.MethodPost, "/api/journal?trader=alice", domain.JournalInput{Mood: "ok"})
	require.Equal(t, http.StatusCreated, rec.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "journal", first.Type)
	assert.Equal(t, "day", second.Type)
	assert.Equal(t, "alice", second.Trader)
}
