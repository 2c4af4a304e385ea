package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/usecase"
	"go.uber.org/zap"
)

type dayResponse struct {
	Day        *domain.ChecklistDay  `json:"day"`
	Compliance usecase.DayCompliance `json:"compliance"`
}

type planRequest struct {
	Trader           string              `json:"trader"`
	Date             string              `json:"date"` // YYYY-MM-DD, defaults to today
	Mood             string              `json:"mood"`
	PlannedTrades    int                 `json:"planned_trades"`
	Windows          []domain.PlanWindow `json:"windows"`
	ExpectedHighTime string              `json:"expected_high_time"`
	ExpectedLowTime  string              `json:"expected_low_time"`
	RewardRiskTarget float64             `json:"reward_risk_target"`
	Notes            string              `json:"notes"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidSettings), errors.Is(err, domain.ErrInvalidRange):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoRuleRecords), errors.Is(err, domain.ErrStaleRange):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func traderParam(r *http.Request) (string, error) {
	trader := strings.TrimSpace(r.URL.Query().Get("trader"))
	if trader == "" {
		return "", fmt.Errorf("%w: trader is required", errBadRequest)
	}
	return trader, nil
}

func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return domain.DayStart(def), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, name)
	}
	return d, nil
}

// rangeParams reads trader, start and end. The window defaults to the
// last seven days ending today.
func rangeParams(r *http.Request) (string, time.Time, time.Time, error) {
	trader, err := traderParam(r)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	end, err := dateParam(r, "end", time.Now())
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	start, err := dateParam(r, "start", end.AddDate(0, 0, -6))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return trader, start, end, nil
}

// handleChecklistRange loads a range and makes it the trader's active one.
// Without start and end it re-evaluates the current active window, or the
// last seven days when there is none.
func (s *Server) handleChecklistRange(w http.ResponseWriter, r *http.Request) {
	trader, start, end, err := rangeParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	if q.Get("start") == "" && q.Get("end") == "" {
		if prev, ok := s.checklist.ActiveRange(trader); ok {
			start, end = prev.Start, prev.End
		}
	}
	active, err := s.checklist.LoadActiveRange(r.Context(), trader, start, end)
	if err != nil {
		if errors.Is(err, domain.ErrStaleRange) {
			s.metrics.StaleRanges.Inc()
		}
		s.writeError(w, err)
		return
	}
	s.metrics.observeDays(active.Days...)
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleChecklistDay(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	date, err := dateParam(r, "date", time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	day, err := s.checklist.Day(r.Context(), trader, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.observeDays(day)
	writeJSON(w, http.StatusOK, dayResponse{Day: day, Compliance: usecase.DayRate(day)})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	trader, start, end, err := rangeParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	days, err := s.checklist.Range(r.Context(), trader, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = fmt.Sprintf("checklist_%s_%s_%s.csv", trader, domain.DateKey(start), domain.DateKey(end))
	}
	s.metrics.Exports.Inc()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(filename)))
	w.Write([]byte(usecase.ExportCSV(days)))
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\n', '\r':
			return '_'
		}
		return r
	}, name)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.checklist.Settings(r.Context(), trader))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var settings domain.RuleSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	updated, err := s.checklist.UpdateSettings(r.Context(), trader, settings)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(Event{Type: "settings", Trader: trader, Data: updated})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.checklist.RuleRecords(r.Context(), trader)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []*domain.RuleRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	date, err := dateParam(r, "date", time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	plans, err := s.journal.PlanHistory(r.Context(), trader, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if plans == nil {
		plans = []*domain.PreTradePlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSubmitPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Trader) == "" {
		s.writeError(w, fmt.Errorf("%w: trader is required", errBadRequest))
		return
	}
	plan := domain.PreTradePlan{
		Trader:           req.Trader,
		Mood:             req.Mood,
		PlannedTrades:    req.PlannedTrades,
		Windows:          req.Windows,
		ExpectedHighTime: req.ExpectedHighTime,
		ExpectedLowTime:  req.ExpectedLowTime,
		RewardRiskTarget: req.RewardRiskTarget,
		Notes:            req.Notes,
	}
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: date must be YYYY-MM-DD", errBadRequest))
			return
		}
		plan.Date = d
	}
	saved, err := s.journal.SubmitPlan(r.Context(), plan)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(Event{Type: "plan", Trader: saved.Trader, Data: saved})
	s.pushDay(r, saved.Trader, saved.Date)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	date, err := dateParam(r, "date", time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	entries, err := s.journal.JournalEntries(r.Context(), trader, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.TradeJournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddJournal(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in domain.JournalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	entry, err := s.journal.AddJournalEntry(r.Context(), trader, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(Event{Type: "journal", Trader: trader, Data: entry})
	s.pushDay(r, trader, entry.Date)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.journal.RemoveJournalEntry(r.Context(), trader, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	trader, err := traderParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Serve(w, r, trader)
}

// pushDay re-evaluates a day after its plan or journal changed and sends
// it to the trader's websocket clients.
func (s *Server) pushDay(r *http.Request, trader string, date time.Time) {
	if s.hub.Count() == 0 {
		return
	}
	day, err := s.checklist.Day(r.Context(), trader, date)
	if err != nil {
		s.logger.Warn("Failed to re-evaluate day", zap.String("trader", trader), zap.Error(err))
		return
	}
	s.hub.Broadcast(Event{Type: "day", Trader: trader, Data: dayResponse{Day: day, Compliance: usecase.DayRate(day)}})
}
