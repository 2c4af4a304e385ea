package usecase

import "github.com/vitos/trade_checklist/internal/domain"

// DayCompliance is the share of a day's checks that passed.
type DayCompliance struct {
	Rate   float64 `json:"rate"`
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
}

// RangeCompliance is the mean of per-day rates over a window.
type RangeCompliance struct {
	MeanRate float64 `json:"mean_rate"`
	Days     int     `json:"days"`
}

// DayRate returns passed/total for the day; a day without checks rates 0.
func DayRate(day *domain.ChecklistDay) DayCompliance {
	if day == nil {
		return DayCompliance{}
	}
	var passed int
	for _, c := range day.Checks {
		if c.Pass {
			passed++
		}
	}
	total := len(day.Checks)
	if total == 0 {
		return DayCompliance{}
	}
	return DayCompliance{
		Rate:   float64(passed) / float64(total),
		Passed: passed,
		Total:  total,
	}
}

// SummarizeRange averages each day's own rate, so days weigh equally
// regardless of how many checks they carry.
func SummarizeRange(days []*domain.ChecklistDay) RangeCompliance {
	if len(days) == 0 {
		return RangeCompliance{}
	}
	var sum float64
	for _, d := range days {
		sum += DayRate(d).Rate
	}
	return RangeCompliance{
		MeanRate: sum / float64(len(days)),
		Days:     len(days),
	}
}
