package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vitos/trade_checklist/internal/domain"
)

// Row is an ordered set of named fields. Keys keep insertion order.
type Row struct {
	keys   []string
	values map[string]any
}

func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set adds or replaces a field. A new key is appended after existing ones.
func (r *Row) Set(key string, value any) *Row {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

func (r *Row) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

func (r *Row) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// SerializeCSV renders rows as comma-separated text. The header is the
// first non-nil row's key order and every row is emitted in that order.
// Nil rows render as empty fields. Input without any keys yields an empty
// string.
func SerializeCSV(rows []*Row) string {
	if len(rows) == 0 {
		return ""
	}
	var header []string
	for _, row := range rows {
		if row != nil {
			header = row.Keys()
			break
		}
	}
	if len(header) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rows)+1)

	fields := make([]string, len(header))
	for i, k := range header {
		fields[i] = escapeCSVField(k)
	}
	lines = append(lines, strings.Join(fields, ","))

	for _, row := range rows {
		fields := make([]string, len(header))
		for i, k := range header {
			v, _ := row.Get(k)
			fields[i] = escapeCSVField(formatCSVValue(v))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

func escapeCSVField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatCSVValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ExportRows projects checklist days to export rows. The pass rate is a
// percentage rounded to two decimals.
func ExportRows(days []*domain.ChecklistDay) []domain.ExportRow {
	out := make([]domain.ExportRow, 0, len(days))
	for _, d := range days {
		if d == nil {
			continue
		}
		rate := math.Round(DayRate(d).Rate*10000) / 100
		out = append(out, domain.ExportRow{
			Date:            domain.DateKey(d.Date),
			Trader:          d.Trader,
			TradesCount:     d.TradesCount,
			DDPercent:       d.DDPercent,
			PassRatePercent: rate,
		})
	}
	return out
}

// CSVRows converts export rows to ordered rows for SerializeCSV.
func CSVRows(rows []domain.ExportRow) []*Row {
	out := make([]*Row, len(rows))
	for i, r := range rows {
		out[i] = NewRow().
			Set("date", r.Date).
			Set("trader", r.Trader).
			Set("trades", r.TradesCount).
			Set("ddPercent", r.DDPercent).
			Set("passRate", r.PassRatePercent)
	}
	return out
}

// ExportCSV renders checklist days in the export format.
func ExportCSV(days []*domain.ChecklistDay) string {
	return SerializeCSV(CSVRows(ExportRows(days)))
}
