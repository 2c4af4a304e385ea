package telemetry

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vitos/trade_checklist/internal/domain"
)

// DemoProvider generates plausible telemetry without a broker connection.
// Output depends only on (salt, trader, date).
type DemoProvider struct {
	salt       uint64
	baseEquity float64
}

func NewDemoProvider(salt uint64, baseEquity float64) *DemoProvider {
	if baseEquity <= 0 {
		baseEquity = 10000
	}
	return &DemoProvider{salt: salt, baseEquity: baseEquity}
}

func (p *DemoProvider) Get(ctx context.Context, trader string, date time.Time) (*domain.DayTelemetry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.generate(trader, domain.DayStart(date)), nil
}

func (p *DemoProvider) GetRange(ctx context.Context, trader string, start, end time.Time) ([]*domain.DayTelemetry, error) {
	days := domain.DaysBetween(start, end)
	out := make([]*domain.DayTelemetry, 0, len(days))
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, p.generate(trader, d))
	}
	return out, nil
}

func (p *DemoProvider) seed(trader string, date time.Time) (uint64, uint64) {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], p.salt)
	h.Write(buf[:])
	h.Write([]byte(trader))
	h.Write([]byte{0})
	h.Write([]byte(domain.DateKey(date)))
	s := h.Sum64()
	return s, s ^ 0x9e3779b97f4a7c15
}

func (p *DemoProvider) generate(trader string, date time.Time) *domain.DayTelemetry {
	rng := rand.New(rand.NewPCG(p.seed(trader, date)))

	trades := rng.IntN(8)
	risk := round2(0.5 + rng.Float64()*3)
	dd := round2(rng.Float64() * 6)
	allSL := rng.Float64() > 0.15
	if trades == 0 {
		risk, dd, allSL = 0, 0, true
	}

	open := round2(p.baseEquity * (0.9 + rng.Float64()*0.2))
	change := (rng.Float64() - 0.55) * 0.04
	return &domain.DayTelemetry{
		Date:                date,
		Trader:              trader,
		TradesCount:         trades,
		RiskPerTradePercent: risk,
		DrawdownPercent:     dd,
		AllTradesHaveSL:     allSL,
		EquityOpen:          open,
		EquityClose:         round2(open * (1 + change)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
