package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alectobe/TelegramCoinBot/internal/store"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{"up", Row{Symbol: "BTC", Current: dec("110"), Prior: dec("100")}, "🟢BTC +10.00%  $110.00"},
		{"down", Row{Symbol: "BTC", Current: dec("90"), Prior: dec("100")}, "🔻BTC -10.00%  $90.00"},
		{"zero prior", Row{Symbol: "ETH", Current: dec("3500"), Prior: dec("0")}, "⏺ETH 0.00%  $3 500.00"},
		{"absent prior", Row{Symbol: "eth", Current: dec("3500")}, "⏺ETH 0.00%  $3 500.00"},
		{"unchanged", Row{Symbol: "XAU", Current: dec("2300"), Prior: dec("2300")}, "⏺Gold 0.00%  $2 300.00"},
		{"no data", Row{Symbol: "USD"}, "❓Dollar — no current data"},
		{"unknown symbol", Row{Symbol: "DOGE", Current: dec("0.1234")}, "⏺DOGE 0.00%  $0.12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.row))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := map[string]string{
		"0":           "$0.00",
		"12.5":        "$12.50",
		"0.005":       "$0.01",
		"19.99":       "$19.99",
		"999.999":     "$1 000.00",
		"1000":        "$1 000.00",
		"64123.456":   "$64 123.46",
		"1234567.891": "$1 234 567.89",
		"-1234.5":     "-$1 234.50",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPrice("$", decimal.RequireFromString(in)), in)
	}
}

func TestFormat_HeaderAndOrder(t *testing.T) {
	at := time.Date(2025, time.May, 6, 9, 0, 0, 0, time.UTC)
	got := Format(at, []Row{
		{Symbol: "BTC", Current: dec("110"), Prior: dec("100")},
		{Symbol: "USD"},
	})
	want := "Rates as of 2025-05-06 09:00:\n" +
		"🟢BTC +10.00%  $110.00\n" +
		"❓Dollar — no current data"
	assert.Equal(t, want, got)
}

type fakePrices map[string]string

func (f fakePrices) CurrentPrice(_ context.Context, sym string) (decimal.Decimal, error) {
	p, ok := f[sym]
	if !ok {
		return decimal.Zero, errors.New("provider: no quote")
	}
	return decimal.RequireFromString(p), nil
}

type fakeHistory struct {
	prices map[string]string
	asked  time.Time
	mu     sync.Mutex
}

func (f *fakeHistory) PriceAsOf(_ context.Context, sym string, at time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	f.asked = at
	f.mu.Unlock()
	p, ok := f.prices[sym]
	if !ok {
		return decimal.Zero, store.ErrNotFound
	}
	return decimal.RequireFromString(p), nil
}

type captureRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (c *captureRecorder) Record(_ context.Context, op string, chatID *int64, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, op)
}

func TestBuilder_Build(t *testing.T) {
	now := time.Date(2025, time.May, 6, 9, 0, 0, 0, time.UTC)
	hist := &fakeHistory{prices: map[string]string{"BTC": "100", "EUR": "1.10"}}
	rec := &captureRecorder{}
	b := NewBuilder(
		fakePrices{"BTC": "110", "EUR": "1.10", "ETH": "3000"},
		hist,
		rec,
		time.UTC,
		WithClock(func() time.Time { return now }),
		WithConcurrency(2),
	)

	got := b.Build(t.Context(), 42, []string{"BTC", "ETH", "EUR", "MOEX"})

	want := "Rates as of 2025-05-06 09:00:\n" +
		"🟢BTC +10.00%  $110.00\n" +
		"⏺ETH 0.00%  $3 000.00\n" +
		"⏺Euro 0.00%  $1.10\n" +
		"❓MOEX — no current data"
	require.Equal(t, want, got)
	require.Equal(t, now.Add(-24*time.Hour), hist.asked)
	require.Equal(t, []string{"get_exchange_rate"}, rec.ops)
}

func TestBuilder_HeaderUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, time.May, 6, 6, 0, 0, 0, time.UTC)
	b := NewBuilder(fakePrices{}, &fakeHistory{}, nil, loc, WithClock(func() time.Time { return now }))

	got := b.Build(t.Context(), 1, nil)
	require.Equal(t, "Rates as of 2025-05-06 09:00:", got)
}
