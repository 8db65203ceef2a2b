package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PriceSource returns live prices.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// History returns the latest recorded price at or before a moment.
type History interface {
	PriceAsOf(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error)
}

// ErrorRecorder receives provider failures.
type ErrorRecorder interface {
	Record(ctx context.Context, op string, chatID *int64, err error)
}

// Builder looks up current and 24h-old prices and formats the report.
type Builder struct {
	prices  PriceSource
	history History
	rec     ErrorRecorder
	loc     *time.Location
	now     func() time.Time
	window  time.Duration
	limit   int
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithConcurrency bounds parallel symbol lookups.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.limit = n
		}
	}
}

// NewBuilder creates a Builder rendering headers in loc.
func NewBuilder(prices PriceSource, history History, rec ErrorRecorder, loc *time.Location, opts ...Option) *Builder {
	if loc == nil {
		loc = time.Local
	}
	b := &Builder{
		prices:  prices,
		history: history,
		rec:     rec,
		loc:     loc,
		now:     time.Now,
		window:  24 * time.Hour,
		limit:   4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders the report for chatID's symbols, in the order given.
// A symbol whose price cannot be fetched gets a "no data" line.
func (b *Builder) Build(ctx context.Context, chatID int64, symbols []string) string {
	now := b.now()
	rows := b.Rows(ctx, chatID, symbols, now)
	return Format(now.In(b.loc), rows)
}

// Rows fetches prices for each symbol concurrently and keeps their order.
func (b *Builder) Rows(ctx context.Context, chatID int64, symbols []string, now time.Time) []Row {
	rows := make([]Row, len(symbols))
	since := now.Add(-b.window)

	var g errgroup.Group
	g.SetLimit(b.limit)
	for i, sym := range symbols {
		g.Go(func() error {
			rows[i] = b.row(ctx, chatID, sym, since)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func (b *Builder) row(ctx context.Context, chatID int64, sym string, since time.Time) Row {
	r := Row{Symbol: sym}

	cur, err := b.prices.CurrentPrice(ctx, sym)
	if err != nil {
		if b.rec != nil {
			b.rec.Record(ctx, "get_exchange_rate", &chatID, err)
		}
		return r
	}
	r.Current = &cur

	// Missing or unreadable history renders as no change.
	if prior, err := b.history.PriceAsOf(ctx, sym, since); err == nil {
		r.Prior = &prior
	}
	return r
}
