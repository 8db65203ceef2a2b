package quotes

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

// PriceSource returns the current USD price of a symbol.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// HistoryStore is where recorded quotes go.
type HistoryStore interface {
	ListSubscribedSymbols(ctx context.Context) ([]string, error)
	RecordQuote(ctx context.Context, q domain.Quote) error
}

// Recorder snapshots the price of every subscribed symbol into quote history,
// which is what day-over-day changes are computed against.
type Recorder struct {
	src     PriceSource
	st      HistoryStore
	log     *zap.Logger
	now     func() time.Time
	limit   int
	timeout time.Duration
}

// NewRecorder creates a Recorder fetching at most 4 symbols at a time.
func NewRecorder(src PriceSource, st HistoryStore, log *zap.Logger) *Recorder {
	return &Recorder{
		src:     src,
		st:      st,
		log:     log,
		now:     time.Now,
		limit:   4,
		timeout: 5 * time.Minute,
	}
}

// RecordAll records one quote per subscribed symbol and returns how many were
// stored. A symbol whose price or write fails is logged and skipped.
func (r *Recorder) RecordAll(ctx context.Context) (int, error) {
	syms, err := r.st.ListSubscribedSymbols(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribed symbols: %w", err)
	}

	at := r.now().UTC()
	var stored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for _, sym := range syms {
		g.Go(func() error {
			price, err := r.src.CurrentPrice(gctx, sym)
			if err != nil {
				r.log.Warn("quote unavailable", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			if err := r.st.RecordQuote(gctx, domain.Quote{Symbol: sym, Price: price, AsOf: at}); err != nil {
				r.log.Warn("record quote failed", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			stored.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(stored.Load()), nil
}

// Run implements cron.Job.
func (r *Recorder) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.RecordAll(ctx)
	if err != nil {
		r.log.Error("quote history run failed", zap.Error(err))
		return
	}
	r.log.Info("quote history recorded", zap.Int("symbols", n))
}
