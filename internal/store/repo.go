package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, subscriptions, schedules,
// quote history and the error log. Every call is its own unit of work.
type Repo interface {
	AddUser(ctx context.Context, chatID int64, name string) error

	AddSubscription(ctx context.Context, chatID int64, symbol string) (bool, error)
	RemoveSubscription(ctx context.Context, chatID int64, symbol string) (bool, error)
	ClearSubscriptions(ctx context.Context, chatID int64) (int, error)
	ListSubscriptions(ctx context.Context, chatID int64) ([]string, error)
	ListSubscribedSymbols(ctx context.Context) ([]string, error)

	UpsertDailySchedule(ctx context.Context, chatID int64, at domain.TimeOfDay, enabled bool) error
	SetDailyEnabled(ctx context.Context, chatID int64, enabled bool) (bool, error)
	GetDailySchedule(ctx context.Context, chatID int64) (domain.DailySchedule, error)
	EnabledDailySchedules(ctx context.Context) ([]domain.DailySchedule, error)

	UpsertIntervalSchedule(ctx context.Context, chatID int64, minutes *int, enabled bool) error
	GetIntervalSchedule(ctx context.Context, chatID int64) (domain.IntervalSchedule, error)
	EnabledIntervalSchedules(ctx context.Context) ([]domain.IntervalSchedule, error)

	RecordQuote(ctx context.Context, q domain.Quote) error
	PriceAsOf(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error)

	AppendErrorLog(ctx context.Context, e domain.ErrorLogEntry) error

	Ping(ctx context.Context) error
	Close() error
}
