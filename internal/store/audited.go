package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

// ErrorRecorder receives every failed store call.
type ErrorRecorder interface {
	Record(ctx context.Context, op string, chatID *int64, err error)
}

// Audited decorates a Repo so that each failure is reported to an
// ErrorRecorder under the operation's name. Errors are still returned.
// ErrNotFound is a normal outcome and is not reported.
type Audited struct {
	Repo
	rec ErrorRecorder
}

// NewAudited wraps repo. AppendErrorLog, Ping and Close pass through unaudited.
func NewAudited(repo Repo, rec ErrorRecorder) *Audited {
	return &Audited{Repo: repo, rec: rec}
}

func (a *Audited) report(ctx context.Context, op string, chatID *int64, err error) {
	if err == nil || errors.Is(err, ErrNotFound) {
		return
	}
	a.rec.Record(ctx, op, chatID, err)
}

func (a *Audited) AddUser(ctx context.Context, chatID int64, name string) error {
	err := a.Repo.AddUser(ctx, chatID, name)
	a.report(ctx, "add_user", &chatID, err)
	return err
}

func (a *Audited) AddSubscription(ctx context.Context, chatID int64, symbol string) (bool, error) {
	ok, err := a.Repo.AddSubscription(ctx, chatID, symbol)
	a.report(ctx, "add_subscription", &chatID, err)
	return ok, err
}

func (a *Audited) RemoveSubscription(ctx context.Context, chatID int64, symbol string) (bool, error) {
	ok, err := a.Repo.RemoveSubscription(ctx, chatID, symbol)
	a.report(ctx, "remove_subscription", &chatID, err)
	return ok, err
}

func (a *Audited) ClearSubscriptions(ctx context.Context, chatID int64) (int, error) {
	n, err := a.Repo.ClearSubscriptions(ctx, chatID)
	a.report(ctx, "clear_subscriptions", &chatID, err)
	return n, err
}

func (a *Audited) ListSubscriptions(ctx context.Context, chatID int64) ([]string, error) {
	res, err := a.Repo.ListSubscriptions(ctx, chatID)
	a.report(ctx, "list_subscriptions", &chatID, err)
	return res, err
}

func (a *Audited) ListSubscribedSymbols(ctx context.Context) ([]string, error) {
	res, err := a.Repo.ListSubscribedSymbols(ctx)
	a.report(ctx, "list_subscribed_symbols", nil, err)
	return res, err
}

func (a *Audited) UpsertDailySchedule(ctx context.Context, chatID int64, at domain.TimeOfDay, enabled bool) error {
	err := a.Repo.UpsertDailySchedule(ctx, chatID, at, enabled)
	a.report(ctx, "upsert_schedule", &chatID, err)
	return err
}

func (a *Audited) SetDailyEnabled(ctx context.Context, chatID int64, enabled bool) (bool, error) {
	ok, err := a.Repo.SetDailyEnabled(ctx, chatID, enabled)
	a.report(ctx, "set_schedule_enabled", &chatID, err)
	return ok, err
}

func (a *Audited) GetDailySchedule(ctx context.Context, chatID int64) (domain.DailySchedule, error) {
	s, err := a.Repo.GetDailySchedule(ctx, chatID)
	a.report(ctx, "get_schedule", &chatID, err)
	return s, err
}

func (a *Audited) EnabledDailySchedules(ctx context.Context) ([]domain.DailySchedule, error) {
	res, err := a.Repo.EnabledDailySchedules(ctx)
	a.report(ctx, "enabled_schedules", nil, err)
	return res, err
}

func (a *Audited) UpsertIntervalSchedule(ctx context.Context, chatID int64, minutes *int, enabled bool) error {
	err := a.Repo.UpsertIntervalSchedule(ctx, chatID, minutes, enabled)
	a.report(ctx, "upsert_interval", &chatID, err)
	return err
}

func (a *Audited) GetIntervalSchedule(ctx context.Context, chatID int64) (domain.IntervalSchedule, error) {
	s, err := a.Repo.GetIntervalSchedule(ctx, chatID)
	a.report(ctx, "get_interval", &chatID, err)
	return s, err
}

func (a *Audited) EnabledIntervalSchedules(ctx context.Context) ([]domain.IntervalSchedule, error) {
	res, err := a.Repo.EnabledIntervalSchedules(ctx)
	a.report(ctx, "enabled_intervals", nil, err)
	return res, err
}

func (a *Audited) RecordQuote(ctx context.Context, q domain.Quote) error {
	err := a.Repo.RecordQuote(ctx, q)
	a.report(ctx, "record_quote", nil, err)
	return err
}

func (a *Audited) PriceAsOf(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error) {
	p, err := a.Repo.PriceAsOf(ctx, symbol, at)
	a.report(ctx, "get_yesterday_rate", nil, err)
	return p, err
}
