package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

// SQLRepo implements Repo over database/sql for SQLite and PostgreSQL.
type SQLRepo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Repo = (*SQLRepo)(nil)

func (r *SQLRepo) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
}

func (r *SQLRepo) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
}

func (r *SQLRepo) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.rebind(q), args...)
}

func (r *SQLRepo) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

// Ping checks that the database is reachable.
func (r *SQLRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying database resources.
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

// AddUser inserts the chat once; later calls are no-ops.
func (r *SQLRepo) AddUser(ctx context.Context, chatID int64, name string) error {
	_, err := r.exec(ctx, `
		INSERT INTO users (chat_id, chat_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO NOTHING`,
		chatID, name, r.clock().Unix(),
	)
	return err
}

// AddSubscription stores (chatID, upper(symbol)) and reports whether a new row was created.
func (r *SQLRepo) AddSubscription(ctx context.Context, chatID int64, symbol string) (bool, error) {
	res, err := r.exec(ctx, `
		INSERT INTO subscriptions (chat_id, symbol, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id, symbol) DO NOTHING`,
		chatID, domain.NormalizeSymbol(symbol), r.clock().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveSubscription deletes one subscription and reports whether it existed.
func (r *SQLRepo) RemoveSubscription(ctx context.Context, chatID int64, symbol string) (bool, error) {
	res, err := r.exec(ctx, `
		DELETE FROM subscriptions
		WHERE chat_id = ? AND symbol = ?`,
		chatID, domain.NormalizeSymbol(symbol),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearSubscriptions deletes every subscription of the chat and returns how many were removed.
func (r *SQLRepo) ClearSubscriptions(ctx context.Context, chatID int64) (int, error) {
	res, err := r.exec(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListSubscriptions returns the chat's symbols in alphabetical order.
func (r *SQLRepo) ListSubscriptions(ctx context.Context, chatID int64) ([]string, error) {
	return r.symbols(ctx, `
		SELECT symbol FROM subscriptions
		WHERE chat_id = ?
		ORDER BY symbol`,
		chatID,
	)
}

// ListSubscribedSymbols returns every symbol with at least one subscriber.
func (r *SQLRepo) ListSubscribedSymbols(ctx context.Context) ([]string, error) {
	return r.symbols(ctx, `SELECT DISTINCT symbol FROM subscriptions ORDER BY symbol`)
}

func (r *SQLRepo) symbols(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpsertDailySchedule creates or replaces the chat's daily schedule.
func (r *SQLRepo) UpsertDailySchedule(ctx context.Context, chatID int64, at domain.TimeOfDay, enabled bool) error {
	_, err := r.exec(ctx, `
		INSERT INTO schedules (chat_id, notify_time, enabled)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			notify_time = excluded.notify_time,
			enabled     = excluded.enabled`,
		chatID, at.String(), enabled,
	)
	return err
}

// SetDailyEnabled flips enabled on an existing daily schedule.
// It reports false without error when the chat has no schedule.
func (r *SQLRepo) SetDailyEnabled(ctx context.Context, chatID int64, enabled bool) (bool, error) {
	res, err := r.exec(ctx, `UPDATE schedules SET enabled = ? WHERE chat_id = ?`, enabled, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetDailySchedule returns ErrNotFound when no time was ever set for the chat.
func (r *SQLRepo) GetDailySchedule(ctx context.Context, chatID int64) (domain.DailySchedule, error) {
	var (
		raw     string
		enabled bool
	)
	err := r.queryRow(ctx, `
		SELECT notify_time, enabled FROM schedules
		WHERE chat_id = ?`,
		chatID,
	).Scan(&raw, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailySchedule{}, ErrNotFound
	}
	if err != nil {
		return domain.DailySchedule{}, err
	}
	at, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return domain.DailySchedule{}, fmt.Errorf("chat %d: stored notify_time: %w", chatID, err)
	}
	return domain.DailySchedule{ChatID: chatID, NotifyTime: at, Enabled: enabled}, nil
}

// EnabledDailySchedules lists every enabled daily schedule, ordered by chat.
func (r *SQLRepo) EnabledDailySchedules(ctx context.Context) ([]domain.DailySchedule, error) {
	rows, err := r.query(ctx, `
		SELECT chat_id, notify_time FROM schedules
		WHERE enabled = ?
		ORDER BY chat_id`,
		true,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.DailySchedule
	for rows.Next() {
		var (
			chatID int64
			raw    string
		)
		if err := rows.Scan(&chatID, &raw); err != nil {
			return nil, err
		}
		at, err := domain.ParseTimeOfDay(raw)
		if err != nil {
			return nil, fmt.Errorf("chat %d: stored notify_time: %w", chatID, err)
		}
		res = append(res, domain.DailySchedule{ChatID: chatID, NotifyTime: at, Enabled: true})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpsertIntervalSchedule with nil minutes only updates enabled on an existing
// row (no-op if none); otherwise it creates or replaces both fields.
func (r *SQLRepo) UpsertIntervalSchedule(ctx context.Context, chatID int64, minutes *int, enabled bool) error {
	if minutes == nil {
		_, err := r.exec(ctx, `UPDATE intervals SET enabled = ? WHERE chat_id = ?`, enabled, chatID)
		return err
	}
	if *minutes <= 0 {
		return fmt.Errorf("%w: must be positive, got %d", domain.ErrInvalidInterval, *minutes)
	}
	_, err := r.exec(ctx, `
		INSERT INTO intervals (chat_id, interval_minutes, enabled)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			interval_minutes = excluded.interval_minutes,
			enabled          = excluded.enabled`,
		chatID, *minutes, enabled,
	)
	return err
}

// GetIntervalSchedule returns ErrNotFound when the chat never set an interval.
func (r *SQLRepo) GetIntervalSchedule(ctx context.Context, chatID int64) (domain.IntervalSchedule, error) {
	s := domain.IntervalSchedule{ChatID: chatID}
	err := r.queryRow(ctx, `
		SELECT interval_minutes, enabled FROM intervals
		WHERE chat_id = ?`,
		chatID,
	).Scan(&s.Minutes, &s.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IntervalSchedule{}, ErrNotFound
	}
	if err != nil {
		return domain.IntervalSchedule{}, err
	}
	return s, nil
}

// EnabledIntervalSchedules lists every enabled interval schedule, ordered by chat.
func (r *SQLRepo) EnabledIntervalSchedules(ctx context.Context) ([]domain.IntervalSchedule, error) {
	rows, err := r.query(ctx, `
		SELECT chat_id, interval_minutes FROM intervals
		WHERE enabled = ?
		ORDER BY chat_id`,
		true,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.IntervalSchedule
	for rows.Next() {
		s := domain.IntervalSchedule{Enabled: true}
		if err := rows.Scan(&s.ChatID, &s.Minutes); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordQuote appends a price observation to the history table.
func (r *SQLRepo) RecordQuote(ctx context.Context, q domain.Quote) error {
	at := q.AsOf
	if at.IsZero() {
		at = r.clock()
	}
	_, err := r.exec(ctx, `
		INSERT INTO currency_data (symbol, rate, ts)
		VALUES (?, ?, ?)`,
		domain.NormalizeSymbol(q.Symbol), q.Price.String(), at.UTC().Unix(),
	)
	return err
}

// PriceAsOf returns the most recent recorded price at or before at,
// or ErrNotFound when history has nothing that old.
func (r *SQLRepo) PriceAsOf(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.queryRow(ctx, `
		SELECT rate FROM currency_data
		WHERE symbol = ? AND ts <= ?
		ORDER BY ts DESC
		LIMIT 1`,
		domain.NormalizeSymbol(symbol), at.UTC().Unix(),
	).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// AppendErrorLog inserts one diagnostic row.
func (r *SQLRepo) AppendErrorLog(ctx context.Context, e domain.ErrorLogEntry) error {
	at := e.At
	if at.IsZero() {
		at = r.clock()
	}
	_, err := r.exec(ctx, `
		INSERT INTO error_logs (ts, function_name, chat_id, error_message)
		VALUES (?, ?, ?, ?)`,
		at.UTC().Unix(), e.Function, toNullInt64(e.ChatID), e.Message,
	)
	return err
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
