package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

// Sender is a minimal interface the scheduler needs to send a text message.
// telegram.Messenger implements this. Errors wrapped with
// backoff.Permanent are not retried.
//
//go:generate mockgen -package=scheduler -destination=mock_sender_test.go github.com/Alectobe/TelegramCoinBot/internal/scheduler Sender
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Splitter is implemented by senders that deliver long text as several
// messages. Each part is then retried on its own.
type Splitter interface {
	Split(text string) []string
}

// Store is the slice of the subscription store the scheduler uses.
type Store interface {
	ListSubscriptions(ctx context.Context, chatID int64) ([]string, error)
	SetDailyEnabled(ctx context.Context, chatID int64, enabled bool) (bool, error)
	UpsertIntervalSchedule(ctx context.Context, chatID int64, minutes *int, enabled bool) error
	EnabledDailySchedules(ctx context.Context) ([]domain.DailySchedule, error)
	EnabledIntervalSchedules(ctx context.Context) ([]domain.IntervalSchedule, error)
}

// Reporter renders a chat's report.
type Reporter interface {
	Build(ctx context.Context, chatID int64, symbols []string) string
}

// ErrorRecorder receives delivery failures.
type ErrorRecorder interface {
	Record(ctx context.Context, op string, chatID *int64, err error)
}

// Scheduler arms per-chat daily and interval timers and delivers reports when they fire.
type Scheduler struct {
	eng      Engine
	reg      *Registry
	store    Store
	reporter Reporter
	sender   Sender
	rec      ErrorRecorder
	log      *zap.Logger

	fireTimeout time.Duration
	maxRetries  uint64
	newBackOff  func() backoff.BackOff
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFireTimeout bounds a single fire, including report building and delivery.
func WithFireTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.fireTimeout = d }
}

// WithRetry sets the delivery retry policy.
func WithRetry(maxRetries uint64, newBackOff func() backoff.BackOff) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.newBackOff = newBackOff
	}
}

// New creates a Scheduler. Nothing fires until Start.
func New(eng Engine, st Store, reporter Reporter, sender Sender, rec ErrorRecorder, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		eng:         eng,
		reg:         NewRegistry(eng),
		store:       st,
		reporter:    reporter,
		sender:      sender,
		rec:         rec,
		log:         log,
		fireTimeout: 2 * time.Minute,
		maxRetries:  3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the engine.
func (s *Scheduler) Start() {
	s.eng.Start()
	s.log.Info("scheduler started", zap.Int("armed", s.reg.Len()))
}

// Stop halts the engine and waits up to ctx for running fires to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.eng.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; fires still running")
	}
}

// RegisterDaily arms the chat's daily timer at at, replacing any existing one.
func (s *Scheduler) RegisterDaily(chatID int64, at domain.TimeOfDay) error {
	err := s.reg.Register(chatID, domain.KindDaily, at.String(), func(gen uint64) (Handle, error) {
		return s.eng.ArmDaily(at, s.job(chatID, domain.KindDaily, gen))
	})
	if err != nil {
		return fmt.Errorf("arm daily %s for chat %d: %w", at, chatID, err)
	}
	s.log.Info("daily timer armed", zap.Int64("chat_id", chatID), zap.String("at", at.String()))
	return nil
}

// RegisterInterval arms the chat's interval timer, replacing any existing one.
// The first fire happens immediately.
func (s *Scheduler) RegisterInterval(chatID int64, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: must be positive, got %d", domain.ErrInvalidInterval, minutes)
	}
	every := time.Duration(minutes) * time.Minute
	err := s.reg.Register(chatID, domain.KindInterval, every.String(), func(gen uint64) (Handle, error) {
		return s.eng.ArmInterval(every, s.job(chatID, domain.KindInterval, gen))
	})
	if err != nil {
		return fmt.Errorf("arm interval %s for chat %d: %w", every, chatID, err)
	}
	s.log.Info("interval timer armed", zap.Int64("chat_id", chatID), zap.Int("minutes", minutes))
	return nil
}

// Cancel removes the chat's timer of the given kind; a missing timer is a no-op.
func (s *Scheduler) Cancel(chatID int64, kind domain.ScheduleKind) {
	if s.reg.Cancel(chatID, kind) {
		s.log.Info("timer cancelled", zap.Int64("chat_id", chatID), zap.Stringer("kind", kind))
	}
}

// Armed reports the chat's active timer of the given kind, if any.
func (s *Scheduler) Armed(chatID int64, kind domain.ScheduleKind) (Armed, bool) {
	return s.reg.Lookup(chatID, kind)
}

// List returns every active timer.
func (s *Scheduler) List() []Armed {
	return s.reg.List()
}

// Rehydrate arms a timer for every enabled schedule in the store. It must run
// before inbound commands are served. Rows that fail to arm are logged and
// skipped; a store failure is returned.
func (s *Scheduler) Rehydrate(ctx context.Context) error {
	daily, err := s.store.EnabledDailySchedules(ctx)
	if err != nil {
		return fmt.Errorf("load daily schedules: %w", err)
	}
	intervals, err := s.store.EnabledIntervalSchedules(ctx)
	if err != nil {
		return fmt.Errorf("load interval schedules: %w", err)
	}

	var armErr error
	for _, d := range daily {
		if err := s.RegisterDaily(d.ChatID, d.NotifyTime); err != nil {
			armErr = errors.Join(armErr, err)
		}
	}
	for _, iv := range intervals {
		if err := s.RegisterInterval(iv.ChatID, iv.Minutes); err != nil {
			armErr = errors.Join(armErr, err)
		}
	}
	if armErr != nil {
		s.log.Error("some schedules could not be armed", zap.Error(armErr))
	}

	s.log.Info("schedules rehydrated", zap.Int("daily", len(daily)), zap.Int("interval", len(intervals)))
	return nil
}

func (s *Scheduler) job(chatID int64, kind domain.ScheduleKind, gen uint64) func() {
	return func() {
		if !s.reg.IsCurrent(chatID, kind, gen) {
			s.log.Debug("stale fire ignored", zap.Int64("chat_id", chatID), zap.Stringer("kind", kind))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
		defer cancel()
		s.onFire(ctx, chatID, kind)
	}
}

// onFire delivers the chat's report, or disables and cancels both schedules
// when the chat has no subscriptions left.
func (s *Scheduler) onFire(ctx context.Context, chatID int64, kind domain.ScheduleKind) {
	log := s.log.With(zap.Int64("chat_id", chatID), zap.Stringer("kind", kind))

	subs, err := s.store.ListSubscriptions(ctx, chatID)
	if err != nil {
		log.Error("list subscriptions failed", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		s.cleanup(ctx, chatID)
		return
	}

	text := s.reporter.Build(ctx, chatID, subs)
	if err := s.deliver(ctx, chatID, text); err != nil {
		s.rec.Record(ctx, "send_rates", &chatID, err)
		return
	}
	log.Debug("report delivered", zap.Int("symbols", len(subs)))
}

// cleanup disables both schedules in the store. A timer is cancelled only
// after its row is disabled; if the store write fails the timer stays armed
// and the next fire tries again.
func (s *Scheduler) cleanup(ctx context.Context, chatID int64) {
	log := s.log.With(zap.Int64("chat_id", chatID))

	if _, err := s.store.SetDailyEnabled(ctx, chatID, false); err != nil {
		log.Error("disable daily schedule failed; timer kept", zap.Error(err))
	} else {
		s.Cancel(chatID, domain.KindDaily)
	}

	if err := s.store.UpsertIntervalSchedule(ctx, chatID, nil, false); err != nil {
		log.Error("disable interval schedule failed; timer kept", zap.Error(err))
	} else {
		s.Cancel(chatID, domain.KindInterval)
	}
	log.Info("no subscriptions left; schedules disabled")
}

// deliver sends text part by part. A failed part is retried alone, so parts
// already delivered are not sent twice.
func (s *Scheduler) deliver(ctx context.Context, chatID int64, text string) error {
	parts := []string{text}
	if sp, ok := s.sender.(Splitter); ok {
		parts = sp.Split(text)
	}
	for i, part := range parts {
		if err := s.sendPart(ctx, chatID, part); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func (s *Scheduler) sendPart(ctx context.Context, chatID int64, text string) error {
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	return backoff.RetryNotify(
		func() error { return s.sender.SendMessage(chatID, text) },
		b,
		func(err error, wait time.Duration) {
			s.log.Warn("send failed; retrying", zap.Int64("chat_id", chatID), zap.Duration("wait", wait), zap.Error(err))
		},
	)
}
