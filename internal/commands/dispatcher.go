// Package commands turns chat commands into store and scheduler operations
// and produces the reply text.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
	"github.com/Alectobe/TelegramCoinBot/internal/store"
)

// Command names, without the leading slash.
const (
	CmdStart          = "start"
	CmdHelp           = "help"
	CmdSubscribe      = "subscribe"
	CmdUnsubscribe    = "unsubscribe"
	CmdUnsubscribeAll = "unsubscribe_all"
	CmdSubscribeTop20 = "subscribe_top20"
	CmdList           = "list"
	CmdRates          = "rates"
	CmdSetTime        = "settime"
	CmdAutoUpdate     = "autoupdate"
	CmdSetInterval    = "setinterval"
	CmdClearInterval  = "clearinterval"
	CmdStatus         = "status"
)

// Store is the part of the subscription store commands use.
type Store interface {
	AddUser(ctx context.Context, chatID int64, name string) error
	AddSubscription(ctx context.Context, chatID int64, symbol string) (bool, error)
	RemoveSubscription(ctx context.Context, chatID int64, symbol string) (bool, error)
	ClearSubscriptions(ctx context.Context, chatID int64) (int, error)
	ListSubscriptions(ctx context.Context, chatID int64) ([]string, error)

	UpsertDailySchedule(ctx context.Context, chatID int64, at domain.TimeOfDay, enabled bool) error
	SetDailyEnabled(ctx context.Context, chatID int64, enabled bool) (bool, error)
	GetDailySchedule(ctx context.Context, chatID int64) (domain.DailySchedule, error)

	UpsertIntervalSchedule(ctx context.Context, chatID int64, minutes *int, enabled bool) error
	GetIntervalSchedule(ctx context.Context, chatID int64) (domain.IntervalSchedule, error)
}

// Scheduler arms and cancels report timers.
type Scheduler interface {
	RegisterDaily(chatID int64, at domain.TimeOfDay) error
	RegisterInterval(chatID int64, minutes int) error
	Cancel(chatID int64, kind domain.ScheduleKind)
}

// TopSource lists the provider's top-ranked symbols.
type TopSource interface {
	TopSymbols(ctx context.Context) ([]string, error)
}

// Reporter renders a rates report.
type Reporter interface {
	Build(ctx context.Context, chatID int64, symbols []string) string
}

// ErrorRecorder receives failures that are not store calls.
type ErrorRecorder interface {
	Record(ctx context.Context, op string, chatID *int64, err error)
}

// Request is one inbound command.
type Request struct {
	ChatID   int64
	ChatName string
	Command  string
	Args     []string
}

func (r Request) arg() string {
	if len(r.Args) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Args[0])
}

// Dispatcher routes commands. Store writes always happen before timers are
// armed, so a crash in between is repaired by rehydration.
type Dispatcher struct {
	store    Store
	sched    Scheduler
	top      TopSource
	reporter Reporter
	rec      ErrorRecorder
	log      *zap.Logger
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(st Store, sched Scheduler, top TopSource, reporter Reporter, rec ErrorRecorder, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: st, sched: sched, top: top, reporter: reporter, rec: rec, log: log}
}

// Dispatch executes req and returns the reply. It never fails: every error
// becomes a reply text.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) string {
	cmd := strings.ToLower(strings.TrimPrefix(req.Command, "/"))
	log := d.log.With(zap.Int64("chat_id", req.ChatID), zap.String("command", cmd))
	log.Debug("command received", zap.Strings("args", req.Args))

	if cmd != CmdHelp && known[cmd] {
		d.ensureUser(ctx, req)
	}

	switch cmd {
	case CmdStart:
		return d.start(ctx, req)
	case CmdHelp:
		return helpText()
	case CmdSubscribe:
		return d.subscribe(ctx, req)
	case CmdUnsubscribe:
		return d.unsubscribe(ctx, req)
	case CmdUnsubscribeAll:
		return d.unsubscribeAll(ctx, req)
	case CmdSubscribeTop20:
		return d.subscribeTop20(ctx, req)
	case CmdList:
		return d.list(ctx, req)
	case CmdRates:
		return d.rates(ctx, req)
	case CmdSetTime:
		return d.setTime(ctx, req)
	case CmdAutoUpdate:
		return d.autoUpdate(ctx, req)
	case CmdSetInterval:
		return d.setInterval(ctx, req)
	case CmdClearInterval:
		return d.clearInterval(ctx, req)
	case CmdStatus:
		return d.status(ctx, req)
	default:
		return unknownCommand
	}
}

var known = map[string]bool{
	CmdStart: true, CmdHelp: true, CmdSubscribe: true, CmdUnsubscribe: true,
	CmdUnsubscribeAll: true, CmdSubscribeTop20: true, CmdList: true, CmdRates: true,
	CmdSetTime: true, CmdAutoUpdate: true, CmdSetInterval: true, CmdClearInterval: true,
	CmdStatus: true,
}

func displayName(req Request) string {
	if req.ChatName != "" {
		return req.ChatName
	}
	return fmt.Sprint(req.ChatID)
}

// ensureUser records the chat on first contact. A failed insert is already
// audited and does not block the command.
func (d *Dispatcher) ensureUser(ctx context.Context, req Request) {
	_ = d.store.AddUser(ctx, req.ChatID, displayName(req))
}

func (d *Dispatcher) start(_ context.Context, req Request) string {
	return fmt.Sprintf(greetingFmt, displayName(req)) + helpText()
}

func (d *Dispatcher) subscribe(ctx context.Context, req Request) string {
	sym, err := domain.ParseSymbol(req.arg())
	if errors.Is(err, domain.ErrEmptyArgument) {
		return subscribeUsage
	}
	if err != nil {
		return fmt.Sprintf(badSymbolFmt, req.arg())
	}
	added, err := d.store.AddSubscription(ctx, req.ChatID, sym)
	if err != nil {
		return storeFailed
	}
	if !added {
		return fmt.Sprintf(alreadySubFmt, sym)
	}
	return fmt.Sprintf(subscribedFmt, sym)
}

func (d *Dispatcher) unsubscribe(ctx context.Context, req Request) string {
	sym, err := domain.ParseSymbol(req.arg())
	if errors.Is(err, domain.ErrEmptyArgument) {
		return unsubscribeUsage
	}
	if err != nil {
		return fmt.Sprintf(badSymbolFmt, req.arg())
	}
	removed, err := d.store.RemoveSubscription(ctx, req.ChatID, sym)
	if err != nil {
		return storeFailed
	}
	if !removed {
		return fmt.Sprintf(notSubscribedFmt, sym)
	}
	return fmt.Sprintf(unsubscribedFmt, sym)
}

func (d *Dispatcher) unsubscribeAll(ctx context.Context, req Request) string {
	n, err := d.store.ClearSubscriptions(ctx, req.ChatID)
	if err != nil {
		return storeFailed
	}
	if n == 0 {
		return nothingToClear
	}
	return fmt.Sprintf(clearedFmt, n)
}

func (d *Dispatcher) subscribeTop20(ctx context.Context, req Request) string {
	syms, err := d.top.TopSymbols(ctx)
	if err != nil || len(syms) == 0 {
		if err != nil {
			d.rec.Record(ctx, "get_top20_symbols", nil, err)
		}
		return top20Failed
	}

	var added, already, failed []string
	for _, sym := range syms {
		ok, err := d.store.AddSubscription(ctx, req.ChatID, sym)
		switch {
		case err != nil:
			failed = append(failed, sym)
		case ok:
			added = append(added, sym)
		default:
			already = append(already, sym)
		}
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, top20Added+strings.Join(added, ", "))
	}
	if len(already) > 0 {
		parts = append(parts, top20Already+strings.Join(already, ", "))
	}
	if len(failed) > 0 {
		parts = append(parts, top20NotAdded+strings.Join(failed, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func (d *Dispatcher) list(ctx context.Context, req Request) string {
	subs, err := d.store.ListSubscriptions(ctx, req.ChatID)
	if err != nil {
		return storeFailed
	}
	if len(subs) == 0 {
		return noSubscriptions
	}
	return subscriptionsHd + strings.Join(subs, "\n")
}

func (d *Dispatcher) rates(ctx context.Context, req Request) string {
	subs, err := d.store.ListSubscriptions(ctx, req.ChatID)
	if err != nil {
		return storeFailed
	}
	if len(subs) == 0 {
		return noRates
	}
	return d.reporter.Build(ctx, req.ChatID, subs)
}

// setTime stores the new time, keeping the enabled flag, and re-arms the
// daily timer when it is enabled.
func (d *Dispatcher) setTime(ctx context.Context, req Request) string {
	at, err := domain.ParseTimeOfDay(req.arg())
	if errors.Is(err, domain.ErrEmptyArgument) {
		return setTimeUsage
	}
	if err != nil {
		d.rec.Record(ctx, "settime_cmd", &req.ChatID, err)
		return badTime
	}

	enabled := false
	cur, err := d.store.GetDailySchedule(ctx, req.ChatID)
	switch {
	case err == nil:
		enabled = cur.Enabled
	case errors.Is(err, store.ErrNotFound):
	default:
		return storeFailed
	}

	if err := d.store.UpsertDailySchedule(ctx, req.ChatID, at, enabled); err != nil {
		return storeFailed
	}
	if !enabled {
		return fmt.Sprintf(timeSetFmt, at)
	}
	if err := d.sched.RegisterDaily(req.ChatID, at); err != nil {
		d.rec.Record(ctx, "settime_cmd", &req.ChatID, err)
		return storeFailed
	}
	return fmt.Sprintf(timeRescheduled, at)
}

func (d *Dispatcher) autoUpdate(ctx context.Context, req Request) string {
	mode := strings.ToLower(req.arg())
	if mode == "" {
		return autoUpdateUsage
	}
	if mode != "on" && mode != "off" {
		return autoUpdateBadArg
	}

	cur, err := d.store.GetDailySchedule(ctx, req.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		return setTimeFirst
	}
	if err != nil {
		return storeFailed
	}

	if mode == "off" {
		if _, err := d.store.SetDailyEnabled(ctx, req.ChatID, false); err != nil {
			return storeFailed
		}
		d.sched.Cancel(req.ChatID, domain.KindDaily)
		return dailyOff
	}

	if _, err := d.store.SetDailyEnabled(ctx, req.ChatID, true); err != nil {
		return storeFailed
	}
	if err := d.sched.RegisterDaily(req.ChatID, cur.NotifyTime); err != nil {
		d.rec.Record(ctx, "autoupdate_cmd", &req.ChatID, err)
		return storeFailed
	}
	return fmt.Sprintf(dailyOnFmt, cur.NotifyTime)
}

func (d *Dispatcher) setInterval(ctx context.Context, req Request) string {
	minutes, err := domain.ParseIntervalMinutes(req.arg())
	if errors.Is(err, domain.ErrEmptyArgument) {
		return setIntervalUsage
	}
	if err != nil {
		d.rec.Record(ctx, "setinterval_cmd", &req.ChatID, err)
		return badInterval
	}

	if err := d.store.UpsertIntervalSchedule(ctx, req.ChatID, &minutes, true); err != nil {
		return storeFailed
	}
	if err := d.sched.RegisterInterval(req.ChatID, minutes); err != nil {
		d.rec.Record(ctx, "setinterval_cmd", &req.ChatID, err)
		return storeFailed
	}
	return fmt.Sprintf(intervalOnFmt, minutes)
}

func (d *Dispatcher) clearInterval(ctx context.Context, req Request) string {
	cur, err := d.store.GetIntervalSchedule(ctx, req.ChatID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !cur.Enabled) {
		// A stale timer may survive a crash between store and scheduler.
		d.sched.Cancel(req.ChatID, domain.KindInterval)
		return intervalAlready
	}
	if err != nil {
		return storeFailed
	}

	if err := d.store.UpsertIntervalSchedule(ctx, req.ChatID, nil, false); err != nil {
		return storeFailed
	}
	d.sched.Cancel(req.ChatID, domain.KindInterval)
	return intervalOff
}

func (d *Dispatcher) status(ctx context.Context, req Request) string {
	subs, err := d.store.ListSubscriptions(ctx, req.ChatID)
	if err != nil {
		return storeFailed
	}

	daily := notSet
	ds, err := d.store.GetDailySchedule(ctx, req.ChatID)
	switch {
	case err == nil:
		daily = ds.NotifyTime.String() + " " + onOff(ds.Enabled)
	case !errors.Is(err, store.ErrNotFound):
		return storeFailed
	}

	periodic := notSet
	is, err := d.store.GetIntervalSchedule(ctx, req.ChatID)
	switch {
	case err == nil:
		periodic = fmt.Sprintf("every %d min %s", is.Minutes, onOff(is.Enabled))
	case !errors.Is(err, store.ErrNotFound):
		return storeFailed
	}

	return statusTitle + "\n\n" + fmt.Sprintf(statusFmt, len(subs), daily, periodic)
}

func onOff(enabled bool) string {
	if enabled {
		return "✅ on"
	}
	return "⏸ off"
}
