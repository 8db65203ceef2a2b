package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
	"github.com/Alectobe/TelegramCoinBot/internal/logger"
)

// Handle identifies an armed timer inside an Engine.
type Handle int

// Engine is the timer mechanism behind the Scheduler.
type Engine interface {
	// ArmDaily runs job every day at the given wall-clock time.
	ArmDaily(at domain.TimeOfDay, job func()) (Handle, error)
	// ArmInterval runs job now and then every period.
	ArmInterval(every time.Duration, job func()) (Handle, error)
	// Disarm removes a timer. Unknown handles are ignored.
	Disarm(h Handle)
	Start()
	Stop() context.Context
}

// CronEngine implements Engine on robfig/cron. Runs of the same timer never
// overlap and a panicking job is recovered and logged.
type CronEngine struct {
	c     *cron.Cron
	chain cron.Chain

	// first runs of interval timers happen outside cron; Stop waits for them too.
	immediate sync.WaitGroup
}

var _ Engine = (*CronEngine)(nil)

// NewCronEngine creates an engine evaluating daily times in loc.
func NewCronEngine(loc *time.Location, log *zap.Logger) *CronEngine {
	cl := logger.Cron(log)
	return &CronEngine{
		c:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		chain: cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	}
}

func (e *CronEngine) ArmDaily(at domain.TimeOfDay, job func()) (Handle, error) {
	id, err := e.c.AddJob(at.CronSpec(), e.chain.Then(cron.FuncJob(job)))
	if err != nil {
		return 0, err
	}
	return Handle(id), nil
}

func (e *CronEngine) ArmInterval(every time.Duration, job func()) (Handle, error) {
	wrapped := e.chain.Then(cron.FuncJob(job))
	id := e.c.Schedule(cron.Every(every), wrapped)
	e.immediate.Add(1)
	go func() {
		defer e.immediate.Done()
		wrapped.Run()
	}()
	return Handle(id), nil
}

// AddJob schedules an arbitrary cron job, used for housekeeping tasks.
func (e *CronEngine) AddJob(spec string, job cron.Job) (Handle, error) {
	id, err := e.c.AddJob(spec, e.chain.Then(job))
	if err != nil {
		return 0, err
	}
	return Handle(id), nil
}

func (e *CronEngine) Disarm(h Handle) {
	e.c.Remove(cron.EntryID(h))
}

func (e *CronEngine) Start() {
	e.c.Start()
}

// Stop halts new runs; the returned context is done once running jobs,
// including immediate interval runs, finish.
func (e *CronEngine) Stop() context.Context {
	cronDone := e.c.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		e.immediate.Wait()
		cancel()
	}()
	return ctx
}

// next returns when the timer fires next, or the zero time if it is unknown.
func (e *CronEngine) next(h Handle) time.Time {
	return e.c.Entry(cron.EntryID(h)).Next
}
