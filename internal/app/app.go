package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/audit"
	"github.com/Alectobe/TelegramCoinBot/internal/commands"
	"github.com/Alectobe/TelegramCoinBot/internal/config"
	"github.com/Alectobe/TelegramCoinBot/internal/quotes"
	"github.com/Alectobe/TelegramCoinBot/internal/report"
	"github.com/Alectobe/TelegramCoinBot/internal/scheduler"
	"github.com/Alectobe/TelegramCoinBot/internal/store"
	"github.com/Alectobe/TelegramCoinBot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    *store.SQLRepo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func openStore(ctx context.Context, cfg config.Config) (*store.SQLRepo, error) {
	switch cfg.DBDriver {
	case "postgres":
		return store.OpenPostgres(ctx, store.PostgresConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
	default:
		return store.OpenSQLite(ctx, cfg.DBPath)
	}
}

// build wires every component on top of an open store.
func (a *App) build() error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	sink := audit.NewSink(a.repo, a.log.Named("audit"))
	repo := store.NewAudited(a.repo, sink)

	provider := quotes.NewClient(a.cfg.CMCAPIKey,
		quotes.WithBaseURL(a.cfg.CMCBaseURL),
		quotes.WithTimeout(a.cfg.QuoteTimeout),
		quotes.WithRatePerMinute(a.cfg.QuoteRatePerMin),
		quotes.WithHTTPClient(&http.Client{Timeout: a.cfg.QuoteTimeout}),
		quotes.WithLogger(a.log.Named("quotes")),
	)
	builder := report.NewBuilder(provider, repo, sink, loc, report.WithConcurrency(4))

	engine := scheduler.NewCronEngine(loc, a.log)
	messenger := telegram.NewMessenger(a.bot)
	a.sched = scheduler.New(engine, repo, builder, messenger, sink, a.log.Named("scheduler"),
		scheduler.WithFireTimeout(a.cfg.FireTimeout),
	)

	disp := commands.NewDispatcher(repo, a.sched, provider, builder, sink, a.log.Named("commands"))
	a.router = telegram.NewRouter(a.bot, a.log.Named("telegram"), disp)

	if a.cfg.RecordCron != "" {
		rec := quotes.NewRecorder(provider, repo, a.log.Named("recorder"))
		if _, err := engine.AddJob(a.cfg.RecordCron, rec); err != nil {
			return fmt.Errorf("RECORD_CRON %q: %w", a.cfg.RecordCron, err)
		}
	}

	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      healthRouter(a.repo, func() int { return len(a.sched.List()) }),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting rates bot",
		zap.String("db", a.cfg.DBDriver),
		zap.String("tz", a.cfg.ScheduleTZ),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := openStore(ctx, a.cfg)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	defer func() { _ = a.repo.Close() }()
	a.log.Info("store ready", zap.String("driver", a.cfg.DBDriver))

	if err := a.build(); err != nil {
		return err
	}

	// Timers come back from the store before any command is accepted.
	if err := a.sched.Rehydrate(ctx); err != nil {
		a.log.Error("rehydrate failed", zap.Error(err))
		return err
	}
	a.sched.Start()

	if err := a.router.RegisterMenu(); err != nil {
		a.log.Warn("command menu registration failed", zap.Error(err))
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Commands of one chat run one at a time in arrival order.
	queue := newChatQueue(a.cfg.MaxConcurrentUpdates)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()
			a.shutdown(queue)
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.shutdown(queue)
				return nil
			}
			chat := upd.FromChat()
			if chat == nil {
				continue
			}
			queue.Submit(chat.ID, func() { a.router.HandleUpdate(ctx, upd) })
		}
	}
}

func (a *App) shutdown(queue *chatQueue) {
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() { queue.Wait(); close(done) }()
	select {
	case <-done:
	case <-shCtx.Done():
		a.log.Warn("in-flight commands did not finish")
	}

	a.sched.Stop(shCtx)
	if err := a.httpSrv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
}
