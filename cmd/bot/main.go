package main

import (
	"context"
	"os"

	// Loads .env into the process environment before config is read.
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/app"
	"github.com/Alectobe/TelegramCoinBot/internal/config"
	"github.com/Alectobe/TelegramCoinBot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err))
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
