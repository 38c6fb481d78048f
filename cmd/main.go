package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"resello/config"
	telegram "resello/internal/api"
	"resello/internal/container"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	closeLog := setupLogging(cfg)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Собираем сервисы приложения
	appContainer, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}
	defer appContainer.Close()

	tg, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
	telegram.RegisterCommands(tg)

	bot := telegram.NewBot(tg, appContainer, telegram.NewDownloader(cfg.HTTPTimeout, cfg.RetryCount))

	g, ctx := errgroup.WithContext(ctx)

	// Модель загружается заранее; при сбое первый Score попробует снова
	g.Go(func() error {
		initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := appContainer.Scorer.Init(initCtx); err != nil {
			log.Warn().Err(err).Msg("scoring backend is not ready yet")
			return nil
		}
		log.Info().Str("url", cfg.ClipURL).Msg("scoring backend ready")
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := tg.GetUpdatesChan(u)
		go func() {
			<-ctx.Done()
			tg.StopReceivingUpdates()
		}()
		log.Info().Msg("bot is running")
		return bot.Run(ctx, updates)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		return
	}
	log.Info().Msg("shutdown complete")
}

// setupLogging задаёт уровень и при LOG_FILE дублирует вывод в файл.
func setupLogging(cfg *config.Config) func() {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile == "" {
		return func() {}
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LogFile).Msg("failed to open log file")
	}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))
	log.Info().Str("path", cfg.LogFile).Msg("logging to file")
	return func() { logFile.Close() }
}
