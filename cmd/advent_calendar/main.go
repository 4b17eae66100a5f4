package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advent_calendar/internal/app"
	"advent_calendar/internal/config"
	"advent_calendar/internal/lib/logger"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/migrate"

	"github.com/joho/godotenv"
)

// @title          Advent calendar API
// @version        1.0
// @description    Подарки адвент-календаря: расписание открытия, редактор блоков и публичные страницы.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)
	log.Info("starting advent calendar", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := migrate.Up(ctx, log, cfg.DSN); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	application, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("failed to init application", sl.Err(err))
		os.Exit(1)
	}

	go func() {
		application.HTTPServer.MustRun()
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Gracefully stopped")
}
