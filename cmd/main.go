package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"duoduo-bargain/internal/application"
	"duoduo-bargain/pkg/contextx"
	"duoduo-bargain/pkg/logx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	ctx = contextx.WithLogger(ctx, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application.Run", logx.Error(err))
		os.Exit(1)
	}
}
