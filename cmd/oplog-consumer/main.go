package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-canteenadmin/internal/boot"

	"go.uber.org/zap"
)

func main() {
	app, err := boot.InitOpLogConsumer(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("init oplog consumer: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		app.Logger.Error("oplog_consumer_stopped", zap.Error(err))
		return
	}
	app.Logger.Info("oplog_consumer_exit")
}
