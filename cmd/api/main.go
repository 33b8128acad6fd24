package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-canteenadmin/internal/boot"

	"go.uber.org/zap"
)

// configPath CONFIG_PATH 优先；文件不存在时回退 example，仍不存在则只用环境变量
func configPath() string {
	p := os.Getenv("CONFIG_PATH")
	if p == "" {
		p = "configs/config.yaml"
	}
	if _, err := os.Stat(p); err != nil {
		fallback := "configs/config.example.yaml"
		if _, err2 := os.Stat(fallback); err2 != nil {
			log.Printf("config %s not found, using environment only", p)
			return ""
		}
		log.Printf("config %s not found, fallback to %s", p, fallback)
		p = fallback
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

func main() {
	cfgPath := configPath()
	app, err := boot.InitApp(cfgPath)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.HTTP,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		app.Logger.Info("http_server_start", zap.String("addr", app.Config.HTTP.Addr), zap.String("config", cfgPath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("http_server_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	app.Logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	app.Close()
	app.Logger.Info("cleanup_done")
}
