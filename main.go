package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"eternity-backend/config"
	"eternity-backend/database"
	"eternity-backend/routes"
	"eternity-backend/services"
	"eternity-backend/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.AppEnv, ".")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Connect to the remote store, or fall back to local storage
	backend, err := database.Open(ctx, cfg)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to open storage backend")
	}

	opts := services.StoreOptions{
		Passcode: cfg.AdminPasscode,
		AppURL:   cfg.AppURL,
	}
	if notifier := services.NewEmailNotifier(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.NotifyEmail, cfg.AppName); notifier != nil {
		opts.Notifier = notifier
	}

	store := services.NewWeddingStore(backend, opts)
	if err := store.Start(ctx); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to start wedding store")
	}
	utils.Logger.WithField("mode", store.Mode()).Info("Wedding store started")

	r := routes.SetupRouter(store, cfg)

	addr := "0.0.0.0:" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Logger.Infof("%s server listening on %s", cfg.AppName, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Server shutdown failed")
	}
	if err := store.Close(); err != nil {
		utils.Logger.WithError(err).Error("Failed to close wedding store")
	}
}
