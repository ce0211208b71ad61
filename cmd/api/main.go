package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ironclad/ironclad/config"
	"github.com/Ironclad/ironclad/internal/app"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// For testing purposes - allows us to mock the signal channel
var signalNotify = signal.Notify

// NewAppFunc defines the function signature for creating a new app
type NewAppFunc func(cfg *config.Config, opts ...app.AppOption) app.AppInterface

var newApp NewAppFunc = app.NewApp

// runServer contains the core server logic, extracted for testability
func runServer(cfg *config.Config, appLogger logger.Logger) error {
	appInstance := newApp(cfg, app.WithLogger(appLogger))

	if err := appInstance.Initialize(); err != nil {
		appLogger.WithField("error", err.Error()).Error("Failed to initialize application")
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signalNotify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverError := make(chan error, 1)
	go func() {
		appLogger.Info("Server started successfully")
		serverError <- appInstance.Start()
	}()

	select {
	case err := <-serverError:
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Server error")
		}
		return err
	case sig := <-shutdown:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received - starting graceful shutdown")
		appLogger.Info("Send signal again (Ctrl+C) to force immediate shutdown")

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		appInstance.SetShutdownTimeout(timeout)

		// Leave a few seconds beyond the app's own timeout for cleanup.
		ctx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
		defer cancel()

		appLogger.WithField("active_requests", appInstance.GetActiveRequestCount()).Info("Starting graceful shutdown")

		forceShutdown := make(chan os.Signal, 1)
		signalNotify(forceShutdown, os.Interrupt, syscall.SIGTERM)

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- appInstance.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				appLogger.WithField("error", err.Error()).Error("Error during graceful shutdown")
				return err
			}
			appLogger.Info("Server shut down gracefully")
			return nil
		case forceSig := <-forceShutdown:
			appLogger.WithField("signal", forceSig.String()).Warn("Force shutdown signal received - terminating immediately")
			cancel()

			select {
			case err := <-shutdownDone:
				if err != nil {
					appLogger.WithField("error", err.Error()).Error("Error during forced shutdown")
				}
			case <-time.After(2 * time.Second):
				appLogger.Warn("Forced shutdown timeout - exiting immediately")
			}

			return fmt.Errorf("forced shutdown")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithLevel(cfg.LogLevel)
	appLogger.Info(fmt.Sprintf("Starting API server on %s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := runServer(cfg, appLogger); err != nil {
		osExit(1)
	}
}
