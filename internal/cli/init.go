// Package cli provides common process bootstrap shared by cmd/budgetbook
// and cmd/recurring-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbook/internal/config"
	"budgetbook/internal/log"
	"budgetbook/internal/rules"
	"budgetbook/internal/services"
)

// SetupLogger initializes structured logging at the given level name and
// format (text or json) and sets it as the default logger. Unknown levels
// fall back to info, unknown formats to text.
func SetupLogger(level, format, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	lvl, err := log.ParseLevel(level)
	cfg.Level = lvl
	if format == "json" {
		cfg.Format = format
	}

	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", log.FieldError, err)
	}
	if format != "" && format != cfg.Format {
		logger.Warn("Falling back to text log format", "format", format)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithFields(log.NewFields().WithOperation(log.OpValidate).WithError(err)).
			Error("Configuration validation failed")
		os.Exit(1)
	}
	return cfg
}

// LoadRules reads the category rule file or exits the process on failure.
func LoadRules(logger *log.Logger, path string) *rules.RuleSet {
	rulesLog := logger.WithFields(log.NewFields().
		WithComponent(log.ComponentRules).
		WithOperation(log.OpLoad)).
		With(log.FieldRulesFile, path)

	rs, err := rules.LoadFile(path)
	if err != nil {
		rulesLog.Error("Failed to load category rules", log.FieldError, err)
		os.Exit(1)
	}
	rulesLog.Info("Category rules loaded", "categories", len(rs.Categories()))
	return rs
}

// PredictorOptions maps configuration onto predictor options.
func PredictorOptions(cfg *config.Config) services.PredictorOptions {
	opts := services.DefaultPredictorOptions()
	opts.MinSamples = cfg.PredictMinSamples
	opts.CounterpartyEps = cfg.CounterpartyEps
	opts.DescriptionEpsRatio = cfg.DescriptionEpsRatio
	opts.Workers = cfg.PredictWorkers
	opts.Inferer.MaxStdDevDays = cfg.MaxGapStdDevDays
	return opts
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context carrying logger that will be cancelled on shutdown signals,
// and a channel that signals when cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), logger))
	done := make(chan struct{})
	shutdownLog := logger.WithFields(log.NewFields().WithOperation(log.OpShutdown))

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		shutdownLog.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		cleaned := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(cleaned)
		}()

		select {
		case <-cleaned:
			shutdownLog.Info("Shutdown complete")
		case <-time.After(timeout):
			shutdownLog.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
