package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetbook/internal/config"
	"budgetbook/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json", log.ComponentCLI)
	if logger.Component() != log.ComponentCLI {
		t.Errorf("Component() = %q", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger does not log at debug level")
	}

	SetupLogger("nonsense", "", log.ComponentCLI)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}

func TestPredictorOptions(t *testing.T) {
	cfg := &config.Config{
		PredictMinSamples:   4,
		CounterpartyEps:     2,
		DescriptionEpsRatio: 0.2,
		PredictWorkers:      3,
		MaxGapStdDevDays:    6,
		PredictTimeout:      time.Second,
	}
	opts := PredictorOptions(cfg)

	if opts.MinSamples != 4 || opts.CounterpartyEps != 2 || opts.DescriptionEpsRatio != 0.2 || opts.Workers != 3 {
		t.Errorf("PredictorOptions() = %+v", opts)
	}
	if opts.Inferer.MaxStdDevDays != 6 || opts.Inferer.DayIntervalLimit != 25 {
		t.Errorf("Inferer options = %+v", opts.Inferer)
	}
	if opts.DescriptionCutoff != 150 || opts.MinDescriptionLength != 10 {
		t.Errorf("defaults not kept: %+v", opts)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := "category_mapping:\n  Groceries:\n    payment_party: [lidl, rewe]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	rs := LoadRules(SetupLogger("error", "text", log.ComponentCLI), path)
	if got := rs.Categories(); len(got) != 1 || got[0] != "Groceries" {
		t.Errorf("Categories() = %v", got)
	}
}

func TestGracefulShutdownContextCarriesLogger(t *testing.T) {
	logger := SetupLogger("error", "text", log.ComponentWorker)
	ctx, _ := GracefulShutdown(logger, time.Second, nil)

	if got := log.FromContext(ctx); got != logger {
		t.Errorf("FromContext() = %v, want the shutdown logger", got)
	}
	if ctx.Err() != nil {
		t.Errorf("context cancelled before any signal: %v", ctx.Err())
	}
}
