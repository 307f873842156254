package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/rules"
	"budgetbook/internal/services"
)

type commonFlags struct {
	input  string
	rules  string
	format string
}

func (c *commonFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&c.input, "input", "", "JSON file with a list of transactions")
	fs.StringVar(&c.rules, "rules", cfg.RulesFile, "YAML category rules")
	fs.StringVar(&c.format, "format", "text", "output format: text or json")
}

func (c *commonFlags) load() ([]core.DatedTransaction, *rules.RuleSet, error) {
	if c.input == "" {
		return nil, nil, fmt.Errorf("-input is required")
	}
	if c.format != "text" && c.format != "json" {
		return nil, nil, fmt.Errorf("unknown format %q", c.format)
	}
	rows, err := readRows(c.input)
	if err != nil {
		return nil, nil, err
	}
	txs, err := core.ParseRawTransactions(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", c.input, err)
	}
	rs, err := rules.LoadFile(c.rules)
	if err != nil {
		return nil, nil, err
	}
	return txs, rs, nil
}

func runClassify(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	var common commonFlags
	common.register(fs, config.Load())
	if err := fs.Parse(args); err != nil {
		return err
	}

	txs, rs, err := common.load()
	if err != nil {
		return err
	}

	categorized := services.Categorize(rs, txs)
	commandLog(ctx, log.OpClassify).Debug("Transactions classified",
		log.FieldTransactions, len(categorized),
		"categories", len(rs.Categories()))

	if common.format == "json" {
		recs := make([]core.TransactionRecord, len(categorized))
		for i, tx := range categorized {
			recs[i] = tx.Record()
		}
		return writeJSON(out, recs)
	}
	for _, tx := range categorized {
		fmt.Fprintf(out, "%-20s %s\n", tx.Category, tx)
	}
	return nil
}

type predictOutput struct {
	Regular  []core.RegularRecord     `json:"regular"`
	Expanded []core.TransactionRecord `json:"expanded,omitempty"`
}

func runPredict(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.Load()
	opts := cli.PredictorOptions(cfg)

	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	var common commonFlags
	common.register(fs, cfg)
	from := fs.String("from", "", "expand predictions from this date (YYYY-MM-DD)")
	upTo := fs.String("to", "", "expand predictions up to this date, exclusive (YYYY-MM-DD)")
	timeout := fs.Duration("timeout", cfg.PredictTimeout, "prediction time budget")
	fs.IntVar(&opts.MinSamples, "min-samples", opts.MinSamples, "minimum transactions per recurring group")
	if err := fs.Parse(args); err != nil {
		return err
	}

	txs, rs, err := common.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	regulars, err := services.NewPredictor(rs, opts).Predict(ctx, txs)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	var expanded []core.DatedTransaction
	if *from != "" || *upTo != "" {
		fromDate, err := core.ParseDate(*from)
		if err != nil {
			return fmt.Errorf("-from: %w", err)
		}
		upToDate, err := core.ParseDate(*upTo)
		if err != nil {
			return fmt.Errorf("-to: %w", err)
		}
		expanded, err = core.Expand(regulars, fromDate, upToDate)
		if err != nil {
			return fmt.Errorf("expand: %w", err)
		}
		commandLog(ctx, log.OpExpand).Debug("Recurring transactions expanded",
			log.FieldRegular, len(regulars),
			log.FieldTransactions, len(expanded))
	}

	if common.format == "json" {
		result := predictOutput{Regular: make([]core.RegularRecord, len(regulars))}
		for i, r := range regulars {
			result.Regular[i] = r.Record()
		}
		for _, tx := range expanded {
			result.Expanded = append(result.Expanded, tx.Record())
		}
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "%d recurring transactions\n", len(regulars))
	for _, r := range regulars {
		fmt.Fprintf(out, "\n%s\n  category: %s\n  %s\n", r, r.Category, indent(r.Description))
	}
	if len(expanded) > 0 {
		fmt.Fprintf(out, "\nExpanded from %s to %s\n", *from, *upTo)
		for _, tx := range expanded {
			fmt.Fprintf(out, "  %s\n", tx)
		}
	}
	return nil
}

func runSubmit(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	input := fs.String("input", "", "JSON file with a list of transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}

	rows, err := readRows(*input)
	if err != nil {
		return err
	}
	if _, err := core.ParseRawTransactions(rows); err != nil {
		return fmt.Errorf("parse %s: %w", *input, err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	msg := amqp.NewTransactionBatchMessage(rows)
	if err := client.PublishBatch(ctx, msg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted batch %s with %d transactions\n", msg.ID, len(rows))
	return nil
}

func commandLog(ctx context.Context, op string) *log.Logger {
	return log.FromContext(ctx).WithFields(log.NewFields().WithComponent(log.ComponentCLI).WithOperation(op))
}

func readRows(path string) ([]core.RawTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var rows []core.RawTransaction
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func indent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, r)
		if r == '\n' {
			out = append(out, ' ', ' ')
		}
	}
	return string(out)
}
