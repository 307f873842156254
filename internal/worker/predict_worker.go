package worker

import (
	"context"
	"fmt"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
)

// Predictor finds recurring transactions in a history
type Predictor interface {
	Predict(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error)
}

// ResultPublisher sends prediction results downstream
type ResultPublisher interface {
	PublishPrediction(ctx context.Context, msg *amqp.PredictionMessage) error
}

// PredictWorker categorizes incoming transaction batches, predicts their
// recurring transactions and publishes the result
type PredictWorker struct {
	classifier services.Classifier
	predictor  Predictor
	publisher  ResultPublisher
	seen       cache.Cache[time.Time]
	timeout    time.Duration
}

func NewPredictWorker(classifier services.Classifier, predictor Predictor, publisher ResultPublisher, seen cache.Cache[time.Time], timeout time.Duration) *PredictWorker {
	return &PredictWorker{
		classifier: classifier,
		predictor:  predictor,
		publisher:  publisher,
		seen:       seen,
		timeout:    timeout,
	}
}

// HandleBatch processes a single batch message from AMQP. Batches already
// answered are skipped; malformed rows fail permanently.
func (w *PredictWorker) HandleBatch(ctx context.Context, msg *amqp.TransactionBatchMessage) error {
	logger := log.FromContext(ctx).WithFields(log.NewFields().
		WithComponent(log.ComponentWorker).
		WithOperation(log.OpPredict).
		WithBatch(msg.ID, len(msg.Transactions)))

	if w.seen != nil {
		if at, ok := w.seen.Get(msg.ID); ok {
			logger.InfoContext(ctx, "Skipping already processed batch", "processed_at", at)
			return nil
		}
	}

	start := time.Now()
	logger.InfoContext(ctx, "Processing transaction batch")

	txs, err := core.ParseRawTransactions(msg.Transactions)
	if err != nil {
		return fmt.Errorf("%w: parse batch %s: %w", amqp.ErrPermanent, msg.ID, err)
	}

	categorized := services.Categorize(w.classifier, txs)

	predictCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		predictCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	regulars, err := w.predictor.Predict(log.NewContext(predictCtx, logger), categorized)
	if err != nil {
		return fmt.Errorf("predict batch %s: %w", msg.ID, err)
	}

	result := amqp.NewPredictionMessage(msg.ID, records(categorized), regularRecords(regulars))
	if err := w.publisher.PublishPrediction(ctx, result); err != nil {
		return fmt.Errorf("publish prediction for batch %s: %w", msg.ID, err)
	}

	if w.seen != nil {
		w.seen.Set(msg.ID, time.Now())
	}

	logger.WithFields(log.NewFields().WithDuration(time.Since(start))).
		InfoContext(ctx, "Batch processed", log.FieldRegular, len(regulars))
	return nil
}

func records(txs []core.DatedTransaction) []core.TransactionRecord {
	out := make([]core.TransactionRecord, len(txs))
	for i, tx := range txs {
		out[i] = tx.Record()
	}
	return out
}

func regularRecords(regulars []core.RegularTransaction) []core.RegularRecord {
	out := make([]core.RegularRecord, len(regulars))
	for i, r := range regulars {
		out[i] = r.Record()
	}
	return out
}
