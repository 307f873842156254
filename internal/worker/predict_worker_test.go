package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/rules"
	"budgetbook/internal/services"
)

type fakePublisher struct {
	published []*amqp.PredictionMessage
	err       error
}

func (f *fakePublisher) PublishPrediction(ctx context.Context, msg *amqp.PredictionMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type predictorFunc func(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error)

func (f predictorFunc) Predict(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
	return f(ctx, txs)
}

func testRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.NewRuleSet([]rules.Definition{
		{Name: "housing", Tree: map[string]any{"payment_party": []any{"landlord"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return rs
}

func rentBatch() *amqp.TransactionBatchMessage {
	var rows []core.RawTransaction
	for m := 1; m <= 12; m++ {
		rows = append(rows, core.RawTransaction{
			PaymentParty: "Landlord Property GmbH",
			Date:         core.NewDate(2023, m, 1).String(),
			Amount:       "-950,00",
			Description:  "Rent flat 3B",
		})
	}
	rows = append(rows, core.RawTransaction{
		PaymentParty: "Bakery", Date: "2023-03-04", Amount: "-3.20", Description: "Croissants",
	})
	return &amqp.TransactionBatchMessage{ID: "batch-1", Transactions: rows, Timestamp: time.Now()}
}

func TestPredictWorker_HandleBatch(t *testing.T) {
	rs := testRules(t)
	pub := &fakePublisher{}
	seen := cache.NewLRUCache[time.Time](10, time.Hour)
	w := NewPredictWorker(rs, services.NewPredictor(rs, services.PredictorOptions{}), pub, seen, 5*time.Second)

	if err := w.HandleBatch(context.Background(), rentBatch()); err != nil {
		t.Fatalf("HandleBatch() error = %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}

	msg := pub.published[0]
	if msg.BatchID != "batch-1" {
		t.Errorf("BatchID = %q", msg.BatchID)
	}
	if len(msg.Categorized) != 13 {
		t.Fatalf("Categorized = %d records, want 13", len(msg.Categorized))
	}
	if msg.Categorized[0].Category != "housing" || msg.Categorized[12].Category != rules.DefaultUnknownPayment {
		t.Errorf("categories = %q, %q", msg.Categorized[0].Category, msg.Categorized[12].Category)
	}
	if len(msg.Regular) != 1 {
		t.Fatalf("Regular = %v, want one rent entry", msg.Regular)
	}
	if msg.Regular[0].Category != "housing" || msg.Regular[0].Frequency != "every 1 months starting from 2023-01-01" {
		t.Errorf("Regular[0] = %+v", msg.Regular[0])
	}
}

func TestPredictWorker_SkipsDuplicates(t *testing.T) {
	rs := testRules(t)
	pub := &fakePublisher{}
	calls := 0
	predictor := predictorFunc(func(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
		calls++
		return nil, nil
	})
	w := NewPredictWorker(rs, predictor, pub, cache.NewLRUCache[time.Time](10, time.Hour), 0)

	for i := 0; i < 3; i++ {
		if err := w.HandleBatch(context.Background(), rentBatch()); err != nil {
			t.Fatalf("HandleBatch() #%d error = %v", i, err)
		}
	}
	if calls != 1 || len(pub.published) != 1 {
		t.Errorf("predict calls = %d, published = %d, want 1 and 1", calls, len(pub.published))
	}
}

func TestPredictWorker_Errors(t *testing.T) {
	rs := testRules(t)
	okPredictor := predictorFunc(func(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
		return nil, nil
	})

	t.Run("malformed row is permanent", func(t *testing.T) {
		batch := rentBatch()
		batch.Transactions[3].Amount = "a lot"
		w := NewPredictWorker(rs, okPredictor, &fakePublisher{}, nil, 0)

		err := w.HandleBatch(context.Background(), batch)
		if !errors.Is(err, amqp.ErrPermanent) || !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("HandleBatch() error = %v, want permanent invalid amount", err)
		}
	})

	t.Run("prediction timeout is retried", func(t *testing.T) {
		slow := predictorFunc(func(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		w := NewPredictWorker(rs, slow, &fakePublisher{}, nil, 10*time.Millisecond)

		err := w.HandleBatch(context.Background(), rentBatch())
		if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, amqp.ErrPermanent) {
			t.Errorf("HandleBatch() error = %v, want retryable deadline error", err)
		}
	})

	t.Run("publish failure leaves batch unmarked", func(t *testing.T) {
		seen := cache.NewLRUCache[time.Time](10, time.Hour)
		pub := &fakePublisher{err: errors.New("connection closed")}
		w := NewPredictWorker(rs, okPredictor, pub, seen, 0)

		if err := w.HandleBatch(context.Background(), rentBatch()); err == nil {
			t.Fatal("HandleBatch() error = nil, want publish error")
		}
		if _, ok := seen.Get("batch-1"); ok {
			t.Error("failed batch recorded as processed")
		}
	})
}

func TestPredictWorker_LogsBatchFields(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentAMQP, Format: "json", Output: &buf})
	ctx := log.NewContext(context.Background(), logger)

	predictor := predictorFunc(func(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
		if got := log.FromContext(ctx).Component(); got != log.ComponentWorker {
			t.Errorf("predictor logger component = %q, want %q", got, log.ComponentWorker)
		}
		return nil, nil
	})
	w := NewPredictWorker(testRules(t), predictor, &fakePublisher{}, nil, time.Second)
	if err := w.HandleBatch(ctx, rentBatch()); err != nil {
		t.Fatalf("HandleBatch() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	want := map[string]any{
		"msg":                 "Batch processed",
		log.FieldComponent:    log.ComponentWorker,
		log.FieldOperation:    log.OpPredict,
		log.FieldBatchID:      "batch-1",
		log.FieldTransactions: float64(13),
		log.FieldRegular:      float64(0),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry[log.FieldDuration]; !ok {
		t.Errorf("missing %s in %v", log.FieldDuration, entry)
	}
}
