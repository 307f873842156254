package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"budgetbook/internal/core"
)

// TransactionBatchMessage carries statement rows to be categorized and
// scanned for recurring transactions
type TransactionBatchMessage struct {
	ID           string                `json:"id"`
	Transactions []core.RawTransaction `json:"transactions"`
	Timestamp    time.Time             `json:"timestamp"`
}

// PredictionMessage is the answer to a TransactionBatchMessage
type PredictionMessage struct {
	ID          string                   `json:"id"`
	BatchID     string                   `json:"batch_id"`
	Categorized []core.TransactionRecord `json:"categorized"`
	Regular     []core.RegularRecord     `json:"regular"`
	Timestamp   time.Time                `json:"timestamp"`
}

// NewTransactionBatchMessage creates a batch with a fresh id
func NewTransactionBatchMessage(rows []core.RawTransaction) *TransactionBatchMessage {
	return &TransactionBatchMessage{
		ID:           uuid.NewString(),
		Transactions: rows,
		Timestamp:    time.Now(),
	}
}

// NewPredictionMessage creates the result message for batchID
func NewPredictionMessage(batchID string, categorized []core.TransactionRecord, regular []core.RegularRecord) *PredictionMessage {
	if categorized == nil {
		categorized = []core.TransactionRecord{}
	}
	if regular == nil {
		regular = []core.RegularRecord{}
	}
	return &PredictionMessage{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		Categorized: categorized,
		Regular:     regular,
		Timestamp:   time.Now(),
	}
}

// Validate checks the fields a worker relies on
func (m *TransactionBatchMessage) Validate() error {
	if m.ID == "" {
		return errors.New("batch id is required")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionBatchMessageFromJSON decodes and validates a batch
func TransactionBatchMessageFromJSON(data []byte) (*TransactionBatchMessage, error) {
	var msg TransactionBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *PredictionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PredictionMessageFromJSON decodes a prediction result
func PredictionMessageFromJSON(data []byte) (*PredictionMessage, error) {
	var msg PredictionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
