package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRawTransactionParse(t *testing.T) {
	raw := RawTransaction{
		PaymentParty:   "  REWE Markt ",
		Date:           "2023-04-01",
		Amount:         "-23,45",
		Description:    "groceries",
		TypeOfTransfer: "card",
	}
	tx, err := raw.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tx.PaymentParty != "REWE Markt" {
		t.Errorf("PaymentParty = %q", tx.PaymentParty)
	}
	if !tx.Date.Equal(NewDate(2023, 4, 1)) {
		t.Errorf("Date = %v", tx.Date)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-23.45")) {
		t.Errorf("Amount = %v", tx.Amount)
	}
	if tx.TypeOfTransfer != "card" || tx.Category != "" {
		t.Errorf("TypeOfTransfer = %q, Category = %q", tx.TypeOfTransfer, tx.Category)
	}
}

func TestParseRawTransactions(t *testing.T) {
	rows := []RawTransaction{
		{PaymentParty: "A", Date: "2023-01-01", Amount: "1"},
		{PaymentParty: "B", Date: "2023-01-02", Amount: "lots"},
	}
	if _, err := ParseRawTransactions(rows); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("bad amount: error = %v", err)
	}

	rows[1].Amount = "2"
	rows[1].Date = "02.01.2023"
	if _, err := ParseRawTransactions(rows); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad date: error = %v", err)
	}

	rows[1].Date = "2023-01-02"
	txs, err := ParseRawTransactions(rows)
	if err != nil || len(txs) != 2 {
		t.Fatalf("ParseRawTransactions() = %v, %v", txs, err)
	}
}
