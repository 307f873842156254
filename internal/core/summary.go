package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the flat export shape of a DatedTransaction.
type TransactionRecord struct {
	PaymentParty   string          `json:"payment_party"`
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	TypeOfTransfer string          `json:"type_of_transfer,omitempty"`
}

// RegularRecord is the flat export shape of a RegularTransaction.
type RegularRecord struct {
	PaymentParty string          `json:"payment_party"`
	Frequency    string          `json:"frequency"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
}

func (t DatedTransaction) Record() TransactionRecord {
	return TransactionRecord{
		PaymentParty:   t.PaymentParty,
		Date:           t.Date.String(),
		Amount:         t.Amount,
		Description:    t.Description,
		Category:       t.Category,
		TypeOfTransfer: t.TypeOfTransfer,
	}
}

func (r RegularTransaction) Record() RegularRecord {
	return RegularRecord{
		PaymentParty: r.PaymentParty,
		Frequency:    r.Frequency.String(),
		Amount:       r.Amount,
		Description:  r.Description,
		Category:     r.Category,
	}
}

// Expand lists every occurrence of regulars inside [from, upTo), ordered by
// date. Occurrences on the same day keep the order of regulars.
func Expand(regulars []RegularTransaction, from, upTo Date) ([]DatedTransaction, error) {
	var out []DatedTransaction
	for _, r := range regulars {
		txs, err := r.Transactions(from, upTo)
		if err != nil {
			return nil, err
		}
		out = append(out, txs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// RawTransaction is a statement row as handed over by importers. Amounts may
// use a comma decimal separator and dates are YYYY-MM-DD.
type RawTransaction struct {
	PaymentParty   string `json:"payment_party"`
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	Category       string `json:"category,omitempty"`
	TypeOfTransfer string `json:"type_of_transfer,omitempty"`
}

// Parse converts the row to a DatedTransaction.
func (r RawTransaction) Parse() (DatedTransaction, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return DatedTransaction{}, err
	}
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return DatedTransaction{}, fmt.Errorf("%w: %q", err, r.Amount)
	}
	return DatedTransaction{
		PaymentParty:   strings.TrimSpace(r.PaymentParty),
		Date:           date,
		Amount:         amount,
		Description:    r.Description,
		Category:       r.Category,
		TypeOfTransfer: r.TypeOfTransfer,
	}, nil
}

// ParseRawTransactions converts rows in order and stops at the first bad row.
func ParseRawTransactions(rows []RawTransaction) ([]DatedTransaction, error) {
	out := make([]DatedTransaction, 0, len(rows))
	for i, r := range rows {
		tx, err := r.Parse()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, tx)
	}
	return out, nil
}
