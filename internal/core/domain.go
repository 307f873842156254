package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is appended to amounts in human readable output.
const CurrencySymbol = "Euro"

const (
	FieldPaymentParty   Field = "payment_party"
	FieldAmount         Field = "amount"
	FieldDescription    Field = "description"
	FieldDate           Field = "date"
	FieldCategory       Field = "category"
	FieldTypeOfTransfer Field = "type_of_transfer"
)

type (
	// Field names a transaction attribute that category rules can match against.
	Field string

	Date struct {
		time.Time
	}

	// DatedTransaction is a single booked (or synthesized) money movement.
	// Positive amounts are income, negative amounts are expenses.
	DatedTransaction struct {
		PaymentParty   string
		Date           Date
		Amount         decimal.Decimal
		Description    string
		Category       string // empty until classified
		TypeOfTransfer string
	}

	// RegularTransaction states that a counterparty pays or receives the same
	// amount on the schedule described by Frequency.
	RegularTransaction struct {
		PaymentParty string
		Frequency    RegularEvent
		Amount       decimal.Decimal
		Description  string
		Category     string
	}
)

var (
	// ErrConfiguration marks malformed rules, intervals and iteration bounds.
	// It is always returned to the caller and never recovered internally.
	ErrConfiguration = errors.New("configuration error")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Fields lists every field usable in category rules, in display order.
var Fields = []Field{
	FieldPaymentParty,
	FieldAmount,
	FieldDescription,
	FieldDate,
	FieldCategory,
	FieldTypeOfTransfer,
}

// ParseField returns the Field named s, or false when s is not recognized.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// NewDate creates a new Date from year, month, day.
// Out of range days and months are normalized the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the clock and location from t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// DaysSince returns the number of calendar days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.Time.Sub(o.Time).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return "<none>"
	}
	return d.Format(time.DateOnly)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Field returns the textual value of f as seen by category rules.
func (t DatedTransaction) Field(f Field) string {
	switch f {
	case FieldPaymentParty:
		return t.PaymentParty
	case FieldAmount:
		return t.Amount.String()
	case FieldDescription:
		return t.Description
	case FieldDate:
		return t.Date.String()
	case FieldCategory:
		return t.Category
	case FieldTypeOfTransfer:
		return t.TypeOfTransfer
	}
	return ""
}

// IsIncome reports whether money flows towards the account holder.
func (t DatedTransaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// WithCategory returns a copy of t labelled with category.
func (t DatedTransaction) WithCategory(category string) DatedTransaction {
	t.Category = category
	return t
}

func (t DatedTransaction) String() string {
	return fmt.Sprintf("%s: %s %s on %s", t.PaymentParty, t.Amount.String(), CurrencySymbol, t.Date)
}

// Iterate returns the concrete transactions of r inside [from, upTo).
func (r RegularTransaction) Iterate(from, upTo Date) (*TransactionIterator, error) {
	dates, err := r.Frequency.Iterate(from, upTo)
	if err != nil {
		return nil, err
	}
	return &TransactionIterator{template: r, dates: dates}, nil
}

// Transactions materializes Iterate.
func (r RegularTransaction) Transactions(from, upTo Date) ([]DatedTransaction, error) {
	it, err := r.Iterate(from, upTo)
	if err != nil {
		return nil, err
	}
	var out []DatedTransaction
	for t, ok := it.Next(); ok; t, ok = it.Next() {
		out = append(out, t)
	}
	return out, nil
}

func (r RegularTransaction) String() string {
	return fmt.Sprintf("%s: %s %s %s", r.PaymentParty, r.Amount.String(), CurrencySymbol, r.Frequency)
}

// TransactionIterator yields the dated transactions of a RegularTransaction.
type TransactionIterator struct {
	template RegularTransaction
	dates    *DateIterator
}

// Next returns the next transaction, or false once the window is exhausted.
func (it *TransactionIterator) Next() (DatedTransaction, bool) {
	d, ok := it.dates.Next()
	if !ok {
		return DatedTransaction{}, false
	}
	return DatedTransaction{
		PaymentParty: it.template.PaymentParty,
		Date:         d,
		Amount:       it.template.Amount,
		Description:  it.template.Description,
		Category:     it.template.Category,
	}, true
}
