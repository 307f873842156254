package core

import "github.com/shopspring/decimal"

// Schedule is a reusable template for hand-written budgets: every value
// emitted from it is an independent copy, so changing a Schedule after
// emitting never alters transactions created earlier.
type Schedule struct {
	First    Date
	Last     Date
	Every    Interval
	Category string
}

// Event returns the recurrence described by s.
func (s Schedule) Event() RegularEvent {
	return RegularEvent{First: s.First, Every: s.Every, Last: s.Last}
}

// Regular emits a regular transaction following s.
func (s Schedule) Regular(party string, amount decimal.Decimal, desc string) RegularTransaction {
	return RegularTransaction{
		PaymentParty: party,
		Frequency:    s.Event(),
		Amount:       amount,
		Description:  desc,
		Category:     s.Category,
	}
}

// Dated emits a one-off transaction carrying the category of s.
func (s Schedule) Dated(party string, amount decimal.Decimal, on Date, desc string) DatedTransaction {
	return DatedTransaction{
		PaymentParty: party,
		Date:         on,
		Amount:       amount,
		Description:  desc,
		Category:     s.Category,
	}
}
