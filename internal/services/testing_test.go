package services

import (
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

type classifierFunc func(tx core.DatedTransaction) string

func (f classifierFunc) CategoryFor(tx core.DatedTransaction) string { return f(tx) }

func fixedCategory(name string) Classifier {
	return classifierFunc(func(tx core.DatedTransaction) string {
		if tx.Category != "" {
			return tx.Category
		}
		return name
	})
}

// series builds one transaction per gap, starting at start.
func series(party, desc string, amount float64, start core.Date, gaps ...int) []core.DatedTransaction {
	txs := []core.DatedTransaction{{
		PaymentParty: party,
		Date:         start,
		Amount:       decimal.NewFromFloat(amount),
		Description:  desc,
	}}
	current := start.Time
	for _, g := range gaps {
		current = current.AddDate(0, 0, g)
		txs = append(txs, core.DatedTransaction{
			PaymentParty: party,
			Date:         core.DateOf(current),
			Amount:       decimal.NewFromFloat(amount),
			Description:  desc,
		})
	}
	return txs
}

func monthly(party, desc string, amount float64, start core.Date, count int) []core.DatedTransaction {
	txs := make([]core.DatedTransaction, count)
	for i := range txs {
		txs[i] = core.DatedTransaction{
			PaymentParty: party,
			Date:         core.DateOf(start.Time.AddDate(0, i, 0)),
			Amount:       decimal.NewFromFloat(amount),
			Description:  desc,
		}
	}
	return txs
}
