package services

import "budgetbook/internal/core"

// Categorize returns copies of txs with a category assigned to each one.
// Categories already present are kept.
func Categorize(classifier Classifier, txs []core.DatedTransaction) []core.DatedTransaction {
	out := make([]core.DatedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = tx.WithCategory(classifier.CategoryFor(tx))
	}
	return out
}
