package services

import (
	"context"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/cluster"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
)

// PredictorOptions configure grouping and inference
type PredictorOptions struct {
	// MinSamples is the density threshold of both grouping passes
	MinSamples int
	// CounterpartyEps is the edit distance under which payment parties are alike
	CounterpartyEps float64
	// DescriptionEpsRatio scales the description eps by the mean description length
	DescriptionEpsRatio float64
	// MinDescriptionLength floors the mean description length used for eps
	MinDescriptionLength float64
	// DescriptionCutoff truncates descriptions before they are compared
	DescriptionCutoff int
	// Workers bounds how many groups are inferred concurrently
	Workers int
	Inferer InfererOptions
}

// DefaultPredictorOptions returns the standard prediction parameters
func DefaultPredictorOptions() PredictorOptions {
	return PredictorOptions{
		MinSamples:           3,
		CounterpartyEps:      3,
		DescriptionEpsRatio:  0.1,
		MinDescriptionLength: 10,
		DescriptionCutoff:    150,
		Workers:              runtime.GOMAXPROCS(0),
		Inferer:              DefaultInfererOptions(),
	}
}

func (o PredictorOptions) withDefaults() PredictorOptions {
	d := DefaultPredictorOptions()
	if o.MinSamples <= 0 {
		o.MinSamples = d.MinSamples
	}
	if o.CounterpartyEps <= 0 {
		o.CounterpartyEps = d.CounterpartyEps
	}
	if o.DescriptionEpsRatio <= 0 {
		o.DescriptionEpsRatio = d.DescriptionEpsRatio
	}
	if o.MinDescriptionLength <= 0 {
		o.MinDescriptionLength = d.MinDescriptionLength
	}
	if o.DescriptionCutoff <= 0 {
		o.DescriptionCutoff = d.DescriptionCutoff
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	o.Inferer = o.Inferer.withDefaults()
	return o
}

// Predictor turns a flat transaction history into recurring transaction models
type Predictor struct {
	inferer *RecurrenceInferer
	opts    PredictorOptions
}

// NewPredictor creates a predictor; zero options take their defaults
func NewPredictor(classifier Classifier, opts PredictorOptions) *Predictor {
	opts = opts.withDefaults()
	return &Predictor{
		inferer: NewRecurrenceInferer(classifier, opts.Inferer),
		opts:    opts,
	}
}

// Predict returns the recurring transactions found in txs, in group order.
// Irregular and undersized groups are left out. The input is not modified.
// When ctx ends before all groups are inferred, Predict returns ctx.Err()
// and no result.
func (p *Predictor) Predict(ctx context.Context, txs []core.DatedTransaction) ([]core.RegularTransaction, error) {
	inferences, err := p.Infer(ctx, txs)
	if err != nil {
		return nil, err
	}

	regulars := make([]core.RegularTransaction, 0, len(inferences))
	for _, inf := range inferences {
		if inf.Accepted() {
			regulars = append(regulars, inf.Regular)
		}
	}

	log.FromContext(ctx).WithComponent(log.ComponentPredictor).DebugContext(ctx, "Prediction complete",
		log.FieldTransactions, len(txs),
		"groups", len(inferences),
		log.FieldRegular, len(regulars))
	return regulars, nil
}

// Infer runs the regularity test on every candidate group and returns all
// outcomes, rejected ones included.
func (p *Predictor) Infer(ctx context.Context, txs []core.DatedTransaction) ([]Inference, error) {
	groups := p.Groups(txs)
	results := make([]Inference, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, group := range groups {
		if gctx.Err() != nil {
			break
		}
		i, group := i, group
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.inferer.Infer(gctx, group)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Groups splits txs into candidate recurring groups: first by similar
// payment party, then by similar description within each party group.
// Groups smaller than MinSamples are dropped.
func (p *Predictor) Groups(txs []core.DatedTransaction) [][]core.DatedTransaction {
	var groups [][]core.DatedTransaction
	for _, parties := range p.partyGroups(txs) {
		members := make(map[string]struct{}, len(parties))
		for _, party := range parties {
			members[party] = struct{}{}
		}

		var same []core.DatedTransaction
		for _, tx := range txs {
			if _, ok := members[tx.PaymentParty]; ok {
				same = append(same, tx)
			}
		}

		for _, idx := range p.descriptionClusters(same) {
			if len(idx) < p.opts.MinSamples {
				continue
			}
			group := make([]core.DatedTransaction, len(idx))
			for i, j := range idx {
				group[i] = same[j]
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// partyGroups clusters the distinct payment parties. Clusters come first in
// label order, unclustered parties follow on their own.
func (p *Predictor) partyGroups(txs []core.DatedTransaction) [][]string {
	var parties []string
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if _, ok := seen[tx.PaymentParty]; ok {
			continue
		}
		seen[tx.PaymentParty] = struct{}{}
		parties = append(parties, tx.PaymentParty)
	}

	labels := cluster.GroupBySimilarity(parties, p.opts.CounterpartyEps, p.opts.MinSamples)
	var out [][]string
	for _, idx := range cluster.Groups(labels) {
		group := make([]string, len(idx))
		for i, j := range idx {
			group[i] = parties[j]
		}
		out = append(out, group)
	}
	return out
}

// descriptionClusters clusters the descriptions of one party group. The eps
// grows with the mean description length.
func (p *Predictor) descriptionClusters(txs []core.DatedTransaction) [][]int {
	if len(txs) == 0 {
		return nil
	}
	descs := make([]string, len(txs))
	var total int
	for i, tx := range txs {
		total += utf8.RuneCountInString(tx.Description)
		descs[i] = truncate(tx.Description, p.opts.DescriptionCutoff)
	}
	meanLength := max(float64(total)/float64(len(txs)), p.opts.MinDescriptionLength)
	eps := p.opts.DescriptionEpsRatio * meanLength

	return cluster.Clusters(cluster.GroupBySimilarity(descs, eps, p.opts.MinSamples))
}
