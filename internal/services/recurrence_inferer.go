package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"budgetbook/internal/cluster"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
)

// Classifier assigns a category to a transaction
type Classifier interface {
	CategoryFor(tx core.DatedTransaction) string
}

// InferenceState is the progress of a single group through the regularity test
type InferenceState int

const (
	StateUnscored InferenceState = iota
	StateGapFiltered
	StateRejected
	StateIntervalFit
)

func (s InferenceState) String() string {
	switch s {
	case StateUnscored:
		return "UNSCORED"
	case StateGapFiltered:
		return "GAP_FILTERED"
	case StateRejected:
		return "REJECTED"
	case StateIntervalFit:
		return "INTERVAL_FIT"
	}
	return fmt.Sprintf("InferenceState(%d)", int(s))
}

// InfererOptions tune the regularity test
type InfererOptions struct {
	// MaxStdDevDays rejects groups whose inlier gaps spread more than this
	MaxStdDevDays float64
	// Neighbours is the neighbourhood size of the gap outlier filter
	Neighbours int
	// OutlierThreshold is the outlier factor above which a gap is discarded
	OutlierThreshold float64
	// DayIntervalLimit is the median gap (days) from which monthly intervals are used
	DayIntervalLimit int
	DaysPerMonth     int
	// SnippetLength bounds the last description quoted in the result
	SnippetLength int
}

// DefaultInfererOptions returns the standard regularity test parameters
func DefaultInfererOptions() InfererOptions {
	return InfererOptions{
		MaxStdDevDays:    4,
		Neighbours:       cluster.DefaultNeighbours,
		OutlierThreshold: cluster.DefaultOutlierThreshold,
		DayIntervalLimit: 25,
		DaysPerMonth:     30,
		SnippetLength:    100,
	}
}

func (o InfererOptions) withDefaults() InfererOptions {
	d := DefaultInfererOptions()
	if o.MaxStdDevDays <= 0 {
		o.MaxStdDevDays = d.MaxStdDevDays
	}
	if o.Neighbours <= 0 {
		o.Neighbours = d.Neighbours
	}
	if o.OutlierThreshold <= 0 {
		o.OutlierThreshold = d.OutlierThreshold
	}
	if o.DayIntervalLimit <= 0 {
		o.DayIntervalLimit = d.DayIntervalLimit
	}
	if o.DaysPerMonth <= 0 {
		o.DaysPerMonth = d.DaysPerMonth
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = d.SnippetLength
	}
	return o
}

// Inference is the outcome of testing one group for regularity.
// Regular is only meaningful in StateIntervalFit.
type Inference struct {
	State      InferenceState
	Reason     string
	Samples    int
	Gaps       []float64
	Inliers    []bool
	Outliers   int
	StdDevDays float64
	MedianDays float64
	Regular    core.RegularTransaction
}

// Accepted reports whether the group was recognised as recurring
func (i Inference) Accepted() bool {
	return i.State == StateIntervalFit
}

// RecurrenceInferer decides whether a group of similar transactions is periodic
type RecurrenceInferer struct {
	classifier Classifier
	opts       InfererOptions
}

// NewRecurrenceInferer creates an inferer; zero options take their defaults
func NewRecurrenceInferer(classifier Classifier, opts InfererOptions) *RecurrenceInferer {
	return &RecurrenceInferer{
		classifier: classifier,
		opts:       opts.withDefaults(),
	}
}

// Infer runs the regularity test on group. The input slice is not modified.
func (r *RecurrenceInferer) Infer(ctx context.Context, group []core.DatedTransaction) Inference {
	res := Inference{State: StateUnscored, Samples: len(group)}
	if len(group) == 0 {
		return r.reject(ctx, res, "empty group")
	}

	sorted := append([]core.DatedTransaction(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	res.Gaps = make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		res.Gaps = append(res.Gaps, float64(sorted[i].Date.DaysSince(sorted[i-1].Date)))
	}

	res.Inliers = r.filterGaps(res.Gaps)
	inliers := make([]float64, 0, len(res.Gaps))
	for i, ok := range res.Inliers {
		if ok {
			inliers = append(inliers, res.Gaps[i])
		} else {
			res.Outliers++
		}
	}
	res.StdDevDays = cluster.SampleStdDev(inliers)
	res.MedianDays = cluster.Median(inliers)
	res.State = StateGapFiltered

	if res.StdDevDays > r.opts.MaxStdDevDays {
		return r.reject(ctx, res, fmt.Sprintf("gap stddev %.2f days exceeds %.2f", res.StdDevDays, r.opts.MaxStdDevDays))
	}
	medianDays := int(math.Floor(res.MedianDays))
	if medianDays == 0 {
		return r.reject(ctx, res, "median gap is 0 days")
	}

	interval, err := r.intervalFor(medianDays)
	if err != nil {
		return r.reject(ctx, res, err.Error())
	}

	amounts := make([]decimal.Decimal, len(sorted))
	for i, tx := range sorted {
		amounts[i] = tx.Amount
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	category := ""
	if r.classifier != nil {
		category = r.classifier.CategoryFor(first)
	}

	res.Regular = core.RegularTransaction{
		PaymentParty: first.PaymentParty,
		Frequency:    core.NewRegularEvent(first.Date, interval),
		Amount:       core.MedianAmount(amounts),
		Description:  r.describe(res, last.Description),
		Category:     category,
	}
	res.State = StateIntervalFit

	log.FromContext(ctx).WithComponent(log.ComponentPredictor).DebugContext(ctx, "Recurring transaction inferred",
		log.FieldPaymentParty, first.PaymentParty,
		log.FieldInterval, interval.String(),
		log.FieldCategory, category,
		"samples", res.Samples,
		"outliers", res.Outliers)
	return res
}

// filterGaps marks the gaps kept by the local outlier factor. Fewer than two
// gaps cannot be compared and are all kept.
func (r *RecurrenceInferer) filterGaps(gaps []float64) []bool {
	if len(gaps) < 2 {
		mask := make([]bool, len(gaps))
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	k := r.opts.Neighbours
	if k > len(gaps) {
		k = len(gaps)
	}
	return cluster.Inliers(gaps, k, r.opts.OutlierThreshold)
}

func (r *RecurrenceInferer) intervalFor(medianDays int) (core.Interval, error) {
	if medianDays < r.opts.DayIntervalLimit {
		return core.IntervalFromDays(medianDays)
	}
	months := int(math.RoundToEven(float64(medianDays) / float64(r.opts.DaysPerMonth)))
	return core.IntervalFromMonths(months)
}

func (r *RecurrenceInferer) describe(res Inference, lastDescription string) string {
	return fmt.Sprintf("Stddev of interval is +/- %d days.\nBased on %d samples with %d outliers.\nLast transaction description:\n%s[...]",
		int(math.Floor(res.StdDevDays)),
		res.Samples,
		res.Outliers,
		truncate(lastDescription, r.opts.SnippetLength))
}

func (r *RecurrenceInferer) reject(ctx context.Context, res Inference, reason string) Inference {
	res.State = StateRejected
	res.Reason = reason
	log.FromContext(ctx).WithComponent(log.ComponentPredictor).DebugContext(ctx, "Group rejected as irregular",
		"samples", res.Samples,
		"reason", reason)
	return res
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
