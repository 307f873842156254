package core

import "fmt"

// RegularEvent describes when something happens: once on First when Every is
// the zero Interval, otherwise on First and every Every after it, optionally
// bounded by Last (inclusive).
type RegularEvent struct {
	First Date
	Every Interval
	Last  Date
}

// NewRegularEvent creates an open-ended repeating event.
func NewRegularEvent(first Date, every Interval) RegularEvent {
	return RegularEvent{First: first, Every: every}
}

// OneShot creates an event occurring exactly once.
func OneShot(on Date) RegularEvent {
	return RegularEvent{First: on}
}

func (e RegularEvent) IsOneShot() bool {
	return e.Every.IsZero()
}

// WithFirst, WithEvery and WithLast return modified copies; an iterator
// already handed out keeps the snapshot it was created from.
func (e RegularEvent) WithFirst(d Date) RegularEvent {
	e.First = d
	return e
}

func (e RegularEvent) WithEvery(i Interval) RegularEvent {
	e.Every = i
	return e
}

func (e RegularEvent) WithLast(d Date) RegularEvent {
	e.Last = d
	return e
}

// Iterate returns a cursor over the occurrences d with from <= d < upTo
// (and d <= Last when Last is set). Iteration always starts at First, so
// occurrences before from are stepped over rather than shifted.
func (e RegularEvent) Iterate(from, upTo Date) (*DateIterator, error) {
	if upTo.IsZero() {
		return nil, fmt.Errorf("%w: no end date specified for regular event", ErrConfiguration)
	}
	if from.IsZero() {
		return nil, fmt.Errorf("%w: no start date specified for regular event", ErrConfiguration)
	}
	if e.First.IsZero() {
		return nil, fmt.Errorf("%w: regular event has no first occurrence", ErrConfiguration)
	}
	return &DateIterator{event: e, from: from, upTo: upTo, cursor: e.First}, nil
}

// Dates materializes Iterate.
func (e RegularEvent) Dates(from, upTo Date) ([]Date, error) {
	it, err := e.Iterate(from, upTo)
	if err != nil {
		return nil, err
	}
	var out []Date
	for d, ok := it.Next(); ok; d, ok = it.Next() {
		out = append(out, d)
	}
	return out, nil
}

func (e RegularEvent) String() string {
	switch {
	case e.IsOneShot():
		return fmt.Sprintf("on %s", e.First)
	case e.Last.IsZero():
		return fmt.Sprintf("%s starting from %s", e.Every, e.First)
	default:
		return fmt.Sprintf("%s from %s to %s", e.Every, e.First, e.Last)
	}
}

// DateIterator is a single pass cursor over a RegularEvent. Call Iterate
// again to restart.
type DateIterator struct {
	event  RegularEvent
	from   Date
	upTo   Date
	cursor Date
	done   bool
}

// Next returns the next occurrence, or false once the window is exhausted.
func (it *DateIterator) Next() (Date, bool) {
	for !it.done {
		current := it.cursor
		if it.event.IsOneShot() {
			it.done = true
		} else {
			it.cursor = it.event.Every.AddTo(current)
		}

		if !current.Before(it.upTo) || (!it.event.Last.IsZero() && current.After(it.event.Last)) {
			it.done = true
			break
		}
		if current.Before(it.from) {
			continue
		}
		return current, true
	}
	return Date{}, false
}
