package core

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a calendar step of years, months and days. Construct it with
// NewInterval or one of the named constructors; the zero value is reserved as
// the one-shot marker of RegularEvent.
type Interval struct {
	years  int
	months int
	days   int
}

// NewInterval validates the components. At least one must be positive and
// none may be negative.
func NewInterval(years, months, days int) (Interval, error) {
	if years < 0 || months < 0 || days < 0 {
		return Interval{}, fmt.Errorf("%w: interval components must not be negative (%d years, %d months, %d days)",
			ErrConfiguration, years, months, days)
	}
	if years == 0 && months == 0 && days == 0 {
		return Interval{}, fmt.Errorf("%w: interval has to be larger than 0 days", ErrConfiguration)
	}
	return Interval{years: years, months: months, days: days}, nil
}

// IntervalFromDays builds an exact-day interval from an elapsed day count.
func IntervalFromDays(days int) (Interval, error) {
	return NewInterval(0, 0, days)
}

// IntervalFromMonths builds a month based interval.
func IntervalFromMonths(months int) (Interval, error) {
	return NewInterval(0, months, 0)
}

// Monthly is one calendar month
func Monthly() Interval { return Interval{months: 1} }

// Quarterly is four months, matching how schedules have always been defined
// in existing rule files. See interval_test.go before changing it.
func Quarterly() Interval { return Interval{months: 4} }

// Yearly is one calendar year
func Yearly() Interval { return Interval{years: 1} }

func (i Interval) Years() int  { return i.years }
func (i Interval) Months() int { return i.months }
func (i Interval) Days() int   { return i.days }

// IsZero reports whether i is the one-shot marker.
func (i Interval) IsZero() bool {
	return i.years == 0 && i.months == 0 && i.days == 0
}

// AddTo advances d by i. Years and months are applied first and the day of
// month is clamped to the target month's length (Jan 31 + 1 month = Feb 28),
// then the day component is added.
func (i Interval) AddTo(d Date) Date {
	year, month, day := d.Time.Date()
	total := int(month) - 1 + i.months + 12*i.years
	year += total / 12
	month = time.Month(total%12 + 1)
	if last := daysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, int(month), day+i.days)
}

func (i Interval) String() string {
	var s []string
	if i.years > 0 {
		s = append(s, fmt.Sprintf("%d years", i.years))
	}
	if i.months > 0 {
		s = append(s, fmt.Sprintf("%d months", i.months))
	}
	if i.days > 0 {
		s = append(s, fmt.Sprintf("%d days", i.days))
	}
	if len(s) == 0 {
		return "once"
	}
	return "every " + strings.Join(s, " and ")
}
