package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestScheduleEmitsIndependentCopies(t *testing.T) {
	s := Schedule{First: NewDate(2022, 1, 1), Last: NewDate(2023, 1, 1), Every: Monthly(), Category: "Appartment"}
	rent := s.Regular("Rent", decimal.NewFromInt(-1000), "Rent for appartment XY")

	s.Every = Yearly()
	s.Category = "Insurance"
	car := s.Regular("Car Insurance", decimal.NewFromInt(-200), "Insurance for Car XY")

	if rent.Category != "Appartment" || rent.Frequency.Every != Monthly() {
		t.Fatalf("earlier emission changed: %+v", rent)
	}
	if car.Category != "Insurance" || car.Frequency.Every != Yearly() {
		t.Fatalf("unexpected emission: %+v", car)
	}

	one := s.Dated("Car Dealership", decimal.NewFromInt(-1200), NewDate(2022, 4, 27), "Car repair for XY")
	if one.Category != "Insurance" || !one.Date.Equal(NewDate(2022, 4, 27)) {
		t.Fatalf("unexpected dated transaction: %+v", one)
	}
}

func TestExpandOrdersByDate(t *testing.T) {
	s := Schedule{First: NewDate(2022, 1, 1), Every: Monthly(), Category: "Salary"}
	salary := s.Regular("Corporation", decimal.NewFromInt(3000), "Salary")
	s = Schedule{First: NewDate(2022, 1, 15), Every: Monthly(), Category: "Appartment"}
	rent := s.Regular("Rent", decimal.NewFromInt(-1000), "Rent")

	txs, err := Expand([]RegularTransaction{rent, salary}, NewDate(2022, 1, 1), NewDate(2022, 4, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 6 {
		t.Fatalf("expected 6 transactions, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Before(txs[i-1].Date) {
			t.Fatalf("not sorted at %d: %v", i, txs)
		}
	}
	if txs[0].PaymentParty != "Corporation" || txs[1].PaymentParty != "Rent" {
		t.Fatalf("unexpected order: %v", txs)
	}
}
