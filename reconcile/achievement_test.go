package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTargetMonths(t *testing.T) {
	cases := []struct {
		in   string
		want []time.Month
	}{
		{"01,02,03", []time.Month{time.January, time.February, time.March}},
		{"Q1 - 01 02 03", []time.Month{time.January, time.February, time.March}},
		{"04/05/06", []time.Month{time.April, time.May, time.June}},
		{"01,01,02", []time.Month{time.January, time.February}},
		{"13,00,99", nil},
		{"", nil},
	}
	for _, c := range cases {
		got := ParseTargetMonths(c.in)
		if len(got) != len(c.want) {
			t.Errorf("ParseTargetMonths(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("ParseTargetMonths(%q) = %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}

func TestQuarterPeriods(t *testing.T) {
	periods := QuarterPeriods(2024, []time.Month{time.January, time.March})
	if len(periods) != 1 {
		t.Fatalf("expected one quarter, got %d", len(periods))
	}
	q1 := periods[0]
	if !q1.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Q1 start = %v", q1.Start)
	}
	if !q1.End.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Q1 end = %v", q1.End)
	}

	// Half-open: the last instant of March is in, April 1st is out.
	if !q1.Contains(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("end of March must be inside Q1")
	}
	if q1.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("April 1st must be outside Q1")
	}

	// Months spanning two quarters yield two ranges.
	periods = QuarterPeriods(2024, []time.Month{time.March, time.April})
	if len(periods) != 2 {
		t.Fatalf("expected two quarters, got %d", len(periods))
	}
}

func TestSumInvoicesInPeriods(t *testing.T) {
	periods := QuarterPeriods(2024, []time.Month{time.January})
	invoices := []ExternalInvoiceRecord{
		{DateOrder: "2024-01-15 10:30:00", AmountTotal: decimal.NewFromInt(1000)},
		{DateOrder: "2024-02-28", AmountTotal: decimal.NewFromInt(250)},
		{DateOrder: "2024-04-01 00:00:00", AmountTotal: decimal.NewFromInt(9999)},
		{DateOrder: "not a date", AmountTotal: decimal.NewFromInt(50)},
	}

	total := SumInvoicesInPeriods(invoices, periods)
	if !total.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("expected 1250, got %s", total)
	}
}

func TestSumInvoicesInPeriodsEmpty(t *testing.T) {
	periods := QuarterPeriods(2024, []time.Month{time.July})
	total := SumInvoicesInPeriods(nil, periods)
	if !total.IsZero() {
		t.Fatalf("expected zero for no invoices, got %s", total)
	}

	// Invoices exist but none inside the bucketed period.
	invoices := []ExternalInvoiceRecord{
		{DateOrder: "2024-01-15 10:30:00", AmountTotal: decimal.NewFromInt(1000)},
	}
	total = SumInvoicesInPeriods(invoices, periods)
	if !total.IsZero() {
		t.Fatalf("expected zero outside the period, got %s", total)
	}
}

func TestAchievementPercent(t *testing.T) {
	pct := AchievementPercent(decimal.NewFromInt(250), decimal.NewFromInt(1000))
	if !pct.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25, got %s", pct)
	}
	if !AchievementPercent(decimal.NewFromInt(10), decimal.Zero).IsZero() {
		t.Fatal("zero target must yield zero percent")
	}
}
