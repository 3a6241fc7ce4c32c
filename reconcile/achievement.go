package reconcile

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"github.com/shopspring/decimal"
)

// Period is a half-open calendar range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

var monthToken = regexp.MustCompile(`\d{1,2}`)

// ParseTargetMonths extracts the calendar months named in a target_months
// field. The field is free text ("01,02,03", "Q1 - 01 02 03", ...); every
// numeric token in 1..12 counts, duplicates collapse.
func ParseTargetMonths(s string) []time.Month {
	seen := make(map[time.Month]bool)
	var months []time.Month
	for _, token := range monthToken.FindAllString(s, -1) {
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > 12 {
			continue
		}
		m := time.Month(n)
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	return months
}

// QuarterPeriods maps the given months onto the calendar quarters of a year
// and returns one explicit date range per covered quarter. This replaces the
// source system's month-number substring bucketing with a real calendar
// computation; under set semantics the two divergent orderings it used are
// indistinguishable.
func QuarterPeriods(year int, months []time.Month) []Period {
	covered := [4]bool{}
	for _, m := range months {
		covered[(int(m)-1)/3] = true
	}

	var periods []Period
	for q := 0; q < 4; q++ {
		if !covered[q] {
			continue
		}
		start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		periods = append(periods, Period{Start: start, End: start.AddDate(0, 3, 0)})
	}
	return periods
}

// invoiceDateLayouts covers the formats the external project stores in
// date_order.
var invoiceDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseInvoiceDate(s string) (time.Time, bool) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SumInvoicesInPeriods totals amount_total over invoices whose date_order
// falls inside any of the periods. Invoices with unparseable dates are
// excluded rather than failing the computation.
func SumInvoicesInPeriods(invoices []ExternalInvoiceRecord, periods []Period) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		t, ok := parseInvoiceDate(inv.DateOrder)
		if !ok {
			continue
		}
		for _, p := range periods {
			if p.Contains(t) {
				total = total.Add(inv.AmountTotal)
				break
			}
		}
	}
	return total
}

// CalculateAchievement sums the matched customer's invoiced amounts within
// the quarters implied by targetMonths. Zero (not an error) is the result
// both for "no invoices in the period" and for an unavailable external
// service; failures are logged and the caller may simply retry.
func (s *Service) CalculateAchievement(ctx context.Context, customerName string, targetMonths string, year int) decimal.Decimal {
	periods := QuarterPeriods(year, ParseTargetMonths(targetMonths))
	if len(periods) == 0 {
		return decimal.Zero
	}

	invoices, err := s.fetchInvoices(ctx, customerName)
	if err != nil {
		config.LogError(s.logger, moduleName, "CalculateAchievement", "invoice fetch failed", customerName, err)
		return decimal.Zero
	}
	return SumInvoicesInPeriods(invoices, periods)
}

// AchievementPercent expresses achieved against target as a percentage,
// rounded to two places. A zero or missing target yields zero.
func AchievementPercent(achieved decimal.Decimal, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	return achieved.Div(target).Mul(decimal.NewFromInt(100)).Round(2)
}
