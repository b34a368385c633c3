package core

import (
	"sort"
	"time"
)

// DayGroup bundles the records that share a calendar day, newest day first
// when produced by GroupByDay.
type DayGroup struct {
	Day          string `json:"day"` // "2006-01-02"
	Transactions []Transaction
	Income       float64 `json:"income"`  // sum of positive-signed records
	Expense      float64 `json:"expense"` // sum of negative-signed magnitudes
}

// GroupByDay buckets records by the calendar-day prefix of their date and
// returns the buckets newest first. Records with an unparsable date land in
// a single "" bucket, which sorts last, rather than being dropped.
func GroupByDay(records []Transaction) []DayGroup {
	buckets := make(map[string][]Transaction)
	for _, t := range records {
		buckets[dayKey(t.Date)] = append(buckets[dayKey(t.Date)], t)
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	groups := make([]DayGroup, 0, len(days))
	for _, d := range days {
		g := DayGroup{Day: d, Transactions: buckets[d]}
		for _, t := range g.Transactions {
			if s := t.Signed(); s >= 0 {
				g.Income += s
			} else {
				g.Expense += -s
			}
		}
		groups = append(groups, g)
	}
	return groups
}

func dayKey(date string) string {
	if _, err := time.Parse(DateLayout, date); err == nil {
		return date[:10]
	}
	if len(date) >= 10 {
		if _, err := time.Parse("2006-01-02", date[:10]); err == nil {
			return date[:10]
		}
	}
	return ""
}

// SumBalances totals the balance field across accounts. This is the
// dashboard figure: each balance is read independently, with no atomicity
// claim against in-flight mutations.
func SumBalances(accounts []Account) float64 {
	var total float64
	for _, a := range accounts {
		total += a.Balance
	}
	return total
}
