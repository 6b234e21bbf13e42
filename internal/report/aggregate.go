// Package report computes aggregates over in-memory transaction
// snapshots. It never touches the store; callers fetch and filter.
package report

import (
	"errors"
	"sort"
	"time"

	"fincontrol/internal/money"
	"fincontrol/internal/repo"
)

// ErrNoTransactions is the designated empty-result sentinel. Callers
// render a distinct "no transactions" message instead of a zeroed
// summary.
var ErrNoTransactions = errors.New("no transactions")

// Trend marks the balance direction of a summary.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// CategoryTotal is one entry of a ranked category breakdown. Amounts
// are absolute centavos.
type CategoryTotal struct {
	Name        string
	AmountCents int64
	Count       int
}

// Summary holds the aggregate totals for a set of transactions. All
// amounts are non-negative centavos except BalanceCents, which is
// income minus expense.
type Summary struct {
	IncomeCents     int64
	IncomeCount     int
	ExpenseCents    int64
	ExpenseCount    int
	BalanceCents    int64
	AvgIncomeCents  int64
	AvgExpenseCents int64
	Trend           Trend
	TopCategories   []CategoryTotal
}

// SignFilter selects which transactions feed the category breakdown.
type SignFilter int

const (
	// ExpensesOnly ranks spending categories, the default chat view.
	ExpensesOnly SignFilter = iota
	// AllTransactions ranks every category by absolute amount.
	AllTransactions
)

const topCategoryLimit = 5

// Aggregate computes totals, counts, averages and the top-5 category
// breakdown for txs. Returns ErrNoTransactions on empty input.
func Aggregate(txs []repo.Transaction, filter SignFilter) (*Summary, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	s := &Summary{}
	for _, t := range txs {
		if t.AmountCents > 0 {
			s.IncomeCents += t.AmountCents
			s.IncomeCount++
		} else if t.AmountCents < 0 {
			s.ExpenseCents += -t.AmountCents
			s.ExpenseCount++
		}
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents
	if s.IncomeCount > 0 {
		s.AvgIncomeCents = s.IncomeCents / int64(s.IncomeCount)
	}
	if s.ExpenseCount > 0 {
		s.AvgExpenseCents = s.ExpenseCents / int64(s.ExpenseCount)
	}
	switch {
	case s.BalanceCents > 0:
		s.Trend = TrendUp
	case s.BalanceCents < 0:
		s.Trend = TrendDown
	default:
		s.Trend = TrendFlat
	}
	s.TopCategories = rankCategories(txs, filter, topCategoryLimit)
	return s, nil
}

// rankCategories groups by category name summing absolute amounts,
// sorted descending. Ties keep first-seen input order.
func rankCategories(txs []repo.Transaction, filter SignFilter, limit int) []CategoryTotal {
	totals := map[string]*CategoryTotal{}
	var order []string
	for _, t := range txs {
		if filter == ExpensesOnly && t.AmountCents >= 0 {
			continue
		}
		entry, ok := totals[t.Category]
		if !ok {
			entry = &CategoryTotal{Name: t.Category}
			totals[t.Category] = entry
			order = append(order, t.Category)
		}
		entry.AmountCents += money.Abs(t.AmountCents)
		entry.Count++
	}

	ranked := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, *totals[name])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AmountCents > ranked[j].AmountCents
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MonthTotal is the spend of one calendar month, labelled in
// Portuguese.
type MonthTotal struct {
	Year        int
	Month       time.Month
	Label       string
	AmountCents int64
}

// CategorySummary aggregates a single category across its full
// history: totals, averages, the most recent amount and a per-month
// breakdown sorted chronologically.
type CategorySummary struct {
	TotalCents      int64
	Count           int
	AvgCents        int64
	LastAmountCents int64
	Months          []MonthTotal
}

// AggregateCategory summarises txs, which must all belong to one
// category and be ordered by date descending (most recent first).
// Returns ErrNoTransactions on empty input.
func AggregateCategory(txs []repo.Transaction) (*CategorySummary, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	s := &CategorySummary{
		Count:           len(txs),
		LastAmountCents: money.Abs(txs[0].AmountCents),
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	totals := map[monthKey]int64{}
	for _, t := range txs {
		abs := money.Abs(t.AmountCents)
		s.TotalCents += abs
		key := monthKey{t.Date.Year(), t.Date.Month()}
		totals[key] += abs
	}
	s.AvgCents = s.TotalCents / int64(s.Count)

	for key, cents := range totals {
		s.Months = append(s.Months, MonthTotal{
			Year:        key.year,
			Month:       key.month,
			Label:       money.MonthNamePT(time.Date(key.year, key.month, 1, 0, 0, 0, 0, time.UTC)),
			AmountCents: cents,
		})
	}
	sort.Slice(s.Months, func(i, j int) bool {
		if s.Months[i].Year != s.Months[j].Year {
			return s.Months[i].Year < s.Months[j].Year
		}
		return s.Months[i].Month < s.Months[j].Month
	})
	return s, nil
}
