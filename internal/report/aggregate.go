package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finreport/internal/core"
)

// trendLabelFormat renders a trend day as day/month.
const trendLabelFormat = "02/01"

var hundred = decimal.NewFromInt(100)

func inWindow(d, from, to time.Time) bool {
	d = core.Day(d)
	return !d.Before(from) && !d.After(to)
}

// PeriodTotals sums income and expense amounts over the inclusive window
// [monthStart, asOf]. An empty window yields zero totals, not an error.
func PeriodTotals(txs []core.Transaction, monthStart, asOf time.Time) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, tx := range txs {
		if !inWindow(tx.Date, monthStart, asOf) {
			continue
		}
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// DailyTrend builds the expense series over the inclusive window
// [asOf-(windowDays-1), asOf]. Every day appears exactly once, oldest
// first, with an explicit zero for days without expenses. Values are in
// the base currency; display conversion happens per day downstream.
func DailyTrend(txs []core.Transaction, asOf time.Time, windowDays int) []TrendPoint {
	asOf = core.Day(asOf)
	start := asOf.AddDate(0, 0, -(windowDays - 1))

	perDay := make(map[string]decimal.Decimal, windowDays)
	for _, tx := range txs {
		if tx.Kind != core.Expense || !inWindow(tx.Date, start, asOf) {
			continue
		}
		key := core.Day(tx.Date).Format("2006-01-02")
		perDay[key] = perDay[key].Add(tx.Amount)
	}

	points := make([]TrendPoint, 0, windowDays)
	for day := start; !day.After(asOf); day = day.AddDate(0, 0, 1) {
		points = append(points, TrendPoint{
			Label: day.Format(trendLabelFormat),
			Value: perDay[day.Format("2006-01-02")],
		})
	}
	return points
}

// CategoryBreakdown groups expense transactions in [monthStart, asOf] by
// category label and computes each group's percentage of the period's total
// expense, rounded to the nearest integer. A zero total yields all-zero
// percentages. Rows are ordered by descending amount, ties by label.
func CategoryBreakdown(txs []core.Transaction, monthStart, asOf time.Time) []BreakdownRow {
	perLabel := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Kind != core.Expense || !inWindow(tx.Date, monthStart, asOf) {
			continue
		}
		label := tx.Category
		if label == "" {
			label = UncategorisedLabel
		}
		perLabel[label] = perLabel[label].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	rows := make([]BreakdownRow, 0, len(perLabel))
	for label, amount := range perLabel {
		percent := 0
		if total.IsPositive() {
			percent = int(amount.Mul(hundred).Div(total).Round(0).IntPart())
		}
		rows = append(rows, BreakdownRow{Label: label, Amount: amount, Percent: percent})
	}

	sort.Slice(rows, func(i, j int) bool {
		if cmp := rows[i].Amount.Cmp(rows[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// SpendByCategory sums expenses per category id over [monthStart, asOf].
// Used by the insight engine to match spending against category budgets.
func SpendByCategory(txs []core.Transaction, monthStart, asOf time.Time) map[int64]decimal.Decimal {
	spend := make(map[int64]decimal.Decimal)
	for _, tx := range txs {
		if tx.Kind != core.Expense || !inWindow(tx.Date, monthStart, asOf) {
			continue
		}
		spend[tx.CategoryID] = spend[tx.CategoryID].Add(tx.Amount)
	}
	return spend
}

// DailyBudgetLine projects the overall monthly budget as a flat per-day
// reference line of windowDays entries: budget divided evenly by the
// calendar days of its month. Returns nil when the budget is absent or not
// positive.
func DailyBudgetLine(budget decimal.Decimal, month time.Time, windowDays int) []decimal.Decimal {
	if !budget.IsPositive() {
		return nil
	}
	perDay := budget.Div(decimal.NewFromInt(int64(core.DaysInMonth(month)))).Round(2)
	line := make([]decimal.Decimal, windowDays)
	for i := range line {
		line[i] = perDay
	}
	return line
}
