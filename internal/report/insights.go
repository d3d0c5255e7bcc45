package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finreport/internal/core"
)

// warnThreshold and nearThreshold are percent-used cutoffs for the overall
// and category rules respectively.
var (
	warnThreshold = decimal.NewFromInt(90)
	nearThreshold = decimal.NewFromInt(80)
)

// categoryUsage is the explicit candidate record for the top-category rule.
type categoryUsage struct {
	label   string
	percent decimal.Decimal // exact percent-used, unrounded
	spent   decimal.Decimal
	budget  decimal.Decimal
}

// EvaluateInsights runs the two budget rule groups against month-to-date
// figures and returns the ordered insight list plus the overall severity.
// All inputs are base-currency values so thresholds stay currency-stable;
// spendByCategory is keyed by category id. The overall severity comes from
// the overall-budget rule alone.
func EvaluateInsights(budgets []core.Budget, monthExpense decimal.Decimal, spendByCategory map[int64]decimal.Decimal) ([]Insight, Severity) {
	overall, severity := overallBudgetInsight(budgets, monthExpense)
	insights := []Insight{overall}

	if cat, ok := topCategoryInsight(budgets, spendByCategory); ok {
		insights = append(insights, cat)
	}
	return insights, severity
}

func overallBudgetInsight(budgets []core.Budget, expense decimal.Decimal) (Insight, Severity) {
	var budget decimal.Decimal
	found := false
	for _, b := range budgets {
		if b.Overall() && b.Amount.IsPositive() {
			budget = b.Amount
			found = true
			break
		}
	}
	if !found {
		return Insight{
			Message:  "No overall budget set for this month.",
			Severity: SeverityNeutral,
		}, SeverityNeutral
	}

	remaining := budget.Sub(expense)
	if remaining.IsNegative() {
		return Insight{
			Message:  fmt.Sprintf("Over the overall budget by €%s this month.", expense.Sub(budget).StringFixed(2)),
			Severity: SeverityCritical,
		}, SeverityCritical
	}

	percent := expense.Mul(hundred).Div(budget)
	msg := fmt.Sprintf("Overall budget %d%% used, remaining €%s.",
		percent.Round(0).IntPart(), remaining.StringFixed(2))

	if percent.GreaterThanOrEqual(warnThreshold) {
		return Insight{Message: msg, Severity: SeverityWarning}, SeverityWarning
	}
	return Insight{Message: msg, Severity: SeverityPositive}, SeverityPositive
}

// topCategoryInsight reports on the per-category budget with the highest
// percent-used. Budgets are visited in store order (category name
// ascending); only a strictly greater percent replaces the current best,
// so the first of equals wins. Never affects the report severity.
func topCategoryInsight(budgets []core.Budget, spendByCategory map[int64]decimal.Decimal) (Insight, bool) {
	var best *categoryUsage
	for _, b := range budgets {
		if b.Overall() || !b.Amount.IsPositive() {
			continue
		}
		spent := spendByCategory[b.CategoryID]
		usage := categoryUsage{
			label:   b.CategoryName,
			percent: spent.Mul(hundred).Div(b.Amount),
			spent:   spent,
			budget:  b.Amount,
		}
		if best == nil || usage.percent.GreaterThan(best.percent) {
			u := usage
			best = &u
		}
	}
	if best == nil {
		return Insight{}, false
	}

	pct := best.percent.Round(0).IntPart()
	switch {
	case best.percent.GreaterThanOrEqual(hundred):
		return Insight{
			Message:  fmt.Sprintf("%s is over its budget (%d%% used, €%s of €%s).", best.label, pct, best.spent.StringFixed(2), best.budget.StringFixed(2)),
			Severity: SeverityCritical,
		}, true
	case best.percent.GreaterThanOrEqual(nearThreshold):
		return Insight{
			Message:  fmt.Sprintf("%s is close to its budget (%d%% used, €%s of €%s).", best.label, pct, best.spent.StringFixed(2), best.budget.StringFixed(2)),
			Severity: SeverityWarning,
		}, true
	default:
		return Insight{
			Message:  fmt.Sprintf("Top category usage: %s at %d%% of its budget.", best.label, pct),
			Severity: SeverityNeutral,
		}, true
	}
}
