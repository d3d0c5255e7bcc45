// Package report turns a transaction window plus budget definitions into a
// monthly finance report: period totals, a daily trend series, a category
// breakdown and budget-progress insights, optionally rendered in a foreign
// display currency.
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// UncategorisedLabel buckets expenses whose category reference is absent or
// has been nulled by a category deletion.
const UncategorisedLabel = "Uncategorised"

type Severity string

const (
	SeverityNeutral  Severity = "neutral"
	SeverityPositive Severity = "positive"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type (
	// Insight is one human-readable budget-progress message.
	Insight struct {
		Message  string   `json:"message"`
		Severity Severity `json:"severity"`
	}

	// TrendPoint is one day of the trend series.
	TrendPoint struct {
		Label string          `json:"label"`
		Value decimal.Decimal `json:"value"`
	}

	// BreakdownRow is one category's share of the period's expense.
	// Percent is computed on base-currency figures; Amount follows the
	// report's display currency.
	BreakdownRow struct {
		Label   string          `json:"label"`
		Amount  decimal.Decimal `json:"amount"`
		Percent int             `json:"percent"`
	}

	Totals struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`
	}

	// Report is the composite output of one assembly run. It is derived
	// data with no lifecycle of its own and is rebuilt on every request.
	Report struct {
		Owner      string    `json:"owner"`
		AsOf       time.Time `json:"as_of"`
		MonthStart time.Time `json:"month_start"`

		// Totals in the base currency for the elapsed month.
		Base Totals `json:"base"`

		DisplayCurrency string `json:"display_currency"`
		DisplaySymbol   string `json:"display_symbol"`
		Display         Totals `json:"display"`

		// FXError is set when rates could not be fetched; the report then
		// shows every figure in the base currency.
		FXError   bool   `json:"fx_error"`
		RatesDate string `json:"rates_date,omitempty"`

		Trend      []TrendPoint      `json:"trend"`
		BudgetLine []decimal.Decimal `json:"budget_line,omitempty"`
		Breakdown  []BreakdownRow    `json:"breakdown"`

		Insights []Insight `json:"insights"`
		Severity Severity  `json:"severity"`
	}
)

// CurrencySymbol maps a supported display code to its symbol. Unknown codes
// fall back to the code itself.
func CurrencySymbol(code string) string {
	switch code {
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return code
	}
}
