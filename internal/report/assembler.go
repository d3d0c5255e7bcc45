package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finreport/internal/core"
	"finreport/internal/fx"
)

// LedgerStore is the query contract the assembler consumes. Rows arrive
// with category labels already resolved; a nulled reference is an empty
// label.
type LedgerStore interface {
	TransactionsForRange(ctx context.Context, owner string, from, to time.Time) ([]core.Transaction, error)
	BudgetsForMonth(ctx context.Context, owner string, month time.Time) ([]core.Budget, error)
}

// RateSource supplies a rate snapshot for the display conversion, normally
// the cached fx.Service.
type RateSource interface {
	Rates(ctx context.Context, base string, symbols []string) (fx.Snapshot, error)
}

// Options tunes the assembler. Zero values fall back to the defaults: EUR
// base, EUR/USD/GBP display allow-list, 30-day trend window.
type Options struct {
	BaseCurrency      string
	DisplayCurrencies []string
	TrendWindowDays   int
}

func (o Options) withDefaults() Options {
	if o.BaseCurrency == "" {
		o.BaseCurrency = core.BaseCurrency
	}
	if len(o.DisplayCurrencies) == 0 {
		o.DisplayCurrencies = []string{core.BaseCurrency, "USD", "GBP"}
	}
	if o.TrendWindowDays <= 0 {
		o.TrendWindowDays = 30
	}
	return o
}

// Assembler orchestrates one report build per request. It holds no mutable
// state of its own; the caller owns the display-currency choice and passes
// it in explicitly.
type Assembler struct {
	store   LedgerStore
	rates   RateSource
	opts    Options
	symbols []string // allow-listed codes excluding the base
}

func NewAssembler(store LedgerStore, rates RateSource, opts Options) *Assembler {
	opts = opts.withDefaults()
	symbols := make([]string, 0, len(opts.DisplayCurrencies))
	for _, code := range opts.DisplayCurrencies {
		if code != opts.BaseCurrency {
			symbols = append(symbols, code)
		}
	}
	return &Assembler{store: store, rates: rates, opts: opts, symbols: symbols}
}

// resolveDisplay applies the allow-list; an unrecognized request silently
// falls back to the base currency.
func (a *Assembler) resolveDisplay(requested string) string {
	for _, code := range a.opts.DisplayCurrencies {
		if code == requested {
			return code
		}
	}
	return a.opts.BaseCurrency
}

// Build assembles the report for (owner, asOf, display currency). Figures
// are computed in the base currency, insights are evaluated on those base
// figures, and display conversion is applied last. A rate fetch failure is
// non-fatal: the report falls back to base-currency display and carries the
// FXError flag.
func (a *Assembler) Build(ctx context.Context, owner string, asOf time.Time, displayCurrency string) (*Report, error) {
	asOf = core.Day(asOf)
	monthStart := core.MonthStart(asOf)
	windowStart := asOf.AddDate(0, 0, -(a.opts.TrendWindowDays - 1))

	from := monthStart
	if windowStart.Before(from) {
		from = windowStart
	}

	txs, err := a.store.TransactionsForRange(ctx, owner, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	budgets, err := a.store.BudgetsForMonth(ctx, owner, monthStart)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	totals := PeriodTotals(txs, monthStart, asOf)
	trend := DailyTrend(txs, asOf, a.opts.TrendWindowDays)
	breakdown := CategoryBreakdown(txs, monthStart, asOf)
	insights, severity := EvaluateInsights(budgets, totals.Expense, SpendByCategory(txs, monthStart, asOf))

	var budgetLine []decimal.Decimal
	for _, b := range budgets {
		if b.Overall() {
			budgetLine = DailyBudgetLine(b.Amount, monthStart, a.opts.TrendWindowDays)
			break
		}
	}

	rep := &Report{
		Owner:           owner,
		AsOf:            asOf,
		MonthStart:      monthStart,
		Base:            totals,
		DisplayCurrency: a.resolveDisplay(displayCurrency),
		Display:         totals,
		Trend:           trend,
		BudgetLine:      budgetLine,
		Breakdown:       breakdown,
		Insights:        insights,
		Severity:        severity,
	}

	if rep.DisplayCurrency != a.opts.BaseCurrency {
		a.applyDisplayCurrency(ctx, rep)
	}
	rep.DisplaySymbol = CurrencySymbol(rep.DisplayCurrency)
	return rep, nil
}

// applyDisplayCurrency converts the report's currency-denominated outputs
// in place. Trend days are converted one by one; with a single flat rate
// this equals converting the pre-summed total, and per-day rates are
// deliberately out of scope. On any rate failure the report reverts to the
// base currency and flags the degradation.
func (a *Assembler) applyDisplayCurrency(ctx context.Context, rep *Report) {
	snap, err := a.rates.Rates(ctx, a.opts.BaseCurrency, a.symbols)
	if err != nil {
		if !errors.Is(err, fx.ErrRateUnavailable) {
			slog.ErrorContext(ctx, "Unexpected rate source failure", "error", err)
		}
		a.degradeToBase(ctx, rep)
		return
	}

	rate, ok := snap.Rate(rep.DisplayCurrency)
	if !ok || !rate.IsPositive() {
		slog.WarnContext(ctx, "Snapshot misses requested currency",
			"currency", rep.DisplayCurrency, "date", snap.Date)
		a.degradeToBase(ctx, rep)
		return
	}

	rep.RatesDate = snap.Date
	rep.Display = Totals{
		Income:  fx.Convert(rep.Base.Income, rate),
		Expense: fx.Convert(rep.Base.Expense, rate),
		Net:     fx.Convert(rep.Base.Net, rate),
	}
	for i := range rep.Trend {
		rep.Trend[i].Value = fx.Convert(rep.Trend[i].Value, rate)
	}
	for i := range rep.Breakdown {
		rep.Breakdown[i].Amount = fx.Convert(rep.Breakdown[i].Amount, rate)
	}
	for i := range rep.BudgetLine {
		rep.BudgetLine[i] = fx.Convert(rep.BudgetLine[i], rate)
	}
}

func (a *Assembler) degradeToBase(ctx context.Context, rep *Report) {
	slog.WarnContext(ctx, "Report degrades to base currency",
		"requested", rep.DisplayCurrency, "base", a.opts.BaseCurrency)
	rep.FXError = true
	rep.DisplayCurrency = a.opts.BaseCurrency
	rep.Display = rep.Base
	rep.RatesDate = ""
}
