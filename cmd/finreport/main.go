package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finreport/internal/amqp"
	"finreport/internal/cache"
	"finreport/internal/config"
	"finreport/internal/core"
	"finreport/internal/fx"
	applog "finreport/internal/log"
	"finreport/internal/report"
	"finreport/internal/services"
	"finreport/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("finreport failed", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *applog.Logger) error {
	var (
		owner    = flag.String("user", "", "ledger owner the command applies to")
		currency = flag.String("currency", "", "display currency for the report (default: base currency)")
		asOfStr  = flag.String("asof", "", "report reference date as YYYY-MM-DD (default: today)")

		addKind     = flag.String("add", "", "record a transaction of this kind (income or expense) instead of reporting")
		addAmount   = flag.String("amount", "", "transaction amount, e.g. 12.50")
		addCategory = flag.Int64("category", 0, "category id for the new transaction")
		addNote     = flag.String("note", "", "optional transaction note")

		budgetAmount   = flag.String("set-budget", "", "set the monthly budget to this amount instead of reporting")
		budgetCategory = flag.Int64("budget-category", 0, "category id the budget applies to (0 = overall)")
	)
	flag.Parse()

	if *owner == "" {
		return fmt.Errorf("-user is required")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	ctx := context.Background()

	if err := repo.SeedDefaultCategories(ctx, *owner); err != nil {
		logger.WarnContext(ctx, "Seeding default categories failed", applog.FieldError, err)
	}

	// Ledger events are optional for the CLI: without a broker the report
	// worker just catches up on its next rebuild sweep.
	var amqpClient *amqp.Client
	if client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
		logger.WarnContext(ctx, "AMQP unavailable, ledger events disabled", applog.FieldError, err)
	} else {
		amqpClient = client
	}

	ledger := services.NewLedgerService(repo, amqpClient)
	defer ledger.Close()

	asOf := time.Now().UTC()
	if *asOfStr != "" {
		asOf, err = time.ParseInLocation("2006-01-02", *asOfStr, time.UTC)
		if err != nil {
			return fmt.Errorf("parse -asof %q: %w", *asOfStr, err)
		}
	}

	switch {
	case *addKind != "":
		return addTransaction(ctx, ledger, *owner, *addKind, *addAmount, *addCategory, *addNote, asOf)
	case *budgetAmount != "":
		return setBudget(ctx, ledger, *owner, *budgetAmount, *budgetCategory, asOf)
	default:
		return printReport(ctx, cfg, repo, *owner, *currency, asOf)
	}
}

func addTransaction(ctx context.Context, ledger *services.LedgerService, owner, kind, amountStr string, categoryID int64, note string, date time.Time) error {
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return fmt.Errorf("parse -amount %q: %w", amountStr, err)
	}

	tx, err := ledger.AddTransaction(ctx, core.Transaction{
		Owner:      owner,
		Kind:       core.Kind(kind),
		CategoryID: categoryID,
		Amount:     amount,
		Date:       date,
		Note:       note,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s of %s on %s (id %d)\n", tx.Kind, tx.Amount.StringFixed(2), tx.Date.Format("2006-01-02"), tx.ID)
	return nil
}

func setBudget(ctx context.Context, ledger *services.LedgerService, owner, amountStr string, categoryID int64, month time.Time) error {
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return fmt.Errorf("parse -set-budget %q: %w", amountStr, err)
	}

	if err := ledger.SetBudget(ctx, core.Budget{
		Owner:      owner,
		CategoryID: categoryID,
		Month:      month,
		Amount:     amount,
	}); err != nil {
		return err
	}

	fmt.Printf("budget for %s set to %s\n", core.MonthStart(month).Format("2006-01"), amount.StringFixed(2))
	return nil
}

func printReport(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, owner, currency string, asOf time.Time) error {
	fetcher := fx.NewClient(cfg.RatesURL, cfg.RatesTimeout)
	snapshots := cache.NewLRUCache[fx.Snapshot](16, cfg.RatesTTL)
	rates := fx.NewService(fetcher, snapshots)

	assembler := report.NewAssembler(repo, rates, report.Options{
		BaseCurrency:      cfg.BaseCurrency,
		DisplayCurrencies: cfg.DisplayCurrencies,
		TrendWindowDays:   cfg.TrendWindowDays,
	})

	if currency == "" {
		currency = cfg.BaseCurrency
	}

	rep, err := assembler.Build(ctx, owner, asOf, currency)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
