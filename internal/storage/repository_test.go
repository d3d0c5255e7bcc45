package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finreport/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finreport_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) error = %v", s, err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateAndListTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{Owner: "ada", Name: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	txs := []core.Transaction{
		{Owner: "ada", Kind: core.Expense, CategoryID: cat.ID, Amount: dec(t, "12.50"), Date: day(2026, time.March, 3), Note: "lunch"},
		{Owner: "ada", Kind: core.Income, Amount: dec(t, "1000.00"), Date: day(2026, time.March, 1)},
		{Owner: "ada", Kind: core.Expense, Amount: dec(t, "7.25"), Date: day(2026, time.April, 2)},
		{Owner: "bob", Kind: core.Expense, Amount: dec(t, "99.99"), Date: day(2026, time.March, 3)},
	}
	for _, tx := range txs {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction(%+v) error = %v", tx, err)
		}
	}

	got, err := repo.TransactionsForRange(ctx, "ada", day(2026, time.March, 1), day(2026, time.March, 31))
	if err != nil {
		t.Fatalf("TransactionsForRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("TransactionsForRange() returned %d transactions, want 2", len(got))
	}
	if !got[0].Date.Equal(day(2026, time.March, 1)) {
		t.Errorf("first transaction date = %v, want 2026-03-01", got[0].Date)
	}
	if got[1].Category != "Food" {
		t.Errorf("category label = %q, want %q", got[1].Category, "Food")
	}
	if !got[1].Amount.Equal(dec(t, "12.50")) {
		t.Errorf("amount = %s, want 12.50", got[1].Amount)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Owner:  "ada",
		Kind:   "transfer",
		Amount: dec(t, "5.00"),
		Date:   day(2026, time.March, 3),
	})
	if err == nil {
		t.Fatal("CreateTransaction() with bad kind should fail")
	}
}

func TestDeleteCategoryKeepsTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{Owner: "ada", Name: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		Owner: "ada", Kind: core.Expense, CategoryID: cat.ID,
		Amount: dec(t, "12.50"), Date: day(2026, time.March, 3),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := repo.DeleteCategory(ctx, "ada", cat.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	got, err := repo.GetTransaction(ctx, "ada", tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction() after category delete error = %v", err)
	}
	if got.CategoryID != 0 || got.Category != "" {
		t.Errorf("transaction still carries category %d %q after delete", got.CategoryID, got.Category)
	}
	if !got.Amount.Equal(dec(t, "12.50")) {
		t.Errorf("amount changed after category delete: %s", got.Amount)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		Owner: "ada", Kind: core.Expense, Amount: dec(t, "5.00"), Date: day(2026, time.March, 3),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := repo.DeleteTransaction(ctx, "bob", tx.ID); err == nil {
		t.Error("DeleteTransaction() for wrong owner should fail")
	}
	if err := repo.DeleteTransaction(ctx, "ada", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "ada", tx.ID); err == nil {
		t.Error("DeleteTransaction() on missing id should fail")
	}
}

func TestSeedDefaultCategoriesIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.SeedDefaultCategories(ctx, "ada"); err != nil {
		t.Fatalf("SeedDefaultCategories() error = %v", err)
	}
	if err := repo.SeedDefaultCategories(ctx, "ada"); err != nil {
		t.Fatalf("SeedDefaultCategories() second call error = %v", err)
	}

	cats, err := repo.Categories(ctx, "ada")
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(cats) != 4 {
		t.Fatalf("Categories() returned %d categories, want 4", len(cats))
	}
}

func TestUpsertBudgetNormalizesAndReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// Month given mid-month; must land on the first.
	b := core.Budget{Owner: "ada", Month: day(2026, time.March, 17), Amount: dec(t, "300.00")}
	if err := repo.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}

	b.Amount = dec(t, "450.00")
	if err := repo.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("UpsertBudget() replace error = %v", err)
	}

	got, err := repo.BudgetsForMonth(ctx, "ada", day(2026, time.March, 9))
	if err != nil {
		t.Fatalf("BudgetsForMonth() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("BudgetsForMonth() returned %d budgets, want 1", len(got))
	}
	if !got[0].Month.Equal(day(2026, time.March, 1)) {
		t.Errorf("budget month = %v, want 2026-03-01", got[0].Month)
	}
	if !got[0].Amount.Equal(dec(t, "450.00")) {
		t.Errorf("budget amount = %s, want 450.00", got[0].Amount)
	}
	if !got[0].Overall() {
		t.Error("budget should be the overall slot")
	}
}

func TestBudgetsForMonthOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	food, err := repo.CreateCategory(ctx, core.Category{Owner: "ada", Name: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	bills, err := repo.CreateCategory(ctx, core.Category{Owner: "ada", Name: "Bills", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	month := day(2026, time.March, 1)
	for _, b := range []core.Budget{
		{Owner: "ada", CategoryID: food.ID, Month: month, Amount: dec(t, "100.00")},
		{Owner: "ada", Month: month, Amount: dec(t, "500.00")},
		{Owner: "ada", CategoryID: bills.ID, Month: month, Amount: dec(t, "80.00")},
	} {
		if err := repo.UpsertBudget(ctx, b); err != nil {
			t.Fatalf("UpsertBudget(%+v) error = %v", b, err)
		}
	}

	got, err := repo.BudgetsForMonth(ctx, "ada", month)
	if err != nil {
		t.Fatalf("BudgetsForMonth() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("BudgetsForMonth() returned %d budgets, want 3", len(got))
	}
	if !got[0].Overall() {
		t.Errorf("first budget should be overall, got category %q", got[0].CategoryName)
	}
	if got[1].CategoryName != "Bills" || got[2].CategoryName != "Food" {
		t.Errorf("category budgets out of order: %q, %q", got[1].CategoryName, got[2].CategoryName)
	}
}

func TestDailySummaryLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	d := day(2026, time.March, 3)
	for _, tx := range []core.Transaction{
		{Owner: "ada", Kind: core.Income, Amount: dec(t, "100.00"), Date: d},
		{Owner: "ada", Kind: core.Expense, Amount: dec(t, "30.00"), Date: d},
		{Owner: "ada", Kind: core.Expense, Amount: dec(t, "12.50"), Date: d},
	} {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	if err := repo.RecomputeDailySummary(ctx, "ada", d); err != nil {
		t.Fatalf("RecomputeDailySummary() error = %v", err)
	}

	got, err := repo.DailySummaries(ctx, "ada", d, d)
	if err != nil {
		t.Fatalf("DailySummaries() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("DailySummaries() returned %d rows, want 1", len(got))
	}
	if got[0].IncomeCents != 10000 || got[0].ExpenseCents != 4250 {
		t.Errorf("summary = income %d / expense %d cents, want 10000 / 4250",
			got[0].IncomeCents, got[0].ExpenseCents)
	}

	// A rebuild over the window must produce the same rollup.
	if err := repo.RebuildDailySummaries(ctx, d.AddDate(0, 0, -7)); err != nil {
		t.Fatalf("RebuildDailySummaries() error = %v", err)
	}
	got, err = repo.DailySummaries(ctx, "ada", d, d)
	if err != nil {
		t.Fatalf("DailySummaries() after rebuild error = %v", err)
	}
	if len(got) != 1 || got[0].ExpenseCents != 4250 {
		t.Fatalf("rebuild changed the rollup: %+v", got)
	}
}
