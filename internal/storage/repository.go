package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finreport/internal/core"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys are off by default in SQLite; the transactions table
	// relies on ON DELETE SET NULL for categories.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction inserts a validated transaction and returns it with its
// assigned ID. A zero CategoryID is stored as NULL.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var categoryID any
	if tx.CategoryID != 0 {
		categoryID = tx.CategoryID
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner, kind, category_id, amount_cents, occurred_on, note)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Owner, string(tx.Kind), categoryID, core.ToCents(tx.Amount), tx.Date.Format(dayLayout), tx.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner", tx.Owner,
		"kind", tx.Kind,
		"amount_cents", core.ToCents(tx.Amount),
		"date", tx.Date.Format(dayLayout))

	return tx, nil
}

// GetTransaction retrieves a single transaction by ID, scoped to an owner.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.owner, t.kind, COALESCE(t.category_id, 0), COALESCE(c.name, ''),
		        t.amount_cents, t.occurred_on, t.note
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.owner = ? AND t.id = ?`,
		owner, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, fmt.Errorf("transaction %d not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction belonging to owner.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner", owner)
	return nil
}

// TransactionsForRange returns an owner's transactions with occurred_on in
// [from, to], both inclusive, ordered by date then insertion order. Category
// names are resolved via LEFT JOIN so transactions whose category was deleted
// come back with an empty label.
func (r *SQLiteRepository) TransactionsForRange(ctx context.Context, owner string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.owner, t.kind, COALESCE(t.category_id, 0), COALESCE(c.name, ''),
		        t.amount_cents, t.occurred_on, t.note
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.owner = ? AND t.occurred_on >= ? AND t.occurred_on <= ?
		 ORDER BY t.occurred_on, t.id`,
		owner, from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx         core.Transaction
		kind       string
		cents      int64
		occurredOn string
	)
	if err := row.Scan(&tx.ID, &tx.Owner, &kind, &tx.CategoryID, &tx.Category, &cents, &occurredOn, &tx.Note); err != nil {
		return core.Transaction{}, err
	}

	date, err := time.ParseInLocation(dayLayout, occurredOn, time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}

	tx.Kind = core.Kind(kind)
	tx.Amount = core.FromCents(cents)
	tx.Date = date
	return tx, nil
}

// CreateCategory inserts a category for an owner. Duplicate (owner, name,
// kind) triples are rejected by the unique index.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner, name, kind) VALUES (?, ?, ?)`,
		c.Owner, c.Name, string(c.Kind))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category created", "id", c.ID, "owner", c.Owner, "name", c.Name, "kind", c.Kind)
	return c, nil
}

// DeleteCategory removes a category; transactions referencing it keep their
// amounts and fall back to the uncategorised bucket via ON DELETE SET NULL.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d not found", id)
	}

	slog.InfoContext(ctx, "Category deleted", "id", id, "owner", owner)
	return nil
}

// Categories lists an owner's categories ordered by kind then name.
func (r *SQLiteRepository) Categories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, name, kind FROM categories WHERE owner = ? ORDER BY kind, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(kind)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return cats, nil
}

// SeedDefaultCategories creates a starter set of categories for owners who
// have none yet. Calling it again for a seeded owner is a no-op.
func (r *SQLiteRepository) SeedDefaultCategories(ctx context.Context, owner string) error {
	var count int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE owner = ?`, owner).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []core.Category{
		{Owner: owner, Name: "Salary", Kind: core.Income},
		{Owner: owner, Name: "Food", Kind: core.Expense},
		{Owner: owner, Name: "Transport", Kind: core.Expense},
		{Owner: owner, Name: "Bills", Kind: core.Expense},
	}
	for _, c := range defaults {
		if _, err := r.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Default categories seeded", "owner", owner, "count", len(defaults))
	return nil
}

// UpsertBudget stores a monthly budget, replacing any existing budget for the
// same owner, month and category slot. The month is normalised to its first
// day before writing.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b = b.Normalize()

	var categoryID any
	if b.CategoryID != 0 {
		categoryID = b.CategoryID
	}
	month := b.Month.Format(dayLayout)
	cents := core.ToCents(b.Amount)

	// The unique indexes treat NULL category_id as a distinct slot, so the
	// update has to match NULL explicitly before falling back to insert.
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?
		 WHERE owner = ? AND month = ? AND category_id IS ?`,
		cents, b.Owner, month, categoryID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget rows affected: %w", err)
	}
	if affected == 0 {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO budgets (owner, category_id, month, amount_cents) VALUES (?, ?, ?, ?)`,
			b.Owner, categoryID, month, cents)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
	}

	slog.InfoContext(ctx, "Budget saved",
		"owner", b.Owner,
		"month", month,
		"category_id", b.CategoryID,
		"amount_cents", cents)

	return nil
}

// BudgetsForMonth returns an owner's budgets for the month containing the
// given time, overall budget first, then category budgets by name.
func (r *SQLiteRepository) BudgetsForMonth(ctx context.Context, owner string, month time.Time) ([]core.Budget, error) {
	monthStart := core.MonthStart(month).Format(dayLayout)

	rows, err := r.db.QueryContext(ctx,
		`SELECT b.owner, COALESCE(b.category_id, 0), COALESCE(c.name, ''), b.month, b.amount_cents
		 FROM budgets b
		 LEFT JOIN categories c ON c.id = b.category_id
		 WHERE b.owner = ? AND b.month = ?
		 ORDER BY b.category_id IS NOT NULL, COALESCE(c.name, '')`,
		owner, monthStart)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b        core.Budget
			monthStr string
			cents    int64
		)
		if err := rows.Scan(&b.Owner, &b.CategoryID, &b.CategoryName, &monthStr, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		m, err := time.ParseInLocation(dayLayout, monthStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse budget month %q: %w", monthStr, err)
		}
		b.Month = m
		b.Amount = core.FromCents(cents)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}

	return budgets, nil
}

// DailySummary is a per-day income/expense rollup maintained by the worker.
type DailySummary struct {
	Owner        string
	Day          time.Time
	IncomeCents  int64
	ExpenseCents int64
}

// RecomputeDailySummary recalculates the rollup row for a single owner and
// day from the transactions table.
func (r *SQLiteRepository) RecomputeDailySummary(ctx context.Context, owner string, day time.Time) error {
	dayStr := core.Day(day).Format(dayLayout)

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO daily_summary (owner, day, income_cents, expense_cents, updated_at)
		 SELECT ?, ?,
		        COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0),
		        CURRENT_TIMESTAMP
		 FROM transactions
		 WHERE owner = ? AND occurred_on = ?`,
		owner, dayStr, owner, dayStr)
	if err != nil {
		return fmt.Errorf("recompute daily summary: %w", err)
	}

	slog.DebugContext(ctx, "Daily summary recomputed", "owner", owner, "day", dayStr)
	return nil
}

// RebuildDailySummaries rebuilds rollup rows for every owner and day with
// activity since the given date. Days whose transactions were all deleted
// keep a stale row until the next full rebuild window passes them by.
func (r *SQLiteRepository) RebuildDailySummaries(ctx context.Context, since time.Time) error {
	sinceStr := core.Day(since).Format(dayLayout)

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO daily_summary (owner, day, income_cents, expense_cents, updated_at)
		 SELECT owner, occurred_on,
		        COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0),
		        CURRENT_TIMESTAMP
		 FROM transactions
		 WHERE occurred_on >= ?
		 GROUP BY owner, occurred_on`,
		sinceStr)
	if err != nil {
		return fmt.Errorf("rebuild daily summaries: %w", err)
	}

	slog.InfoContext(ctx, "Daily summaries rebuilt", "since", sinceStr)
	return nil
}

// DailySummaries returns rollup rows for an owner between two days inclusive,
// oldest first.
func (r *SQLiteRepository) DailySummaries(ctx context.Context, owner string, from, to time.Time) ([]DailySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, day, income_cents, expense_cents
		 FROM daily_summary
		 WHERE owner = ? AND day >= ? AND day <= ?
		 ORDER BY day`,
		owner, core.Day(from).Format(dayLayout), core.Day(to).Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var (
			s      DailySummary
			dayStr string
		)
		if err := rows.Scan(&s.Owner, &dayStr, &s.IncomeCents, &s.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		day, err := time.ParseInLocation(dayLayout, dayStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse summary day %q: %w", dayStr, err)
		}
		s.Day = day
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily summaries: %w", err)
	}

	return summaries, nil
}
