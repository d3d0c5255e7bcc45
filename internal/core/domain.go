package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// BaseCurrency is the currency every ledger amount is persisted in.
const BaseCurrency = "EUR"

type (
	Kind string

	// Transaction is a single dated money movement. The sign is carried by
	// Kind; Amount is never negative. Category is the label resolved by the
	// store and stays empty when the reference has been nulled.
	Transaction struct {
		ID         int64
		Owner      string
		Kind       Kind
		CategoryID int64 // 0 when no category is attached
		Category   string
		Amount     decimal.Decimal
		Date       time.Time
		Note       string
	}

	Category struct {
		ID    int64
		Owner string
		Name  string
		Kind  Kind
	}

	// Budget with CategoryID 0 is the overall monthly budget. Month is
	// always the first day of its month.
	Budget struct {
		Owner        string
		CategoryID   int64
		CategoryName string
		Month        time.Time
		Amount       decimal.Decimal
	}
)

var (
	ErrInvalidKind   = errors.New("invalid kind")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyOwner    = errors.New("empty owner")
	ErrEmptyName     = errors.New("empty category name")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Kind.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Owner) == "" {
		return ErrEmptyOwner
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Month.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Overall reports whether the budget applies to total spend rather than a
// single category.
func (b Budget) Overall() bool {
	return b.CategoryID == 0
}

// Normalize returns the budget with its month snapped to the first of month.
func (b Budget) Normalize() Budget {
	b.Month = MonthStart(b.Month)
	return b
}

// Day truncates a timestamp to its calendar day in UTC. All window
// comparisons in the aggregation pipeline operate on Day values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
