package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finreport/internal/core"
)

func overallBudget(amount string) core.Budget {
	return core.Budget{
		Owner:  "u1",
		Month:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString(amount),
	}
}

func categoryBudget(id int64, name, amount string) core.Budget {
	return core.Budget{
		Owner:        "u1",
		CategoryID:   id,
		CategoryName: name,
		Month:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString(amount),
	}
}

func TestOverallBudgetRule(t *testing.T) {
	tests := []struct {
		name         string
		budgets      []core.Budget
		expense      string
		wantSeverity Severity
		wantContains []string
	}{
		{
			name:         "no budget set",
			budgets:      nil,
			expense:      "100.00",
			wantSeverity: SeverityNeutral,
			wantContains: []string{"No overall budget"},
		},
		{
			name:         "non-positive budget treated as unset",
			budgets:      []core.Budget{overallBudget("0")},
			expense:      "100.00",
			wantSeverity: SeverityNeutral,
			wantContains: []string{"No overall budget"},
		},
		{
			name:         "over budget",
			budgets:      []core.Budget{overallBudget("1000.00")},
			expense:      "1200.00",
			wantSeverity: SeverityCritical,
			wantContains: []string{"200.00"},
		},
		{
			name:         "warning at 95 percent",
			budgets:      []core.Budget{overallBudget("1000.00")},
			expense:      "950.00",
			wantSeverity: SeverityWarning,
			wantContains: []string{"95% used", "50.00"},
		},
		{
			name:         "warning at exactly 90 percent",
			budgets:      []core.Budget{overallBudget("1000.00")},
			expense:      "900.00",
			wantSeverity: SeverityWarning,
			wantContains: []string{"90% used"},
		},
		{
			name:         "positive at 50 percent",
			budgets:      []core.Budget{overallBudget("1000.00")},
			expense:      "500.00",
			wantSeverity: SeverityPositive,
			wantContains: []string{"50% used", "500.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights, severity := EvaluateInsights(tt.budgets, decimal.RequireFromString(tt.expense), nil)
			if severity != tt.wantSeverity {
				t.Fatalf("severity = %s, want %s", severity, tt.wantSeverity)
			}
			if len(insights) == 0 {
				t.Fatalf("expected at least the overall insight")
			}
			for _, sub := range tt.wantContains {
				if !strings.Contains(insights[0].Message, sub) {
					t.Fatalf("message %q misses %q", insights[0].Message, sub)
				}
			}
		})
	}
}

func TestTopCategoryRule(t *testing.T) {
	spend := map[int64]decimal.Decimal{
		1: decimal.RequireFromString("120.00"), // Food: 120%
		2: decimal.RequireFromString("85.00"),  // Transport: 85%
		3: decimal.RequireFromString("10.00"),  // Bills: 10%
	}
	budgets := []core.Budget{
		overallBudget("1000.00"),
		categoryBudget(3, "Bills", "100.00"),
		categoryBudget(1, "Food", "100.00"),
		categoryBudget(2, "Transport", "100.00"),
	}

	insights, severity := EvaluateInsights(budgets, decimal.RequireFromString("215.00"), spend)
	if len(insights) != 2 {
		t.Fatalf("expected overall + category insights, got %d", len(insights))
	}
	if !strings.Contains(insights[1].Message, "Food") || !strings.Contains(insights[1].Message, "over its budget") {
		t.Fatalf("unexpected category message: %q", insights[1].Message)
	}
	// The category rule never drives the report severity.
	if severity != SeverityPositive {
		t.Fatalf("severity = %s, want %s", severity, SeverityPositive)
	}
}

func TestTopCategoryRulePhrasings(t *testing.T) {
	tests := []struct {
		name     string
		spent    string
		contains string
	}{
		{"over budget", "150.00", "over its budget"},
		{"near budget", "85.00", "close to its budget"},
		{"informational", "40.00", "Top category usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budgets := []core.Budget{categoryBudget(1, "Food", "100.00")}
			spend := map[int64]decimal.Decimal{1: decimal.RequireFromString(tt.spent)}
			insights, _ := EvaluateInsights(budgets, decimal.RequireFromString(tt.spent), spend)
			if len(insights) != 2 {
				t.Fatalf("expected 2 insights, got %d", len(insights))
			}
			if !strings.Contains(insights[1].Message, tt.contains) {
				t.Fatalf("message %q misses %q", insights[1].Message, tt.contains)
			}
		})
	}
}

func TestTopCategoryRuleTieKeepsFirst(t *testing.T) {
	// Store order is category name ascending; equal percents keep the first.
	budgets := []core.Budget{
		categoryBudget(1, "Alpha", "100.00"),
		categoryBudget(2, "Beta", "100.00"),
	}
	spend := map[int64]decimal.Decimal{
		1: decimal.RequireFromString("50.00"),
		2: decimal.RequireFromString("50.00"),
	}
	insights, _ := EvaluateInsights(budgets, decimal.RequireFromString("100.00"), spend)
	if !strings.Contains(insights[1].Message, "Alpha") {
		t.Fatalf("tie should keep the first candidate: %q", insights[1].Message)
	}
}

func TestTopCategoryRuleSkipsNonPositiveBudgets(t *testing.T) {
	budgets := []core.Budget{categoryBudget(1, "Food", "0")}
	insights, _ := EvaluateInsights(budgets, decimal.Zero, map[int64]decimal.Decimal{1: decimal.NewFromInt(50)})
	if len(insights) != 1 {
		t.Fatalf("only the overall insight expected, got %d", len(insights))
	}
}

func TestNoCategoryBudgetsEmitsNothing(t *testing.T) {
	insights, _ := EvaluateInsights([]core.Budget{overallBudget("300.00")}, decimal.NewFromInt(120), nil)
	if len(insights) != 1 {
		t.Fatalf("expected only the overall insight, got %d", len(insights))
	}
}
