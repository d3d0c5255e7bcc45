package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finreport/internal/amqp"
	"finreport/internal/core"
	"finreport/internal/storage"
)

// LedgerService orchestrates ledger writes across SQLite and AMQP. Every
// mutation lands in SQLite first; the change event for the summary worker is
// published best-effort afterwards.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// NewLedgerService wires the service. amqpClient may be nil, in which case
// change events are skipped and only the database is written.
func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AddTransaction validates and stores a transaction, then notifies the
// summary worker. A failed publish never fails the write.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishLedgerEvent(ctx, saved.ID, saved.Owner, amqp.OpCreated, saved.Date); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", saved.ID, "op", amqp.OpCreated, "error", err)
	}

	return saved, nil
}

// RemoveTransaction deletes an owner's transaction and notifies the worker
// so the day's rollup gets recomputed.
func (s *LedgerService) RemoveTransaction(ctx context.Context, owner string, id int64) error {
	tx, err := s.storage.GetTransaction(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := s.storage.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishLedgerEvent(ctx, id, owner, amqp.OpDeleted, tx.Date); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", id, "op", amqp.OpDeleted, "error", err)
	}

	return nil
}

// SetBudget stores or replaces a monthly budget.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

// AddCategory creates a category for an owner.
func (s *LedgerService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	saved, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return saved, nil
}

func (s *LedgerService) publishLedgerEvent(ctx context.Context, id int64, owner, op string, day time.Time) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event")
		return nil
	}

	return s.amqpClient.PublishLedgerEvent(ctx, amqp.NewLedgerEventMessage(id, owner, op, day))
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
