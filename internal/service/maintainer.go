package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"utility-works/internal/model"
	"utility-works/internal/repository"
)

// DeleteAction describes what an entry deletion did to its aggregate row
type DeleteAction string

const (
	// AggregateCleared means other months keep the row; only the entry's month was zeroed
	AggregateCleared DeleteAction = "cleared"
	// AggregateRemoved means the entry's month was the last data and the row was deleted
	AggregateRemoved DeleteAction = "removed"
	// AggregateMissing means no row existed for the entry's bucket
	AggregateMissing DeleteAction = "missing"
)

// DeleteOutcome is reported to the caller of an entry deletion
type DeleteOutcome struct {
	EntryID        uint         `json:"entry_id"`
	Action         DeleteAction `json:"action"`
	AggregateFound bool         `json:"aggregate_found"`
	Message        string       `json:"message,omitempty"`
}

// AggregateMaintainer keeps the annual aggregate rows in step with entry writes.
// Every method touches only the row of the entry's bucket.
type AggregateMaintainer struct {
	logger *slog.Logger
}

// NewAggregateMaintainer creates a new aggregate maintainer
func NewAggregateMaintainer(logger *slog.Logger) *AggregateMaintainer {
	return &AggregateMaintainer{logger: logger}
}

// EntryCreated folds a new entry into its bucket row, creating the row on first use
func (m *AggregateMaintainer) EntryCreated(ctx context.Context, tx repository.TxRepository, entry model.WorkEntry) (*model.AnnualAggregate, error) {
	agg, err := tx.GetOrCreateAggregate(ctx, entry.Bucket())
	if err != nil {
		return nil, err
	}
	return m.write(ctx, tx, agg, entry)
}

// EntryUpdated overwrites the entry's month in its bucket row. A row removed
// independently of the entry is recreated instead of failing the edit.
func (m *AggregateMaintainer) EntryUpdated(ctx context.Context, tx repository.TxRepository, entry model.WorkEntry) (*model.AnnualAggregate, error) {
	agg, err := tx.FindAggregate(ctx, entry.Bucket())
	if errors.Is(err, repository.ErrAggregateNotFound) {
		m.logger.Warn("aggregate missing on entry update, recreating",
			"entry_id", entry.ID,
			"bucket", entry.Bucket().String(),
		)
		agg, err = tx.GetOrCreateAggregate(ctx, entry.Bucket())
	}
	if err != nil {
		return nil, err
	}
	return m.write(ctx, tx, agg, entry)
}

// EntryDeleting must run while the entry still exists. The other eleven
// months are inspected before the entry's month is zeroed: when none of them
// has data the whole row goes.
func (m *AggregateMaintainer) EntryDeleting(ctx context.Context, tx repository.TxRepository, entry model.WorkEntry) (DeleteOutcome, error) {
	outcome := DeleteOutcome{EntryID: entry.ID}

	agg, err := tx.FindAggregate(ctx, entry.Bucket())
	if errors.Is(err, repository.ErrAggregateNotFound) {
		outcome.Action = AggregateMissing
		outcome.Message = fmt.Sprintf("annual %s table for %q in %d not found", entry.Category, entry.WorkName, entry.Year)
		m.logger.Warn("aggregate missing on entry delete",
			"entry_id", entry.ID,
			"bucket", entry.Bucket().String(),
		)
		return outcome, nil
	}
	if err != nil {
		return outcome, err
	}
	outcome.AggregateFound = true

	if !agg.HasDataExcept(entry.Month) {
		if err := tx.DeleteAggregate(ctx, agg); err != nil {
			return outcome, fmt.Errorf("delete aggregate %s: %w", entry.Bucket(), err)
		}
		outcome.Action = AggregateRemoved
		return outcome, nil
	}

	*agg.Slot(entry.Month) = model.MonthSlot{}
	agg.RecalculateTotals()
	if err := tx.SaveAggregate(ctx, agg); err != nil {
		return outcome, fmt.Errorf("save aggregate %s: %w", entry.Bucket(), err)
	}
	outcome.Action = AggregateCleared
	return outcome, nil
}

func (m *AggregateMaintainer) write(ctx context.Context, tx repository.TxRepository, agg *model.AnnualAggregate, entry model.WorkEntry) (*model.AnnualAggregate, error) {
	*agg.Slot(entry.Month) = model.MonthSlot{Volume: entry.Volume, Amount: entry.Amount}
	agg.RecalculateTotals()
	if err := tx.SaveAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("save aggregate %s: %w", entry.Bucket(), err)
	}
	return agg, nil
}
