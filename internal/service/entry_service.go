package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"utility-works/internal/model"
	"utility-works/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	// ErrEntryNotFound is returned when the requested entry does not exist
	ErrEntryNotFound = repository.ErrEntryNotFound
	// ErrInvalidEntry is returned when entry input fails validation
	ErrInvalidEntry = errors.New("invalid work entry")
)

// EntryService defines the entry mutation API and the read queries
// presentation layers consume
type EntryService interface {
	CreateEntry(ctx context.Context, input EntryInput) (*EntryResult, error)
	UpdateEntry(ctx context.Context, id uint, input EntryInput) (*EntryResult, error)
	DeleteEntry(ctx context.Context, id uint) (DeleteOutcome, error)
	GetEntry(ctx context.Context, id uint) (model.WorkEntry, error)
	ListEntries(ctx context.Context, filter repository.EntryFilter) ([]model.WorkEntry, error)
	ListAggregates(ctx context.Context, category model.Category, year int) ([]model.AnnualAggregate, error)
	YearOverview(ctx context.Context, year int) (*YearOverview, error)
	ReportYears() []int
}

// EntryInput carries the editable fields of a work entry.
// Negative volume and amount are accepted.
type EntryInput struct {
	Category    model.Category  `json:"category" validate:"required,oneof=1 2"`
	Year        int             `json:"year" validate:"required,gte=1"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	WorkName    string          `json:"work_name" validate:"required,max=255"`
	Description string          `json:"description"`
	Volume      float64         `json:"volume"`
	Amount      decimal.Decimal `json:"amount"`
}

// EntryResult is the stored entry together with the aggregate row it updated
type EntryResult struct {
	Entry     model.WorkEntry        `json:"entry"`
	Aggregate *model.AnnualAggregate `json:"aggregate"`
}

// YearOverview groups everything recorded for one reporting year
type YearOverview struct {
	Year     int                     `json:"year"`
	Entries  []model.WorkEntry       `json:"entries"`
	Water    []model.AnnualAggregate `json:"water"`
	Sewerage []model.AnnualAggregate `json:"sewerage"`
}

// entryService implements EntryService
type entryService struct {
	repo       repository.Repository
	maintainer *AggregateMaintainer
	validate   *validator.Validate
	now        func() time.Time
}

// NewEntryService creates a new entry service
func NewEntryService(repo repository.Repository, logger *slog.Logger) EntryService {
	return &entryService{
		repo:       repo,
		maintainer: NewAggregateMaintainer(logger),
		validate:   validator.New(),
		now:        time.Now,
	}
}

func (s *entryService) validateInput(input EntryInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, err.Error())
	}
	// Amounts are stored as decimal(20,2)
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return fmt.Errorf("%w: amount %s has more than 2 decimal places", ErrInvalidEntry, input.Amount)
	}
	return nil
}

// CreateEntry stores a new entry and folds it into its aggregate in one transaction
func (s *entryService) CreateEntry(ctx context.Context, input EntryInput) (*EntryResult, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	entry := model.WorkEntry{}
	input.apply(&entry)

	var result *EntryResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
		if err := tx.CreateEntry(ctx, &entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		agg, err := s.maintainer.EntryCreated(ctx, tx, entry)
		if err != nil {
			return err
		}
		result = &EntryResult{Entry: entry, Aggregate: agg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateEntry overwrites an entry and its month in the aggregate in one transaction
func (s *entryService) UpdateEntry(ctx context.Context, id uint, input EntryInput) (*EntryResult, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var result *EntryResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		input.apply(&entry)
		if err := tx.SaveEntry(ctx, &entry); err != nil {
			return fmt.Errorf("save entry %d: %w", id, err)
		}
		agg, err := s.maintainer.EntryUpdated(ctx, tx, entry)
		if err != nil {
			return err
		}
		result = &EntryResult{Entry: entry, Aggregate: agg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteEntry adjusts the aggregate while the entry still exists, then removes the entry
func (s *entryService) DeleteEntry(ctx context.Context, id uint) (DeleteOutcome, error) {
	var outcome DeleteOutcome
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx repository.TxRepository) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		outcome, err = s.maintainer.EntryDeleting(ctx, tx, entry)
		if err != nil {
			return err
		}
		return tx.DeleteEntry(ctx, id)
	})
	if err != nil {
		return DeleteOutcome{}, err
	}
	return outcome, nil
}

// GetEntry fetches a single entry
func (s *entryService) GetEntry(ctx context.Context, id uint) (model.WorkEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListEntries returns the entries of a year, optionally narrowed by month and category
func (s *entryService) ListEntries(ctx context.Context, filter repository.EntryFilter) ([]model.WorkEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// ListAggregates returns the annual rows of one category for a year
func (s *entryService) ListAggregates(ctx context.Context, category model.Category, year int) ([]model.AnnualAggregate, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %d", ErrInvalidEntry, int(category))
	}
	return s.repo.ListAggregates(ctx, category, year)
}

// YearOverview collects the entries and both aggregate tables of a year
func (s *entryService) YearOverview(ctx context.Context, year int) (*YearOverview, error) {
	entries, err := s.repo.ListEntries(ctx, repository.EntryFilter{Year: year})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	water, err := s.repo.ListAggregates(ctx, model.CategoryWater, year)
	if err != nil {
		return nil, fmt.Errorf("list water aggregates: %w", err)
	}
	sewerage, err := s.repo.ListAggregates(ctx, model.CategorySewerage, year)
	if err != nil {
		return nil, fmt.Errorf("list sewerage aggregates: %w", err)
	}
	return &YearOverview{Year: year, Entries: entries, Water: water, Sewerage: sewerage}, nil
}

// ReportYears returns the selectable reporting years relative to now
func (s *entryService) ReportYears() []int {
	return model.ReportYears(s.now())
}

func (in EntryInput) apply(entry *model.WorkEntry) {
	entry.Category = in.Category
	entry.Year = in.Year
	entry.Month = in.Month
	entry.WorkName = in.WorkName
	entry.Description = in.Description
	entry.Volume = in.Volume
	entry.Amount = in.Amount
}
