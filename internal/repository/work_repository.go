package repository

import (
	"context"
	"errors"
	"fmt"

	"utility-works/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEntryNotFound indicates the work entry does not exist
	ErrEntryNotFound = errors.New("work entry not found")
	// ErrAggregateNotFound indicates no annual aggregate row exists for a bucket
	ErrAggregateNotFound = errors.New("annual aggregate not found")
)

// EntryFilter narrows entry listings. Zero Month or Category means any.
type EntryFilter struct {
	Year     int
	Month    int
	Category model.Category
}

// Repository defines read access plus the transactional entry point
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetEntry(ctx context.Context, id uint) (model.WorkEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.WorkEntry, error)
	ListAggregates(ctx context.Context, category model.Category, year int) ([]model.AnnualAggregate, error)
}

// TxRepository defines the operations of one entry mutation.
// Everything done through it commits or rolls back together.
type TxRepository interface {
	GetEntry(ctx context.Context, id uint) (model.WorkEntry, error)
	CreateEntry(ctx context.Context, entry *model.WorkEntry) error
	SaveEntry(ctx context.Context, entry *model.WorkEntry) error
	DeleteEntry(ctx context.Context, id uint) error

	// FindAggregate loads and locks the row for the bucket
	FindAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error)
	// GetOrCreateAggregate loads and locks the row, inserting an empty one first when absent
	GetOrCreateAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error)
	SaveAggregate(ctx context.Context, agg *model.AnnualAggregate) error
	DeleteAggregate(ctx context.Context, agg *model.AnnualAggregate) error
}

var _ Repository = (*workRepository)(nil)
var _ TxRepository = (*workStore)(nil)

// workStore holds the queries shared by the plain and transactional repositories
type workStore struct {
	db *gorm.DB
}

// workRepository implements Repository
type workRepository struct {
	workStore
}

// NewWorkRepository creates a new work repository
func NewWorkRepository(db *gorm.DB) Repository {
	return &workRepository{workStore{db: db}}
}

// WithTx runs fn inside a database transaction
func (r *workRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &workStore{db: tx})
	})
}

// aggregates scopes a query to the category's aggregate table
func (s *workStore) aggregates(ctx context.Context, category model.Category) *gorm.DB {
	return s.db.WithContext(ctx).Table(category.AggregateTable())
}

// GetEntry fetches a work entry by ID
func (s *workStore) GetEntry(ctx context.Context, id uint) (model.WorkEntry, error) {
	var entry model.WorkEntry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WorkEntry{}, fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	if err != nil {
		return model.WorkEntry{}, err
	}
	return entry, nil
}

// ListEntries returns entries of a year ordered by ID
func (s *workStore) ListEntries(ctx context.Context, filter EntryFilter) ([]model.WorkEntry, error) {
	query := s.db.WithContext(ctx).Where("year = ?", filter.Year)
	if filter.Month != 0 {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.Category != 0 {
		query = query.Where("type_work = ?", filter.Category)
	}

	entries := []model.WorkEntry{}
	if err := query.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAggregates returns the annual rows of a category for a year ordered by ID
func (s *workStore) ListAggregates(ctx context.Context, category model.Category, year int) ([]model.AnnualAggregate, error) {
	rows := []model.AnnualAggregate{}
	if err := s.aggregates(ctx, category).Where("year = ?", year).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Category = category
	}
	return rows, nil
}

// CreateEntry inserts a new work entry
func (s *workStore) CreateEntry(ctx context.Context, entry *model.WorkEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// SaveEntry writes every field of an existing entry
func (s *workStore) SaveEntry(ctx context.Context, entry *model.WorkEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}

// DeleteEntry removes a work entry
func (s *workStore) DeleteEntry(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.WorkEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	return nil
}

// FindAggregate loads the bucket row with a row lock (SELECT ... FOR UPDATE)
func (s *workStore) FindAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error) {
	var agg model.AnnualAggregate
	err := s.aggregates(ctx, bucket.Category).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("completed_works = ? AND year = ?", bucket.WorkName, bucket.Year).
		First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", bucket, ErrAggregateNotFound)
	}
	if err != nil {
		return nil, err
	}
	agg.Category = bucket.Category
	return &agg, nil
}

// GetOrCreateAggregate relies on the unique (completed_works, year) index:
// a concurrent insert for the same bucket turns ours into a no-op and the
// following locked select waits for and returns the winner's row.
func (s *workStore) GetOrCreateAggregate(ctx context.Context, bucket model.Bucket) (*model.AnnualAggregate, error) {
	agg, err := s.FindAggregate(ctx, bucket)
	if err == nil {
		return agg, nil
	}
	if !errors.Is(err, ErrAggregateNotFound) {
		return nil, err
	}

	fresh := model.NewAnnualAggregate(bucket)
	if err := s.aggregates(ctx, bucket.Category).Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("create aggregate %s: %w", bucket, err)
	}
	return s.FindAggregate(ctx, bucket)
}

// SaveAggregate persists the row; the model's BeforeSave hook refreshes totals
func (s *workStore) SaveAggregate(ctx context.Context, agg *model.AnnualAggregate) error {
	return s.aggregates(ctx, agg.Category).Save(agg).Error
}

// DeleteAggregate removes the row from its category table
func (s *workStore) DeleteAggregate(ctx context.Context, agg *model.AnnualAggregate) error {
	return s.aggregates(ctx, agg.Category).Delete(&model.AnnualAggregate{}, agg.ID).Error
}
