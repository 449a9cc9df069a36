package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies the utility service an entry belongs to.
// Each category rolls up into its own annual aggregate table.
type Category int

const (
	CategoryWater    Category = 1
	CategorySewerage Category = 2
)

// Categories lists every supported category in display order
var Categories = []Category{CategoryWater, CategorySewerage}

// String returns the API name of the category
func (c Category) String() string {
	switch c {
	case CategoryWater:
		return "water"
	case CategorySewerage:
		return "sewerage"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// Label returns the human readable category name
func (c Category) Label() string {
	switch c {
	case CategoryWater:
		return "Вода"
	case CategorySewerage:
		return "Канализация"
	default:
		return ""
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c == CategoryWater || c == CategorySewerage
}

// AggregateTable returns the annual aggregate table for the category
func (c Category) AggregateTable() string {
	switch c {
	case CategoryWater:
		return "water_aggregates"
	case CategorySewerage:
		return "sewerage_aggregates"
	default:
		return ""
	}
}

// MarshalText encodes the category as its API name
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts the API name or the numeric code
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalJSON accepts both "water" and 1 style values
func (c *Category) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return c.UnmarshalText([]byte(name))
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("invalid category %s", data)
	}
	return c.UnmarshalText([]byte(strconv.Itoa(code)))
}

// ParseCategory parses "water", "sewerage", "1" or "2"
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "water", "1":
		return CategoryWater, nil
	case "sewerage", "2":
		return CategorySewerage, nil
	default:
		return 0, fmt.Errorf("unknown category %q (expected water or sewerage)", s)
	}
}

var monthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// MonthName returns the display name for month 1..12, or "" when out of range
func MonthName(month int) string {
	if !ValidMonth(month) {
		return ""
	}
	return monthNames[month-1]
}

// ValidMonth reports whether month is within 1..12
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// WorkEntry is a single recorded unit of work for one category, year and month.
// It is the source of truth the annual aggregates are derived from.
type WorkEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Composite index serves the year and year+month listings
	Category    Category        `gorm:"column:type_work;not null;index:idx_work_entries_period,priority:3" json:"category"`
	Year        int             `gorm:"not null;index:idx_work_entries_period,priority:1" json:"year"`
	Month       int             `gorm:"not null;index:idx_work_entries_period,priority:2" json:"month"`
	WorkName    string          `gorm:"column:completed_works;not null;size:255" json:"work_name"`
	Description string          `gorm:"type:text" json:"description"`
	Volume      float64         `gorm:"not null;default:0" json:"volume"`
	Amount      decimal.Decimal `gorm:"column:summ;type:decimal(20,2);not null;default:0" json:"amount"`
}

// TableName specifies the table name for WorkEntry
func (WorkEntry) TableName() string {
	return "work_entries"
}

// Bucket returns the aggregate row key the entry folds into
func (e WorkEntry) Bucket() Bucket {
	return Bucket{Category: e.Category, WorkName: e.WorkName, Year: e.Year}
}

// Bucket is the natural key of an annual aggregate row.
type Bucket struct {
	Category Category
	WorkName string
	Year     int
}

// String formats the bucket as category/year/work name for logs and errors
func (b Bucket) String() string {
	return fmt.Sprintf("%s/%d/%s", b.Category, b.Year, b.WorkName)
}
