package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthSlot holds one month of an annual aggregate
type MonthSlot struct {
	Volume float64         `gorm:"column:vol;not null;default:0" json:"volume"`
	Amount decimal.Decimal `gorm:"column:summ;type:decimal(20,2);not null;default:0" json:"amount"`
}

// HasData reports whether the slot carries a positive volume or amount
func (s MonthSlot) HasData() bool {
	return s.Volume > 0 || s.Amount.IsPositive()
}

// AnnualAggregate is the yearly rollup of one work name for one category.
// The same struct backs both water_aggregates and sewerage_aggregates;
// the repository selects the table from Category.
type AnnualAggregate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category Category `gorm:"-" json:"category"`
	Year     int      `gorm:"not null" json:"year"`
	WorkName string   `gorm:"column:completed_works;not null;size:255" json:"work_name"`

	January   MonthSlot `gorm:"embedded;embeddedPrefix:january_" json:"january"`
	February  MonthSlot `gorm:"embedded;embeddedPrefix:february_" json:"february"`
	March     MonthSlot `gorm:"embedded;embeddedPrefix:march_" json:"march"`
	April     MonthSlot `gorm:"embedded;embeddedPrefix:april_" json:"april"`
	May       MonthSlot `gorm:"embedded;embeddedPrefix:may_" json:"may"`
	June      MonthSlot `gorm:"embedded;embeddedPrefix:june_" json:"june"`
	July      MonthSlot `gorm:"embedded;embeddedPrefix:july_" json:"july"`
	August    MonthSlot `gorm:"embedded;embeddedPrefix:august_" json:"august"`
	September MonthSlot `gorm:"embedded;embeddedPrefix:september_" json:"september"`
	October   MonthSlot `gorm:"embedded;embeddedPrefix:october_" json:"october"`
	November  MonthSlot `gorm:"embedded;embeddedPrefix:november_" json:"november"`
	December  MonthSlot `gorm:"embedded;embeddedPrefix:december_" json:"december"`

	FirstQuarter  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"first_quarter"`
	SecondQuarter decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"second_quarter"`
	ThirdQuarter  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"third_quarter"`
	FourthQuarter decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"fourth_quarter"`
	YearTotal     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"year_total"`
}

// NewAnnualAggregate returns an empty rollup for the bucket
func NewAnnualAggregate(b Bucket) *AnnualAggregate {
	return &AnnualAggregate{Category: b.Category, Year: b.Year, WorkName: b.WorkName}
}

// Bucket returns the natural key of the row
func (a *AnnualAggregate) Bucket() Bucket {
	return Bucket{Category: a.Category, WorkName: a.WorkName, Year: a.Year}
}

// Slots returns the twelve month slots indexed from January (0) to December (11)
func (a *AnnualAggregate) Slots() [12]*MonthSlot {
	return [12]*MonthSlot{
		&a.January, &a.February, &a.March,
		&a.April, &a.May, &a.June,
		&a.July, &a.August, &a.September,
		&a.October, &a.November, &a.December,
	}
}

// Slot returns the slot for month 1..12. It panics on an out of range month.
func (a *AnnualAggregate) Slot(month int) *MonthSlot {
	return a.Slots()[month-1]
}

// Quarters returns pointers to the four quarter totals
func (a *AnnualAggregate) Quarters() [4]*decimal.Decimal {
	return [4]*decimal.Decimal{&a.FirstQuarter, &a.SecondQuarter, &a.ThirdQuarter, &a.FourthQuarter}
}

// HasDataExcept reports whether any month other than the given one has data
func (a *AnnualAggregate) HasDataExcept(month int) bool {
	for i, slot := range a.Slots() {
		if i+1 == month {
			continue
		}
		if slot.HasData() {
			return true
		}
	}
	return false
}

// RecalculateTotals derives the quarter sums and the year total from the
// twelve monthly amounts. It is idempotent and never fails.
func (a *AnnualAggregate) RecalculateTotals() {
	slots := a.Slots()
	total := decimal.Zero
	for q, quarter := range a.Quarters() {
		sum := decimal.Zero
		for _, slot := range slots[q*3 : q*3+3] {
			sum = sum.Add(slot.Amount)
		}
		*quarter = sum
		total = total.Add(sum)
	}
	a.YearTotal = total
}

// BeforeSave hook keeps the derived totals in step with the monthly amounts
// on every persisted write
func (a *AnnualAggregate) BeforeSave(tx *gorm.DB) error {
	a.RecalculateTotals()
	return nil
}
