package service

import (
	"context"
	"fmt"
	"math/rand"

	"utility-works/internal/model"

	"github.com/shopspring/decimal"
)

// seedWorks lists typical works per category
var seedWorks = map[model.Category][]string{
	model.CategoryWater: {
		"Замена участка водопровода",
		"Ремонт водопроводного колодца",
		"Устранение утечки",
		"Замена задвижки",
	},
	model.CategorySewerage: {
		"Прочистка канализационной сети",
		"Ремонт канализационного колодца",
		"Замена канализационной трубы",
	},
}

// Seeder fills the ledger with sample entries. Entries go through the entry
// service so the aggregate tables are maintained exactly as for real edits.
type Seeder struct {
	entries EntryService
	rnd     *rand.Rand
}

// NewSeeder creates a seeder using the given random source
func NewSeeder(entries EntryService, seed int64) *Seeder {
	return &Seeder{entries: entries, rnd: rand.New(rand.NewSource(seed))}
}

// Seed creates entries for every work in every month of the given years,
// skipping roughly a quarter of the months so some aggregate slots stay empty.
// It returns the number of entries created.
func (s *Seeder) Seed(ctx context.Context, years []int) (int, error) {
	total := 0
	for _, year := range years {
		for _, category := range model.Categories {
			for _, work := range seedWorks[category] {
				for month := 1; month <= 12; month++ {
					if s.rnd.Intn(4) == 0 {
						continue
					}
					input := s.entryFor(category, work, year, month)
					if _, err := s.entries.CreateEntry(ctx, input); err != nil {
						return total, fmt.Errorf("seed %s %d/%d %q: %w", category, year, month, work, err)
					}
					total++
				}
			}
		}
	}
	return total, nil
}

func (s *Seeder) entryFor(category model.Category, work string, year, month int) EntryInput {
	// Volume in cubic meters or meters of pipe, 1..50
	volume := float64(s.rnd.Intn(4900)+100) / 100

	// Unit price between 800 and 2500 with more work in the warm season
	price := 800 + s.rnd.Float64()*1700
	if month >= 5 && month <= 9 {
		price *= 1.2
	}
	amount := decimal.NewFromFloat(volume * price).Round(2)

	return EntryInput{
		Category:    category,
		Year:        year,
		Month:       month,
		WorkName:    work,
		Description: fmt.Sprintf("%s, %s %d", work, model.MonthName(month), year),
		Volume:      volume,
		Amount:      amount,
	}
}
