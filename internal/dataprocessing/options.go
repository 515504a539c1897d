package dataprocessing

import (
	"salespulse/pkg/contracts/domain"
)

// BuildFilterOptions summarizes the unfiltered record set: distinct profiles
// in order of first appearance, global price bounds and global calendar-date
// bounds. Bounds are nil when there are no records.
func BuildFilterOptions(records []domain.Transaction) domain.FilterOptions {
	opts := domain.FilterOptions{Profiles: []string{}}
	if len(records) == 0 {
		return opts
	}

	seen := make(map[string]struct{})
	price := domain.PriceRange{Min: records[0].Amount, Max: records[0].Amount}
	dates := domain.DateRange{Min: records[0].Date(), Max: records[0].Date()}

	for _, tx := range records {
		if tx.Profile != "" {
			if _, ok := seen[tx.Profile]; !ok {
				seen[tx.Profile] = struct{}{}
				opts.Profiles = append(opts.Profiles, tx.Profile)
			}
		}

		price.Min = min(price.Min, tx.Amount)
		price.Max = max(price.Max, tx.Amount)

		day := tx.Date()
		if day.Before(dates.Min) {
			dates.Min = day
		}
		if day.After(dates.Max) {
			dates.Max = day
		}
	}

	opts.PriceRange = &price
	opts.DateRange = &dates
	return opts
}
