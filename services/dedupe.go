package services

import (
	"immosearch/models"
	"immosearch/utils"
)

// Deduplicator drops listings already seen under the same key.
type Deduplicator struct {
	logger *utils.Logger
}

// NewDeduplicator creates a Deduplicator with the given logger.
func NewDeduplicator(logger *utils.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Dedupe keeps the first listing for every DedupKey, in input order.
func (d *Deduplicator) Dedupe(listings []*models.Listing) []*models.Listing {
	seen := utils.NewKeySet()
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if l == nil {
			continue
		}
		key := l.DedupKey()
		if !seen.Add(key) {
			d.logger.Debug("[dedupe] Duplicate skipped: %s", key)
			continue
		}
		result = append(result, l)
	}

	if dropped := len(listings) - len(result); dropped > 0 {
		d.logger.Info("[dedupe] Deduplicated %d → %d listings (dropped %d)",
			len(listings), len(result), dropped)
	}
	return result
}
