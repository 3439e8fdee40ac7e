package services

import (
	"sort"

	"github.com/yishak-cs/cinetune/internal/models"
)

// WeightedSource is one recommender's output together with its weight in
// the hybrid blend.
type WeightedSource struct {
	Name   string
	Items  []models.Recommendation
	Weight float64
}

// Combine merges sources into a single ranking. Each occurrence of an item
// contributes score*weight, with a missing score counting as 1. Sources with
// a non-positive weight are ignored. The result does not depend on the order
// of sources.
func Combine(sources []WeightedSource, limit int) []models.CatalogItem {
	type entry struct {
		item  models.CatalogItem
		parts []float64
		total float64
	}

	entries := make(map[models.ID]*entry)
	for _, src := range sources {
		if src.Weight <= 0 {
			continue
		}
		for _, rec := range src.Items {
			if rec.Item == nil {
				continue
			}
			id := rec.Item.ItemID()
			e, ok := entries[id]
			if !ok {
				e = &entry{item: rec.Item}
				entries[id] = e
			}
			e.parts = append(e.parts, rec.ScoreOr(1)*src.Weight)
		}
	}

	ranked := make([]*entry, 0, len(entries))
	for _, e := range entries {
		// float addition is not associative; sum in a fixed order
		sort.Float64s(e.parts)
		for _, p := range e.parts {
			e.total += p
		}
		ranked = append(ranked, e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].item.ItemID() < ranked[j].item.ItemID()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]models.CatalogItem, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, e.item)
	}
	return out
}
