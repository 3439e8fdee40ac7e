package services

import (
	"fmt"
	"sort"

	"github.com/yishak-cs/cinetune/internal/models"
)

// BuildUserItemMatrix groups positive interaction rows into user -> item set.
func BuildUserItemMatrix(rows []models.UserItem) map[models.ID]models.ItemSet {
	matrix := make(map[models.ID]models.ItemSet)
	for _, row := range rows {
		set, ok := matrix[row.UserID]
		if !ok {
			set = make(models.ItemSet)
			matrix[row.UserID] = set
		}
		set.Add(row.ItemID)
	}
	return matrix
}

// withDefaults fills zero or negative options with the defaults.
func withDefaults(opts models.CollaborativeOptions) models.CollaborativeOptions {
	def := models.DefaultCollaborativeOptions()
	if opts.K <= 0 {
		opts.K = def.K
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.MinOverlap <= 0 {
		opts.MinOverlap = def.MinOverlap
	}
	if opts.Metric != models.MetricJaccard {
		opts.Metric = models.MetricCosine
	}
	return opts
}

// SelectNeighbors runs the full-scan nearest-neighbor search for target
// over matrix. Users sharing fewer than MinOverlap items with the target
// are skipped; survivors are ranked by similarity computed on the complete
// sets, ties broken by user id, and truncated to K.
func SelectNeighbors(matrix map[models.ID]models.ItemSet, target models.ID, opts models.CollaborativeOptions) *models.Neighborhood {
	opts = withDefaults(opts)

	hood := &models.Neighborhood{
		Stats: models.NeighborhoodStats{TotalUsers: len(matrix)},
	}

	targetItems := matrix[target]
	hood.TargetItems = targetItems
	if len(targetItems) < opts.MinOverlap {
		hood.Reason = models.ReasonInsufficientUserData
		hood.Message = fmt.Sprintf("User has only %d interactions. Need at least %d.", len(targetItems), opts.MinOverlap)
		return hood
	}

	// sorted scan keeps discovery order reproducible
	users := make([]models.ID, 0, len(matrix))
	for id := range matrix {
		if id != target {
			users = append(users, id)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	var candidates []models.Neighbor
	for _, other := range users {
		otherItems := matrix[other]

		overlap := 0
		for item := range targetItems {
			if otherItems.Has(item) {
				overlap++
				if overlap >= opts.MinOverlap {
					break
				}
			}
		}
		if overlap < opts.MinOverlap {
			continue
		}

		sim := Similarity(opts.Metric, targetItems, otherItems)
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, models.Neighbor{
			UserID:     other,
			Similarity: sim,
			Items:      otherItems,
			Overlap:    overlap,
		})
	}

	hood.Stats.SimilarUsers = len(candidates)
	if len(candidates) == 0 {
		hood.Reason = models.ReasonNoSimilarUsers
		hood.Message = "No users found with sufficient overlap."
		return hood
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}

	hood.Neighbors = candidates
	hood.Stats.TopKNeighbors = len(candidates)
	return hood
}

// summarizeNeighbors returns at most n neighbor summaries.
func summarizeNeighbors(neighbors []models.Neighbor, n int) []models.NeighborSummary {
	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	out := make([]models.NeighborSummary, 0, len(neighbors))
	for _, nb := range neighbors {
		out = append(out, models.NeighborSummary{
			Similarity: nb.Similarity,
			Overlap:    nb.Overlap,
			ItemCount:  len(nb.Items),
		})
	}
	return out
}
