package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/metrics"
	"github.com/yishak-cs/cinetune/internal/models"
)

// CollaborativeService implements user-based collaborative filtering over
// the positive interaction log. It holds no state between calls.
type CollaborativeService struct {
	interactions InteractionStore
	catalog      CatalogStore
	log          *logger.Logger
}

// NewCollaborativeService creates a new collaborative filtering service
func NewCollaborativeService(interactions InteractionStore, catalog CatalogStore, log *logger.Logger) *CollaborativeService {
	return &CollaborativeService{
		interactions: interactions,
		catalog:      catalog,
		log:          log.With("service", "CollaborativeService"),
	}
}

// BuildNeighborhood scans all positive interactions of itemType once and
// selects the target user's neighbors.
func (s *CollaborativeService) BuildNeighborhood(ctx context.Context, userID models.ID, itemType models.ItemType, opts models.CollaborativeOptions) (*models.Neighborhood, error) {
	rows, err := s.interactions.FindPositiveInteractions(ctx, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s interactions: %w", itemType, err)
	}
	if len(rows) == 0 {
		return &models.Neighborhood{
			Reason:  models.ReasonNoData,
			Message: fmt.Sprintf("No %s interactions recorded yet.", itemType),
		}, nil
	}
	return SelectNeighbors(BuildUserItemMatrix(rows), userID, opts), nil
}

type itemScore struct {
	ID    models.ID
	Score float64
}

// ScoreCandidates accumulates neighbor similarity per item the target user
// has not touched. Output is ordered by score desc, then item id.
func ScoreCandidates(hood *models.Neighborhood) []itemScore {
	scores := make(map[models.ID]float64)
	for _, nb := range hood.Neighbors {
		for item := range nb.Items {
			if hood.TargetItems.Has(item) {
				continue
			}
			scores[item] += nb.Similarity
		}
	}

	out := make([]itemScore, 0, len(scores))
	for id, score := range scores {
		out = append(out, itemScore{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Recommend returns items liked by the user's nearest neighbors. Data
// insufficiency is reported through the result's Reason, never as an error.
func (s *CollaborativeService) Recommend(ctx context.Context, userID models.ID, itemType models.ItemType, opts models.CollaborativeOptions) (*models.CollaborativeResult, error) {
	opts = withDefaults(opts)
	metrics.RecommendationRequests.WithLabelValues("collaborative", string(itemType)).Inc()

	hood, err := s.BuildNeighborhood(ctx, userID, itemType, opts)
	if err != nil {
		return nil, err
	}

	result := &models.CollaborativeResult{
		Recommendations: []models.Recommendation{},
		Neighbors:       []models.NeighborSummary{},
		Source:          models.SourceCollaborative,
	}
	metrics.CollaborativeNeighbors.WithLabelValues(string(itemType)).Observe(float64(len(hood.Neighbors)))

	if hood.Reason != models.ReasonNone {
		result.Reason = hood.Reason
		result.Message = hood.Message
		s.observe(userID, itemType, result)
		return result, nil
	}

	result.Neighbors = summarizeNeighbors(hood.Neighbors, 10)
	candidates := ScoreCandidates(hood)
	if len(candidates) == 0 {
		result.Reason = models.ReasonNoNewItems
		result.Message = "All neighbor items already seen by user."
		s.observe(userID, itemType, result)
		return result, nil
	}

	result.Stats = &models.CollaborativeStats{
		NeighborhoodStats: hood.Stats,
		CandidateItems:    len(candidates),
		TargetUserItems:   len(hood.TargetItems),
	}

	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	ids := make([]models.ID, 0, len(candidates))
	scoreByID := make(map[models.ID]float64, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
		scoreByID[c.ID] = c.Score
	}

	items, err := s.catalog.FindItemsByIDs(ctx, itemType, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommended %s items: %w", itemType, err)
	}

	for _, item := range items {
		result.Recommendations = append(result.Recommendations,
			models.Scored(item, scoreByID[item.ItemID()], models.SourceCollaborative))
	}
	// fetch order is not the score order
	sortRecommendations(result.Recommendations)

	s.observe(userID, itemType, result)
	return result, nil
}

func (s *CollaborativeService) observe(userID models.ID, itemType models.ItemType, result *models.CollaborativeResult) {
	reason := string(result.Reason)
	if reason == "" {
		reason = "ok"
	}
	metrics.CollaborativeOutcomes.WithLabelValues(string(itemType), reason).Inc()
	s.log.Debug("collaborative recommendations computed",
		"user_id", userID,
		"item_type", itemType,
		"reason", reason,
		"neighbors", len(result.Neighbors),
		"recommendations", len(result.Recommendations))
}

// sortRecommendations orders by score desc (absent scores count as 0),
// then item id.
func sortRecommendations(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		si, sj := recs[i].ScoreOr(0), recs[j].ScoreOr(0)
		if si != sj {
			return si > sj
		}
		return recs[i].Item.ItemID() < recs[j].Item.ItemID()
	})
}
