package services

import (
	"context"
	"fmt"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
)

// SimpleRecommendation is the result of the single-neighbor recommender.
type SimpleRecommendation struct {
	SimilarUserID models.ID            `json:"similarUserId,omitempty"`
	Similarity    float64              `json:"similarity"`
	Movies        []models.CatalogItem `json:"movies"`
	Music         []models.CatalogItem `json:"music"`
}

// SimpleCollaborativeService recommends whatever the single most similar
// user liked, computed over the liked lists kept on user records.
type SimpleCollaborativeService struct {
	users   UserStore
	catalog CatalogStore
	log     *logger.Logger
}

// NewSimpleCollaborativeService creates a new SimpleCollaborativeService.
func NewSimpleCollaborativeService(users UserStore, catalog CatalogStore, log *logger.Logger) *SimpleCollaborativeService {
	return &SimpleCollaborativeService{
		users:   users,
		catalog: catalog,
		log:     log.With("service", "SimpleCollaborativeService"),
	}
}

func combinedLikes(u models.UserLikes) models.ItemSet {
	set := make(models.ItemSet, len(u.LikedMovies)+len(u.LikedMusic))
	for _, id := range u.LikedMovies {
		set.Add(id)
	}
	for _, id := range u.LikedMusic {
		set.Add(id)
	}
	return set
}

// MostSimilarUser returns the user whose combined liked set is closest to
// target's by cosine similarity. Ties go to the smaller user id. ok is false
// when target is unknown or nobody shares an item with it.
func MostSimilarUser(all []models.UserLikes, target models.ID) (best models.UserLikes, similarity float64, ok bool) {
	var targetSet models.ItemSet
	for _, u := range all {
		if u.UserID == target {
			targetSet = combinedLikes(u)
			break
		}
	}
	if len(targetSet) == 0 {
		return models.UserLikes{}, 0, false
	}

	for _, u := range all {
		if u.UserID == target {
			continue
		}
		sim := CosineSimilarity(targetSet, combinedLikes(u))
		if sim <= 0 {
			continue
		}
		if !ok || sim > similarity || (sim == similarity && u.UserID < best.UserID) {
			best, similarity, ok = u, sim, true
		}
	}
	return best, similarity, ok
}

// Recommend returns the most similar user's liked items that the target
// has not liked, keeping that user's list order.
func (s *SimpleCollaborativeService) Recommend(ctx context.Context, userID models.ID) (*SimpleRecommendation, error) {
	if userID.IsZero() {
		return nil, invalid("user", "required")
	}
	all, err := s.users.ListUserLikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user likes: %w", err)
	}

	result := &SimpleRecommendation{
		Movies: []models.CatalogItem{},
		Music:  []models.CatalogItem{},
	}
	best, sim, ok := MostSimilarUser(all, userID)
	if !ok {
		return result, nil
	}
	result.SimilarUserID = best.UserID
	result.Similarity = sim

	var seen models.ItemSet
	for _, u := range all {
		if u.UserID == userID {
			seen = combinedLikes(u)
			break
		}
	}

	if result.Movies, err = s.resolve(ctx, models.ItemTypeMovie, unseen(best.LikedMovies, seen)); err != nil {
		return nil, err
	}
	if result.Music, err = s.resolve(ctx, models.ItemTypeMusic, unseen(best.LikedMusic, seen)); err != nil {
		return nil, err
	}
	return result, nil
}

func unseen(ids []models.ID, seen models.ItemSet) []models.ID {
	out := make([]models.ID, 0, len(ids))
	for _, id := range ids {
		if !seen.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// resolve fetches ids and returns them in the order given.
func (s *SimpleCollaborativeService) resolve(ctx context.Context, itemType models.ItemType, ids []models.ID) ([]models.CatalogItem, error) {
	if len(ids) == 0 {
		return []models.CatalogItem{}, nil
	}
	items, err := s.catalog.FindItemsByIDs(ctx, itemType, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s items: %w", itemType, err)
	}
	byID := make(map[models.ID]models.CatalogItem, len(items))
	for _, it := range items {
		byID[it.ItemID()] = it
	}
	out := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}
