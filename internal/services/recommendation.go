package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
)

// hybridCollaborativeOptions is what the hybrid path asks of collaborative
// filtering; limit is doubled at call time.
var hybridCollaborativeOptions = models.CollaborativeOptions{
	K:          30,
	MinOverlap: 2,
	Metric:     models.MetricCosine,
}

// RecommendationService handles all recommendation logic
type RecommendationService struct {
	content       *ContentService
	collaborative *CollaborativeService
	mood          *MoodService
	interactions  *InteractionService
	audit         *AuditService
	log           *logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(interactions InteractionStore, catalog CatalogStore, log *logger.Logger) *RecommendationService {
	return &RecommendationService{
		content:       NewContentService(interactions, catalog, log),
		collaborative: NewCollaborativeService(interactions, catalog, log),
		mood:          NewMoodService(interactions, catalog, log),
		interactions:  NewInteractionService(interactions, log),
		audit:         NewAuditService(interactions, log),
		log:           log.With("service", "RecommendationService"),
	}
}

// MovieRecommendations blends content-based, collaborative and (when mood
// is set) mood-based movie recommendations.
func (s *RecommendationService) MovieRecommendations(ctx context.Context, userID models.ID, mood string, limit int) (*models.HybridResult, error) {
	return s.HybridRecommendation(ctx, userID, models.ItemTypeMovie, mood, limit)
}

// MusicRecommendations is the music counterpart of MovieRecommendations.
func (s *RecommendationService) MusicRecommendations(ctx context.Context, userID models.ID, mood string, limit int) (*models.HybridResult, error) {
	return s.HybridRecommendation(ctx, userID, models.ItemTypeMusic, mood, limit)
}

// HybridRecommendation runs the sub-recommenders concurrently and combines
// them with the default weights. Any store failure fails the whole call.
func (s *RecommendationService) HybridRecommendation(ctx context.Context, userID models.ID, itemType models.ItemType, mood string, limit int) (*models.HybridResult, error) {
	if userID.IsZero() {
		return nil, invalid("user", "required")
	}
	limit = normalizeLimit(limit)

	var (
		contentRecs []models.Recommendation
		collabRecs  []models.Recommendation
		moodRecs    []models.Recommendation
		liked       []models.CatalogItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contentRecs, err = s.content.Recommend(gctx, userID, itemType, limit)
		return err
	})
	g.Go(func() error {
		opts := hybridCollaborativeOptions
		opts.Limit = limit * 2
		res, err := s.collaborative.Recommend(gctx, userID, itemType, opts)
		if err != nil {
			return err
		}
		collabRecs = res.Recommendations
		if len(collabRecs) > limit {
			collabRecs = collabRecs[:limit]
		}
		return nil
	})
	if mood != "" {
		g.Go(func() error {
			var err error
			moodRecs, err = s.mood.Recommend(gctx, userID, itemType, mood, limit)
			return err
		})
	}
	g.Go(func() error {
		var err error
		liked, err = s.interactions.Liked(gctx, userID, itemType)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("hybrid recommendation failed", "user_id", userID, "item_type", itemType, "error", err)
		return nil, err
	}

	weights := s.GetDefaultWeights(mood != "")
	combined := Combine([]WeightedSource{
		{Name: models.SourceContentBased, Items: contentRecs, Weight: weights.ContentBased},
		{Name: models.SourceCollaborative, Items: collabRecs, Weight: weights.Collaborative},
		{Name: models.SourceMood, Items: moodRecs, Weight: weights.Mood},
	}, limit)

	result := &models.HybridResult{
		Recommendations: combined,
		Liked:           liked,
	}
	if mood != "" {
		m := mood
		result.Mood = &m
	}

	s.log.Debug("hybrid recommendations computed",
		"user_id", userID,
		"item_type", itemType,
		"mood", mood,
		"content", len(contentRecs),
		"collaborative", len(collabRecs),
		"mood_based", len(moodRecs),
		"returned", len(combined))
	return result, nil
}

// GetDefaultWeights returns the default weights for hybrid recommendations
func (s *RecommendationService) GetDefaultWeights(withMood bool) models.HybridWeights {
	return models.DefaultHybridWeights(withMood)
}

// CollaborativeRecommendations exposes pure collaborative filtering.
func (s *RecommendationService) CollaborativeRecommendations(ctx context.Context, userID models.ID, itemType models.ItemType, opts models.CollaborativeOptions) (*models.CollaborativeResult, error) {
	if userID.IsZero() {
		return nil, invalid("user", "required")
	}
	if !itemType.Valid() {
		return nil, invalid("itemType", "must be movie or music")
	}
	return s.collaborative.Recommend(ctx, userID, itemType, opts)
}

// CollaborativeOrFallback returns collaborative recommendations, or the
// content-based list labeled fallback_content_based when CF yields nothing.
// Reason and message of the empty CF result are kept.
func (s *RecommendationService) CollaborativeOrFallback(ctx context.Context, userID models.ID, itemType models.ItemType, opts models.CollaborativeOptions) (*models.CollaborativeResult, error) {
	res, err := s.CollaborativeRecommendations(ctx, userID, itemType, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Recommendations) > 0 {
		return res, nil
	}

	limit := withDefaults(opts).Limit
	fallback, err := s.content.Recommend(ctx, userID, itemType, limit)
	if err != nil {
		return nil, err
	}
	res.Recommendations = fallback
	res.Source = models.SourceFallback
	s.log.Info("collaborative filtering fell back to content-based",
		"user_id", userID,
		"item_type", itemType,
		"reason", res.Reason)
	return res, nil
}

// TrackInteraction validates and records one interaction.
func (s *RecommendationService) TrackInteraction(ctx context.Context, userID models.ID, in TrackInput) (*models.Interaction, error) {
	return s.interactions.Track(ctx, userID, in)
}

// LikedItems returns the user's most recently liked items of itemType.
func (s *RecommendationService) LikedItems(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.CatalogItem, error) {
	if userID.IsZero() {
		return nil, invalid("user", "required")
	}
	return s.interactions.Liked(ctx, userID, itemType)
}

// AuditReadiness reports whether CF has enough data to be meaningful.
func (s *RecommendationService) AuditReadiness(ctx context.Context) (*models.ReadinessReport, error) {
	return s.audit.Readiness(ctx)
}
