package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/metrics"
	"github.com/yishak-cs/cinetune/internal/models"
)

// AudioFeatures is a point in the music feature space.
type AudioFeatures struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
}

var moodFeatureTable = map[string]AudioFeatures{
	"happy":        {Energy: 0.7, Valence: 0.8, Danceability: 0.7},
	"sad":          {Energy: 0.3, Valence: 0.2, Danceability: 0.3},
	"energetic":    {Energy: 0.9, Valence: 0.7, Danceability: 0.8},
	"calm":         {Energy: 0.3, Valence: 0.5, Danceability: 0.3},
	"romantic":     {Energy: 0.4, Valence: 0.6, Danceability: 0.5},
	"angry":        {Energy: 0.9, Valence: 0.3, Danceability: 0.6},
	"motivational": {Energy: 0.8, Valence: 0.7, Danceability: 0.7},
	"relaxing":     {Energy: 0.2, Valence: 0.6, Danceability: 0.2},
}

// moodWindow is the half-width of the energy/valence window around a mood.
const moodWindow = 0.2

// MoodFeatures maps a mood label to its target audio features. Lookup is
// case-insensitive; unknown moods map to the neutral 0.5 point.
func MoodFeatures(mood string) AudioFeatures {
	if f, ok := moodFeatureTable[strings.ToLower(strings.TrimSpace(mood))]; ok {
		return f
	}
	return AudioFeatures{Energy: 0.5, Valence: 0.5, Danceability: 0.5}
}

// MoodService ranks catalog items that fit a requested mood.
type MoodService struct {
	interactions InteractionStore
	catalog      CatalogStore
	log          *logger.Logger
}

// NewMoodService creates a new MoodService.
func NewMoodService(interactions InteractionStore, catalog CatalogStore, log *logger.Logger) *MoodService {
	return &MoodService{
		interactions: interactions,
		catalog:      catalog,
		log:          log.With("service", "MoodService"),
	}
}

// Recommend dispatches to Movies or Music by item type.
func (s *MoodService) Recommend(ctx context.Context, userID models.ID, itemType models.ItemType, mood string, limit int) ([]models.Recommendation, error) {
	switch itemType {
	case models.ItemTypeMovie:
		return s.Movies(ctx, userID, mood, limit)
	case models.ItemTypeMusic:
		return s.Music(ctx, userID, mood, limit)
	}
	return nil, invalid("itemType", fmt.Sprintf("unsupported item type %q", itemType))
}

// Movies returns movies tagged with mood that the user has not liked yet,
// scored by rating.
func (s *MoodService) Movies(ctx context.Context, userID models.ID, mood string, limit int) ([]models.Recommendation, error) {
	limit = normalizeLimit(limit)
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return nil, invalid("mood", "required")
	}
	metrics.RecommendationRequests.WithLabelValues("mood", string(models.ItemTypeMovie)).Inc()

	liked, err := likedItemIDs(ctx, s.interactions, userID, models.ItemTypeMovie)
	if err != nil {
		return nil, err
	}

	movies, err := s.catalog.FindMovies(ctx, models.MovieQuery{
		ExcludeIDs: liked,
		Mood:       mood,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %q movies: %w", mood, err)
	}

	recs := make([]models.Recommendation, 0, len(movies))
	for _, m := range movies {
		recs = append(recs, models.Scored(m, m.Rating, models.SourceMood))
	}
	return recs, nil
}

// Music returns unliked tracks whose energy and valence lie within
// moodWindow of the mood's target, scored by popularity.
func (s *MoodService) Music(ctx context.Context, userID models.ID, mood string, limit int) ([]models.Recommendation, error) {
	limit = normalizeLimit(limit)
	metrics.RecommendationRequests.WithLabelValues("mood", string(models.ItemTypeMusic)).Inc()

	liked, err := likedItemIDs(ctx, s.interactions, userID, models.ItemTypeMusic)
	if err != nil {
		return nil, err
	}

	target := MoodFeatures(mood)
	// danceability is part of the target but deliberately not filtered on
	tracks, err := s.catalog.FindMusic(ctx, models.MusicQuery{
		ExcludeIDs: liked,
		Energy:     &models.Range{Min: target.Energy - moodWindow, Max: target.Energy + moodWindow},
		Valence:    &models.Range{Min: target.Valence - moodWindow, Max: target.Valence + moodWindow},
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %q music: %w", mood, err)
	}

	recs := make([]models.Recommendation, 0, len(tracks))
	for _, t := range tracks {
		recs = append(recs, models.Scored(t, t.Popularity, models.SourceMood))
	}
	return recs, nil
}

// likedItemIDs returns every item of itemType the user liked or favorited.
func likedItemIDs(ctx context.Context, store InteractionStore, userID models.ID, itemType models.ItemType) ([]models.ID, error) {
	rows, err := store.FindUserInteractions(ctx, models.InteractionQuery{
		UserID:   userID,
		ItemType: itemType,
		Kinds:    models.PositiveKinds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load liked %s: %w", itemType, err)
	}
	set := make(models.ItemSet, len(rows))
	for _, r := range rows {
		set.Add(r.ItemID)
	}
	return setIDs(set), nil
}

func setIDs(set models.ItemSet) []models.ID {
	out := make([]models.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func setKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
