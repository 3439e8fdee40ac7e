package services

import (
	"context"
	"fmt"
	"math"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/metrics"
	"github.com/yishak-cs/cinetune/internal/models"
)

const (
	defaultLimit = 20
	// likedHistoryLimit caps how many recent likes build a taste profile.
	likedHistoryLimit = 50
)

// ContentService recommends catalog items whose attributes overlap with the
// items a user already liked.
type ContentService struct {
	interactions InteractionStore
	catalog      CatalogStore
	log          *logger.Logger
}

// NewContentService creates a new content-based recommender
func NewContentService(interactions InteractionStore, catalog CatalogStore, log *logger.Logger) *ContentService {
	return &ContentService{
		interactions: interactions,
		catalog:      catalog,
		log:          log.With("service", "ContentService"),
	}
}

// Recommend dispatches on item type.
func (s *ContentService) Recommend(ctx context.Context, userID models.ID, itemType models.ItemType, limit int) ([]models.Recommendation, error) {
	switch itemType {
	case models.ItemTypeMovie:
		return s.Movies(ctx, userID, limit)
	case models.ItemTypeMusic:
		return s.Music(ctx, userID, limit)
	}
	return nil, invalid("itemType", fmt.Sprintf("unsupported item type %q", itemType))
}

// MovieProfile is the union of genres and moods over liked movies.
type MovieProfile struct {
	Genres map[string]struct{}
	Moods  map[string]struct{}
	Liked  models.ItemSet
}

// ScoreMovie gives +2 per matching genre, +1 per matching mood, plus
// popularity/1000 and rating/2.
func ScoreMovie(p MovieProfile, m models.Movie) float64 {
	score := 0.0
	for _, g := range m.Genres {
		if _, ok := p.Genres[g]; ok {
			score += 2
		}
	}
	for _, mood := range m.Moods {
		if _, ok := p.Moods[mood]; ok {
			score++
		}
	}
	score += m.Popularity / 1000
	score += m.Rating / 2
	return score
}

// Movies returns content-based movie recommendations. Users without any
// positive history get the most popular movies instead.
func (s *ContentService) Movies(ctx context.Context, userID models.ID, limit int) ([]models.Recommendation, error) {
	limit = normalizeLimit(limit)
	metrics.RecommendationRequests.WithLabelValues("content", string(models.ItemTypeMovie)).Inc()

	likes, err := s.interactions.FindUserInteractions(ctx, models.InteractionQuery{
		UserID:   userID,
		ItemType: models.ItemTypeMovie,
		Kinds:    models.PositiveKinds,
		Limit:    likedHistoryLimit,
		WithItem: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load liked movies: %w", err)
	}

	if len(likes) == 0 {
		popular, err := s.catalog.FindMovies(ctx, models.MovieQuery{Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("failed to load popular movies: %w", err)
		}
		recs := make([]models.Recommendation, 0, len(popular))
		for _, m := range popular {
			recs = append(recs, models.Unscored(m, models.SourcePopularity))
		}
		return recs, nil
	}

	profile := MovieProfile{
		Genres: make(map[string]struct{}),
		Moods:  make(map[string]struct{}),
		Liked:  make(models.ItemSet),
	}
	for _, like := range likes {
		movie, ok := like.Item.(models.Movie)
		if !ok {
			continue
		}
		profile.Liked.Add(movie.ID)
		for _, g := range movie.Genres {
			profile.Genres[g] = struct{}{}
		}
		for _, m := range movie.Moods {
			profile.Moods[m] = struct{}{}
		}
	}

	candidates, err := s.catalog.FindMovies(ctx, models.MovieQuery{
		ExcludeIDs: setIDs(profile.Liked),
		Similar: &models.MovieSimilarity{
			Genres: setKeys(profile.Genres),
			Moods:  setKeys(profile.Moods),
		},
		Limit: limit * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate movies: %w", err)
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, m := range candidates {
		recs = append(recs, models.Scored(m, ScoreMovie(profile, m), models.SourceContentBased))
	}
	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// MusicProfile holds liked genres and artists and the mean audio features
// of liked tracks.
type MusicProfile struct {
	Genres          map[string]struct{}
	Artists         map[string]struct{}
	Liked           models.ItemSet
	AvgEnergy       float64
	AvgValence      float64
	AvgDanceability float64
}

// ScoreMusic gives +3 for a liked genre, +2 for a liked artist, up to +2 for
// closeness to the average audio features, plus popularity/1000.
func ScoreMusic(p MusicProfile, m models.Music) float64 {
	score := 0.0
	if _, ok := p.Genres[m.Genre]; ok {
		score += 3
	}
	if _, ok := p.Artists[m.Artist]; ok {
		score += 2
	}
	diff := math.Abs(m.Energy-p.AvgEnergy) +
		math.Abs(m.Valence-p.AvgValence) +
		math.Abs(m.Danceability-p.AvgDanceability)
	score += (1 - diff/3) * 2
	score += m.Popularity / 1000
	return score
}

// Music returns content-based music recommendations, falling back to the
// most popular tracks for users without history.
func (s *ContentService) Music(ctx context.Context, userID models.ID, limit int) ([]models.Recommendation, error) {
	limit = normalizeLimit(limit)
	metrics.RecommendationRequests.WithLabelValues("content", string(models.ItemTypeMusic)).Inc()

	likes, err := s.interactions.FindUserInteractions(ctx, models.InteractionQuery{
		UserID:   userID,
		ItemType: models.ItemTypeMusic,
		Kinds:    models.PositiveKinds,
		Limit:    likedHistoryLimit,
		WithItem: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load liked music: %w", err)
	}

	if len(likes) == 0 {
		popular, err := s.catalog.FindMusic(ctx, models.MusicQuery{Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("failed to load popular music: %w", err)
		}
		recs := make([]models.Recommendation, 0, len(popular))
		for _, m := range popular {
			recs = append(recs, models.Unscored(m, models.SourcePopularity))
		}
		return recs, nil
	}

	profile := MusicProfile{
		Genres:  make(map[string]struct{}),
		Artists: make(map[string]struct{}),
		Liked:   make(models.ItemSet),
	}
	count := 0
	for _, like := range likes {
		track, ok := like.Item.(models.Music)
		if !ok {
			continue
		}
		profile.Liked.Add(track.ID)
		if track.Genre != "" {
			profile.Genres[track.Genre] = struct{}{}
		}
		if track.Artist != "" {
			profile.Artists[track.Artist] = struct{}{}
		}
		profile.AvgEnergy += track.Energy
		profile.AvgValence += track.Valence
		profile.AvgDanceability += track.Danceability
		count++
	}
	if count > 0 {
		profile.AvgEnergy /= float64(count)
		profile.AvgValence /= float64(count)
		profile.AvgDanceability /= float64(count)
	}

	candidates, err := s.catalog.FindMusic(ctx, models.MusicQuery{
		ExcludeIDs: setIDs(profile.Liked),
		Similar: &models.MusicSimilarity{
			Genres:  setKeys(profile.Genres),
			Artists: setKeys(profile.Artists),
		},
		Limit: limit * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate music: %w", err)
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, m := range candidates {
		recs = append(recs, models.Scored(m, ScoreMusic(profile, m), models.SourceContentBased))
	}
	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
