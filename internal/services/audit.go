package services

import (
	"context"
	"fmt"
	"math"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
)

const (
	minViableUsers           = 10
	minViableAvgInteractions = 3
)

// AuditService reports whether the interaction log is rich enough for
// collaborative filtering. It never writes.
type AuditService struct {
	interactions InteractionStore
	log          *logger.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(interactions InteractionStore, log *logger.Logger) *AuditService {
	return &AuditService{
		interactions: interactions,
		log:          log.With("service", "AuditService"),
	}
}

// Readiness builds the per-type and overall readiness report.
func (s *AuditService) Readiness(ctx context.Context) (*models.ReadinessReport, error) {
	movies, movieUsers, err := s.typeReadiness(ctx, models.ItemTypeMovie)
	if err != nil {
		return nil, err
	}
	music, musicUsers, err := s.typeReadiness(ctx, models.ItemTypeMusic)
	if err != nil {
		return nil, err
	}

	users := models.NewItemSet(movieUsers...)
	for _, u := range musicUsers {
		users.Add(u)
	}

	report := &models.ReadinessReport{
		Movies: movies,
		Music:  music,
		Overall: models.OverallReadiness{
			TotalInteractions: movies.TotalInteractions + music.TotalInteractions,
			TotalUniqueUsers:  len(users),
			ReadyForCF:        movies.IsViableForCF || music.IsViableForCF,
		},
	}
	s.log.Info("collaborative readiness audited",
		"movie_users", movies.UniqueUsers,
		"music_users", music.UniqueUsers,
		"ready", report.Overall.ReadyForCF)
	return report, nil
}

func (s *AuditService) typeReadiness(ctx context.Context, itemType models.ItemType) (models.TypeReadiness, []models.ID, error) {
	total, err := s.interactions.CountInteractions(ctx, itemType, models.PositiveKinds)
	if err != nil {
		return models.TypeReadiness{}, nil, fmt.Errorf("failed to count %s interactions: %w", itemType, err)
	}
	users, err := s.interactions.DistinctUsers(ctx, itemType, models.PositiveKinds)
	if err != nil {
		return models.TypeReadiness{}, nil, fmt.Errorf("failed to list %s users: %w", itemType, err)
	}
	stats, err := s.interactions.AggregatePerUserCounts(ctx, itemType, models.PositiveKinds)
	if err != nil {
		return models.TypeReadiness{}, nil, fmt.Errorf("failed to aggregate %s interactions: %w", itemType, err)
	}

	viable := stats.TotalUsers >= minViableUsers && stats.Avg >= minViableAvgInteractions
	r := models.TypeReadiness{
		TotalInteractions:      total,
		UniqueUsers:            len(users),
		AvgInteractionsPerUser: math.Round(stats.Avg*100) / 100,
		MinInteractionsPerUser: stats.Min,
		MaxInteractionsPerUser: stats.Max,
		IsViableForCF:          viable,
		Recommendation:         "Sufficient data for collaborative filtering",
	}
	if !viable {
		r.Recommendation = fmt.Sprintf("Not enough data. Need %d+ users with %d+ interactions each.", minViableUsers, minViableAvgInteractions)
	}
	return r, users, nil
}
