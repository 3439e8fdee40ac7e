package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
)

// likedListLimit is how many recent likes accompany a hybrid response.
const likedListLimit = 20

// TrackInput is an interaction as submitted by a client. Type fields are
// raw strings so that normalization and validation happen in one place.
type TrackInput struct {
	ItemID   models.ID
	ItemType string
	Kind     string
	models.InteractionDetails
}

// InteractionService records interactions and reads them back.
type InteractionService struct {
	interactions InteractionStore
	log          *logger.Logger
}

// NewInteractionService creates a new InteractionService.
func NewInteractionService(interactions InteractionStore, log *logger.Logger) *InteractionService {
	return &InteractionService{
		interactions: interactions,
		log:          log.With("service", "InteractionService"),
	}
}

// Validate normalizes in and reports the first invalid field.
func (in TrackInput) Validate(userID models.ID) (models.ItemType, models.InteractionKind, error) {
	if userID.IsZero() {
		return "", "", invalid("user", "required")
	}
	if in.ItemID.IsZero() {
		return "", "", invalid("itemId", "required")
	}
	if in.ItemType == "" {
		return "", "", invalid("itemType", "required")
	}
	itemType, err := models.ParseItemType(in.ItemType)
	if err != nil {
		return "", "", invalid("itemType", err.Error())
	}
	if in.Kind == "" {
		return "", "", invalid("interactionType", "required")
	}
	kind, err := models.ParseInteractionKind(in.Kind)
	if err != nil {
		return "", "", invalid("interactionType", err.Error())
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return "", "", invalid("rating", "must be between 1 and 5")
	}
	if in.Duration != nil && *in.Duration < 0 {
		return "", "", invalid("duration", "must not be negative")
	}
	return itemType, kind, nil
}

// Track validates and appends one interaction. Nothing is written when
// validation fails.
func (s *InteractionService) Track(ctx context.Context, userID models.ID, in TrackInput) (*models.Interaction, error) {
	itemType, kind, err := in.Validate(userID)
	if err != nil {
		return nil, err
	}

	rec := &models.Interaction{
		UserID:             userID,
		ItemID:             in.ItemID,
		ItemType:           itemType,
		Kind:               kind,
		InteractionDetails: in.InteractionDetails,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.interactions.RecordInteraction(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	s.log.Debug("interaction tracked",
		"user_id", userID,
		"item_id", in.ItemID,
		"item_type", itemType,
		"kind", kind)
	return rec, nil
}

// Liked returns the catalog items behind the user's most recent positive
// interactions. Interactions whose item no longer exists are skipped.
func (s *InteractionService) Liked(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.CatalogItem, error) {
	rows, err := s.interactions.FindUserInteractions(ctx, models.InteractionQuery{
		UserID:   userID,
		ItemType: itemType,
		Kinds:    models.PositiveKinds,
		Limit:    likedListLimit,
		WithItem: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load liked %s: %w", itemType, err)
	}

	items := make([]models.CatalogItem, 0, len(rows))
	for _, r := range rows {
		if r.Item != nil {
			items = append(items, r.Item)
		}
	}
	return items, nil
}
