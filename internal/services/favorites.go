package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
)

// FavoriteService keeps the favorites set, the interaction log and the
// users' liked lists in step.
type FavoriteService struct {
	favorites    FavoriteStore
	interactions InteractionStore
	users        UserStore
	log          *logger.Logger
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(favorites FavoriteStore, interactions InteractionStore, users UserStore, log *logger.Logger) *FavoriteService {
	return &FavoriteService{
		favorites:    favorites,
		interactions: interactions,
		users:        users,
		log:          log.With("service", "FavoriteService"),
	}
}

func parseFavoriteKey(userID, itemID models.ID, rawType string) (models.ItemType, error) {
	if userID.IsZero() {
		return "", invalid("user", "required")
	}
	if itemID.IsZero() {
		return "", invalid("itemId", "required")
	}
	if rawType == "" {
		return "", invalid("itemType", "required")
	}
	itemType, err := models.ParseItemType(rawType)
	if err != nil {
		return "", invalid("itemType", err.Error())
	}
	return itemType, nil
}

// Add favorites an item. It records a favorite interaction and appends the
// item to the user's liked list.
func (s *FavoriteService) Add(ctx context.Context, userID, itemID models.ID, rawType string) (*models.Favorite, error) {
	itemType, err := parseFavoriteKey(userID, itemID, rawType)
	if err != nil {
		return nil, err
	}

	existing, err := s.favorites.FindFavorite(ctx, userID, itemID, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to look up favorite: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyFavorited
	}

	fav := &models.Favorite{
		UserID:    userID,
		ItemID:    itemID,
		ItemType:  itemType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.favorites.CreateFavorite(ctx, fav); err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}

	if err := s.interactions.RecordInteraction(ctx, &models.Interaction{
		UserID:    userID,
		ItemID:    itemID,
		ItemType:  itemType,
		Kind:      models.KindFavorite,
		CreatedAt: fav.CreatedAt,
	}); err != nil {
		s.rollback(ctx, fav, false)
		return nil, fmt.Errorf("failed to record favorite interaction: %w", err)
	}

	if err := s.users.AddLikedItem(ctx, userID, itemID, itemType); err != nil {
		s.rollback(ctx, fav, true)
		return nil, fmt.Errorf("failed to update liked %s: %w", itemType, err)
	}

	s.log.Info("favorite added", "user_id", userID, "item_id", itemID, "item_type", itemType)
	return fav, nil
}

// rollback undoes a partially applied Add so the user can retry it.
// Failures are logged; the caller already reports the original error.
func (s *FavoriteService) rollback(ctx context.Context, fav *models.Favorite, recorded bool) {
	if recorded {
		if _, err := s.interactions.DeleteInteractions(ctx, fav.UserID, fav.ItemID, fav.ItemType,
			[]models.InteractionKind{models.KindFavorite}); err != nil {
			s.log.Error("failed to roll back favorite interaction", "user_id", fav.UserID, "item_id", fav.ItemID, "error", err)
		}
	}
	if _, err := s.favorites.DeleteFavorite(ctx, fav.UserID, fav.ItemID, fav.ItemType); err != nil {
		s.log.Error("failed to roll back favorite", "user_id", fav.UserID, "item_id", fav.ItemID, "error", err)
	}
}

// Remove drops a favorite together with its favorite interactions and the
// liked-list entry. ErrNotFound is returned when nothing was favorited.
func (s *FavoriteService) Remove(ctx context.Context, userID, itemID models.ID, rawType string) error {
	itemType, err := parseFavoriteKey(userID, itemID, rawType)
	if err != nil {
		return err
	}

	deleted, err := s.favorites.DeleteFavorite(ctx, userID, itemID, itemType)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	removed, err := s.interactions.DeleteInteractions(ctx, userID, itemID, itemType, []models.InteractionKind{models.KindFavorite})
	if err != nil {
		return fmt.Errorf("failed to delete favorite interactions: %w", err)
	}

	if err := s.users.RemoveLikedItem(ctx, userID, itemID, itemType); err != nil {
		return fmt.Errorf("failed to update liked %s: %w", itemType, err)
	}

	s.log.Info("favorite removed",
		"user_id", userID,
		"item_id", itemID,
		"item_type", itemType,
		"interactions_removed", removed)
	return nil
}

// List returns the user's favorites; an empty rawType lists every type.
func (s *FavoriteService) List(ctx context.Context, userID models.ID, rawType string) ([]models.Favorite, error) {
	if userID.IsZero() {
		return nil, invalid("user", "required")
	}
	var itemType models.ItemType
	if rawType != "" {
		t, err := models.ParseItemType(rawType)
		if err != nil {
			return nil, invalid("itemType", err.Error())
		}
		itemType = t
	}

	favs, err := s.favorites.ListFavorites(ctx, userID, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	return favs, nil
}
