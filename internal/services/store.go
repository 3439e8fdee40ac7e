package services

import (
	"context"

	"github.com/yishak-cs/cinetune/internal/models"
)

// InteractionStore is the append-only interaction log.
type InteractionStore interface {
	// FindPositiveInteractions returns every like/favorite row for an item type.
	FindPositiveInteractions(ctx context.Context, itemType models.ItemType) ([]models.UserItem, error)
	// FindUserInteractions returns one user's interactions, newest first.
	FindUserInteractions(ctx context.Context, q models.InteractionQuery) ([]models.Interaction, error)
	// RecordInteraction appends a row, assigning ID and CreatedAt when unset.
	RecordInteraction(ctx context.Context, in *models.Interaction) error
	DeleteInteractions(ctx context.Context, userID, itemID models.ID, itemType models.ItemType, kinds []models.InteractionKind) (int64, error)

	CountInteractions(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (int64, error)
	DistinctUsers(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) ([]models.ID, error)
	AggregatePerUserCounts(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (models.PerUserStats, error)
}

// CatalogStore reads movies and music.
type CatalogStore interface {
	FindMovies(ctx context.Context, q models.MovieQuery) ([]models.Movie, error)
	FindMusic(ctx context.Context, q models.MusicQuery) ([]models.Music, error)
	// FindItemsByIDs returns the items that exist, in no particular order.
	FindItemsByIDs(ctx context.Context, itemType models.ItemType, ids []models.ID) ([]models.CatalogItem, error)
}

// FavoriteStore keeps the favorites set.
type FavoriteStore interface {
	// FindFavorite returns nil, nil when the favorite does not exist.
	FindFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (*models.Favorite, error)
	CreateFavorite(ctx context.Context, fav *models.Favorite) error
	DeleteFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (bool, error)
	// ListFavorites returns all favorites of a user; an empty itemType means every type.
	ListFavorites(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.Favorite, error)
}

// UserStore maintains the denormalized liked lists on user records.
type UserStore interface {
	AddLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error
	RemoveLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error
	ListUserLikes(ctx context.Context) ([]models.UserLikes, error)
}

// Store is everything a backend provides.
type Store interface {
	InteractionStore
	CatalogStore
	FavoriteStore
	UserStore
	Health(ctx context.Context) error
	Close(ctx context.Context) error
}
