package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/yishak-cs/cinetune/internal/database"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seedInteractions builds interactions with strictly increasing timestamps
// in the order given.
type seedBuilder struct {
	n    int
	rows []models.Interaction
}

func (b *seedBuilder) add(user, item string, itemType models.ItemType, kind models.InteractionKind) *seedBuilder {
	b.n++
	b.rows = append(b.rows, models.Interaction{
		UserID:    models.ID(user),
		ItemID:    models.ID(item),
		ItemType:  itemType,
		Kind:      kind,
		CreatedAt: baseTime.Add(time.Duration(b.n) * time.Minute),
	})
	return b
}

func (b *seedBuilder) likes(user string, itemType models.ItemType, items ...string) *seedBuilder {
	for _, it := range items {
		b.add(user, it, itemType, models.KindLike)
	}
	return b
}

func newStore(seed database.Seed) *database.MemoryStore {
	store := database.NewMemoryStore()
	store.Apply(seed)
	return store
}

func itemIDs(items []models.CatalogItem) []models.ID {
	out := make([]models.ID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ItemID())
	}
	return out
}

func recIDs(recs []models.Recommendation) []models.ID {
	out := make([]models.ID, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Item.ItemID())
	}
	return out
}

func sameIDs(a, b []models.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errStoreDown = errors.New("store down")

// failingStore fails every interaction read.
type failingStore struct {
	*database.MemoryStore
}

func (f failingStore) FindPositiveInteractions(ctx context.Context, itemType models.ItemType) ([]models.UserItem, error) {
	return nil, errStoreDown
}

func (f failingStore) FindUserInteractions(ctx context.Context, q models.InteractionQuery) ([]models.Interaction, error) {
	return nil, errStoreDown
}

var _ services.Store = failingStore{}

// failingWrites fails the selected writes and delegates everything else.
type failingWrites struct {
	*database.MemoryStore
	record bool
	liked  bool
}

func (f failingWrites) RecordInteraction(ctx context.Context, in *models.Interaction) error {
	if f.record {
		return errStoreDown
	}
	return f.MemoryStore.RecordInteraction(ctx, in)
}

func (f failingWrites) AddLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	if f.liked {
		return errStoreDown
	}
	return f.MemoryStore.AddLikedItem(ctx, userID, itemID, itemType)
}
