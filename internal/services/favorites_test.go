package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yishak-cs/cinetune/internal/database"
	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

func newFavoriteService(store *database.MemoryStore) *services.FavoriteService {
	return services.NewFavoriteService(store, store, store, logger.NewNop())
}

func TestFavoriteService_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	b := (&seedBuilder{}).likes("u1", models.ItemTypeMovie, "m1")
	store := newStore(database.Seed{Movies: movieCatalog("m1"), Interactions: b.rows})
	svc := newFavoriteService(store)

	fav, err := svc.Add(ctx, "u1", "m1", "Movie")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if fav.ItemType != models.ItemTypeMovie {
		t.Errorf("Add().ItemType = %q, want movie", fav.ItemType)
	}

	favRows, _ := store.FindUserInteractions(ctx, models.InteractionQuery{
		UserID: "u1",
		Kinds:  []models.InteractionKind{models.KindFavorite},
	})
	if len(favRows) != 1 {
		t.Errorf("favorite interactions = %d, want 1", len(favRows))
	}
	users, _ := store.ListUserLikes(ctx)
	if len(users) != 1 || len(users[0].LikedMovies) != 1 || users[0].LikedMovies[0] != "m1" {
		t.Errorf("ListUserLikes() = %+v, want u1 liking m1", users)
	}

	if _, err := svc.Add(ctx, "u1", "m1", "movie"); !errors.Is(err, services.ErrAlreadyFavorited) {
		t.Errorf("second Add() error = %v, want %v", err, services.ErrAlreadyFavorited)
	}

	if err := svc.Remove(ctx, "u1", "m1", "movie"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	favRows, _ = store.FindUserInteractions(ctx, models.InteractionQuery{
		UserID: "u1",
		Kinds:  []models.InteractionKind{models.KindFavorite},
	})
	if len(favRows) != 0 {
		t.Errorf("favorite interactions after Remove() = %d, want 0", len(favRows))
	}
	likeRows, _ := store.FindUserInteractions(ctx, models.InteractionQuery{
		UserID: "u1",
		Kinds:  []models.InteractionKind{models.KindLike},
	})
	if len(likeRows) != 1 {
		t.Errorf("like interactions after Remove() = %d, want 1 (untouched)", len(likeRows))
	}
	users, _ = store.ListUserLikes(ctx)
	if len(users[0].LikedMovies) != 0 {
		t.Errorf("LikedMovies after Remove() = %v, want empty", users[0].LikedMovies)
	}

	if err := svc.Remove(ctx, "u1", "m1", "movie"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want %v", err, services.ErrNotFound)
	}
}

func TestFavoriteService_AddRollsBackOnFailedWrite(t *testing.T) {
	tests := []struct {
		name  string
		store failingWrites
	}{
		{"interaction write fails", failingWrites{record: true}},
		{"liked list write fails", failingWrites{liked: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := database.NewMemoryStore()
			broken := tt.store
			broken.MemoryStore = mem
			svc := services.NewFavoriteService(broken, broken, broken, logger.NewNop())

			if _, err := svc.Add(ctx, "u1", "m1", "movie"); !errors.Is(err, errStoreDown) {
				t.Fatalf("Add() error = %v, want %v", err, errStoreDown)
			}
			if fav, _ := mem.FindFavorite(ctx, "u1", "m1", models.ItemTypeMovie); fav != nil {
				t.Errorf("favorite left behind after failed Add(): %+v", fav)
			}
			rows, _ := mem.FindUserInteractions(ctx, models.InteractionQuery{
				UserID: "u1",
				Kinds:  []models.InteractionKind{models.KindFavorite},
			})
			if len(rows) != 0 {
				t.Errorf("favorite interactions after failed Add() = %d, want 0", len(rows))
			}

			retry := newFavoriteService(mem)
			if _, err := retry.Add(ctx, "u1", "m1", "movie"); err != nil {
				t.Errorf("retry Add() error = %v, want nil", err)
			}
		})
	}
}

func TestFavoriteService_List(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := newFavoriteService(store)

	empty, err := svc.List(ctx, "u1", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", empty)
	}

	for _, add := range []struct {
		item models.ID
		typ  string
	}{{"m1", "movie"}, {"s1", "music"}, {"m2", "movie"}} {
		if _, err := svc.Add(ctx, "u1", add.item, add.typ); err != nil {
			t.Fatalf("Add(%s) error = %v", add.item, err)
		}
	}
	if _, err := svc.Add(ctx, "u2", "m1", "movie"); err != nil {
		t.Fatalf("Add(u2) error = %v", err)
	}

	tests := []struct {
		rawType string
		want    int
	}{
		{"", 3},
		{"movie", 2},
		{"MUSIC", 1},
	}
	for _, tt := range tests {
		t.Run("type="+tt.rawType, func(t *testing.T) {
			favs, err := svc.List(ctx, "u1", tt.rawType)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(favs) != tt.want {
				t.Errorf("len(List()) = %d, want %d", len(favs), tt.want)
			}
		})
	}

	if _, err := svc.List(ctx, "u1", "book"); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("List(book) error = %v, want %v", err, services.ErrInvalidInput)
	}
}

func TestFavoriteService_Validation(t *testing.T) {
	svc := newFavoriteService(database.NewMemoryStore())
	tests := []struct {
		name string
		user models.ID
		item models.ID
		typ  string
	}{
		{"no user", "", "m1", "movie"},
		{"no item", "u1", "", "movie"},
		{"no type", "u1", "m1", ""},
		{"bad type", "u1", "m1", "book"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Add(context.Background(), tt.user, tt.item, tt.typ); !errors.Is(err, services.ErrInvalidInput) {
				t.Errorf("Add() error = %v, want %v", err, services.ErrInvalidInput)
			}
			if err := svc.Remove(context.Background(), tt.user, tt.item, tt.typ); !errors.Is(err, services.ErrInvalidInput) {
				t.Errorf("Remove() error = %v, want %v", err, services.ErrInvalidInput)
			}
		})
	}
}
