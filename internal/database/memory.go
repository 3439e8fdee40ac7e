package database

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

var _ services.Store = (*MemoryStore)(nil)

type favoriteKey struct {
	user     models.ID
	item     models.ID
	itemType models.ItemType
}

// MemoryStore is a process-local Store. It backs the "memory" backend and
// the service tests.
type MemoryStore struct {
	mu           sync.RWMutex
	movies       map[models.ID]models.Movie
	music        map[models.ID]models.Music
	interactions []models.Interaction
	favorites    map[favoriteKey]models.Favorite
	likes        map[models.ID]*models.UserLikes
	userOrder    []models.ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies:    make(map[models.ID]models.Movie),
		music:     make(map[models.ID]models.Music),
		favorites: make(map[favoriteKey]models.Favorite),
		likes:     make(map[models.ID]*models.UserLikes),
	}
}

// Seed is the on-disk shape accepted by LoadSeed.
type Seed struct {
	Movies       []models.Movie       `json:"movies"`
	Music        []models.Music       `json:"music"`
	Interactions []models.Interaction `json:"interactions"`
	Users        []models.UserLikes   `json:"users"`
}

// LoadSeed reads a JSON seed file into the store.
func (s *MemoryStore) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return err
	}
	s.Apply(seed)
	return nil
}

// Apply adds everything in seed. Interactions keep their ids and
// timestamps when present.
func (s *MemoryStore) Apply(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range seed.Movies {
		s.movies[m.ID] = m
	}
	for _, m := range seed.Music {
		s.music[m.ID] = m
	}
	for _, in := range seed.Interactions {
		in := in
		s.appendInteraction(&in)
	}
	for _, u := range seed.Users {
		rec := s.userLikes(u.UserID)
		rec.LikedMovies = append(rec.LikedMovies, u.LikedMovies...)
		rec.LikedMusic = append(rec.LikedMusic, u.LikedMusic...)
	}
}

// AddMovies and AddMusic insert or replace catalog items.
func (s *MemoryStore) AddMovies(movies ...models.Movie) { s.Apply(Seed{Movies: movies}) }
func (s *MemoryStore) AddMusic(music ...models.Music)   { s.Apply(Seed{Music: music}) }

func (s *MemoryStore) appendInteraction(in *models.Interaction) {
	if in.ID.IsZero() {
		in.ID = models.ID(uuid.NewString())
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	in.ItemType = normalizeItemType(in.ItemType)
	stored := *in
	stored.Item = nil
	s.interactions = append(s.interactions, stored)
}

func normalizeItemType(t models.ItemType) models.ItemType {
	if parsed, err := models.ParseItemType(string(t)); err == nil {
		return parsed
	}
	return t
}

func kindIn(k models.InteractionKind, kinds []models.InteractionKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (s *MemoryStore) FindPositiveInteractions(ctx context.Context, itemType models.ItemType) ([]models.UserItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.UserItem
	for _, in := range s.interactions {
		if in.ItemType == itemType && in.Kind.IsPositive() {
			out = append(out, models.UserItem{UserID: in.UserID, ItemID: in.ItemID})
		}
	}
	return out, nil
}

func (s *MemoryStore) FindUserInteractions(ctx context.Context, q models.InteractionQuery) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type indexed struct {
		pos int
		in  models.Interaction
	}
	var matched []indexed
	for i, in := range s.interactions {
		if in.UserID != q.UserID {
			continue
		}
		if q.ItemType != "" && in.ItemType != q.ItemType {
			continue
		}
		if !kindIn(in.Kind, q.Kinds) {
			continue
		}
		matched = append(matched, indexed{pos: i, in: in})
	}
	// newest first; later inserts win ties
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].in.CreatedAt.Equal(matched[j].in.CreatedAt) {
			return matched[i].in.CreatedAt.After(matched[j].in.CreatedAt)
		}
		return matched[i].pos > matched[j].pos
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]models.Interaction, 0, len(matched))
	for _, m := range matched {
		in := m.in
		if q.WithItem {
			in.Item = s.lookup(in.ItemType, in.ItemID)
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *MemoryStore) lookup(itemType models.ItemType, id models.ID) models.CatalogItem {
	switch itemType {
	case models.ItemTypeMovie:
		if m, ok := s.movies[id]; ok {
			return m
		}
	case models.ItemTypeMusic:
		if m, ok := s.music[id]; ok {
			return m
		}
	}
	return nil
}

func (s *MemoryStore) RecordInteraction(ctx context.Context, in *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendInteraction(in)
	return nil
}

func (s *MemoryStore) DeleteInteractions(ctx context.Context, userID, itemID models.ID, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.interactions[:0]
	var removed int64
	for _, in := range s.interactions {
		if in.UserID == userID && in.ItemID == itemID && in.ItemType == itemType && kindIn(in.Kind, kinds) {
			removed++
			continue
		}
		kept = append(kept, in)
	}
	s.interactions = kept
	return removed, nil
}

func (s *MemoryStore) perUser(itemType models.ItemType, kinds []models.InteractionKind) (map[models.ID]int, int64) {
	counts := make(map[models.ID]int)
	var total int64
	for _, in := range s.interactions {
		if in.ItemType == itemType && kindIn(in.Kind, kinds) {
			counts[in.UserID]++
			total++
		}
	}
	return counts, total
}

func (s *MemoryStore) CountInteractions(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, total := s.perUser(itemType, kinds)
	return total, nil
}

func (s *MemoryStore) DistinctUsers(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) ([]models.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts, _ := s.perUser(itemType, kinds)
	users := make([]models.ID, 0, len(counts))
	for u := range counts {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (s *MemoryStore) AggregatePerUserCounts(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (models.PerUserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts, total := s.perUser(itemType, kinds)
	if len(counts) == 0 {
		return models.PerUserStats{}, nil
	}
	stats := models.PerUserStats{TotalUsers: len(counts)}
	first := true
	for _, c := range counts {
		if first || c < stats.Min {
			stats.Min = c
		}
		if first || c > stats.Max {
			stats.Max = c
		}
		first = false
	}
	stats.Avg = float64(total) / float64(len(counts))
	return stats, nil
}

func excludeSet(ids []models.ID) models.ItemSet {
	return models.NewItemSet(ids...)
}

func anyShared(values []string, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) FindMovies(ctx context.Context, q models.MovieQuery) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	excluded := excludeSet(q.ExcludeIDs)
	var out []models.Movie
	for _, m := range s.movies {
		if excluded.Has(m.ID) {
			continue
		}
		if q.Similar != nil && !anyShared(m.Genres, q.Similar.Genres) && !anyShared(m.Moods, q.Similar.Moods) {
			continue
		}
		if q.Mood != "" && !anyShared(m.Moods, []string{q.Mood}) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) FindMusic(ctx context.Context, q models.MusicQuery) ([]models.Music, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	excluded := excludeSet(q.ExcludeIDs)
	var out []models.Music
	for _, m := range s.music {
		if excluded.Has(m.ID) {
			continue
		}
		if q.Similar != nil && !anyShared([]string{m.Genre}, q.Similar.Genres) && !anyShared([]string{m.Artist}, q.Similar.Artists) {
			continue
		}
		if q.Energy != nil && !q.Energy.Contains(m.Energy) {
			continue
		}
		if q.Valence != nil && !q.Valence.Contains(m.Valence) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) FindItemsByIDs(ctx context.Context, itemType models.ItemType, ids []models.ID) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CatalogItem, 0, len(ids))
	for id := range models.NewItemSet(ids...) {
		if item := s.lookup(itemType, id); item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (*models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fav, ok := s.favorites[favoriteKey{userID, itemID, itemType}]
	if !ok {
		return nil, nil
	}
	return &fav, nil
}

func (s *MemoryStore) CreateFavorite(ctx context.Context, fav *models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{fav.UserID, fav.ItemID, fav.ItemType}
	if _, ok := s.favorites[key]; ok {
		return services.ErrAlreadyFavorited
	}
	if fav.ID.IsZero() {
		fav.ID = models.ID(uuid.NewString())
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	s.favorites[key] = *fav
	return nil
}

func (s *MemoryStore) DeleteFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{userID, itemID, itemType}
	if _, ok := s.favorites[key]; !ok {
		return false, nil
	}
	delete(s.favorites, key)
	return true, nil
}

func (s *MemoryStore) ListFavorites(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Favorite
	for k, fav := range s.favorites {
		if k.user != userID || (itemType != "" && k.itemType != itemType) {
			continue
		}
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (s *MemoryStore) userLikes(userID models.ID) *models.UserLikes {
	rec, ok := s.likes[userID]
	if !ok {
		rec = &models.UserLikes{UserID: userID}
		s.likes[userID] = rec
		s.userOrder = append(s.userOrder, userID)
	}
	return rec
}

func (s *MemoryStore) AddLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLikes(userID)
	list := &rec.LikedMovies
	if itemType == models.ItemTypeMusic {
		list = &rec.LikedMusic
	}
	for _, id := range *list {
		if id == itemID {
			return nil
		}
	}
	*list = append(*list, itemID)
	return nil
}

func (s *MemoryStore) RemoveLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.likes[userID]
	if !ok {
		return nil
	}
	list := &rec.LikedMovies
	if itemType == models.ItemTypeMusic {
		list = &rec.LikedMusic
	}
	kept := (*list)[:0]
	for _, id := range *list {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	*list = kept
	return nil
}

func (s *MemoryStore) ListUserLikes(ctx context.Context) ([]models.UserLikes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserLikes, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		rec := s.likes[id]
		out = append(out, models.UserLikes{
			UserID:      rec.UserID,
			LikedMovies: append([]models.ID(nil), rec.LikedMovies...),
			LikedMusic:  append([]models.ID(nil), rec.LikedMusic...),
		})
	}
	return out, nil
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
