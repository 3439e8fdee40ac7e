package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

var _ services.Store = (*Neo4jStore)(nil)

// Neo4jStore keeps the catalog as Movie/Music nodes, interactions and
// favorites as their own nodes, and liked lists as LIKES relationships
// from User nodes.
type Neo4jStore struct {
	client *Neo4jClient
}

// NewNeo4jStore creates a new Neo4jStore over client.
func NewNeo4jStore(client *Neo4jClient) *Neo4jStore {
	return &Neo4jStore{client: client}
}

func (s *Neo4jStore) FindPositiveInteractions(ctx context.Context, itemType models.ItemType) ([]models.UserItem, error) {
	query := `
		MATCH (i:Interaction {item_type: $itemType})
		WHERE i.kind IN $kinds
		RETURN i.user_id AS user_id, i.item_id AS item_id
	`
	params := map[string]interface{}{
		"itemType": string(itemType),
		"kinds":    kindStrings(models.PositiveKinds),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get positive interactions: %w", err)
	}

	rows := make([]models.UserItem, 0, len(results))
	for _, r := range results {
		rows = append(rows, models.UserItem{
			UserID: models.ID(propString(r, "user_id")),
			ItemID: models.ID(propString(r, "item_id")),
		})
	}
	return rows, nil
}

func (s *Neo4jStore) FindUserInteractions(ctx context.Context, q models.InteractionQuery) ([]models.Interaction, error) {
	query := `
		MATCH (i:Interaction {user_id: $userId})
		WHERE ($itemType = '' OR i.item_type = $itemType)
		  AND (size($kinds) = 0 OR i.kind IN $kinds)
		WITH i ORDER BY i.created_at DESC, i.id DESC
	`
	params := map[string]interface{}{
		"userId":   string(q.UserID),
		"itemType": string(q.ItemType),
		"kinds":    kindStrings(q.Kinds),
	}
	if q.Limit > 0 {
		query += "LIMIT $limit\n"
		params["limit"] = int64(q.Limit)
	}
	if q.WithItem {
		query += `
		OPTIONAL MATCH (mv:Movie {id: i.item_id})
		OPTIONAL MATCH (mu:Music {id: i.item_id})
		RETURN i {.*} AS interaction, mv {.*} AS movie, mu {.*} AS music
		ORDER BY i.created_at DESC, i.id DESC
		`
	} else {
		query += `
		RETURN i {.*} AS interaction
		ORDER BY i.created_at DESC, i.id DESC
		`
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get user interactions: %w", err)
	}

	out := make([]models.Interaction, 0, len(results))
	for _, r := range results {
		in := interactionFromProps(asProps(r["interaction"]))
		if q.WithItem {
			switch in.ItemType {
			case models.ItemTypeMovie:
				in.Item = itemFromProps(in.ItemType, asProps(r["movie"]))
			case models.ItemTypeMusic:
				in.Item = itemFromProps(in.ItemType, asProps(r["music"]))
			}
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *Neo4jStore) RecordInteraction(ctx context.Context, in *models.Interaction) error {
	if in.ID.IsZero() {
		in.ID = models.ID(uuid.NewString())
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	query := `CREATE (i:Interaction) SET i = $props`
	params := map[string]interface{}{
		"props": interactionProps(in),
	}
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

func (s *Neo4jStore) DeleteInteractions(ctx context.Context, userID, itemID models.ID, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	query := `
		MATCH (i:Interaction {user_id: $userId, item_id: $itemId, item_type: $itemType})
		WHERE size($kinds) = 0 OR i.kind IN $kinds
		WITH collect(i) AS rows
		FOREACH (r IN rows | DETACH DELETE r)
		RETURN size(rows) AS deleted
	`
	params := map[string]interface{}{
		"userId":   string(userID),
		"itemId":   string(itemID),
		"itemType": string(itemType),
		"kinds":    kindStrings(kinds),
	}

	results, err := s.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interactions: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return propInt64(results[0], "deleted"), nil
}

func (s *Neo4jStore) CountInteractions(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	query := `
		MATCH (i:Interaction {item_type: $itemType})
		WHERE size($kinds) = 0 OR i.kind IN $kinds
		RETURN count(i) AS total
	`
	params := map[string]interface{}{
		"itemType": string(itemType),
		"kinds":    kindStrings(kinds),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return propInt64(results[0], "total"), nil
}

func (s *Neo4jStore) DistinctUsers(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) ([]models.ID, error) {
	query := `
		MATCH (i:Interaction {item_type: $itemType})
		WHERE size($kinds) = 0 OR i.kind IN $kinds
		RETURN DISTINCT i.user_id AS user_id
		ORDER BY user_id
	`
	params := map[string]interface{}{
		"itemType": string(itemType),
		"kinds":    kindStrings(kinds),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct users: %w", err)
	}
	users := make([]models.ID, 0, len(results))
	for _, r := range results {
		users = append(users, models.ID(propString(r, "user_id")))
	}
	return users, nil
}

func (s *Neo4jStore) AggregatePerUserCounts(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (models.PerUserStats, error) {
	query := `
		MATCH (i:Interaction {item_type: $itemType})
		WHERE size($kinds) = 0 OR i.kind IN $kinds
		WITH i.user_id AS user, count(*) AS n
		RETURN count(user) AS total_users, avg(n) AS avg, min(n) AS min, max(n) AS max
	`
	params := map[string]interface{}{
		"itemType": string(itemType),
		"kinds":    kindStrings(kinds),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return models.PerUserStats{}, fmt.Errorf("failed to aggregate interactions: %w", err)
	}
	if len(results) == 0 {
		return models.PerUserStats{}, nil
	}
	r := results[0]
	return models.PerUserStats{
		TotalUsers: propInt(r, "total_users"),
		Avg:        propFloat(r, "avg"),
		Min:        propInt(r, "min"),
		Max:        propInt(r, "max"),
	}, nil
}

func (s *Neo4jStore) FindMovies(ctx context.Context, q models.MovieQuery) ([]models.Movie, error) {
	query, params := buildMovieQuery(q)
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find movies: %w", err)
	}
	movies := make([]models.Movie, 0, len(results))
	for _, r := range results {
		movies = append(movies, movieFromProps(asProps(r["item"])))
	}
	return movies, nil
}

func (s *Neo4jStore) FindMusic(ctx context.Context, q models.MusicQuery) ([]models.Music, error) {
	query, params := buildMusicQuery(q)
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to find music: %w", err)
	}
	tracks := make([]models.Music, 0, len(results))
	for _, r := range results {
		tracks = append(tracks, musicFromProps(asProps(r["item"])))
	}
	return tracks, nil
}

func (s *Neo4jStore) FindItemsByIDs(ctx context.Context, itemType models.ItemType, ids []models.ID) ([]models.CatalogItem, error) {
	label, ok := itemLabels[itemType]
	if !ok {
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}
	if len(ids) == 0 {
		return []models.CatalogItem{}, nil
	}

	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE n.id IN $ids
		RETURN n {.*} AS item
	`, label)
	params := map[string]interface{}{
		"ids": idStrings(ids),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s items: %w", itemType, err)
	}
	items := make([]models.CatalogItem, 0, len(results))
	for _, r := range results {
		if item := itemFromProps(itemType, asProps(r["item"])); item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

func favoriteParams(userID, itemID models.ID, itemType models.ItemType) map[string]interface{} {
	return map[string]interface{}{
		"userId":   string(userID),
		"itemId":   string(itemID),
		"itemType": string(itemType),
	}
}

func (s *Neo4jStore) FindFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (*models.Favorite, error) {
	query := `
		MATCH (f:Favorite {user_id: $userId, item_id: $itemId, item_type: $itemType})
		RETURN f {.*} AS favorite
		LIMIT 1
	`
	results, err := s.client.ExecuteRead(ctx, query, favoriteParams(userID, itemID, itemType))
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	fav := favoriteFromProps(asProps(results[0]["favorite"]))
	return &fav, nil
}

// CreateFavorite checks and inserts in one transaction so that concurrent
// adds cannot both succeed.
func (s *Neo4jStore) CreateFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.ID.IsZero() {
		fav.ID = models.ID(uuid.NewString())
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	params := favoriteParams(fav.UserID, fav.ItemID, fav.ItemType)
	params["id"] = string(fav.ID)
	params["createdAt"] = fav.CreatedAt.UnixMilli()

	_, err := s.client.ExecuteWriteTransaction(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (f:Favorite {user_id: $userId, item_id: $itemId, item_type: $itemType})
			RETURN count(f) AS existing
		`, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if propInt64(record.AsMap(), "existing") > 0 {
			return nil, services.ErrAlreadyFavorited
		}

		_, err = tx.Run(ctx, `
			CREATE (f:Favorite {
				id: $id,
				user_id: $userId,
				item_id: $itemId,
				item_type: $itemType,
				created_at: $createdAt
			})
		`, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (s *Neo4jStore) DeleteFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (bool, error) {
	query := `
		MATCH (f:Favorite {user_id: $userId, item_id: $itemId, item_type: $itemType})
		WITH collect(f) AS rows
		FOREACH (r IN rows | DETACH DELETE r)
		RETURN size(rows) AS deleted
	`
	results, err := s.client.ExecuteWriteWithResult(ctx, query, favoriteParams(userID, itemID, itemType))
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return len(results) > 0 && propInt64(results[0], "deleted") > 0, nil
}

func (s *Neo4jStore) ListFavorites(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.Favorite, error) {
	query := `
		MATCH (f:Favorite {user_id: $userId})
		WHERE $itemType = '' OR f.item_type = $itemType
		RETURN f {.*} AS favorite
		ORDER BY f.created_at DESC, f.item_id ASC
	`
	params := map[string]interface{}{
		"userId":   string(userID),
		"itemType": string(itemType),
	}

	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	favs := make([]models.Favorite, 0, len(results))
	for _, r := range results {
		favs = append(favs, favoriteFromProps(asProps(r["favorite"])))
	}
	return favs, nil
}

// AddLikedItem links the user to the catalog node. Items missing from the
// catalog are not linked.
func (s *Neo4jStore) AddLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	label, ok := itemLabels[itemType]
	if !ok {
		return fmt.Errorf("unknown item type %q", itemType)
	}
	query := fmt.Sprintf(`
		MERGE (u:User {id: $userId})
		WITH u
		MATCH (n:%s {id: $itemId})
		MERGE (u)-[l:LIKES]->(n)
		ON CREATE SET l.created_at = $now
	`, label)
	params := map[string]interface{}{
		"userId": string(userID),
		"itemId": string(itemID),
		"now":    time.Now().UTC().UnixMilli(),
	}
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		return fmt.Errorf("failed to add liked item: %w", err)
	}
	return nil
}

func (s *Neo4jStore) RemoveLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	label, ok := itemLabels[itemType]
	if !ok {
		return fmt.Errorf("unknown item type %q", itemType)
	}
	query := fmt.Sprintf(`
		MATCH (:User {id: $userId})-[l:LIKES]->(:%s {id: $itemId})
		DELETE l
	`, label)
	params := map[string]interface{}{
		"userId": string(userID),
		"itemId": string(itemID),
	}
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		return fmt.Errorf("failed to remove liked item: %w", err)
	}
	return nil
}

func (s *Neo4jStore) ListUserLikes(ctx context.Context) ([]models.UserLikes, error) {
	query := `
		MATCH (u:User)
		OPTIONAL MATCH (u)-[l:LIKES]->(n)
		WITH u, l, n ORDER BY l.created_at
		RETURN u.id AS user_id,
			   collect(CASE WHEN n:Movie THEN n.id END) AS liked_movies,
			   collect(CASE WHEN n:Music THEN n.id END) AS liked_music
		ORDER BY user_id
	`
	results, err := s.client.ExecuteRead(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list user likes: %w", err)
	}
	out := make([]models.UserLikes, 0, len(results))
	for _, r := range results {
		out = append(out, models.UserLikes{
			UserID:      models.ID(propString(r, "user_id")),
			LikedMovies: propIDs(r, "liked_movies"),
			LikedMusic:  propIDs(r, "liked_music"),
		})
	}
	return out, nil
}

func (s *Neo4jStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
