package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

var _ services.Store = (*MongoStore)(nil)

// Collection names shared with the existing document schema.
const (
	moviesCollection       = "movies"
	musicCollection        = "music"
	interactionsCollection = "userinteractions"
	favoritesCollection    = "favorites"
	usersCollection        = "users"
)

// MongoConfig holds the MongoDB connection configuration
type MongoConfig struct {
	URI      string
	Database string
}

type movieDoc struct {
	ID          interface{} `bson:"_id"`
	Title       string      `bson:"title"`
	Genre       []string    `bson:"genre"`
	Mood        []string    `bson:"mood"`
	Rating      float64     `bson:"rating"`
	ReleaseYear int         `bson:"releaseYear,omitempty"`
	PosterURL   string      `bson:"posterUrl,omitempty"`
	Overview    string      `bson:"overview,omitempty"`
	Popularity  float64     `bson:"popularity"`
	VoteCount   int         `bson:"voteCount"`
}

func (d movieDoc) model() models.Movie {
	return models.Movie{
		ID:          fromKey(d.ID),
		Title:       d.Title,
		Genres:      d.Genre,
		Moods:       d.Mood,
		Rating:      d.Rating,
		ReleaseYear: d.ReleaseYear,
		PosterURL:   d.PosterURL,
		Overview:    d.Overview,
		Popularity:  d.Popularity,
		VoteCount:   d.VoteCount,
	}
}

type musicDoc struct {
	ID           interface{} `bson:"_id"`
	Title        string      `bson:"title"`
	Artist       string      `bson:"artist"`
	Genre        string      `bson:"genre"`
	Album        string      `bson:"album,omitempty"`
	CoverURL     string      `bson:"coverUrl,omitempty"`
	Duration     string      `bson:"duration,omitempty"`
	Popularity   float64     `bson:"popularity"`
	Danceability *float64    `bson:"danceability"`
	Energy       *float64    `bson:"energy"`
	Valence      *float64    `bson:"valence"`
	Tempo        float64     `bson:"tempo"`
}

func (d musicDoc) model() models.Music {
	return models.Music{
		ID:           fromKey(d.ID),
		Title:        d.Title,
		Artist:       d.Artist,
		Genre:        d.Genre,
		Album:        d.Album,
		CoverURL:     d.CoverURL,
		Duration:     d.Duration,
		Popularity:   d.Popularity,
		Danceability: featureOrDefault(d.Danceability),
		Energy:       featureOrDefault(d.Energy),
		Valence:      featureOrDefault(d.Valence),
		Tempo:        d.Tempo,
	}
}

func featureOrDefault(v *float64) float64 {
	if v == nil {
		return models.DefaultAudioFeature
	}
	return *v
}

type interactionDoc struct {
	ID              interface{} `bson:"_id"`
	User            interface{} `bson:"user"`
	ItemID          interface{} `bson:"itemId"`
	ItemType        string      `bson:"itemType"`
	InteractionType string      `bson:"interactionType"`
	Rating          *int        `bson:"rating,omitempty"`
	Mood            *string     `bson:"mood,omitempty"`
	Duration        *int        `bson:"duration,omitempty"`
	CreatedAt       time.Time   `bson:"createdAt"`
}

func (d interactionDoc) model() models.Interaction {
	return models.Interaction{
		ID:       fromKey(d.ID),
		UserID:   fromKey(d.User),
		ItemID:   fromKey(d.ItemID),
		ItemType: normalizeItemType(models.ItemType(d.ItemType)),
		Kind:     models.InteractionKind(d.InteractionType),
		InteractionDetails: models.InteractionDetails{
			Rating:   d.Rating,
			Mood:     d.Mood,
			Duration: d.Duration,
		},
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// favoriteDoc keys the owner by a plain string userId, unlike the
// interaction log.
type favoriteDoc struct {
	ID        interface{} `bson:"_id"`
	UserID    string      `bson:"userId"`
	ItemID    interface{} `bson:"itemId"`
	ItemType  string      `bson:"itemType"`
	CreatedAt time.Time   `bson:"createdAt"`
}

func newFavoriteDoc(fav *models.Favorite) favoriteDoc {
	return favoriteDoc{
		ID:        toKey(fav.ID),
		UserID:    string(fav.UserID),
		ItemID:    toKey(fav.ItemID),
		ItemType:  favoriteItemType(fav.ItemType),
		CreatedAt: fav.CreatedAt,
	}
}

func (d favoriteDoc) model() models.Favorite {
	return models.Favorite{
		ID:        fromKey(d.ID),
		UserID:    models.ID(d.UserID),
		ItemID:    fromKey(d.ItemID),
		ItemType:  normalizeItemType(models.ItemType(d.ItemType)),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type userDoc struct {
	ID          interface{}   `bson:"_id"`
	LikedMovies []interface{} `bson:"likedMovies"`
	LikedMusic  []interface{} `bson:"likedMusic"`
}

func keysToIDs(keys []interface{}) []models.ID {
	out := make([]models.ID, 0, len(keys))
	for _, k := range keys {
		if id := fromKey(k); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// MongoStore is the document-database backend.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

// NewMongoStore connects and pings the server.
func NewMongoStore(ctx context.Context, config MongoConfig, log *logger.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB", "database", config.Database)
	return &MongoStore{
		client: client,
		db:     client.Database(config.Database),
		log:    log.With("component", "mongo"),
	}, nil
}

// EnsureIndexes creates the unique favorites key and the lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(favoritesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "itemId", Value: 1}, {Key: "itemType", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create favorites index: %w", err)
	}
	if _, err := s.db.Collection(interactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "itemType", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "itemType", Value: 1}, {Key: "interactionType", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create interaction indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindPositiveInteractions(ctx context.Context, itemType models.ItemType) ([]models.UserItem, error) {
	opts := options.Find().SetProjection(bson.M{"user": 1, "itemId": 1})
	cursor, err := s.db.Collection(interactionsCollection).Find(ctx, interactionFilter(itemType, models.PositiveKinds), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get positive interactions: %w", err)
	}
	var docs []interactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode interactions: %w", err)
	}

	rows := make([]models.UserItem, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, models.UserItem{UserID: fromKey(d.User), ItemID: fromKey(d.ItemID)})
	}
	return rows, nil
}

func (s *MongoStore) FindUserInteractions(ctx context.Context, q models.InteractionQuery) ([]models.Interaction, error) {
	opts := options.Find().SetSort(interactionSort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := s.db.Collection(interactionsCollection).Find(ctx, userInteractionFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user interactions: %w", err)
	}
	var docs []interactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode interactions: %w", err)
	}

	out := make([]models.Interaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	if q.WithItem {
		if err := s.attachItems(ctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MongoStore) attachItems(ctx context.Context, rows []models.Interaction) error {
	byType := make(map[models.ItemType][]models.ID)
	for _, r := range rows {
		byType[r.ItemType] = append(byType[r.ItemType], r.ItemID)
	}
	found := make(map[models.ItemType]map[models.ID]models.CatalogItem)
	for itemType, ids := range byType {
		if !itemType.Valid() {
			continue
		}
		items, err := s.FindItemsByIDs(ctx, itemType, ids)
		if err != nil {
			return err
		}
		m := make(map[models.ID]models.CatalogItem, len(items))
		for _, it := range items {
			m[it.ItemID()] = it
		}
		found[itemType] = m
	}
	for i := range rows {
		if item, ok := found[rows[i].ItemType][rows[i].ItemID]; ok {
			rows[i].Item = item
		}
	}
	return nil
}

func (s *MongoStore) RecordInteraction(ctx context.Context, in *models.Interaction) error {
	if in.ID.IsZero() {
		in.ID = models.ID(primitive.NewObjectID().Hex())
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	doc := interactionDoc{
		ID:              toKey(in.ID),
		User:            toKey(in.UserID),
		ItemID:          toKey(in.ItemID),
		ItemType:        string(in.ItemType),
		InteractionType: string(in.Kind),
		Rating:          in.Rating,
		Mood:            in.Mood,
		Duration:        in.Duration,
		CreatedAt:       in.CreatedAt,
	}
	if _, err := s.db.Collection(interactionsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteInteractions(ctx context.Context, userID, itemID models.ID, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	filter := interactionFilter(itemType, kinds)
	filter["user"] = toKey(userID)
	filter["itemId"] = toKey(itemID)

	res, err := s.db.Collection(interactionsCollection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interactions: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CountInteractions(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (int64, error) {
	n, err := s.db.Collection(interactionsCollection).CountDocuments(ctx, interactionFilter(itemType, kinds))
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return n, nil
}

func (s *MongoStore) DistinctUsers(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) ([]models.ID, error) {
	values, err := s.db.Collection(interactionsCollection).Distinct(ctx, "user", interactionFilter(itemType, kinds))
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct users: %w", err)
	}
	return keysToIDs(values), nil
}

func (s *MongoStore) AggregatePerUserCounts(ctx context.Context, itemType models.ItemType, kinds []models.InteractionKind) (models.PerUserStats, error) {
	cursor, err := s.db.Collection(interactionsCollection).Aggregate(ctx, perUserPipeline(interactionFilter(itemType, kinds)))
	if err != nil {
		return models.PerUserStats{}, fmt.Errorf("failed to aggregate interactions: %w", err)
	}
	var rows []struct {
		TotalUsers int     `bson:"totalUsers"`
		Avg        float64 `bson:"avg"`
		Min        int     `bson:"min"`
		Max        int     `bson:"max"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.PerUserStats{}, fmt.Errorf("failed to decode aggregate: %w", err)
	}
	if len(rows) == 0 {
		return models.PerUserStats{}, nil
	}
	r := rows[0]
	return models.PerUserStats{TotalUsers: r.TotalUsers, Avg: r.Avg, Min: r.Min, Max: r.Max}, nil
}

func (s *MongoStore) FindMovies(ctx context.Context, q models.MovieQuery) ([]models.Movie, error) {
	opts := options.Find().SetSort(movieSort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := s.db.Collection(moviesCollection).Find(ctx, movieFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find movies: %w", err)
	}
	var docs []movieDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	movies := make([]models.Movie, 0, len(docs))
	for _, d := range docs {
		movies = append(movies, d.model())
	}
	return movies, nil
}

func (s *MongoStore) FindMusic(ctx context.Context, q models.MusicQuery) ([]models.Music, error) {
	opts := options.Find().SetSort(musicSort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := s.db.Collection(musicCollection).Find(ctx, musicFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find music: %w", err)
	}
	var docs []musicDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode music: %w", err)
	}
	tracks := make([]models.Music, 0, len(docs))
	for _, d := range docs {
		tracks = append(tracks, d.model())
	}
	return tracks, nil
}

func (s *MongoStore) FindItemsByIDs(ctx context.Context, itemType models.ItemType, ids []models.ID) ([]models.CatalogItem, error) {
	if len(ids) == 0 {
		return []models.CatalogItem{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": toKeys(ids)}}

	switch itemType {
	case models.ItemTypeMovie:
		cursor, err := s.db.Collection(moviesCollection).Find(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get movies: %w", err)
		}
		var docs []movieDoc
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("failed to decode movies: %w", err)
		}
		items := make([]models.CatalogItem, 0, len(docs))
		for _, d := range docs {
			items = append(items, d.model())
		}
		return items, nil
	case models.ItemTypeMusic:
		cursor, err := s.db.Collection(musicCollection).Find(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get music: %w", err)
		}
		var docs []musicDoc
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("failed to decode music: %w", err)
		}
		items := make([]models.CatalogItem, 0, len(docs))
		for _, d := range docs {
			items = append(items, d.model())
		}
		return items, nil
	}
	return nil, fmt.Errorf("unknown item type %q", itemType)
}

func (s *MongoStore) FindFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (*models.Favorite, error) {
	var doc favoriteDoc
	err := s.db.Collection(favoritesCollection).FindOne(ctx, favoriteFilter(userID, itemID, itemType)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}
	fav := doc.model()
	return &fav, nil
}

func (s *MongoStore) CreateFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.ID.IsZero() {
		fav.ID = models.ID(primitive.NewObjectID().Hex())
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(favoritesCollection).InsertOne(ctx, newFavoriteDoc(fav))
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrAlreadyFavorited
	}
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteFavorite(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) (bool, error) {
	res, err := s.db.Collection(favoritesCollection).DeleteOne(ctx, favoriteFilter(userID, itemID, itemType))
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) ListFavorites(ctx context.Context, userID models.ID, itemType models.ItemType) ([]models.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "itemId", Value: 1}})
	cursor, err := s.db.Collection(favoritesCollection).Find(ctx, userFavoritesFilter(userID, itemType), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	var docs []favoriteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	favs := make([]models.Favorite, 0, len(docs))
	for _, d := range docs {
		favs = append(favs, d.model())
	}
	return favs, nil
}

func (s *MongoStore) AddLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	update := bson.M{"$addToSet": bson.M{likedListField(itemType): toKey(itemID)}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": toKey(userID)}, update, opts); err != nil {
		return fmt.Errorf("failed to add liked item: %w", err)
	}
	return nil
}

func (s *MongoStore) RemoveLikedItem(ctx context.Context, userID, itemID models.ID, itemType models.ItemType) error {
	update := bson.M{"$pull": bson.M{likedListField(itemType): toKey(itemID)}}
	if _, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": toKey(userID)}, update); err != nil {
		return fmt.Errorf("failed to remove liked item: %w", err)
	}
	return nil
}

func (s *MongoStore) ListUserLikes(ctx context.Context) ([]models.UserLikes, error) {
	opts := options.Find().
		SetProjection(bson.M{"likedMovies": 1, "likedMusic": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	out := make([]models.UserLikes, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.UserLikes{
			UserID:      fromKey(d.ID),
			LikedMovies: keysToIDs(d.LikedMovies),
			LikedMusic:  keysToIDs(d.LikedMusic),
		})
	}
	return out, nil
}

func (s *MongoStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
