package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/yishak-cs/cinetune/internal/logger"
)

// schemaStatements are idempotent and run before every import.
var schemaStatements = []string{
	"CREATE CONSTRAINT movie_id IF NOT EXISTS FOR (m:Movie) REQUIRE m.id IS UNIQUE",
	"CREATE CONSTRAINT music_id IF NOT EXISTS FOR (m:Music) REQUIRE m.id IS UNIQUE",
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT interaction_id IF NOT EXISTS FOR (i:Interaction) REQUIRE i.id IS UNIQUE",
	"CREATE INDEX interaction_user IF NOT EXISTS FOR (i:Interaction) ON (i.user_id, i.item_type)",
	"CREATE INDEX interaction_item_type IF NOT EXISTS FOR (i:Interaction) ON (i.item_type, i.kind)",
	"CREATE INDEX favorite_key IF NOT EXISTS FOR (f:Favorite) ON (f.user_id, f.item_id, f.item_type)",
}

// CSVImporter handles importing CSV data into Neo4j
type CSVImporter struct {
	client *Neo4jClient
	log    *logger.Logger
	// ClearFirst wipes the database before importing.
	ClearFirst bool
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(client *Neo4jClient, log *logger.Logger) *CSVImporter {
	return &CSVImporter{client: client, log: log.With("component", "csv_importer")}
}

func csvURL(baseURL, name string) string {
	return fmt.Sprintf("%s/data/%s", strings.TrimSuffix(baseURL, "/"), name)
}

// EnsureSchema creates constraints and indexes.
func (i *CSVImporter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := i.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}
	return nil
}

// ImportAllData imports all CSV files in the correct order
func (i *CSVImporter) ImportAllData(ctx context.Context, baseURL string) error {
	i.log.Info("starting CSV import", "base_url", baseURL)

	if i.ClearFirst {
		if err := i.clearDatabase(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}
	if err := i.EnsureSchema(ctx); err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"movies", i.ImportMovies},
		{"music", i.ImportMusic},
		{"interactions", i.ImportInteractions},
		{"build_relationships", i.BuildRelationships},
	}

	for _, step := range steps {
		i.log.Info("importing", "step", step.name)
		if err := step.fn(ctx, baseURL); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}

	i.log.Info("CSV import completed")
	return nil
}

func (i *CSVImporter) runCounted(ctx context.Context, query string, params map[string]interface{}, column, what string) error {
	results, err := i.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		i.log.Info("imported", "what", what, "count", results[0][column])
	}
	return nil
}

// ImportMovies imports movies from CSV. Genres and moods are
// pipe-separated.
func (i *CSVImporter) ImportMovies(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.id IS NOT NULL
		MERGE (m:Movie {id: row.id})
		SET m.title = row.title,
			m.genre = [g IN split(coalesce(row.genre, ''), '|') WHERE g <> ''],
			m.mood = [x IN split(coalesce(row.mood, ''), '|') WHERE x <> ''],
			m.rating = toFloat(row.rating),
			m.releaseYear = toInteger(row.release_year),
			m.posterUrl = row.poster_url,
			m.overview = row.overview,
			m.popularity = coalesce(toFloat(row.popularity), 0.0),
			m.voteCount = coalesce(toInteger(row.vote_count), 0)
		RETURN count(m) AS imported_movies
	`
	params := map[string]interface{}{
		"csvURL": csvURL(baseURL, "movies.csv"),
	}
	return i.runCounted(ctx, query, params, "imported_movies", "movies")
}

// ImportMusic imports tracks from CSV.
func (i *CSVImporter) ImportMusic(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.id IS NOT NULL
		MERGE (m:Music {id: row.id})
		SET m.title = row.title,
			m.artist = row.artist,
			m.genre = row.genre,
			m.album = row.album,
			m.coverUrl = row.cover_url,
			m.duration = row.duration,
			m.popularity = coalesce(toFloat(row.popularity), 0.0),
			m.danceability = coalesce(toFloat(row.danceability), 0.5),
			m.energy = coalesce(toFloat(row.energy), 0.5),
			m.valence = coalesce(toFloat(row.valence), 0.5),
			m.tempo = coalesce(toFloat(row.tempo), 120.0)
		RETURN count(m) AS imported_music
	`
	params := map[string]interface{}{
		"csvURL": csvURL(baseURL, "music.csv"),
	}
	return i.runCounted(ctx, query, params, "imported_music", "music")
}

// ImportInteractions imports the interaction log. Item types are
// lowercased; created_at is an ISO-8601 timestamp.
func (i *CSVImporter) ImportInteractions(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.user_id IS NOT NULL AND row.item_id IS NOT NULL
		MERGE (i:Interaction {id: coalesce(row.id, randomUUID())})
		SET i.user_id = row.user_id,
			i.item_id = row.item_id,
			i.item_type = toLower(row.item_type),
			i.kind = toLower(row.interaction_type),
			i.rating = toInteger(row.rating),
			i.mood = row.mood,
			i.created_at = coalesce(datetime(row.created_at).epochMillis, timestamp())
		MERGE (:User {id: row.user_id})
		RETURN count(i) AS imported_interactions
	`
	params := map[string]interface{}{
		"csvURL": csvURL(baseURL, "interactions.csv"),
	}
	return i.runCounted(ctx, query, params, "imported_interactions", "interactions")
}

// BuildRelationships derives LIKES relationships from positive
// interactions.
func (i *CSVImporter) BuildRelationships(ctx context.Context, baseURL string) error {
	query := `
		MATCH (i:Interaction)
		WHERE i.kind IN ['like', 'favorite']
		MATCH (u:User {id: i.user_id})
		MATCH (n {id: i.item_id})
		WHERE (i.item_type = 'movie' AND n:Movie) OR (i.item_type = 'music' AND n:Music)
		MERGE (u)-[l:LIKES]->(n)
		ON CREATE SET l.created_at = i.created_at
		RETURN count(l) AS created_relationships
	`
	return i.runCounted(ctx, query, nil, "created_relationships", "likes")
}

// clearDatabase removes all existing data (for development/testing)
func (i *CSVImporter) clearDatabase(ctx context.Context) error {
	i.log.Warn("clearing existing database")
	return i.client.ExecuteWrite(ctx, "MATCH (n) DETACH DELETE n", nil)
}

// statusQueries count each node and relationship kind the importer writes.
var statusQueries = map[string]string{
	"movies":       "MATCH (n:Movie) RETURN count(n) AS total",
	"music":        "MATCH (n:Music) RETURN count(n) AS total",
	"users":        "MATCH (n:User) RETURN count(n) AS total",
	"interactions": "MATCH (n:Interaction) RETURN count(n) AS total",
	"favorites":    "MATCH (n:Favorite) RETURN count(n) AS total",
	"likes":        "MATCH ()-[r:LIKES]->() RETURN count(r) AS total",
}

// GetImportStatus returns the current state of the database
func (i *CSVImporter) GetImportStatus(ctx context.Context) (map[string]int, error) {
	status := make(map[string]int, len(statusQueries))
	for name, query := range statusQueries {
		results, err := i.client.ExecuteRead(ctx, query, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		status[name] = 0
		if len(results) > 0 {
			status[name] = propInt(results[0], "total")
		}
	}
	return status, nil
}
