package database

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yishak-cs/cinetune/internal/models"
)

func TestBuildMovieQuery(t *testing.T) {
	tests := []struct {
		name       string
		q          models.MovieQuery
		wantParts  []string
		wantParams map[string]interface{}
	}{
		{
			name:       "popular",
			q:          models.MovieQuery{Limit: 5},
			wantParts:  []string{"MATCH (m:Movie)", "ORDER BY m.popularity DESC, m.rating DESC, m.id ASC", "LIMIT $limit"},
			wantParams: map[string]interface{}{"limit": int64(5)},
		},
		{
			name: "similar",
			q: models.MovieQuery{
				ExcludeIDs: []models.ID{"m1"},
				Similar:    &models.MovieSimilarity{Genres: []string{"Action"}},
				Limit:      10,
			},
			wantParts: []string{"NOT m.id IN $exclude", "g IN $genres", "x IN $moods"},
			wantParams: map[string]interface{}{
				"exclude": []string{"m1"},
				"genres":  []string{"Action"},
				"moods":   []string{},
				"limit":   int64(10),
			},
		},
		{
			name:       "mood",
			q:          models.MovieQuery{Mood: "happy"},
			wantParts:  []string{"$mood IN coalesce(m.mood, [])"},
			wantParams: map[string]interface{}{"mood": "happy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cypher, params := buildMovieQuery(tt.q)
			for _, part := range tt.wantParts {
				if !strings.Contains(cypher, part) {
					t.Errorf("query missing %q:\n%s", part, cypher)
				}
			}
			if !reflect.DeepEqual(params, tt.wantParams) {
				t.Errorf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}

func TestBuildMovieQuery_NoLimit(t *testing.T) {
	cypher, params := buildMovieQuery(models.MovieQuery{})
	if strings.Contains(cypher, "LIMIT") || strings.Contains(cypher, "WHERE") {
		t.Errorf("unexpected clause in unrestricted query:\n%s", cypher)
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want none", params)
	}
}

func TestBuildMusicQuery(t *testing.T) {
	cypher, params := buildMusicQuery(models.MusicQuery{
		ExcludeIDs: []models.ID{"s1", "s2"},
		Energy:     &models.Range{Min: 0.1, Max: 0.5},
		Valence:    &models.Range{Min: 0, Max: 0.4},
		Limit:      20,
	})
	for _, part := range []string{
		"MATCH (m:Music)",
		"m.energy >= $energyMin AND m.energy <= $energyMax",
		"m.valence >= $valenceMin AND m.valence <= $valenceMax",
		"ORDER BY m.popularity DESC, m.id ASC",
	} {
		if !strings.Contains(cypher, part) {
			t.Errorf("query missing %q:\n%s", part, cypher)
		}
	}
	want := map[string]interface{}{
		"exclude":    []string{"s1", "s2"},
		"energyMin":  0.1,
		"energyMax":  0.5,
		"valenceMin": 0.0,
		"valenceMax": 0.4,
		"limit":      int64(20),
	}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %v, want %v", params, want)
	}
}

func TestPropReaders(t *testing.T) {
	p := map[string]interface{}{
		"title":    "Heat",
		"rating":   int64(8),
		"score":    7.5,
		"count":    float64(12),
		"genre":    []interface{}{"Action", 3, "Crime"},
		"duration": nil,
	}

	if got := propString(p, "title"); got != "Heat" {
		t.Errorf("propString() = %q", got)
	}
	if got := propString(p, "missing"); got != "" {
		t.Errorf("propString(missing) = %q", got)
	}
	if got := propFloat(p, "rating"); got != 8 {
		t.Errorf("propFloat(int64) = %v, want 8", got)
	}
	if got := propFloat(p, "score"); got != 7.5 {
		t.Errorf("propFloat() = %v, want 7.5", got)
	}
	if got := propInt(p, "count"); got != 12 {
		t.Errorf("propInt(float64) = %d, want 12", got)
	}
	if got := propStrings(p, "genre"); !reflect.DeepEqual(got, []string{"Action", "Crime"}) {
		t.Errorf("propStrings() = %v", got)
	}
	if got := propIntPtr(p, "duration"); got != nil {
		t.Errorf("propIntPtr(nil) = %v, want nil", *got)
	}
	if got := propStringPtr(p, "rating"); got != nil {
		t.Errorf("propStringPtr(non-string) = %v, want nil", *got)
	}
	if got := propTime(p, "missing"); !got.IsZero() {
		t.Errorf("propTime(missing) = %v, want zero", got)
	}
}

func TestInteractionPropsRoundTrip(t *testing.T) {
	rating, mood := 4, "calm"
	in := &models.Interaction{
		ID:       "i1",
		UserID:   "u1",
		ItemID:   "m1",
		ItemType: models.ItemTypeMovie,
		Kind:     models.KindRating,
		InteractionDetails: models.InteractionDetails{
			Rating: &rating,
			Mood:   &mood,
		},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	got := interactionFromProps(interactionProps(in))
	if got.ID != in.ID || got.UserID != in.UserID || got.ItemID != in.ItemID {
		t.Errorf("ids = %s/%s/%s, want i1/u1/m1", got.ID, got.UserID, got.ItemID)
	}
	if got.ItemType != in.ItemType || got.Kind != in.Kind {
		t.Errorf("type/kind = %s/%s", got.ItemType, got.Kind)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("Rating = %v, want 4", got.Rating)
	}
	if got.Mood == nil || *got.Mood != "calm" {
		t.Errorf("Mood = %v, want calm", got.Mood)
	}
	if got.Duration != nil {
		t.Errorf("Duration = %v, want nil", *got.Duration)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestItemFromProps(t *testing.T) {
	movie := itemFromProps(models.ItemTypeMovie, map[string]interface{}{
		"id":    "m1",
		"genre": []interface{}{"Drama"},
		"mood":  []interface{}{"sad"},
	})
	m, ok := movie.(models.Movie)
	if !ok || m.ID != "m1" || len(m.Genres) != 1 || m.Moods[0] != "sad" {
		t.Errorf("itemFromProps(movie) = %+v", movie)
	}

	track := itemFromProps(models.ItemTypeMusic, map[string]interface{}{"id": "s1", "energy": 0.4})
	if s, ok := track.(models.Music); !ok || s.Energy != 0.4 {
		t.Errorf("itemFromProps(music) = %+v", track)
	}
	if s := track.(models.Music); s.Valence != 0.5 || s.Danceability != 0.5 {
		t.Errorf("absent features = %v/%v, want 0.5/0.5", s.Valence, s.Danceability)
	}
	zero := itemFromProps(models.ItemTypeMusic, map[string]interface{}{"id": "s2", "energy": 0.0})
	if s := zero.(models.Music); s.Energy != 0 {
		t.Errorf("explicit zero energy = %v, want 0", s.Energy)
	}

	if got := itemFromProps(models.ItemTypeMovie, nil); got != nil {
		t.Errorf("itemFromProps(nil) = %v, want nil", got)
	}
}

func TestRecordsToMaps(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"user_id", "item_id"}, Values: []any{"u1", "m1"}},
		{Keys: []string{"user_id", "item_id"}, Values: []any{"u2", "m2"}},
	}
	got := recordsToMaps(records)
	want := []map[string]interface{}{
		{"user_id": "u1", "item_id": "m1"},
		{"user_id": "u2", "item_id": "m2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("recordsToMaps() = %v, want %v", got, want)
	}
	if got := recordsToMaps(nil); got == nil || len(got) != 0 {
		t.Errorf("recordsToMaps(nil) = %v, want empty slice", got)
	}
}
