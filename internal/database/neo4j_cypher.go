package database

import (
	"strings"
	"time"

	"github.com/yishak-cs/cinetune/internal/models"
)

// itemLabels maps item types to node labels. Labels cannot be query
// parameters, so only values from this map are ever spliced into Cypher.
var itemLabels = map[models.ItemType]string{
	models.ItemTypeMovie: "Movie",
	models.ItemTypeMusic: "Music",
}

func idStrings(ids []models.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func kindStrings(kinds []models.InteractionKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// buildMovieQuery renders a MovieQuery as Cypher returning one "item" map
// per row.
func buildMovieQuery(q models.MovieQuery) (string, map[string]interface{}) {
	var where []string
	params := map[string]interface{}{}

	if len(q.ExcludeIDs) > 0 {
		where = append(where, "NOT m.id IN $exclude")
		params["exclude"] = idStrings(q.ExcludeIDs)
	}
	if q.Similar != nil {
		where = append(where, "(any(g IN coalesce(m.genre, []) WHERE g IN $genres) OR any(x IN coalesce(m.mood, []) WHERE x IN $moods))")
		params["genres"] = nonNilStrings(q.Similar.Genres)
		params["moods"] = nonNilStrings(q.Similar.Moods)
	}
	if q.Mood != "" {
		where = append(where, "$mood IN coalesce(m.mood, [])")
		params["mood"] = q.Mood
	}

	var b strings.Builder
	b.WriteString("MATCH (m:Movie)")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nRETURN m {.*} AS item")
	b.WriteString("\nORDER BY m.popularity DESC, m.rating DESC, m.id ASC")
	if q.Limit > 0 {
		b.WriteString("\nLIMIT $limit")
		params["limit"] = int64(q.Limit)
	}
	return b.String(), params
}

// buildMusicQuery renders a MusicQuery as Cypher returning one "item" map
// per row.
func buildMusicQuery(q models.MusicQuery) (string, map[string]interface{}) {
	var where []string
	params := map[string]interface{}{}

	if len(q.ExcludeIDs) > 0 {
		where = append(where, "NOT m.id IN $exclude")
		params["exclude"] = idStrings(q.ExcludeIDs)
	}
	if q.Similar != nil {
		where = append(where, "(m.genre IN $genres OR m.artist IN $artists)")
		params["genres"] = nonNilStrings(q.Similar.Genres)
		params["artists"] = nonNilStrings(q.Similar.Artists)
	}
	if q.Energy != nil {
		where = append(where, "m.energy >= $energyMin AND m.energy <= $energyMax")
		params["energyMin"] = q.Energy.Min
		params["energyMax"] = q.Energy.Max
	}
	if q.Valence != nil {
		where = append(where, "m.valence >= $valenceMin AND m.valence <= $valenceMax")
		params["valenceMin"] = q.Valence.Min
		params["valenceMax"] = q.Valence.Max
	}

	var b strings.Builder
	b.WriteString("MATCH (m:Music)")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nRETURN m {.*} AS item")
	b.WriteString("\nORDER BY m.popularity DESC, m.id ASC")
	if q.Limit > 0 {
		b.WriteString("\nLIMIT $limit")
		params["limit"] = int64(q.Limit)
	}
	return b.String(), params
}

// Property readers. The driver returns int64 for integers, float64 for
// floats and []interface{} for lists; missing keys and nulls read as zero.

func propString(p map[string]interface{}, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func propFloat(p map[string]interface{}, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// propFeature reads an audio feature, defaulting when the property is absent.
func propFeature(p map[string]interface{}, key string) float64 {
	if p[key] == nil {
		return models.DefaultAudioFeature
	}
	return propFloat(p, key)
}

func propInt64(p map[string]interface{}, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func propInt(p map[string]interface{}, key string) int {
	return int(propInt64(p, key))
}

func propIntPtr(p map[string]interface{}, key string) *int {
	if p[key] == nil {
		return nil
	}
	v := propInt(p, key)
	return &v
}

func propStringPtr(p map[string]interface{}, key string) *string {
	s, ok := p[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func propStrings(p map[string]interface{}, key string) []string {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func propIDs(p map[string]interface{}, key string) []models.ID {
	strs := propStrings(p, key)
	out := make([]models.ID, 0, len(strs))
	for _, s := range strs {
		out = append(out, models.ID(s))
	}
	return out
}

// timestamps are stored as epoch milliseconds
func propTime(p map[string]interface{}, key string) time.Time {
	ms := propInt64(p, key)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func asProps(v interface{}) map[string]interface{} {
	p, _ := v.(map[string]interface{})
	return p
}

func movieFromProps(p map[string]interface{}) models.Movie {
	return models.Movie{
		ID:          models.ID(propString(p, "id")),
		Title:       propString(p, "title"),
		Genres:      propStrings(p, "genre"),
		Moods:       propStrings(p, "mood"),
		Rating:      propFloat(p, "rating"),
		ReleaseYear: propInt(p, "releaseYear"),
		PosterURL:   propString(p, "posterUrl"),
		Overview:    propString(p, "overview"),
		Popularity:  propFloat(p, "popularity"),
		VoteCount:   propInt(p, "voteCount"),
	}
}

func musicFromProps(p map[string]interface{}) models.Music {
	return models.Music{
		ID:           models.ID(propString(p, "id")),
		Title:        propString(p, "title"),
		Artist:       propString(p, "artist"),
		Genre:        propString(p, "genre"),
		Album:        propString(p, "album"),
		CoverURL:     propString(p, "coverUrl"),
		Duration:     propString(p, "duration"),
		Popularity:   propFloat(p, "popularity"),
		Danceability: propFeature(p, "danceability"),
		Energy:       propFeature(p, "energy"),
		Valence:      propFeature(p, "valence"),
		Tempo:        propFloat(p, "tempo"),
	}
}

func itemFromProps(itemType models.ItemType, p map[string]interface{}) models.CatalogItem {
	if p == nil {
		return nil
	}
	switch itemType {
	case models.ItemTypeMovie:
		return movieFromProps(p)
	case models.ItemTypeMusic:
		return musicFromProps(p)
	}
	return nil
}

func interactionProps(in *models.Interaction) map[string]interface{} {
	p := map[string]interface{}{
		"id":         string(in.ID),
		"user_id":    string(in.UserID),
		"item_id":    string(in.ItemID),
		"item_type":  string(in.ItemType),
		"kind":       string(in.Kind),
		"created_at": in.CreatedAt.UnixMilli(),
	}
	if in.Rating != nil {
		p["rating"] = int64(*in.Rating)
	}
	if in.Mood != nil {
		p["mood"] = *in.Mood
	}
	if in.Duration != nil {
		p["duration"] = int64(*in.Duration)
	}
	return p
}

func interactionFromProps(p map[string]interface{}) models.Interaction {
	return models.Interaction{
		ID:       models.ID(propString(p, "id")),
		UserID:   models.ID(propString(p, "user_id")),
		ItemID:   models.ID(propString(p, "item_id")),
		ItemType: models.ItemType(propString(p, "item_type")),
		Kind:     models.InteractionKind(propString(p, "kind")),
		InteractionDetails: models.InteractionDetails{
			Rating:   propIntPtr(p, "rating"),
			Mood:     propStringPtr(p, "mood"),
			Duration: propIntPtr(p, "duration"),
		},
		CreatedAt: propTime(p, "created_at"),
	}
}

func favoriteFromProps(p map[string]interface{}) models.Favorite {
	return models.Favorite{
		ID:        models.ID(propString(p, "id")),
		UserID:    models.ID(propString(p, "user_id")),
		ItemID:    models.ID(propString(p, "item_id")),
		ItemType:  models.ItemType(propString(p, "item_type")),
		CreatedAt: propTime(p, "created_at"),
	}
}
