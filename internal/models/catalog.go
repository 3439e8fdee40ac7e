package models

// CatalogItem is implemented by Movie and Music.
type CatalogItem interface {
	ItemID() ID
	ItemType() ItemType
}

// Movie represents a film in the catalog
type Movie struct {
	ID          ID       `json:"_id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genre"`
	Moods       []string `json:"mood"`
	Rating      float64  `json:"rating"`
	ReleaseYear int      `json:"releaseYear,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	Popularity  float64  `json:"popularity"`
	VoteCount   int      `json:"voteCount"`
}

func (m Movie) ItemID() ID         { return m.ID }
func (m Movie) ItemType() ItemType { return ItemTypeMovie }

// Music represents a track in the catalog. Audio features are in [0,1].
type Music struct {
	ID           ID      `json:"_id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Genre        string  `json:"genre"`
	Album        string  `json:"album,omitempty"`
	CoverURL     string  `json:"coverUrl,omitempty"`
	Duration     string  `json:"duration,omitempty"`
	Popularity   float64 `json:"popularity"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
}

// DefaultAudioFeature stands in for an absent danceability, energy or
// valence value.
const DefaultAudioFeature = 0.5

func (m Music) ItemID() ID         { return m.ID }
func (m Music) ItemType() ItemType { return ItemTypeMusic }

// Range is an inclusive numeric window.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MovieSimilarity restricts a movie query to items sharing ANY genre or ANY
// mood with the given sets. Empty sets match nothing.
type MovieSimilarity struct {
	Genres []string
	Moods  []string
}

// MovieQuery is a catalog lookup. Results are ordered by popularity desc,
// rating desc, id asc.
type MovieQuery struct {
	ExcludeIDs []ID
	Similar    *MovieSimilarity
	// Mood, when set, requires the movie to carry this mood tag.
	Mood  string
	Limit int
}

// MusicSimilarity restricts a music query to tracks sharing ANY genre or
// ANY artist with the given sets.
type MusicSimilarity struct {
	Genres  []string
	Artists []string
}

// MusicQuery is a catalog lookup. Results are ordered by popularity desc,
// id asc.
type MusicQuery struct {
	ExcludeIDs []ID
	Similar    *MusicSimilarity
	Energy     *Range
	Valence    *Range
	Limit      int
}
