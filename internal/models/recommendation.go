package models

// Recommendation sources
const (
	SourceContentBased  = "content_based"
	SourcePopularity    = "popularity"
	SourceCollaborative = "collaborative_filtering"
	SourceMood          = "mood_based"
	SourceFallback      = "fallback_content_based"
)

// Reason explains why a collaborative request produced no recommendations.
// It is a regular outcome, not an error.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNoData               Reason = "no_data"
	ReasonInsufficientUserData Reason = "insufficient_user_data"
	ReasonNoSimilarUsers       Reason = "no_similar_users"
	ReasonNoNewItems           Reason = "no_new_items"
)

// SimilarityMetric selects the set similarity used between users.
type SimilarityMetric string

const (
	MetricCosine  SimilarityMetric = "cosine"
	MetricJaccard SimilarityMetric = "jaccard"
)

// ItemSet is a set of item identifiers.
type ItemSet map[ID]struct{}

func NewItemSet(ids ...ID) ItemSet {
	s := make(ItemSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ItemSet) Add(id ID) { s[id] = struct{}{} }

func (s ItemSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Recommendation represents a recommended catalog item with its score.
// Score is nil for sources that do not score (popularity cold start).
type Recommendation struct {
	Item   CatalogItem `json:"item"`
	Score  *float64    `json:"recommendationScore,omitempty"`
	Source string      `json:"source"`
}

// Scored builds a recommendation carrying an explicit score.
func Scored(item CatalogItem, score float64, source string) Recommendation {
	return Recommendation{Item: item, Score: &score, Source: source}
}

// Unscored builds a recommendation without a score.
func Unscored(item CatalogItem, source string) Recommendation {
	return Recommendation{Item: item, Source: source}
}

// ScoreOr returns the score or def when absent.
func (r Recommendation) ScoreOr(def float64) float64 {
	if r.Score == nil {
		return def
	}
	return *r.Score
}

// CollaborativeOptions configures neighborhood building and CF scoring.
type CollaborativeOptions struct {
	K          int              `json:"k"`
	Limit      int              `json:"limit"`
	MinOverlap int              `json:"minOverlap"`
	Metric     SimilarityMetric `json:"metric"`
}

// DefaultCollaborativeOptions returns k=30, limit=20, minOverlap=2, cosine.
func DefaultCollaborativeOptions() CollaborativeOptions {
	return CollaborativeOptions{
		K:          30,
		Limit:      20,
		MinOverlap: 2,
		Metric:     MetricCosine,
	}
}

// Neighbor is another user similar to the target user.
type Neighbor struct {
	UserID     ID
	Similarity float64
	Items      ItemSet
	// Overlap is the early-exit count and is capped at MinOverlap.
	Overlap int
}

// NeighborSummary is the public view of a neighbor.
type NeighborSummary struct {
	Similarity float64 `json:"similarity"`
	Overlap    int     `json:"overlap"`
	ItemCount  int     `json:"itemCount"`
}

// NeighborhoodStats records how many users were considered at each stage.
type NeighborhoodStats struct {
	TotalUsers    int `json:"totalUsers"`
	SimilarUsers  int `json:"similarUsers"`
	TopKNeighbors int `json:"topKNeighbors"`
}

// Neighborhood is the output of the neighborhood builder.
type Neighborhood struct {
	Neighbors   []Neighbor
	TargetItems ItemSet
	Stats       NeighborhoodStats
	Reason      Reason
	Message     string
}

// CollaborativeStats extends the neighborhood stats with scoring counts.
type CollaborativeStats struct {
	NeighborhoodStats
	CandidateItems  int `json:"candidateItems"`
	TargetUserItems int `json:"targetUserItems"`
}

// CollaborativeResult is returned by the collaborative recommender. Reason
// is set when no candidate items could be produced.
type CollaborativeResult struct {
	Recommendations []Recommendation    `json:"recommendations"`
	Neighbors       []NeighborSummary   `json:"neighbors"`
	Stats           *CollaborativeStats `json:"stats,omitempty"`
	Reason          Reason              `json:"reason,omitempty"`
	Message         string              `json:"message,omitempty"`
	Source          string              `json:"source"`
}

// HybridWeights represents the weights for the recommendation sources.
// They are relative and need not sum to 1.
type HybridWeights struct {
	ContentBased  float64 `json:"content_based"`
	Collaborative float64 `json:"collaborative"`
	Mood          float64 `json:"mood"`
}

// DefaultHybridWeights returns 0.4/0.3/0.3, with the mood weight zeroed
// when no mood was requested.
func DefaultHybridWeights(withMood bool) HybridWeights {
	w := HybridWeights{ContentBased: 0.4, Collaborative: 0.3, Mood: 0.3}
	if !withMood {
		w.Mood = 0
	}
	return w
}

// HybridResult is the response of the hybrid recommender. Scores are not
// exposed; only the order of Recommendations matters.
type HybridResult struct {
	Recommendations []CatalogItem `json:"recommendations"`
	Liked           []CatalogItem `json:"liked"`
	Mood            *string       `json:"mood"`
}

// TypeReadiness is the audit report for one item type.
type TypeReadiness struct {
	TotalInteractions      int64   `json:"totalInteractions"`
	UniqueUsers            int     `json:"uniqueUsers"`
	AvgInteractionsPerUser float64 `json:"avgInteractionsPerUser"`
	MinInteractionsPerUser int     `json:"minInteractionsPerUser"`
	MaxInteractionsPerUser int     `json:"maxInteractionsPerUser"`
	IsViableForCF          bool    `json:"isViableForCF"`
	Recommendation         string  `json:"recommendation"`
}

// OverallReadiness aggregates the per-type reports.
type OverallReadiness struct {
	TotalInteractions int64 `json:"totalInteractions"`
	TotalUniqueUsers  int   `json:"totalUniqueUsers"`
	ReadyForCF        bool  `json:"readyForCF"`
}

// ReadinessReport tells whether enough interaction data exists for CF.
type ReadinessReport struct {
	Movies  TypeReadiness    `json:"movies"`
	Music   TypeReadiness    `json:"music"`
	Overall OverallReadiness `json:"overall"`
}
