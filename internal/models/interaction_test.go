package models

import "testing"

func TestParseItemType(t *testing.T) {
	tests := []struct {
		raw     string
		want    ItemType
		wantErr bool
	}{
		{"movie", ItemTypeMovie, false},
		{"Movie", ItemTypeMovie, false},
		{" MUSIC ", ItemTypeMusic, false},
		{"podcast", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseItemType(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseItemType(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseItemType(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseInteractionKind(t *testing.T) {
	tests := []struct {
		raw      string
		want     InteractionKind
		positive bool
		wantErr  bool
	}{
		{"like", KindLike, true, false},
		{"Favorite", KindFavorite, true, false},
		{"view", KindView, false, false},
		{"RATING", KindRating, false, false},
		{"share", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseInteractionKind(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInteractionKind(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseInteractionKind(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if got.IsPositive() != tt.positive {
				t.Errorf("IsPositive() = %v, want %v", got.IsPositive(), tt.positive)
			}
		})
	}
}

func TestRecommendationScoreOr(t *testing.T) {
	if got := Unscored(Movie{ID: "m1"}, SourcePopularity).ScoreOr(1); got != 1 {
		t.Errorf("Unscored().ScoreOr(1) = %v, want 1", got)
	}
	if got := Scored(Movie{ID: "m1"}, 0, SourceMood).ScoreOr(1); got != 0 {
		t.Errorf("Scored(0).ScoreOr(1) = %v, want 0", got)
	}
}

func TestDefaultHybridWeights(t *testing.T) {
	if w := DefaultHybridWeights(true); w != (HybridWeights{ContentBased: 0.4, Collaborative: 0.3, Mood: 0.3}) {
		t.Errorf("DefaultHybridWeights(true) = %+v", w)
	}
	if w := DefaultHybridWeights(false); w.Mood != 0 {
		t.Errorf("DefaultHybridWeights(false).Mood = %v, want 0", w.Mood)
	}
}
