package services

import (
	"math"

	"github.com/yishak-cs/cinetune/internal/models"
)

// CosineSimilarity returns |A ∩ B| / sqrt(|A| * |B|).
//
// This is set overlap normalized by the geometric mean of the set sizes,
// not vector cosine over weighted interactions. It is 0 when either set
// is empty or when they share nothing.
func CosineSimilarity(a, b models.ItemSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := intersectionSize(a, b)
	if common == 0 {
		return 0
	}
	return float64(common) / math.Sqrt(float64(len(a))*float64(len(b)))
}

// JaccardSimilarity returns |A ∩ B| / |A ∪ B|, and 0 when both are empty.
func JaccardSimilarity(a, b models.ItemSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	common := intersectionSize(a, b)
	union := len(a) + len(b) - common
	if union <= 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// Similarity dispatches on metric; anything but jaccard is cosine.
func Similarity(metric models.SimilarityMetric, a, b models.ItemSet) float64 {
	if metric == models.MetricJaccard {
		return JaccardSimilarity(a, b)
	}
	return CosineSimilarity(a, b)
}

func intersectionSize(a, b models.ItemSet) int {
	// iterate the smaller set
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for id := range a {
		if b.Has(id) {
			n++
		}
	}
	return n
}
