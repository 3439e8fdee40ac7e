package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/yishak-cs/cinetune/internal/database"
	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

func TestAuditService_Readiness(t *testing.T) {
	b := &seedBuilder{}
	for i := 0; i < 10; i++ {
		b.likes(fmt.Sprintf("u%d", i), models.ItemTypeMovie, "m1", "m2", "m3")
	}
	b.likes("u0", models.ItemTypeMusic, "s1")
	b.likes("u10", models.ItemTypeMusic, "s1")
	b.likes("u11", models.ItemTypeMusic, "s1", "s2")
	b.add("u12", "s3", models.ItemTypeMusic, models.KindView)

	store := newStore(database.Seed{Interactions: b.rows})
	svc := services.NewAuditService(store, logger.NewNop())

	report, err := svc.Readiness(context.Background())
	if err != nil {
		t.Fatalf("Readiness() error = %v", err)
	}

	movies := report.Movies
	if !movies.IsViableForCF {
		t.Error("Movies.IsViableForCF = false, want true")
	}
	if movies.TotalInteractions != 30 || movies.UniqueUsers != 10 {
		t.Errorf("Movies totals = %d/%d, want 30/10", movies.TotalInteractions, movies.UniqueUsers)
	}
	if movies.AvgInteractionsPerUser != 3 || movies.MinInteractionsPerUser != 3 || movies.MaxInteractionsPerUser != 3 {
		t.Errorf("Movies per-user = %v/%d/%d, want 3/3/3",
			movies.AvgInteractionsPerUser, movies.MinInteractionsPerUser, movies.MaxInteractionsPerUser)
	}
	if movies.Recommendation != "Sufficient data for collaborative filtering" {
		t.Errorf("Movies.Recommendation = %q", movies.Recommendation)
	}

	music := report.Music
	if music.IsViableForCF {
		t.Error("Music.IsViableForCF = true, want false")
	}
	if music.TotalInteractions != 4 || music.UniqueUsers != 3 {
		t.Errorf("Music totals = %d/%d, want 4/3 (views excluded)", music.TotalInteractions, music.UniqueUsers)
	}
	if music.AvgInteractionsPerUser != 1.33 {
		t.Errorf("Music.AvgInteractionsPerUser = %v, want 1.33", music.AvgInteractionsPerUser)
	}
	if music.Recommendation != "Not enough data. Need 10+ users with 3+ interactions each." {
		t.Errorf("Music.Recommendation = %q", music.Recommendation)
	}

	overall := report.Overall
	if overall.TotalInteractions != 34 {
		t.Errorf("Overall.TotalInteractions = %d, want 34", overall.TotalInteractions)
	}
	if overall.TotalUniqueUsers != 12 {
		t.Errorf("Overall.TotalUniqueUsers = %d, want 12", overall.TotalUniqueUsers)
	}
	if !overall.ReadyForCF {
		t.Error("Overall.ReadyForCF = false, want true")
	}
}

func TestAuditService_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		users      int
		perUser    int
		wantViable bool
	}{
		{"nine users", 9, 5, false},
		{"ten users two each", 10, 2, false},
		{"ten users three each", 10, 3, true},
		{"empty", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &seedBuilder{}
			for u := 0; u < tt.users; u++ {
				for i := 0; i < tt.perUser; i++ {
					b.add(fmt.Sprintf("u%d", u), fmt.Sprintf("m%d", i), models.ItemTypeMovie, models.KindLike)
				}
			}
			store := newStore(database.Seed{Interactions: b.rows})
			report, err := services.NewAuditService(store, logger.NewNop()).Readiness(context.Background())
			if err != nil {
				t.Fatalf("Readiness() error = %v", err)
			}
			if report.Movies.IsViableForCF != tt.wantViable {
				t.Errorf("IsViableForCF = %v, want %v", report.Movies.IsViableForCF, tt.wantViable)
			}
			if report.Overall.ReadyForCF != tt.wantViable {
				t.Errorf("ReadyForCF = %v, want %v", report.Overall.ReadyForCF, tt.wantViable)
			}
		})
	}
}
