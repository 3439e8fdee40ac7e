package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/yishak-cs/cinetune/internal/database"
	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

const testOrigin = "http://localhost:5173"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   APIError        `json:"error"`
}

type downStore struct{}

func (downStore) Health(ctx context.Context) error { return errors.New("connection refused") }

func newTestRouter(store *database.MemoryStore, health HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	if health == nil {
		health = store
	}
	h := NewAPIHandler(
		services.NewRecommendationService(store, store, log),
		services.NewFavoriteService(store, store, store, log),
		services.NewSimpleCollaborativeService(store, store, log),
		health,
		Defaults{Limit: 20, K: 30, MinOverlap: 2},
		log,
	)
	return NewRouter(h, NewTokenAuth("", true, log), []string{testOrigin}, log)
}

func serve(t *testing.T, router *gin.Engine, method, path, user string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(devUserHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	w, env := serve(t, newTestRouter(database.NewMemoryStore(), nil), http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Errorf("GET /api/health = %d %s, want 200", w.Code, w.Body.String())
	}

	w, env = serve(t, newTestRouter(database.NewMemoryStore(), downStore{}), http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if env.Error.Code != "store_unavailable" {
		t.Errorf("error code = %q, want store_unavailable", env.Error.Code)
	}
}

func TestTrackInteraction(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "like",
			body:       map[string]interface{}{"itemId": "m1", "itemType": "movie", "interactionType": "like"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "capitalized types",
			body:       map[string]interface{}{"itemId": "m1", "itemType": "Movie", "interactionType": "Rating", "rating": 5},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "rating out of range",
			body:       map[string]interface{}{"itemId": "m1", "itemType": "movie", "interactionType": "rating", "rating": 9},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "missing item id",
			body:       map[string]interface{}{"itemType": "movie", "interactionType": "like"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "unknown item type",
			body:       map[string]interface{}{"itemId": "b1", "itemType": "book", "interactionType": "like"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "malformed json",
			body:       `{"itemId": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := database.NewMemoryStore()
			router := newTestRouter(store, nil)

			w, env := serve(t, router, http.MethodPost, "/api/recommendations/interact", "u1", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", env.Error.Code, tt.wantCode)
			}

			rows, _ := store.FindUserInteractions(context.Background(), models.InteractionQuery{UserID: "u1"})
			wantRows := 0
			if tt.wantStatus == http.StatusCreated {
				wantRows = 1
			}
			if len(rows) != wantRows {
				t.Errorf("stored %d interactions, want %d", len(rows), wantRows)
			}
		})
	}
}

func TestRequiresAuth(t *testing.T) {
	router := newTestRouter(database.NewMemoryStore(), nil)
	for _, path := range []string{
		"/api/recommendations/movies",
		"/api/recommendations/collaborative/movie",
		"/api/favorites",
	} {
		w, env := serve(t, router, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized || env.Error.Code != "unauthorized" {
			t.Errorf("GET %s = %d %q, want 401 unauthorized", path, w.Code, env.Error.Code)
		}
	}
}

func TestFavoritesFlow(t *testing.T) {
	store := database.NewMemoryStore()
	router := newTestRouter(store, nil)
	body := map[string]string{"itemId": "m1", "itemType": "movie"}

	w, _ := serve(t, router, http.MethodPost, "/api/favorites", "u1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/favorites = %d, want 201 (%s)", w.Code, w.Body.String())
	}

	w, env := serve(t, router, http.MethodPost, "/api/favorites", "u1", body)
	if w.Code != http.StatusBadRequest || env.Error.Code != "already_favorited" {
		t.Errorf("duplicate POST = %d %q, want 400 already_favorited", w.Code, env.Error.Code)
	}

	w, env = serve(t, router, http.MethodGet, "/api/favorites?itemType=movie", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/favorites = %d", w.Code)
	}
	var favs []models.Favorite
	if err := json.Unmarshal(env.Data, &favs); err != nil {
		t.Fatalf("decode favorites: %v", err)
	}
	if len(favs) != 1 || favs[0].ItemID != "m1" {
		t.Errorf("favorites = %+v, want [m1]", favs)
	}

	w, _ = serve(t, router, http.MethodDelete, "/api/favorites/item/m1?itemType=movie", "u1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("DELETE = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	w, env = serve(t, router, http.MethodDelete, "/api/favorites/item/m1?itemType=movie", "u1", nil)
	if w.Code != http.StatusNotFound || env.Error.Code != "not_found" {
		t.Errorf("second DELETE = %d %q, want 404 not_found", w.Code, env.Error.Code)
	}

	w, _ = serve(t, router, http.MethodDelete, "/api/favorites/item/m1", "u1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("DELETE without itemType = %d, want 400", w.Code)
	}
}

func TestCollaborativeEndpoint(t *testing.T) {
	store := database.NewMemoryStore()
	store.AddMovies(models.Movie{ID: "m1", Popularity: 10}, models.Movie{ID: "m2", Popularity: 20})
	router := newTestRouter(store, nil)

	w, env := serve(t, router, http.MethodGet, "/api/recommendations/collaborative/movie", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var result struct {
		Source          string                   `json:"source"`
		Reason          string                   `json:"reason"`
		Recommendations []map[string]interface{} `json:"recommendations"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Source != models.SourceFallback {
		t.Errorf("source = %q, want %q", result.Source, models.SourceFallback)
	}
	if result.Reason != string(models.ReasonNoData) {
		t.Errorf("reason = %q, want %q", result.Reason, models.ReasonNoData)
	}
	if len(result.Recommendations) != 2 {
		t.Errorf("len(recommendations) = %d, want 2 popular movies", len(result.Recommendations))
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/recommendations/collaborative/Music", http.StatusOK},
		{"/api/recommendations/collaborative/book", http.StatusBadRequest},
		{"/api/recommendations/collaborative/movie?metric=euclidean", http.StatusBadRequest},
		{"/api/recommendations/collaborative/movie?k=0&limit=5&metric=jaccard", http.StatusOK},
		{"/api/recommendations/collaborative/movie?k=abc", http.StatusBadRequest},
		{"/api/recommendations/collaborative/audit", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, _ := serve(t, router, http.MethodGet, tt.path, "u1", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d (%s)", tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHybridEndpoints(t *testing.T) {
	store := database.NewMemoryStore()
	store.AddMovies(models.Movie{ID: "m1", Moods: []string{"happy"}, Rating: 8, Popularity: 10})
	router := newTestRouter(store, nil)

	w, env := serve(t, router, http.MethodGet, "/api/recommendations/movies?mood=happy&limit=5", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var result struct {
		Recommendations []map[string]interface{} `json:"recommendations"`
		Liked           []map[string]interface{} `json:"liked"`
		Mood            *string                  `json:"mood"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Mood == nil || *result.Mood != "happy" {
		t.Errorf("mood = %v, want happy", result.Mood)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0]["_id"] != "m1" {
		t.Errorf("recommendations = %v, want [m1]", result.Recommendations)
	}

	w, _ = serve(t, router, http.MethodGet, "/api/recommendations/music?limit=1000", "u1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("limit=1000 status = %d, want 400", w.Code)
	}

	w, env = serve(t, router, http.MethodGet, "/api/recommendations/liked/movies", "u1", nil)
	if w.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Errorf("liked = %d %s, want 200 []", w.Code, env.Data)
	}
}

func TestSimpleRecommendationsEndpoint(t *testing.T) {
	store := database.NewMemoryStore()
	store.Apply(database.Seed{
		Movies: []models.Movie{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}},
		Users: []models.UserLikes{
			{UserID: "u1", LikedMovies: []models.ID{"m1"}},
			{UserID: "u2", LikedMovies: []models.ID{"m1", "m3"}},
		},
	})
	router := newTestRouter(store, nil)

	w, env := serve(t, router, http.MethodGet, "/api/recommendations/user/u1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var result struct {
		SimilarUserID string                   `json:"similarUserId"`
		Movies        []map[string]interface{} `json:"movies"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.SimilarUserID != "u2" || len(result.Movies) != 1 || result.Movies[0]["_id"] != "m3" {
		t.Errorf("result = %s, want u2 recommending m3", env.Data)
	}
}

func TestRouterMiddleware(t *testing.T) {
	router := newTestRouter(database.NewMemoryStore(), nil)

	t.Run("unknown route", func(t *testing.T) {
		w, env := serve(t, router, http.MethodGet, "/api/nope", "", nil)
		if w.Code != http.StatusNotFound || env.Error.Code != "not_found" {
			t.Errorf("GET /api/nope = %d %q, want 404 not_found", w.Code, env.Error.Code)
		}
	})

	t.Run("request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("X-Request-ID = %q, want abc-123", got)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID not assigned")
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/favorites", nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, testOrigin)
		}
	})

	t.Run("cors rejects unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("api_requests_total")) {
			t.Errorf("GET /metrics = %d, want 200 exposing api_requests_total", w.Code)
		}
	})
}
