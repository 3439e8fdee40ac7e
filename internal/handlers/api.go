package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/models"
	"github.com/yishak-cs/cinetune/internal/services"
)

// HealthChecker is satisfied by every store backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Defaults are applied to query parameters the caller leaves out.
type Defaults struct {
	Limit      int
	K          int
	MinOverlap int
}

// APIHandler handles all API requests
type APIHandler struct {
	recommendationService *services.RecommendationService
	favoriteService       *services.FavoriteService
	simpleService         *services.SimpleCollaborativeService
	health                HealthChecker
	defaults              Defaults
	log                   *logger.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(
	recommendationService *services.RecommendationService,
	favoriteService *services.FavoriteService,
	simpleService *services.SimpleCollaborativeService,
	health HealthChecker,
	defaults Defaults,
	log *logger.Logger,
) *APIHandler {
	return &APIHandler{
		recommendationService: recommendationService,
		favoriteService:       favoriteService,
		simpleService:         simpleService,
		health:                health,
		defaults:              defaults,
		log:                   log.With("handler", "APIHandler"),
	}
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *APIHandler, auth *TokenAuth, corsOrigins []string, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(log), Metrics(), CORS(corsOrigins))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.SetupRoutes(router, auth.RequireAuth())

	router.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "not_found", errRouteNotFound)
	})
	return router
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/recommendations/user/:userId", h.GetSimpleRecommendations)
	}

	recs := api.Group("/recommendations", requireAuth)
	{
		recs.GET("/movies", h.GetMovieRecommendations)
		recs.GET("/music", h.GetMusicRecommendations)
		recs.GET("/collaborative/audit", h.GetCollaborativeAudit)
		recs.GET("/collaborative/:itemType", h.GetCollaborativeRecommendations)
		recs.POST("/interact", h.TrackInteraction)
		recs.GET("/liked/movies", h.GetLikedMovies)
		recs.GET("/liked/music", h.GetLikedMusic)
	}

	favs := api.Group("/favorites", requireAuth)
	{
		favs.GET("", h.ListFavorites)
		favs.POST("", h.AddFavorite)
		favs.DELETE("/item/:itemId", h.RemoveFavorite)
	}
}

// Health reports store connectivity
func (h *APIHandler) Health(c *gin.Context) {
	if err := h.health.Health(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// GetSimpleRecommendations handles requests for the single-neighbor recommender
func (h *APIHandler) GetSimpleRecommendations(c *gin.Context) {
	userID := models.ID(strings.TrimSpace(c.Param("userId")))
	result, err := h.simpleService.Recommend(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

// GetMovieRecommendations handles requests for hybrid movie recommendations
func (h *APIHandler) GetMovieRecommendations(c *gin.Context) {
	h.hybrid(c, models.ItemTypeMovie)
}

// GetMusicRecommendations handles requests for hybrid music recommendations
func (h *APIHandler) GetMusicRecommendations(c *gin.Context) {
	h.hybrid(c, models.ItemTypeMusic)
}

func (h *APIHandler) hybrid(c *gin.Context, itemType models.ItemType) {
	userID, _ := currentUser(c)

	var q hybridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if err := validateRequest(q); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = h.defaults.Limit
	}

	result, err := h.recommendationService.HybridRecommendation(
		c.Request.Context(),
		userID,
		itemType,
		strings.TrimSpace(q.Mood),
		q.Limit,
	)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

// GetCollaborativeRecommendations handles pure collaborative filtering
// requests, falling back to content-based results when CF finds nothing.
func (h *APIHandler) GetCollaborativeRecommendations(c *gin.Context) {
	userID, _ := currentUser(c)

	itemType, err := models.ParseItemType(c.Param("itemType"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	var q collaborativeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if err := validateRequest(q); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	opts := models.CollaborativeOptions{
		K:          q.K,
		Limit:      q.Limit,
		MinOverlap: q.MinOverlap,
		Metric:     models.SimilarityMetric(q.Metric),
	}
	if opts.K == 0 {
		opts.K = h.defaults.K
	}
	if opts.Limit == 0 {
		opts.Limit = h.defaults.Limit
	}
	if opts.MinOverlap == 0 {
		opts.MinOverlap = h.defaults.MinOverlap
	}

	result, err := h.recommendationService.CollaborativeOrFallback(c.Request.Context(), userID, itemType, opts)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

// GetCollaborativeAudit reports whether there is enough data for CF
func (h *APIHandler) GetCollaborativeAudit(c *gin.Context) {
	report, err := h.recommendationService.AuditReadiness(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, report)
}

// TrackInteraction records a view, like, rating or favorite
func (h *APIHandler) TrackInteraction(c *gin.Context) {
	userID, _ := currentUser(c)

	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if err := validateRequest(req); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	interaction, err := h.recommendationService.TrackInteraction(c.Request.Context(), userID, req.input())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondCreated(c, interaction)
}

// GetLikedMovies returns the user's most recently liked movies
func (h *APIHandler) GetLikedMovies(c *gin.Context) {
	h.liked(c, models.ItemTypeMovie)
}

// GetLikedMusic returns the user's most recently liked tracks
func (h *APIHandler) GetLikedMusic(c *gin.Context) {
	h.liked(c, models.ItemTypeMusic)
}

func (h *APIHandler) liked(c *gin.Context, itemType models.ItemType) {
	userID, _ := currentUser(c)
	items, err := h.recommendationService.LikedItems(c.Request.Context(), userID, itemType)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, items)
}

// ListFavorites returns the user's favorites, optionally filtered by itemType
func (h *APIHandler) ListFavorites(c *gin.Context) {
	userID, _ := currentUser(c)
	favs, err := h.favoriteService.List(c.Request.Context(), userID, c.Query("itemType"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, favs)
}

// AddFavorite adds an item to the user's favorites
func (h *APIHandler) AddFavorite(c *gin.Context) {
	userID, _ := currentUser(c)

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if err := validateRequest(req); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	fav, err := h.favoriteService.Add(c.Request.Context(), userID, models.ID(strings.TrimSpace(req.ItemID)), req.ItemType)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondCreated(c, fav)
}

// RemoveFavorite removes an item from the user's favorites
func (h *APIHandler) RemoveFavorite(c *gin.Context) {
	userID, _ := currentUser(c)
	itemID := models.ID(strings.TrimSpace(c.Param("itemId")))

	if err := h.favoriteService.Remove(c.Request.Context(), userID, itemID, c.Query("itemType")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"itemId": itemID, "removed": true})
}
