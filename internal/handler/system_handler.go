package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gamecatalog/backend/internal/media"

	"github.com/gin-gonic/gin"
)

// IndexResponse describes the service and where its resources live.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string  `json:"status" example:"OK"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime" example:"12.5"`
}

// Index godoc
// @Summary      Service index
// @Tags         system
// @Produce      json
// @Success      200  {object}  IndexResponse
// @Router       / [get]
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, IndexResponse{
		Message: "Game Catalog API is running",
		Version: Version,
		Endpoints: map[string]string{
			"health":     "/api/health",
			"stats":      "/api/stats",
			"auth":       "/auth",
			"users":      "/api/users",
			"games":      "/api/games",
			"genres":     "/api/genres",
			"characters": "/api/characters",
			"platforms":  "/api/platforms",
			"docs":       "/swagger/index.html",
		},
	})
}

// Health godoc
// @Summary      Health check
// @Description  Reports uptime in seconds. Answers 503 when the database is unreachable.
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:    time.Since(h.started).Seconds(),
	}
	if err := h.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		resp.Status = "UNAVAILABLE"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats godoc
// @Summary      Catalog counts
// @Tags         system
// @Produce      json
// @Success      200  {object}  store.Stats
// @Failure      500  {object}  ErrorResponse
// @Router       /api/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error fetching stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Media serves objects from a local image bucket.
func (h *Handler) Media(c *gin.Context) {
	if h.media == nil {
		respondError(c, http.StatusNotFound, "Not found")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, err := h.media.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Not found")
			return
		}
		respondStoreError(c, err, storeMessages{Failure: "Error reading media"})
		return
	}
	defer obj.Close()
	c.Header("Cache-Control", "public, max-age=3600")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj, nil)
}
