package handler

import (
	"net/http"

	"gamecatalog/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// GenreResponse is a genre label with the number of games tagged with it.
type GenreResponse struct {
	Name  string `json:"name" example:"rpg"`
	Games int64  `json:"games" example:"12"`
}

func newGenreResponse(g store.GenreCount) GenreResponse {
	return GenreResponse{Name: g.Name, Games: g.Games}
}

// GenreListResponse wraps the genre list.
type GenreListResponse struct {
	Genres []GenreResponse `json:"genres"`
}

// ListGenres godoc
// @Summary      List genres
// @Description  Retrieves every genre used by at least one game, with its game count.
// @Tags         games
// @Produce      json
// @Success      200  {object}  GenreListResponse
// @Router       /api/genres [get]
func (h *Handler) ListGenres(c *gin.Context) {
	genres, err := h.store.ListGenres(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error fetching genres"})
		return
	}

	response := make([]GenreResponse, 0, len(genres))
	for _, g := range genres {
		response = append(response, newGenreResponse(g))
	}
	c.JSON(http.StatusOK, GenreListResponse{Genres: response})
}
