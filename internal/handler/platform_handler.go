package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
	"gamecatalog/backend/internal/validation"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// PlatformInput is the body of platform create and update requests.
type PlatformInput struct {
	Name         *string `json:"name" example:"Super Nintendo"`
	Manufacturer *string `json:"manufacturer" example:"Nintendo"`
	ReleaseYear  *int    `json:"releaseYear" example:"1990"`
	Type         *string `json:"type" example:"console" enums:"console,handheld,pc,mobile,other"`
	LogoURL      *string `json:"logoUrl"`
}

// Validate checks every present field. When partial is false the name is required.
func (in PlatformInput) Validate(partial bool) validation.Errors {
	var v validation.Checker
	if in.Name != nil || !partial {
		v.Check(in.Name != nil && validation.Length(*in.Name, 1, 100), "name", "Name is required and must be less than 100 characters")
	}
	if in.Manufacturer != nil {
		v.Check(validation.MaxLength(*in.Manufacturer, 100), "manufacturer", "Manufacturer must be less than 100 characters")
	}
	if in.ReleaseYear != nil {
		v.Check(validation.IntRange(*in.ReleaseYear, 1970, time.Now().Year()+5), "releaseYear", "Release year must be a valid year")
	}
	if in.Type != nil {
		v.Check(validation.OneOf(models.PlatformType(*in.Type), models.PlatformTypes...), "type", typeMessage)
	}
	if in.LogoURL != nil && *in.LogoURL != "" {
		v.Check(validation.IsURL(*in.LogoURL), "logoUrl", "Logo URL must be a valid URL")
	}
	return v.Errors()
}

var typeMessage = func() string {
	names := make([]string, len(models.PlatformTypes))
	for i, t := range models.PlatformTypes {
		names[i] = string(t)
	}
	return fmt.Sprintf("Type must be one of: %s", strings.Join(names, ", "))
}()

func (in PlatformInput) model() models.Platform {
	p := models.Platform{
		Name:         strings.TrimSpace(deref(in.Name)),
		Manufacturer: strings.TrimSpace(deref(in.Manufacturer)),
		ReleaseYear:  in.ReleaseYear,
		Type:         models.PlatformConsole,
		LogoURL:      deref(in.LogoURL),
	}
	if in.Type != nil {
		p.Type = models.PlatformType(*in.Type)
	}
	return p
}

func (in PlatformInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if in.Name != nil {
		cols["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Manufacturer != nil {
		cols["manufacturer"] = strings.TrimSpace(*in.Manufacturer)
	}
	if in.ReleaseYear != nil {
		cols["release_year"] = *in.ReleaseYear
	}
	if in.Type != nil {
		cols["type"] = *in.Type
	}
	if in.LogoURL != nil {
		cols["logo_url"] = *in.LogoURL
	}
	return cols
}

// PlatformResponse is a platform as returned by the API.
type PlatformResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	ReleaseYear  *int      `json:"releaseYear"`
	Type         string    `json:"type"`
	LogoURL      string    `json:"logoUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newPlatformResponse(p models.Platform) PlatformResponse {
	return PlatformResponse{
		ID:           p.ID,
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		ReleaseYear:  p.ReleaseYear,
		Type:         string(p.Type),
		LogoURL:      p.LogoURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PlatformListResponse defines the structure for a paginated list of platforms.
type PlatformListResponse struct {
	Platforms  []PlatformResponse `json:"platforms"`
	Pagination PaginationMeta     `json:"pagination"`
}

// endregion

const platformConflict = "Platform with this name already exists"

// ListPlatforms godoc
// @Summary      List platforms
// @Description  Returns a page of platforms ordered by name.
// @Tags         platforms
// @Produce      json
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Param        type   query  string  false  "Platform type"
// @Success      200  {object}  PlatformListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/platforms [get]
func (h *Handler) ListPlatforms(c *gin.Context) {
	filter := query.PlatformFilter{Type: strings.TrimSpace(c.Query("type"))}
	if filter.Type != "" && !validation.OneOf(models.PlatformType(filter.Type), models.PlatformTypes...) {
		respondValidation(c, validation.Errors{{Field: "type", Message: typeMessage}})
		return
	}

	p := ParsePagination(c)
	platforms, total, err := h.store.ListPlatforms(c.Request.Context(), filter.Scopes(), p.storePage())
	if err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error fetching platforms"})
		return
	}
	out := make([]PlatformResponse, 0, len(platforms))
	for _, pl := range platforms {
		out = append(out, newPlatformResponse(pl))
	}
	c.JSON(http.StatusOK, PlatformListResponse{Platforms: out, Pagination: p.Meta(total)})
}

// GetPlatform godoc
// @Summary      Get a platform
// @Tags         platforms
// @Produce      json
// @Param        id   path      string  true  "Platform ID"
// @Success      200  {object}  PlatformResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID format"
// @Failure      404  {object}  ErrorResponse "Platform not found"
// @Router       /api/platforms/{id} [get]
func (h *Handler) GetPlatform(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	platform, err := h.store.GetPlatform(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "Platform not found", Failure: "Error fetching platform"})
		return
	}
	c.JSON(http.StatusOK, newPlatformResponse(*platform))
}

// ListPlatformGames godoc
// @Summary      List games on a platform
// @Description  Returns a page of games that run on the platform, newest first.
// @Tags         platforms
// @Produce      json
// @Param        id     path   string  true   "Platform ID"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Success      200  {object}  GameListResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID format"
// @Failure      404  {object}  ErrorResponse "Platform not found"
// @Router       /api/platforms/{id}/games [get]
func (h *Handler) ListPlatformGames(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	m := storeMessages{NotFound: "Platform not found", Failure: "Error fetching games for platform"}
	if _, err := h.store.GetPlatform(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, m)
		return
	}
	h.listGames(c, []query.Scope{query.GamesOnPlatform(id)}, m)
}

// CreatePlatform godoc
// @Summary      Create a platform
// @Tags         platforms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PlatformInput true "Platform Info"
// @Success      201  {object}  PlatformResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Platform with this name already exists"
// @Router       /api/platforms [post]
func (h *Handler) CreatePlatform(c *gin.Context) {
	var input PlatformInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(false); errs != nil {
		respondValidation(c, errs)
		return
	}
	platform := input.model()
	if err := h.store.CreatePlatform(c.Request.Context(), &platform); err != nil {
		respondStoreError(c, err, storeMessages{Conflict: platformConflict, Failure: "Error creating platform"})
		return
	}
	c.JSON(http.StatusCreated, newPlatformResponse(platform))
}

// UpdatePlatform godoc
// @Summary      Update a platform
// @Tags         platforms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string         true  "Platform ID"
// @Param        input body  PlatformInput  true  "Fields to change"
// @Success      200  {object}  PlatformResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Platform not found"
// @Failure      409  {object}  ErrorResponse "Platform with this name already exists"
// @Router       /api/platforms/{id} [put]
func (h *Handler) UpdatePlatform(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	var input PlatformInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(true); errs != nil {
		respondValidation(c, errs)
		return
	}
	platform, err := h.store.UpdatePlatform(c.Request.Context(), id, input.columns())
	if err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "Platform not found", Conflict: platformConflict, Failure: "Error updating platform"})
		return
	}
	c.JSON(http.StatusOK, newPlatformResponse(*platform))
}

// DeletePlatform godoc
// @Summary      Delete a platform
// @Tags         platforms
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Platform ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Platform not found"
// @Router       /api/platforms/{id} [delete]
func (h *Handler) DeletePlatform(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	if err := h.store.DeletePlatform(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "Platform not found", Failure: "Error deleting platform"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Platform deleted successfully"})
}
