package handler

import (
	"net/http"
	"strings"
	"time"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// region --- DTOs ---

// CharacterInput is the body of character create and update requests.
type CharacterInput struct {
	Name            *string   `json:"name" example:"Crono"`
	Bio             *string   `json:"bio"`
	FirstAppearance *string   `json:"firstAppearance" example:"Chrono Trigger (1995)"`
	Games           *[]string `json:"games"`
	Abilities       *[]string `json:"abilities" example:"Cyclone,Luminaire"`
	PortraitURL     *string   `json:"portraitUrl"`
}

// Validate checks every present field. When partial is false the name is required.
func (in CharacterInput) Validate(partial bool) validation.Errors {
	var v validation.Checker
	if in.Name != nil || !partial {
		v.Check(in.Name != nil && validation.Length(*in.Name, 1, 100), "name", "Name is required and must be less than 100 characters")
	}
	if in.Bio != nil {
		v.Check(validation.MaxLength(*in.Bio, 1000), "bio", "Bio must be less than 1000 characters")
	}
	if in.FirstAppearance != nil {
		v.Check(validation.MaxLength(*in.FirstAppearance, 200), "firstAppearance", "First appearance must be less than 200 characters")
	}
	if in.Games != nil {
		v.ObjectIDs("games", *in.Games, "game")
	}
	if in.Abilities != nil {
		v.Strings("abilities", *in.Abilities, 100)
	}
	if in.PortraitURL != nil && *in.PortraitURL != "" {
		v.Check(validation.IsURL(*in.PortraitURL), "portraitUrl", "Portrait URL must be a valid URL")
	}
	return v.Errors()
}

func (in CharacterInput) record() store.CharacterRecord {
	rec := store.CharacterRecord{GameIDs: derefList(idList(in.Games))}
	rec.Name = strings.TrimSpace(deref(in.Name))
	rec.Bio = deref(in.Bio)
	rec.FirstAppearance = strings.TrimSpace(deref(in.FirstAppearance))
	rec.Abilities = trimAll(derefList(in.Abilities))
	rec.PortraitURL = deref(in.PortraitURL)
	return rec
}

func (in CharacterInput) patch() store.CharacterPatch {
	cols := map[string]interface{}{}
	if in.Name != nil {
		cols["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		cols["bio"] = *in.Bio
	}
	if in.FirstAppearance != nil {
		cols["first_appearance"] = strings.TrimSpace(*in.FirstAppearance)
	}
	if in.Abilities != nil {
		cols["abilities"] = datatypes.JSONSlice[string](trimAll(*in.Abilities))
	}
	if in.PortraitURL != nil {
		cols["portrait_url"] = *in.PortraitURL
	}
	return store.CharacterPatch{Columns: cols, Games: idList(in.Games)}
}

// CharacterFields are the scalar fields shared by every character representation.
type CharacterFields struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Bio             string    `json:"bio"`
	FirstAppearance string    `json:"firstAppearance"`
	Abilities       []string  `json:"abilities"`
	PortraitURL     string    `json:"portraitUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newCharacterFields(r store.CharacterRecord) CharacterFields {
	abilities := []string(r.Abilities)
	if abilities == nil {
		abilities = []string{}
	}
	return CharacterFields{
		ID:              r.ID,
		Name:            r.Name,
		Bio:             r.Bio,
		FirstAppearance: r.FirstAppearance,
		Abilities:       abilities,
		PortraitURL:     r.PortraitURL,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// GameRef is a game reference on a character list entry.
type GameRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GameCard is a game reference on a character detail.
type GameCard struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CoverImage  string     `json:"coverImage"`
	ReleaseDate *time.Time `json:"releaseDate"`
}

// CharacterSummary is a character as it appears in lists.
type CharacterSummary struct {
	CharacterFields
	Games []GameRef `json:"games"`
}

// CharacterDetail is a single character with its games expanded.
type CharacterDetail struct {
	CharacterFields
	Games []GameCard `json:"games"`
}

// CharacterListResponse defines the structure for a paginated list of characters.
type CharacterListResponse struct {
	Characters []CharacterSummary `json:"characters"`
	Pagination PaginationMeta     `json:"pagination"`
}

// endregion

// ListCharacters godoc
// @Summary      List characters
// @Tags         characters
// @Produce      json
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Param        game   query  string  false  "Only characters appearing in this game"
// @Success      200  {object}  CharacterListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/characters [get]
func (h *Handler) ListCharacters(c *gin.Context) {
	filter := query.CharacterFilter{Game: strings.TrimSpace(c.Query("game"))}
	if filter.Game != "" && !validation.IsObjectID(filter.Game) {
		respondValidation(c, validation.Errors{{Field: "game", Message: "Invalid game ID format"}})
		return
	}
	filter.Game = models.NormalizeID(filter.Game)

	m := storeMessages{Failure: "Error fetching characters"}
	p := ParsePagination(c)
	recs, total, err := h.store.ListCharacters(c.Request.Context(), filter.Scopes(), p.storePage())
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	characters, err := h.composeCharacterSummaries(c.Request.Context(), recs)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, CharacterListResponse{Characters: characters, Pagination: p.Meta(total)})
}

// GetCharacter godoc
// @Summary      Get a character
// @Tags         characters
// @Produce      json
// @Param        id   path      string  true  "Character ID"
// @Success      200  {object}  CharacterDetail
// @Failure      400  {object}  ErrorResponse "Invalid ID format"
// @Failure      404  {object}  ErrorResponse "Character not found"
// @Router       /api/characters/{id} [get]
func (h *Handler) GetCharacter(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	h.respondCharacter(c, id, http.StatusOK, "Error fetching character")
}

func (h *Handler) respondCharacter(c *gin.Context, id string, status int, failure string) {
	m := storeMessages{NotFound: "Character not found", Failure: failure}
	rec, err := h.store.GetCharacter(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	detail, err := h.composeCharacterDetail(c.Request.Context(), rec)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(status, detail)
}

// CreateCharacter godoc
// @Summary      Create a character
// @Tags         characters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CharacterInput true "Character Info"
// @Success      201  {object}  CharacterDetail
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /api/characters [post]
func (h *Handler) CreateCharacter(c *gin.Context) {
	var input CharacterInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(false); errs != nil {
		respondValidation(c, errs)
		return
	}
	rec := input.record()
	if err := h.store.CreateCharacter(c.Request.Context(), &rec); err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error creating character"})
		return
	}
	h.respondCharacter(c, rec.ID, http.StatusCreated, "Error creating character")
}

// UpdateCharacter godoc
// @Summary      Update a character
// @Tags         characters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string          true  "Character ID"
// @Param        input body  CharacterInput  true  "Fields to change"
// @Success      200  {object}  CharacterDetail
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Character not found"
// @Router       /api/characters/{id} [put]
func (h *Handler) UpdateCharacter(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	var input CharacterInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(true); errs != nil {
		respondValidation(c, errs)
		return
	}

	m := storeMessages{NotFound: "Character not found", Failure: "Error updating character"}
	rec, err := h.store.UpdateCharacter(c.Request.Context(), id, input.patch())
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	detail, err := h.composeCharacterDetail(c.Request.Context(), rec)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteCharacter godoc
// @Summary      Delete a character
// @Tags         characters
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Character ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Character not found"
// @Router       /api/characters/{id} [delete]
func (h *Handler) DeleteCharacter(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	if err := h.store.DeleteCharacter(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "Character not found", Failure: "Error deleting character"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Character deleted successfully"})
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
