package handler

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/media"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/internal/validation"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GameInput is the body of game create and update requests. Absent fields are
// left untouched on update.
type GameInput struct {
	Title         *string   `json:"title" example:"Chrono Trigger"`
	Description   *string   `json:"description" example:"A time-travelling RPG."`
	ReleaseDate   *string   `json:"releaseDate" example:"1995-03-11"`
	Genres        *[]string `json:"genres" example:"rpg,adventure"`
	Developer     *string   `json:"developer" example:"Square"`
	Publisher     *string   `json:"publisher" example:"Square"`
	Platforms     *[]string `json:"platforms"`
	Characters    *[]string `json:"characters"`
	RatingAverage *float64  `json:"ratingAverage" example:"9.5"`
	CoverImage    *string   `json:"coverImage" example:"https://img.example.com/ct.png"`
}

// Validate checks every present field. When partial is false the title is required.
func (in GameInput) Validate(partial bool) validation.Errors {
	var v validation.Checker
	if in.Title != nil || !partial {
		v.Check(in.Title != nil && validation.Length(*in.Title, 1, 200), "title", "Title is required and must be less than 200 characters")
	}
	if in.Description != nil {
		v.Check(validation.MaxLength(*in.Description, 1000), "description", "Description must be less than 1000 characters")
	}
	if in.ReleaseDate != nil {
		_, ok := validation.ParseDate(*in.ReleaseDate)
		v.Check(ok, "releaseDate", "Release date must be a valid date")
	}
	if in.Genres != nil {
		v.Strings("genres", *in.Genres, 50)
	}
	if in.Developer != nil {
		v.Check(validation.MaxLength(*in.Developer, 100), "developer", "Developer must be less than 100 characters")
	}
	if in.Publisher != nil {
		v.Check(validation.MaxLength(*in.Publisher, 100), "publisher", "Publisher must be less than 100 characters")
	}
	if in.Platforms != nil {
		v.ObjectIDs("platforms", *in.Platforms, "platform")
	}
	if in.Characters != nil {
		v.ObjectIDs("characters", *in.Characters, "character")
	}
	if in.RatingAverage != nil {
		v.Check(validation.FloatRange(*in.RatingAverage, 0, 10), "ratingAverage", "Rating must be between 0 and 10")
	}
	if in.CoverImage != nil && *in.CoverImage != "" {
		v.Check(validation.IsURL(*in.CoverImage), "coverImage", "Cover image must be a valid URL")
	}
	return v.Errors()
}

func (in GameInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if in.Title != nil {
		cols["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		cols["description"] = *in.Description
	}
	if in.ReleaseDate != nil {
		t, _ := validation.ParseDate(*in.ReleaseDate)
		cols["release_date"] = &t
	}
	if in.Developer != nil {
		cols["developer"] = strings.TrimSpace(*in.Developer)
	}
	if in.Publisher != nil {
		cols["publisher"] = strings.TrimSpace(*in.Publisher)
	}
	if in.RatingAverage != nil {
		cols["rating_average"] = *in.RatingAverage
	}
	if in.CoverImage != nil {
		cols["cover_image"] = *in.CoverImage
	}
	return cols
}

func (in GameInput) record(createdBy string) store.GameRecord {
	rec := store.GameRecord{}
	rec.CreatedBy = createdBy
	rec.Title = strings.TrimSpace(deref(in.Title))
	rec.Description = deref(in.Description)
	rec.Developer = strings.TrimSpace(deref(in.Developer))
	rec.Publisher = strings.TrimSpace(deref(in.Publisher))
	rec.RatingAverage = in.RatingAverage
	rec.CoverImage = deref(in.CoverImage)
	if in.ReleaseDate != nil {
		if t, ok := validation.ParseDate(*in.ReleaseDate); ok {
			rec.ReleaseDate = &t
		}
	}
	rec.Genres = derefList(in.Genres)
	rec.PlatformIDs = derefList(idList(in.Platforms))
	rec.CharacterIDs = derefList(idList(in.Characters))
	return rec
}

func (in GameInput) patch() store.GamePatch {
	return store.GamePatch{
		Columns:    in.columns(),
		Genres:     in.Genres,
		Platforms:  idList(in.Platforms),
		Characters: idList(in.Characters),
	}
}

// GameFields are the scalar fields shared by every game representation.
type GameFields struct {
	ID            string     `json:"id" example:"65a1f0c2e4b0a1b2c3d4e5f6"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ReleaseDate   *time.Time `json:"releaseDate"`
	Genres        []string   `json:"genres"`
	Developer     string     `json:"developer"`
	Publisher     string     `json:"publisher"`
	RatingAverage *float64   `json:"ratingAverage"`
	CoverImage    string     `json:"coverImage"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func newGameFields(r store.GameRecord) GameFields {
	genres := r.Genres
	if genres == nil {
		genres = []string{}
	}
	return GameFields{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		ReleaseDate:   r.ReleaseDate,
		Genres:        genres,
		Developer:     r.Developer,
		Publisher:     r.Publisher,
		RatingAverage: r.RatingAverage,
		CoverImage:    r.CoverImage,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// NamedRef is a reference expanded to its display name.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlatformRef is a platform reference on a game detail.
type PlatformRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
}

// CharacterRef is a character reference on a game detail.
type CharacterRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PortraitURL string `json:"portraitUrl"`
}

// UserRef identifies the user who created a game.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// GameSummary is a game as it appears in lists and search results.
type GameSummary struct {
	GameFields
	Platforms  []NamedRef `json:"platforms"`
	Characters []NamedRef `json:"characters"`
	CreatedBy  string     `json:"createdBy"`
}

// GameDetail is a single game with its references expanded.
type GameDetail struct {
	GameFields
	Platforms  []PlatformRef  `json:"platforms"`
	Characters []CharacterRef `json:"characters"`
	CreatedBy  *UserRef       `json:"createdBy"`
}

// GameListResponse defines the structure for a paginated list of games.
type GameListResponse struct {
	Games      []GameSummary  `json:"games"`
	Pagination PaginationMeta `json:"pagination"`
}

// CoverResponse is returned after a cover upload.
type CoverResponse struct {
	CoverImage string `json:"coverImage" example:"http://localhost:3000/media/game-covers/game-65a1f0c2e4b0a1b2c3d4e5f6.png"`
}

// endregion

// region --- Public Handlers ---

// ListGames godoc
// @Summary      List games
// @Description  Returns a page of games, newest first, optionally filtered.
// @Tags         games
// @Produce      json
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Page size (max 100)"
// @Param        genre      query  string  false  "Comma-separated genres, any of"
// @Param        platform   query  string  false  "Platform ID"
// @Param        developer  query  string  false  "Developer substring"
// @Param        publisher  query  string  false  "Publisher substring"
// @Success      200  {object}  GameListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/games [get]
func (h *Handler) ListGames(c *gin.Context) {
	filter, errs := parseGameFilter(c)
	if errs != nil {
		respondValidation(c, errs)
		return
	}
	h.listGames(c, filter.Scopes(), storeMessages{Failure: "Error fetching games"})
}

// SearchGames godoc
// @Summary      Search games
// @Description  Case-insensitive substring search over title, description, developer and publisher, newest first.
// @Tags         games
// @Produce      json
// @Param        q      query  string  true   "Search term"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Success      200  {object}  GameListResponse
// @Failure      400  {object}  ErrorResponse "Search term required"
// @Router       /api/games/search [get]
func (h *Handler) SearchGames(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		respondError(c, http.StatusBadRequest, "Search term required")
		return
	}
	h.listGames(c, []query.Scope{query.GameSearch(term)}, storeMessages{Failure: "Error searching games"})
}

func (h *Handler) listGames(c *gin.Context, scopes []query.Scope, m storeMessages) {
	p := ParsePagination(c)
	recs, total, err := h.store.ListGames(c.Request.Context(), scopes, p.storePage())
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	games, err := h.composeGameSummaries(c.Request.Context(), recs)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, GameListResponse{Games: games, Pagination: p.Meta(total)})
}

// GetGame godoc
// @Summary      Get a game
// @Description  Returns one game with platforms, characters and creator expanded.
// @Tags         games
// @Produce      json
// @Param        id   path      string  true  "Game ID"
// @Success      200  {object}  GameDetail
// @Failure      400  {object}  ErrorResponse "Invalid ID format"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /api/games/{id} [get]
func (h *Handler) GetGame(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	h.respondGame(c, id, http.StatusOK, "Error fetching game")
}

func (h *Handler) respondGame(c *gin.Context, id string, status int, failure string) {
	m := storeMessages{NotFound: "Game not found", Failure: failure}
	rec, err := h.store.GetGame(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	detail, err := h.composeGameDetail(c.Request.Context(), rec)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(status, detail)
}

// endregion

// region --- Admin Handlers ---

// CreateGame godoc
// @Summary      Create a new game
// @Description  Creates a game. The caller is recorded as its creator.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameDetail
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /api/games [post]
func (h *Handler) CreateGame(c *gin.Context) {
	var input GameInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(false); errs != nil {
		respondValidation(c, errs)
		return
	}

	caller, _ := auth.CurrentUser(c)
	rec := input.record(caller.ID)
	if err := h.store.CreateGame(c.Request.Context(), &rec); err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error creating game"})
		return
	}
	h.respondGame(c, rec.ID, http.StatusCreated, "Error creating game")
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Updates the fields present in the body. Reference lists are replaced as a whole.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string     true  "Game ID"
// @Param        input body      GameInput  true  "Fields to change"
// @Success      200   {object}  GameDetail
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /api/games/{id} [put]
func (h *Handler) UpdateGame(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	var input GameInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(true); errs != nil {
		respondValidation(c, errs)
		return
	}

	m := storeMessages{NotFound: "Game not found", Failure: "Error updating game"}
	rec, err := h.store.UpdateGame(c.Request.Context(), id, input.patch())
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	detail, err := h.composeGameDetail(c.Request.Context(), rec)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes a game. Favorites and character links pointing at it are left in place.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /api/games/{id} [delete]
func (h *Handler) DeleteGame(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	if err := h.store.DeleteGame(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "Game not found", Failure: "Error deleting game"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Game deleted successfully"})
}

// UploadCover godoc
// @Summary      Upload a cover image
// @Description  Stores the uploaded image and sets it as the game's cover.
// @Tags         games
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Game ID"
// @Param        cover  formData  file    true  "Cover image"
// @Success      200 {object} CoverResponse
// @Failure      400 {object} ErrorResponse "No file uploaded"
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /api/games/{id}/cover [post]
func (h *Handler) UploadCover(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid ID format")
	if !ok {
		return
	}
	header, err := c.FormFile("cover")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	sniff = sniff[:n]
	contentType := http.DetectContentType(sniff)
	if !strings.HasPrefix(contentType, "image/") {
		respondValidation(c, validation.Errors{{Field: "cover", Message: "Cover must be an image"}})
		return
	}

	m := storeMessages{NotFound: "Game not found", Failure: "Error uploading cover image"}
	exists, err := h.store.GameExists(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "Game not found")
		return
	}
	if h.media == nil {
		respondError(c, http.StatusInternalServerError, m.Failure)
		return
	}

	key := media.CoverKey(id, imageExt(contentType, header.Filename))
	url, err := h.media.Upload(c.Request.Context(), key, io.MultiReader(bytes.NewReader(sniff), file), contentType)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	if err := h.store.SetGameCover(c.Request.Context(), id, url); err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, CoverResponse{CoverImage: url})
}

// endregion

var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func imageExt(contentType, filename string) string {
	if ext, ok := imageExts[contentType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

func parseGameFilter(c *gin.Context) (query.GameFilter, validation.Errors) {
	var f query.GameFilter
	for _, raw := range c.QueryArray("genre") {
		f.Genres = append(f.Genres, query.SplitList(raw)...)
	}
	f.Platform = strings.TrimSpace(c.Query("platform"))
	f.Developer = strings.TrimSpace(c.Query("developer"))
	f.Publisher = strings.TrimSpace(c.Query("publisher"))

	var v validation.Checker
	if f.Platform != "" {
		v.Check(validation.IsObjectID(f.Platform), "platform", "Invalid platform ID format")
		f.Platform = models.NormalizeID(f.Platform)
	}
	return f, v.Errors()
}

// pathID reads an object id path parameter, answering 400 when malformed.
func pathID(c *gin.Context, param, message string) (string, bool) {
	id := c.Param(param)
	if !validation.IsObjectID(id) {
		respondInvalidID(c, param, message)
		return "", false
	}
	return models.NormalizeID(id), true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// idList normalizes a reference list, keeping nil as nil.
func idList(s *[]string) *[]string {
	if s == nil {
		return nil
	}
	ids := models.NormalizeIDs(*s)
	return &ids
}

func derefList(s *[]string) []string {
	if s == nil {
		return []string{}
	}
	return *s
}
