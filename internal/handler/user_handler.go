package handler

import (
	"net/http"
	"strings"
	"time"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
	"gamecatalog/backend/internal/validation"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UserInput holds the self-service profile fields.
type UserInput struct {
	Username  *string `json:"username" example:"ada"`
	Email     *string `json:"email" example:"ada@example.com"`
	AvatarURL *string `json:"avatarUrl"`
}

// Validate checks every present field.
func (in UserInput) Validate() validation.Errors {
	var v validation.Checker
	if in.Username != nil {
		v.Check(validation.Length(*in.Username, 2, 50), "username", "Username must be between 2 and 50 characters")
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		v.Check(validation.IsEmail(strings.TrimSpace(*in.Email)), "email", "Valid email is required")
	}
	if in.AvatarURL != nil && *in.AvatarURL != "" {
		v.Check(validation.IsURL(*in.AvatarURL), "avatarUrl", "Avatar URL must be a valid URL")
	}
	return v.Errors()
}

func (in UserInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if in.Username != nil {
		cols["username"] = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			cols["email"] = nil
		} else {
			cols["email"] = email
		}
	}
	if in.AvatarURL != nil {
		cols["avatar_url"] = *in.AvatarURL
	}
	return cols
}

// FavoriteInput is the body of an add-favorite request.
type FavoriteInput struct {
	GameID string `json:"gameId" example:"65a1f0c2e4b0a1b2c3d4e5f6"`
}

// UserResponse is a user as returned by the API.
type UserResponse struct {
	ID            string    `json:"id"`
	OAuthProvider string    `json:"oauthProvider" example:"github"`
	Username      string    `json:"username"`
	Email         *string   `json:"email"`
	Role          string    `json:"role" example:"user"`
	AvatarURL     string    `json:"avatarUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		OAuthProvider: u.OAuthProvider,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		AvatarURL:     u.AvatarURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// FavoriteRef is a favorite game on a user profile.
type FavoriteRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CoverImage string `json:"coverImage"`
}

// UserDetail is a user profile with its favorites expanded.
type UserDetail struct {
	UserResponse
	Favorites []FavoriteRef `json:"favorites"`
}

// UserListResponse defines the structure for a paginated list of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}

// endregion

const invalidUserID = "Invalid user ID format"

// ListUsers godoc
// @Summary      List users
// @Description  Returns a page of users, newest first. Admin only.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q      query  string  false  "Username or email substring"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Success      200  {object}  UserListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var scopes []query.Scope
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		scopes = append(scopes, query.UserSearch(q))
	}

	p := ParsePagination(c)
	users, total, err := h.store.ListUsers(c.Request.Context(), scopes, p.storePage())
	if err != nil {
		respondStoreError(c, err, storeMessages{Failure: "Error fetching users"})
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	c.JSON(http.StatusOK, UserListResponse{Users: out, Pagination: p.Meta(total)})
}

// GetUser godoc
// @Summary      Get a user
// @Description  Returns a profile with its favorite games. Owner or admin only.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  UserDetail
// @Failure      400  {object}  ErrorResponse "Invalid user ID format"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Access denied"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id", invalidUserID)
	if !ok {
		return
	}
	m := storeMessages{NotFound: "User not found", Failure: "Error fetching user"}
	rec, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	detail, err := h.composeUserDetail(c.Request.Context(), rec)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateUser godoc
// @Summary      Update a user
// @Description  Changes username, email or avatar. Owner or admin only.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string     true  "User ID"
// @Param        input body  UserInput  true  "Fields to change"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Access denied"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      409  {object}  ErrorResponse "Email already in use"
// @Router       /api/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id", invalidUserID)
	if !ok {
		return
	}
	var input UserInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if errs := input.Validate(); errs != nil {
		respondValidation(c, errs)
		return
	}
	user, err := h.store.UpdateUser(c.Request.Context(), id, input.columns())
	if err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "User not found", Conflict: "Email already in use", Failure: "Error updating user"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Deletes the account and its favorites. Owner or admin only.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Access denied"
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /api/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id", invalidUserID)
	if !ok {
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, storeMessages{NotFound: "User not found", Failure: "Error deleting user"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// region --- Favorites ---

// AddFavorite godoc
// @Summary      Add a favorite game
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string         true  "User ID"
// @Param        input body  FavoriteInput  true  "Game to add"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Game already in favorites"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Access denied"
// @Failure      404  {object}  ErrorResponse "User or game not found"
// @Failure      409  {object}  ErrorResponse "Game already in favorites"
// @Router       /api/users/{id}/favorites [post]
func (h *Handler) AddFavorite(c *gin.Context) {
	userID, ok := pathID(c, "id", invalidUserID)
	if !ok {
		return
	}
	var input FavoriteInput
	if errs := bindJSON(c, &input); errs != nil {
		respondValidation(c, errs)
		return
	}
	if !validation.IsObjectID(input.GameID) {
		respondValidation(c, validation.Errors{{Field: "gameId", Message: "Invalid game ID format"}})
		return
	}
	input.GameID = models.NormalizeID(input.GameID)

	ctx := c.Request.Context()
	m := storeMessages{NotFound: "User not found", Conflict: "Game already in favorites", Failure: "Error adding to favorites"}
	if _, err := h.store.UserByID(ctx, userID); err != nil {
		respondStoreError(c, err, m)
		return
	}
	exists, err := h.store.GameExists(ctx, input.GameID)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "Game not found")
		return
	}
	has, err := h.store.HasFavorite(ctx, userID, input.GameID)
	if err != nil {
		respondStoreError(c, err, m)
		return
	}
	if has {
		respondError(c, http.StatusBadRequest, "Game already in favorites")
		return
	}
	if err := h.store.AddFavorite(ctx, userID, input.GameID); err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Game added to favorites"})
}

// RemoveFavorite godoc
// @Summary      Remove a favorite game
// @Description  Removing a game that is not a favorite succeeds.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string  true  "User ID"
// @Param        gameId  path  string  true  "Game ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Access denied"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /api/users/{id}/favorites/{gameId} [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID, ok := pathID(c, "id", invalidUserID)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "gameId", "Invalid game ID format")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	m := storeMessages{NotFound: "User not found", Failure: "Error removing from favorites"}
	if _, err := h.store.UserByID(ctx, userID); err != nil {
		respondStoreError(c, err, m)
		return
	}
	if err := h.store.RemoveFavorite(ctx, userID, gameID); err != nil {
		respondStoreError(c, err, m)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Game removed from favorites"})
}

// endregion
