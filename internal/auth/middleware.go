package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gamecatalog/backend/internal/middleware"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

var (
	// ErrNoToken means the request carried neither the session cookie nor a bearer token.
	ErrNoToken = errors.New("auth: no token")
	// ErrUnknownUser means the token names a user that no longer exists.
	ErrUnknownUser = errors.New("auth: user not found")
	// ErrLookup means the user could not be read for a reason other than absence.
	ErrLookup = errors.New("auth: user lookup failed")
)

// UserFinder loads the user a session token names.
type UserFinder interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticator resolves the caller of a request from its session token.
type Authenticator struct {
	tokens     *jwt.Manager
	users      UserFinder
	cookieName string
}

func NewAuthenticator(tokens *jwt.Manager, users UserFinder, cookieName string) *Authenticator {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Authenticator{tokens: tokens, users: users, cookieName: cookieName}
}

// CookieName is the name of the session cookie.
func (a *Authenticator) CookieName() string { return a.cookieName }

// Token extracts the session token, preferring the cookie over the Authorization header.
func (a *Authenticator) Token(c *gin.Context) string {
	if v, err := c.Cookie(a.cookieName); err == nil && v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate verifies the token and re-reads the user it names.
func (a *Authenticator) Authenticate(c *gin.Context) (*models.User, error) {
	token := a.Token(c)
	if token == "" {
		return nil, ErrNoToken
	}
	userID, err := a.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.UserByID(c.Request.Context(), userID)
	if store.IsNotFound(err) || (err == nil && user == nil) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	return user, nil
}

// Middleware rejects requests without a valid session with 401.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c)
		if errors.Is(err, ErrLookup) {
			slog.ErrorContext(c.Request.Context(), "session lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error verifying session"})
			return
		}
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, ErrNoToken) {
				msg = "Access token required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		setUser(c, user)
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(middleware.UserIDKey, user.ID)
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// IsAdmin reports whether the user holds the admin role.
func IsAdmin(user *models.User) bool {
	return user != nil && user.IsAdmin()
}

// IsOwnerOrAdmin reports whether the user is an admin or is the user identified by id.
func IsOwnerOrAdmin(user *models.User, id string) bool {
	return user != nil && (user.IsAdmin() || user.ID == models.NormalizeID(id))
}
