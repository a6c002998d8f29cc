package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/identity"

	"github.com/gin-gonic/gin"
)

const (
	stateCookie    = "oauth_state"
	stateCookieAge = 600
)

// MeResponse echoes the authenticated caller.
type MeResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	Role      string  `json:"role" example:"user"`
	AvatarURL string  `json:"avatarUrl"`
}

// BeginLogin godoc
// @Summary      Start an OAuth login
// @Description  Redirects to the provider's consent page.
// @Tags         auth
// @Param        provider  path  string  true  "google or github"
// @Success      307
// @Failure      404  {object}  ErrorResponse "Provider not configured"
// @Router       /auth/{provider} [get]
func (h *Handler) BeginLogin(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := h.bridge.Provider(provider)
		if !ok {
			respondError(c, http.StatusNotFound, "Provider not configured")
			return
		}
		state := identity.NewState()
		// Lax so the cookie survives the top-level redirect back from the provider.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookie, state, stateCookieAge, "/auth", "", h.opts.SecureCookie, true)
		c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state))
	}
}

// Callback godoc
// @Summary      Finish an OAuth login
// @Description  Exchanges the code, binds the account and sets the session cookie, then redirects to the frontend.
// @Tags         auth
// @Param        provider  path   string  true  "google or github"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "State echoed by the provider"
// @Success      302
// @Failure      404  {object}  ErrorResponse "Provider not configured"
// @Router       /auth/{provider}/callback [get]
func (h *Handler) Callback(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := h.bridge.Provider(provider); !ok {
			respondError(c, http.StatusNotFound, "Provider not configured")
			return
		}
		expected, _ := c.Cookie(stateCookie)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookie, "", -1, "/auth", "", h.opts.SecureCookie, true)

		if reason := c.Query("error"); reason != "" {
			h.failLogin(c, provider, errors.New(reason))
			return
		}
		if expected == "" || c.Query("state") != expected {
			h.failLogin(c, provider, errors.New("state mismatch"))
			return
		}
		code := c.Query("code")
		if code == "" {
			h.failLogin(c, provider, errors.New("missing code"))
			return
		}

		user, err := h.bridge.Login(c.Request.Context(), provider, code)
		if err != nil {
			h.failLogin(c, provider, err)
			return
		}
		token, err := h.tokens.GenerateToken(user.ID)
		if err != nil {
			h.failLogin(c, provider, err)
			return
		}
		h.setSession(c, token, int(h.tokens.TTL().Seconds()))
		slog.InfoContext(c.Request.Context(), "login", "user", user.ID, "provider", provider)
		c.Redirect(http.StatusFound, h.opts.FrontendURL)
	}
}

func (h *Handler) failLogin(c *gin.Context, provider string, err error) {
	slog.WarnContext(c.Request.Context(), "oauth login failed", "provider", provider, "error", err)
	c.Redirect(http.StatusFound, h.opts.FailureURL)
}

func (h *Handler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.auth.CookieName(), token, maxAge, "/", "", h.opts.SecureCookie, true)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access token required")
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Clears the session cookie.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       /auth/logout [get]
func (h *Handler) Logout(c *gin.Context) {
	h.setSession(c, "", -1)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
