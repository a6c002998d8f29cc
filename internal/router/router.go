package router

import (
	"log/slog"
	"net/http"
	"time"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/handler"
	"gamecatalog/backend/internal/middleware"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options tunes the engine.
type Options struct {
	FrontendURL    string
	Production     bool
	BodyLimitBytes int64
	ServeMedia     bool
	// TrustedProxies may set X-Forwarded-For. Nil trusts none, so the client
	// IP is always the socket peer.
	TrustedProxies []string
	// AuthLimiter throttles /auth. Nil disables it.
	AuthLimiter ratelimit.Limiter
}

// New builds the gin engine with every route.
func New(h *handler.Handler, authn *auth.Authenticator, opts Options) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.SecurityHeaders(opts.Production),
		cors.New(cors.Config{
			AllowOrigins:     []string{opts.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.BodyLimit(opts.BodyLimitBytes),
	)

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/", h.Index)
	if opts.ServeMedia {
		r.GET("/media/*key", h.Media)
	}

	requireAuth := authn.Middleware()
	requireAdmin := []gin.HandlerFunc{requireAuth, auth.AdminMiddleware()}

	authRoutes := r.Group("/auth")
	if opts.AuthLimiter != nil {
		authRoutes.Use(ratelimit.Middleware(opts.AuthLimiter))
	}
	{
		for _, provider := range []string{models.ProviderGoogle, models.ProviderGitHub} {
			authRoutes.GET("/"+provider, h.BeginLogin(provider))
			authRoutes.GET("/"+provider+"/callback", h.Callback(provider))
		}
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.GET("/logout", h.Logout)
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/stats", h.Stats)
		api.GET("/genres", h.ListGenres)

		games := api.Group("/games")
		{
			games.GET("", h.ListGames)
			games.GET("/search", h.SearchGames) // Must be before /:id
			games.GET("/:id", h.GetGame)
			games.POST("", append(requireAdmin, h.CreateGame)...)
			games.PUT("/:id", append(requireAdmin, h.UpdateGame)...)
			games.DELETE("/:id", append(requireAdmin, h.DeleteGame)...)
			games.POST("/:id/cover", append(requireAdmin, h.UploadCover)...)
		}

		characters := api.Group("/characters")
		{
			characters.GET("", h.ListCharacters)
			characters.GET("/:id", h.GetCharacter)
			characters.POST("", append(requireAdmin, h.CreateCharacter)...)
			characters.PUT("/:id", append(requireAdmin, h.UpdateCharacter)...)
			characters.DELETE("/:id", append(requireAdmin, h.DeleteCharacter)...)
		}

		platforms := api.Group("/platforms")
		{
			platforms.GET("", h.ListPlatforms)
			platforms.GET("/:id", h.GetPlatform)
			platforms.GET("/:id/games", h.ListPlatformGames)
			platforms.POST("", append(requireAdmin, h.CreatePlatform)...)
			platforms.PUT("/:id", append(requireAdmin, h.UpdatePlatform)...)
			platforms.DELETE("/:id", append(requireAdmin, h.DeletePlatform)...)
		}

		users := api.Group("/users", requireAuth)
		{
			owner := auth.OwnerOrAdminMiddleware("id")
			users.GET("", auth.AdminMiddleware(), h.ListUsers)
			users.GET("/:id", owner, h.GetUser)
			users.PUT("/:id", owner, h.UpdateUser)
			users.DELETE("/:id", owner, h.DeleteUser)
			users.POST("/:id/favorites", owner, h.AddFavorite)
			users.DELETE("/:id/favorites/:gameId", owner, h.RemoveFavorite)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{Message: "Route not found"})
	})
	return r
}
