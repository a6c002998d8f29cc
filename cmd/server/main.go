package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/config"
	"gamecatalog/backend/internal/database"
	"gamecatalog/backend/internal/handler"
	"gamecatalog/backend/internal/identity"
	"gamecatalog/backend/internal/logging"
	"gamecatalog/backend/internal/media"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/ratelimit"
	"gamecatalog/backend/internal/router"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "gamecatalog/backend/docs"
)

const shutdownTimeout = 10 * time.Second

// @title           Game Catalog API
// @version         1.0
// @description     REST API for a video-game catalog: games, characters, platforms and users with OAuth login and favorites.
// @host            localhost:3000
// @BasePath        /
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	root := &cobra.Command{
		Use:           "gamecatalog",
		Short:         "Game Catalog API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(serveCmd(), migrateCmd(), promoteCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("database migrated")
			return nil
		},
	}
}

func promoteCmd() *cobra.Command {
	var email, id, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set a user's role",
		Long:  "Set the role of an existing user, found by --email or --id. This is how the first admin is created.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (email == "") == (id == "") {
				return errors.New("exactly one of --email or --id is required")
			}
			if role != models.RoleAdmin && role != models.RoleUser {
				return fmt.Errorf("role must be %q or %q", models.RoleAdmin, models.RoleUser)
			}
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			s := store.New(db)
			ctx := cmd.Context()

			var user *models.User
			if email != "" {
				user, err = s.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
			} else {
				user, err = s.UserByID(ctx, id)
			}
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return errors.New("user not found")
				}
				return err
			}
			if err := s.SetUserRole(ctx, user.ID, role); err != nil {
				return err
			}
			slog.Info("role updated", "user", user.ID, "username", user.Username, "role", role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().StringVar(&id, "id", "", "id of the user")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "role to assign (admin|user)")
	return cmd
}

// bootstrap loads configuration, configures logging and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logOutput := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, err := media.Open(ctx, cfg.MediaBucketURL, cfg.MediaPublicURL)
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}
	defer host.Close()

	limiter, closeLimiter, err := newAuthLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	s := store.New(db)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authn := auth.NewAuthenticator(tokens, s, cfg.CookieName)
	bridge := identity.NewBridge(s, providers(cfg)...)

	h := handler.New(s, tokens, authn, bridge, host, handler.Options{
		FrontendURL:  cfg.FrontendURL,
		FailureURL:   cfg.FailureURL,
		SecureCookie: cfg.IsProduction(),
	})
	engine := router.New(h, authn, router.Options{
		FrontendURL:    cfg.FrontendURL,
		Production:     cfg.IsProduction(),
		BodyLimitBytes: cfg.BodyLimitMB << 20,
		ServeMedia:     host.IsLocal(),
		AuthLimiter:    limiter,
		TrustedProxies: cfg.TrustedProxyList(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "providers", bridge.Providers())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	slog.Info("server stopped")
	return nil
}

// providers returns the identity providers that have client credentials.
func providers(cfg *config.Config) []identity.Provider {
	var list []identity.Provider
	if cfg.GoogleClientID != "" {
		list = append(list, identity.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL))
	}
	if cfg.GitHubClientID != "" {
		list = append(list, identity.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL))
	}
	if len(list) == 0 {
		slog.Warn("no OAuth providers configured, login is disabled")
	}
	return list
}

// newAuthLimiter shares counters through redis when REDIS_URL is set.
func newAuthLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.AuthRateLimit <= 0 {
		return nil, func() {}, nil
	}
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return ratelimit.NewRedisLimiter(client, cfg.AuthRateLimit, cfg.AuthRateWindow), func() { client.Close() }, nil
}
