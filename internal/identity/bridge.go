package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/store"

	"github.com/google/uuid"
)

// ErrUnknownProvider is returned for a provider that was not configured.
var ErrUnknownProvider = errors.New("identity: provider not configured")

const (
	minUsername = 2
	maxUsername = 50
)

// Users is the part of the store the bridge needs.
type Users interface {
	FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// Bridge binds external identities to local users.
type Bridge struct {
	users     Users
	providers map[string]Provider
}

// NewBridge registers the configured providers. Nil providers are skipped.
func NewBridge(users Users, providers ...Provider) *Bridge {
	b := &Bridge{users: users, providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			b.providers[p.Name()] = p
		}
	}
	return b
}

// Provider returns the named provider if it was configured.
func (b *Bridge) Provider(name string) (Provider, bool) {
	p, ok := b.providers[name]
	return p, ok
}

// Providers lists the configured provider names.
func (b *Bridge) Providers() []string {
	names := make([]string, 0, len(b.providers))
	for _, name := range []string{models.ProviderGoogle, models.ProviderGitHub} {
		if _, ok := b.providers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

// Login completes a callback: exchange the code, then find or create the user.
func (b *Bridge) Login(ctx context.Context, providerName, code string) (*models.User, error) {
	p, ok := b.Provider(providerName)
	if !ok {
		return nil, ErrUnknownProvider
	}
	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return b.Resolve(ctx, profile)
}

// Resolve returns the user bound to the profile's external identity, creating
// one on first login.
func (b *Bridge) Resolve(ctx context.Context, profile *Profile) (*models.User, error) {
	user, err := b.users.FindUserByProvider(ctx, profile.Provider, profile.ID)
	if err == nil {
		return user, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	user = &models.User{
		OAuthProvider: profile.Provider,
		ProviderID:    profile.ID,
		Username:      username(profile),
		Role:          models.RoleUser,
		AvatarURL:     profile.AvatarURL,
	}
	if email := strings.ToLower(strings.TrimSpace(profile.Email)); email != "" {
		// An address already bound to another account is left off the new one.
		if _, err := b.users.FindUserByEmail(ctx, email); store.IsNotFound(err) {
			user.Email = &email
		} else if err != nil {
			return nil, err
		}
	}

	if err := b.users.CreateUser(ctx, user); err != nil {
		if store.IsDuplicateKey(err) {
			// Lost a race with a concurrent first login for the same identity.
			return b.users.FindUserByProvider(ctx, profile.Provider, profile.ID)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created", "id", user.ID, "provider", user.OAuthProvider)
	return user, nil
}

func username(p *Profile) string {
	name := strings.TrimSpace(p.DisplayName)
	if utf8.RuneCountInString(name) < minUsername {
		name = p.Provider + "-" + p.ID
	}
	if utf8.RuneCountInString(name) > maxUsername {
		name = string([]rune(name)[:maxUsername])
	}
	return name
}
