package handler

import (
	"time"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/identity"
	"gamecatalog/backend/internal/media"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/pkg/jwt"
)

// Version is reported by the service index.
const Version = "1.0.0"

// Options carries the settings handlers read at request time.
type Options struct {
	FrontendURL  string
	FailureURL   string
	SecureCookie bool
}

// Handler serves every API route.
type Handler struct {
	store   *store.Store
	tokens  *jwt.Manager
	auth    *auth.Authenticator
	bridge  *identity.Bridge
	media   *media.Host
	opts    Options
	started time.Time
}

// New wires the handler dependencies. media may be nil, in which case cover
// uploads answer 500.
func New(s *store.Store, tokens *jwt.Manager, authn *auth.Authenticator, bridge *identity.Bridge, host *media.Host, opts Options) *Handler {
	return &Handler{
		store:   s,
		tokens:  tokens,
		auth:    authn,
		bridge:  bridge,
		media:   host,
		opts:    opts,
		started: time.Now(),
	}
}
