package handler

import (
	"context"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/store"
)

// Responses are assembled in three steps: the entity rows, one batch lookup
// per referenced kind, then a pass that keeps only ids that still resolve.

func (h *Handler) composeGameSummaries(ctx context.Context, recs []store.GameRecord) ([]GameSummary, error) {
	var platformIDs, characterIDs []string
	for _, r := range recs {
		platformIDs = append(platformIDs, r.PlatformIDs...)
		characterIDs = append(characterIDs, r.CharacterIDs...)
	}
	platforms, err := h.store.PlatformsByID(ctx, store.Unique(platformIDs))
	if err != nil {
		return nil, err
	}
	characters, err := h.store.CharactersByID(ctx, store.Unique(characterIDs))
	if err != nil {
		return nil, err
	}

	out := make([]GameSummary, 0, len(recs))
	for _, r := range recs {
		item := GameSummary{
			GameFields: newGameFields(r),
			Platforms:  make([]NamedRef, 0, len(r.PlatformIDs)),
			Characters: make([]NamedRef, 0, len(r.CharacterIDs)),
			CreatedBy:  r.CreatedBy,
		}
		for _, id := range r.PlatformIDs {
			if p, ok := platforms[id]; ok {
				item.Platforms = append(item.Platforms, NamedRef{ID: p.ID, Name: p.Name})
			}
		}
		for _, id := range r.CharacterIDs {
			if ch, ok := characters[id]; ok {
				item.Characters = append(item.Characters, NamedRef{ID: ch.ID, Name: ch.Name})
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *Handler) composeGameDetail(ctx context.Context, r *store.GameRecord) (*GameDetail, error) {
	platforms, err := h.store.PlatformsByID(ctx, r.PlatformIDs)
	if err != nil {
		return nil, err
	}
	characters, err := h.store.CharactersByID(ctx, r.CharacterIDs)
	if err != nil {
		return nil, err
	}
	users, err := h.store.UsersByID(ctx, []string{r.CreatedBy})
	if err != nil {
		return nil, err
	}

	detail := &GameDetail{
		GameFields: newGameFields(*r),
		Platforms:  make([]PlatformRef, 0, len(r.PlatformIDs)),
		Characters: make([]CharacterRef, 0, len(r.CharacterIDs)),
	}
	for _, id := range r.PlatformIDs {
		if p, ok := platforms[id]; ok {
			detail.Platforms = append(detail.Platforms, PlatformRef{ID: p.ID, Name: p.Name, Manufacturer: p.Manufacturer})
		}
	}
	for _, id := range r.CharacterIDs {
		if ch, ok := characters[id]; ok {
			detail.Characters = append(detail.Characters, CharacterRef{ID: ch.ID, Name: ch.Name, PortraitURL: ch.PortraitURL})
		}
	}
	if u, ok := users[r.CreatedBy]; ok {
		detail.CreatedBy = &UserRef{ID: u.ID, Username: u.Username}
	}
	return detail, nil
}

func (h *Handler) composeCharacterSummaries(ctx context.Context, recs []store.CharacterRecord) ([]CharacterSummary, error) {
	var gameIDs []string
	for _, r := range recs {
		gameIDs = append(gameIDs, r.GameIDs...)
	}
	games, err := h.store.GamesByID(ctx, store.Unique(gameIDs))
	if err != nil {
		return nil, err
	}

	out := make([]CharacterSummary, 0, len(recs))
	for _, r := range recs {
		item := CharacterSummary{CharacterFields: newCharacterFields(r), Games: make([]GameRef, 0, len(r.GameIDs))}
		for _, id := range r.GameIDs {
			if g, ok := games[id]; ok {
				item.Games = append(item.Games, GameRef{ID: g.ID, Title: g.Title})
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *Handler) composeCharacterDetail(ctx context.Context, r *store.CharacterRecord) (*CharacterDetail, error) {
	games, err := h.store.GamesByID(ctx, r.GameIDs)
	if err != nil {
		return nil, err
	}
	detail := &CharacterDetail{CharacterFields: newCharacterFields(*r), Games: make([]GameCard, 0, len(r.GameIDs))}
	for _, id := range r.GameIDs {
		if g, ok := games[id]; ok {
			detail.Games = append(detail.Games, newGameCard(g))
		}
	}
	return detail, nil
}

func (h *Handler) composeUserDetail(ctx context.Context, r *store.UserRecord) (*UserDetail, error) {
	games, err := h.store.GamesByID(ctx, r.FavoriteIDs)
	if err != nil {
		return nil, err
	}
	detail := &UserDetail{UserResponse: newUserResponse(r.User), Favorites: make([]FavoriteRef, 0, len(r.FavoriteIDs))}
	for _, id := range r.FavoriteIDs {
		if g, ok := games[id]; ok {
			detail.Favorites = append(detail.Favorites, FavoriteRef{ID: g.ID, Title: g.Title, CoverImage: g.CoverImage})
		}
	}
	return detail, nil
}

func newGameCard(g models.Game) GameCard {
	return GameCard{ID: g.ID, Title: g.Title, CoverImage: g.CoverImage, ReleaseDate: g.ReleaseDate}
}
