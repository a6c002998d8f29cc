package store

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"gamecatalog/backend/internal/database"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", io.Discard)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func seedGame(t *testing.T, s *Store, rec GameRecord) *GameRecord {
	t.Helper()
	if rec.CreatedBy == "" {
		rec.CreatedBy = models.NewID()
	}
	if err := s.CreateGame(context.Background(), &rec); err != nil {
		t.Fatalf("create game %q: %v", rec.Title, err)
	}
	return &rec
}

func TestCreateAndGetGameKeepsLinksInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1, p2 := models.NewID(), models.NewID()
	created := seedGame(t, s, GameRecord{
		Game:         models.Game{Title: "Chrono Trigger"},
		Genres:       []string{"rpg", "adventure", "rpg"},
		PlatformIDs:  []string{p2, p1},
		CharacterIDs: []string{},
	})

	got, err := s.GetGame(ctx, created.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if !reflect.DeepEqual(got.Genres, []string{"rpg", "adventure"}) {
		t.Fatalf("unexpected genres %v", got.Genres)
	}
	if !reflect.DeepEqual(got.PlatformIDs, []string{p2, p1}) {
		t.Fatalf("unexpected platform ids %v", got.PlatformIDs)
	}
	if len(got.CharacterIDs) != 0 {
		t.Fatalf("expected no characters, got %v", got.CharacterIDs)
	}
	if !models.IsValidID(got.ID) {
		t.Fatalf("expected object id, got %q", got.ID)
	}
}

func TestGetGameNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetGame(context.Background(), models.NewID()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListGamesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	switchID := models.NewID()
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Zelda", Developer: "Nintendo EPD"}, Genres: []string{"adventure"}, PlatformIDs: []string{switchID}})
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Halo", Developer: "Bungie", Publisher: "Microsoft"}, Genres: []string{"shooter"}})
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Metroid", Developer: "Retro Studios", Publisher: "Nintendo"}, Genres: []string{"adventure", "shooter"}, PlatformIDs: []string{switchID}})

	cases := []struct {
		name   string
		filter query.GameFilter
		want   int64
	}{
		{"none", query.GameFilter{}, 3},
		{"genre", query.GameFilter{Genres: []string{"adventure"}}, 2},
		{"genre any of", query.GameFilter{Genres: []string{"adventure", "shooter"}}, 3},
		{"platform", query.GameFilter{Platform: switchID}, 2},
		{"developer substring", query.GameFilter{Developer: "nintendo"}, 1},
		{"publisher substring", query.GameFilter{Publisher: "SOFT"}, 1},
		{"conjunction", query.GameFilter{Genres: []string{"shooter"}, Platform: switchID}, 1},
		{"no match", query.GameFilter{Developer: "capcom"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			games, total, err := s.ListGames(ctx, tc.filter.Scopes(), Page{Offset: 0, Limit: 10})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tc.want || int64(len(games)) != tc.want {
				t.Fatalf("expected %d games, got total=%d len=%d", tc.want, total, len(games))
			}
		})
	}
}

func TestListGamesPagesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"First", "Second", "Third"} {
		rec := GameRecord{Game: models.Game{Title: title}}
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		seedGame(t, s, rec)
	}

	page1, total, err := s.ListGames(ctx, nil, Page{Offset: 0, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(page1) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(page1), total)
	}
	if page1[0].Title != "Third" || page1[1].Title != "Second" {
		t.Fatalf("unexpected order %q, %q", page1[0].Title, page1[1].Title)
	}
	page2, _, err := s.ListGames(ctx, nil, Page{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page2) != 1 || page2[0].Title != "First" {
		t.Fatalf("unexpected second page %+v", page2)
	}
}

func TestSearchGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Super Mario Odyssey"}})
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Portal", Description: "A puzzle game about a MARIO-less world"}})
	seedGame(t, s, GameRecord{Game: models.Game{Title: "Doom", Developer: "id Software"}})
	seedGame(t, s, GameRecord{Game: models.Game{Title: "100% Orange Juice"}})

	games, total, err := s.ListGames(ctx, []query.Scope{query.GameSearch("mario")}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(games) != 2 {
		t.Fatalf("expected 2 hits, got %d", total)
	}

	_, total, err = s.ListGames(ctx, []query.Scope{query.GameSearch("100%")}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected literal percent match, got %d", total)
	}

	_, total, err = s.ListGames(ctx, []query.Scope{query.GameSearch("%")}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected escaped wildcard to match only the literal, got %d", total)
	}
}

func TestUpdateGamePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1 := models.NewID()
	created := seedGame(t, s, GameRecord{Game: models.Game{Title: "Old", Developer: "Dev"}, Genres: []string{"rpg"}, PlatformIDs: []string{p1}})

	genres := []string{"action"}
	updated, err := s.UpdateGame(ctx, created.ID, GamePatch{
		Columns: map[string]interface{}{"title": "New"},
		Genres:  &genres,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.Developer != "Dev" {
		t.Fatalf("unexpected fields %+v", updated.Game)
	}
	if !reflect.DeepEqual(updated.Genres, []string{"action"}) {
		t.Fatalf("expected genres replaced, got %v", updated.Genres)
	}
	if !reflect.DeepEqual(updated.PlatformIDs, []string{p1}) {
		t.Fatalf("expected platforms untouched, got %v", updated.PlatformIDs)
	}

	if _, err := s.UpdateGame(ctx, models.NewID(), GamePatch{}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteGameLeavesFavoritesDangling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := &models.User{OAuthProvider: models.ProviderGoogle, ProviderID: "g-1", Username: "ada"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	game := seedGame(t, s, GameRecord{Game: models.Game{Title: "Gone"}, Genres: []string{"x"}})
	if err := s.AddFavorite(ctx, user.ID, game.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	if err := s.DeleteGame(ctx, game.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteGame(ctx, game.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	rec, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !reflect.DeepEqual(rec.FavoriteIDs, []string{game.ID}) {
		t.Fatalf("expected dangling favorite to remain, got %v", rec.FavoriteIDs)
	}
	resolved, err := s.GamesByID(ctx, rec.FavoriteIDs)
	if err != nil {
		t.Fatalf("games by id: %v", err)
	}
	if len(resolved) != 0 {
		t.Fatalf("expected dangling id to resolve to nothing, got %v", resolved)
	}
}

func TestPlatformNameIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreatePlatform(ctx, &models.Platform{Name: "Switch", Type: models.PlatformConsole}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.CreatePlatform(ctx, &models.Platform{Name: "Switch", Type: models.PlatformHandheld})
	if !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestListPlatformsByNameAndType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, p := range []models.Platform{
		{Name: "Switch", Type: models.PlatformHandheld},
		{Name: "PC", Type: models.PlatformPC},
		{Name: "Game Boy", Type: models.PlatformHandheld},
	} {
		p := p
		if err := s.CreatePlatform(ctx, &p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all, total, err := s.ListPlatforms(ctx, nil, Page{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || all[0].Name != "Game Boy" || all[2].Name != "Switch" {
		t.Fatalf("unexpected order %+v", all)
	}
	handhelds, total, err := s.ListPlatforms(ctx, query.PlatformFilter{Type: "handheld"}.Scopes(), Page{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(handhelds) != 2 {
		t.Fatalf("expected 2 handhelds, got %d", total)
	}
}

func TestCharactersWithGameFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	gameID := models.NewID()
	link := &CharacterRecord{Character: models.Character{Name: "Link", Abilities: []string{"sword"}}, GameIDs: []string{gameID}}
	if err := s.CreateCharacter(ctx, link); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateCharacter(ctx, &CharacterRecord{Character: models.Character{Name: "Samus"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	chars, total, err := s.ListCharacters(ctx, query.CharacterFilter{Game: gameID}.Scopes(), Page{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || chars[0].Name != "Link" {
		t.Fatalf("unexpected result %+v", chars)
	}
	got, err := s.GetCharacter(ctx, link.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual([]string(got.Abilities), []string{"sword"}) || !reflect.DeepEqual(got.GameIDs, []string{gameID}) {
		t.Fatalf("unexpected character %+v", got)
	}
}

func TestEmptyListsAreNotNil(t *testing.T) {
	s := newTestStore(t)
	chars, total, err := s.ListCharacters(context.Background(), nil, Page{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if chars == nil || total != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v total=%d", chars, total)
	}
}

func TestFavoritesDuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, gameID := models.NewID(), models.NewID()
	if err := s.AddFavorite(ctx, userID, gameID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddFavorite(ctx, userID, gameID); !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if err := s.RemoveFavorite(ctx, userID, models.NewID()); err != nil {
		t.Fatalf("remove absent favorite: %v", err)
	}
	has, err := s.HasFavorite(ctx, userID, gameID)
	if err != nil || !has {
		t.Fatalf("expected favorite present, got %v %v", has, err)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, GameRecord{Game: models.Game{Title: "One"}})
	if err := s.CreatePlatform(ctx, &models.Platform{Name: "PC", Type: models.PlatformPC}); err != nil {
		t.Fatalf("create: %v", err)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st != (Stats{Games: 1, Platforms: 1}) {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a", " b", "a", "", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Unique = %v", got)
	}
}
