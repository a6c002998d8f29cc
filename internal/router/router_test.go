package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gamecatalog/backend/internal/auth"
	"gamecatalog/backend/internal/database"
	"gamecatalog/backend/internal/handler"
	"gamecatalog/backend/internal/identity"
	"gamecatalog/backend/internal/media"
	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/ratelimit"
	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"gocloud.dev/blob/memblob"
)

const frontendURL = "http://localhost:5173"

type fakeProvider struct{ name string }

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}
func (f fakeProvider) Exchange(_ context.Context, code string) (*identity.Profile, error) {
	return &identity.Profile{Provider: f.name, ID: "ext-" + code, DisplayName: "octocat", Email: "Octo@Example.com"}, nil
}

type testServer struct {
	router      *gin.Engine
	store       *store.Store
	tokens      *jwt.Manager
	admin       *models.User
	member      *models.User
	adminToken  string
	memberToken string
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite", ":memory:", io.Discard)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := store.New(db)
	tokens := jwt.NewManager("test-secret", time.Hour)
	authn := auth.NewAuthenticator(tokens, s, "token")
	bridge := identity.NewBridge(s, fakeProvider{name: models.ProviderGitHub})
	host := media.NewHost(memblob.OpenBucket(nil), "http://localhost:3000/media", true)
	t.Cleanup(func() { host.Close() })

	h := handler.New(s, tokens, authn, bridge, host, handler.Options{FrontendURL: frontendURL, FailureURL: "/login"})
	opts.FrontendURL = frontendURL
	opts.ServeMedia = true
	if opts.BodyLimitBytes == 0 {
		opts.BodyLimitBytes = 10 << 20
	}

	ts := &testServer{router: New(h, authn, opts), store: s, tokens: tokens}
	ts.admin = ts.createUser(t, "admin", models.RoleAdmin)
	ts.member = ts.createUser(t, "member", models.RoleUser)
	ts.adminToken = ts.token(t, ts.admin)
	ts.memberToken = ts.token(t, ts.member)
	return ts
}

func (ts *testServer) createUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := &models.User{OAuthProvider: models.ProviderGoogle, ProviderID: "g-" + name, Username: name, Role: role}
	if err := ts.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (ts *testServer) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := ts.tokens.GenerateToken(u.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func (ts *testServer) createPlatform(t *testing.T, name string) handler.PlatformResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/platforms", map[string]interface{}{"name": name, "manufacturer": "Nintendo", "type": "console"}, ts.adminToken)
	expectStatus(t, w, http.StatusCreated)
	var p handler.PlatformResponse
	decode(t, w, &p)
	return p
}

func (ts *testServer) createGame(t *testing.T, body map[string]interface{}) handler.GameDetail {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/games", body, ts.adminToken)
	expectStatus(t, w, http.StatusCreated)
	var g handler.GameDetail
	decode(t, w, &g)
	return g
}

func TestAdminWritesAuthenticateBeforeAuthorize(t *testing.T) {
	ts := newTestServer(t, Options{})
	body := map[string]interface{}{"title": "Halo"}

	w := ts.do(t, http.MethodPost, "/api/games", body, "")
	expectStatus(t, w, http.StatusUnauthorized)
	var e handler.ErrorResponse
	decode(t, w, &e)
	if e.Message != "Access token required" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	w = ts.do(t, http.MethodPost, "/api/games", body, ts.memberToken)
	expectStatus(t, w, http.StatusForbidden)
	decode(t, w, &e)
	if e.Message != "Admin access required" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	for _, path := range []string{"/api/platforms", "/api/characters"} {
		expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"name": "x"}, ""), http.StatusUnauthorized)
		expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"name": "x"}, ts.memberToken), http.StatusForbidden)
	}
	expectStatus(t, ts.do(t, http.MethodPost, "/api/games", body, ts.adminToken), http.StatusCreated)
}

func TestGameRoundTripExpandsReferences(t *testing.T) {
	ts := newTestServer(t, Options{})
	snes := ts.createPlatform(t, "Super Nintendo")

	w := ts.do(t, http.MethodPost, "/api/characters", map[string]interface{}{
		"name":        "Crono",
		"abilities":   []string{"Cyclone", "Luminaire"},
		"portraitUrl": "https://img.test/crono.png",
	}, ts.adminToken)
	expectStatus(t, w, http.StatusCreated)
	var crono handler.CharacterDetail
	decode(t, w, &crono)

	created := ts.createGame(t, map[string]interface{}{
		"title":         "Chrono Trigger",
		"releaseDate":   "1995-03-11",
		"genres":        []string{"rpg"},
		"platforms":     []string{snes.ID},
		"characters":    []string{crono.ID},
		"ratingAverage": 9.6,
	})

	w = ts.do(t, http.MethodGet, "/api/games/"+created.ID, nil, "")
	expectStatus(t, w, http.StatusOK)
	var got handler.GameDetail
	decode(t, w, &got)

	if len(got.Platforms) != 1 || got.Platforms[0] != (handler.PlatformRef{ID: snes.ID, Name: "Super Nintendo", Manufacturer: "Nintendo"}) {
		t.Fatalf("unexpected platforms %+v", got.Platforms)
	}
	if len(got.Characters) != 1 || got.Characters[0] != (handler.CharacterRef{ID: crono.ID, Name: "Crono", PortraitURL: "https://img.test/crono.png"}) {
		t.Fatalf("unexpected characters %+v", got.Characters)
	}
	if got.CreatedBy == nil || got.CreatedBy.ID != ts.admin.ID || got.CreatedBy.Username != "admin" {
		t.Fatalf("unexpected creator %+v", got.CreatedBy)
	}
	if got.ReleaseDate == nil || got.ReleaseDate.Format("2006-01-02") != "1995-03-11" {
		t.Fatalf("unexpected release date %v", got.ReleaseDate)
	}

	w = ts.do(t, http.MethodGet, "/api/games?platform="+snes.ID, nil, "")
	expectStatus(t, w, http.StatusOK)
	var list handler.GameListResponse
	decode(t, w, &list)
	if list.Pagination.Total != 1 || list.Games[0].Platforms[0].Name != "Super Nintendo" || list.Games[0].Characters[0].Name != "Crono" {
		t.Fatalf("unexpected list %+v", list)
	}

	w = ts.do(t, http.MethodGet, "/api/platforms/"+snes.ID+"/games", nil, "")
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &list)
	if list.Pagination.Total != 1 {
		t.Fatalf("expected one game on platform, got %d", list.Pagination.Total)
	}
}

func TestGetGameInvalidVersusMissingID(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := ts.do(t, http.MethodGet, "/api/games/not-an-id", nil, "")
	expectStatus(t, w, http.StatusBadRequest)
	var e handler.ErrorResponse
	decode(t, w, &e)
	if e.Message != "Invalid ID format" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	w = ts.do(t, http.MethodGet, "/api/games/"+models.NewID(), nil, "")
	expectStatus(t, w, http.StatusNotFound)
	decode(t, w, &e)
	if e.Message != "Game not found" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestUppercaseIDsResolve(t *testing.T) {
	ts := newTestServer(t, Options{})
	pc := ts.createPlatform(t, "PC")
	g := ts.createGame(t, map[string]interface{}{"title": "Myst", "platforms": []string{strings.ToUpper(pc.ID)}})
	if len(g.Platforms) != 1 || g.Platforms[0].ID != pc.ID {
		t.Fatalf("expected platform reference to resolve, got %+v", g.Platforms)
	}

	w := ts.do(t, http.MethodGet, "/api/games/"+strings.ToUpper(g.ID), nil, "")
	expectStatus(t, w, http.StatusOK)
	var got handler.GameDetail
	decode(t, w, &got)
	if got.ID != g.ID {
		t.Fatalf("expected %s, got %s", g.ID, got.ID)
	}

	w = ts.do(t, http.MethodGet, "/api/games?platform="+strings.ToUpper(pc.ID), nil, "")
	var list handler.GameListResponse
	decode(t, w, &list)
	if list.Pagination.Total != 1 {
		t.Fatalf("expected platform filter to match, got %d", list.Pagination.Total)
	}

	path := "/api/users/" + strings.ToUpper(ts.member.ID) + "/favorites"
	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": strings.ToUpper(g.ID)}, ts.memberToken), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": g.ID}, ts.memberToken), http.StatusBadRequest)
}

func TestDuplicatePlatformNameConflicts(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.createPlatform(t, "Switch")
	w := ts.do(t, http.MethodPost, "/api/platforms", map[string]string{"name": "Switch"}, ts.adminToken)
	expectStatus(t, w, http.StatusConflict)
}

func TestValidationCollectsEveryViolation(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := ts.do(t, http.MethodPost, "/api/games", map[string]interface{}{
		"title":         "",
		"ratingAverage": 11,
		"platforms":     []string{"bad"},
		"releaseDate":   "someday",
	}, ts.adminToken)
	expectStatus(t, w, http.StatusBadRequest)
	var e handler.ErrorResponse
	decode(t, w, &e)
	if e.Message != "Validation failed" || len(e.Errors) != 4 {
		t.Fatalf("expected 4 violations, got %+v", e)
	}

	w = ts.do(t, http.MethodPost, "/api/platforms", map[string]interface{}{"name": "Old", "releaseYear": 1950, "type": "toaster"}, ts.adminToken)
	expectStatus(t, w, http.StatusBadRequest)
	decode(t, w, &e)
	if len(e.Errors) != 2 {
		t.Fatalf("expected 2 violations, got %+v", e.Errors)
	}

	w = ts.do(t, http.MethodPost, "/api/games", map[string]interface{}{"title": 42}, ts.adminToken)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestPartialUpdateKeepsAbsentFields(t *testing.T) {
	ts := newTestServer(t, Options{})
	g := ts.createGame(t, map[string]interface{}{"title": "Doom", "developer": "id Software", "genres": []string{"shooter"}})

	w := ts.do(t, http.MethodPut, "/api/games/"+g.ID, map[string]interface{}{"publisher": "GT Interactive"}, ts.adminToken)
	expectStatus(t, w, http.StatusOK)
	var got handler.GameDetail
	decode(t, w, &got)
	if got.Title != "Doom" || got.Developer != "id Software" || got.Publisher != "GT Interactive" {
		t.Fatalf("unexpected game %+v", got.GameFields)
	}
	if len(got.Genres) != 1 || got.Genres[0] != "shooter" {
		t.Fatalf("expected genres untouched, got %v", got.Genres)
	}

	expectStatus(t, ts.do(t, http.MethodPut, "/api/games/"+models.NewID(), map[string]string{"title": "x"}, ts.adminToken), http.StatusNotFound)
}

func TestEmptyCharacterList(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := ts.do(t, http.MethodGet, "/api/characters", nil, "")
	expectStatus(t, w, http.StatusOK)
	want := `{"characters":[],"pagination":{"page":1,"limit":10,"total":0,"pages":0,"hasNext":false,"hasPrev":false}}`
	if strings.TrimSpace(w.Body.String()) != want {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestListPaginationClamps(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := ts.do(t, http.MethodGet, "/api/games?page=-3&limit=1000", nil, "")
	expectStatus(t, w, http.StatusOK)
	var list handler.GameListResponse
	decode(t, w, &list)
	if list.Pagination.Page != 1 || list.Pagination.Limit != 100 {
		t.Fatalf("unexpected pagination %+v", list.Pagination)
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/games?page=abc", nil, ""), http.StatusOK)

	ts.createGame(t, map[string]interface{}{"title": "Only"})
	w = ts.do(t, http.MethodGet, "/api/games?page=100000000000000000&limit=100", nil, "")
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &list)
	if len(list.Games) != 0 || !list.Pagination.HasPrev || list.Pagination.HasNext {
		t.Fatalf("expected an empty far page, got %+v", list)
	}

	w = ts.do(t, http.MethodGet, "/api/games?page=1.9&limit=5.5", nil, "")
	decode(t, w, &list)
	if list.Pagination.Page != 1 || list.Pagination.Limit != 5 || len(list.Games) != 1 {
		t.Fatalf("unexpected pagination %+v", list.Pagination)
	}
	expectStatus(t, ts.do(t, http.MethodGet, "/api/games?platform=nope", nil, ""), http.StatusBadRequest)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.createGame(t, map[string]interface{}{"title": "Super Metroid", "developer": "Nintendo R&D1"})
	ts.createGame(t, map[string]interface{}{"title": "Castlevania", "description": "A metroid-like classic"})
	ts.createGame(t, map[string]interface{}{"title": "Tetris"})

	expectStatus(t, ts.do(t, http.MethodGet, "/api/games/search", nil, ""), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/games/search?q=%20%20", nil, ""), http.StatusBadRequest)

	w := ts.do(t, http.MethodGet, "/api/games/search?q=METROID", nil, "")
	expectStatus(t, w, http.StatusOK)
	var list handler.GameListResponse
	decode(t, w, &list)
	if list.Pagination.Total != 2 {
		t.Fatalf("expected 2 hits, got %d", list.Pagination.Total)
	}
	if list.Games[0].Title != "Castlevania" {
		t.Fatalf("expected newest first, got %q", list.Games[0].Title)
	}
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t, Options{})
	g := ts.createGame(t, map[string]interface{}{"title": "Celeste"})
	path := "/api/users/" + ts.member.ID + "/favorites"

	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": g.ID}, ts.memberToken), http.StatusOK)

	w := ts.do(t, http.MethodPost, path, map[string]string{"gameId": g.ID}, ts.memberToken)
	expectStatus(t, w, http.StatusBadRequest)
	var e handler.ErrorResponse
	decode(t, w, &e)
	if e.Message != "Game already in favorites" {
		t.Fatalf("unexpected message %q", e.Message)
	}

	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": models.NewID()}, ts.memberToken), http.StatusNotFound)
	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": "bad"}, ts.memberToken), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodDelete, path+"/"+models.NewID(), nil, ts.memberToken), http.StatusOK)

	otherPath := "/api/users/" + ts.admin.ID + "/favorites"
	expectStatus(t, ts.do(t, http.MethodPost, otherPath, map[string]string{"gameId": g.ID}, ts.memberToken), http.StatusForbidden)
	expectStatus(t, ts.do(t, http.MethodPost, path, map[string]string{"gameId": models.NewID()}, ts.adminToken), http.StatusNotFound)

	w = ts.do(t, http.MethodGet, "/api/users/"+ts.member.ID, nil, ts.memberToken)
	expectStatus(t, w, http.StatusOK)
	var u handler.UserDetail
	decode(t, w, &u)
	if len(u.Favorites) != 1 || u.Favorites[0].Title != "Celeste" {
		t.Fatalf("unexpected favorites %+v", u.Favorites)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, path+"/"+g.ID, nil, ts.memberToken), http.StatusOK)
	w = ts.do(t, http.MethodGet, "/api/users/"+ts.member.ID, nil, ts.memberToken)
	decode(t, w, &u)
	if len(u.Favorites) != 0 {
		t.Fatalf("expected favorites to be empty, got %+v", u.Favorites)
	}
}

func TestUserAccessRules(t *testing.T) {
	ts := newTestServer(t, Options{})
	expectStatus(t, ts.do(t, http.MethodGet, "/api/users", nil, ""), http.StatusUnauthorized)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/users", nil, ts.memberToken), http.StatusForbidden)

	w := ts.do(t, http.MethodGet, "/api/users?q=MEM", nil, ts.adminToken)
	expectStatus(t, w, http.StatusOK)
	var list handler.UserListResponse
	decode(t, w, &list)
	if list.Pagination.Total != 1 || list.Users[0].Username != "member" {
		t.Fatalf("unexpected users %+v", list)
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/api/users/"+ts.admin.ID, nil, ts.memberToken), http.StatusForbidden)

	w = ts.do(t, http.MethodPut, "/api/users/"+ts.member.ID, map[string]string{"username": "Ada", "email": "ADA@example.com"}, ts.memberToken)
	expectStatus(t, w, http.StatusOK)
	var u handler.UserResponse
	decode(t, w, &u)
	if u.Username != "Ada" || u.Email == nil || *u.Email != "ada@example.com" || u.Role != models.RoleUser {
		t.Fatalf("unexpected user %+v", u)
	}

	w = ts.do(t, http.MethodPut, "/api/users/"+ts.admin.ID, map[string]string{"email": "ada@example.com"}, ts.adminToken)
	expectStatus(t, w, http.StatusConflict)

	expectStatus(t, ts.do(t, http.MethodDelete, "/api/users/"+ts.member.ID, nil, ts.memberToken), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/auth/me", nil, ts.memberToken), http.StatusUnauthorized)
}

func TestCoverUpload(t *testing.T) {
	ts := newTestServer(t, Options{})
	g := ts.createGame(t, map[string]interface{}{"title": "Fez"})
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(id string, field string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile(field, "cover.png")
		part.Write(data)
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/games/"+id+"/cover", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+ts.adminToken)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w
	}

	expectStatus(t, upload(g.ID, "image", png), http.StatusBadRequest)
	expectStatus(t, upload(g.ID, "cover", []byte("plain text, not an image")), http.StatusBadRequest)
	expectStatus(t, upload(models.NewID(), "cover", png), http.StatusNotFound)

	w := upload(g.ID, "cover", png)
	expectStatus(t, w, http.StatusOK)
	var cover handler.CoverResponse
	decode(t, w, &cover)
	want := "http://localhost:3000/media/game-covers/game-" + g.ID + ".png"
	if cover.CoverImage != want {
		t.Fatalf("expected %q, got %q", want, cover.CoverImage)
	}

	w = ts.do(t, http.MethodGet, "/media/game-covers/game-"+g.ID+".png", nil, "")
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("Content-Type") != "image/png" || !bytes.Equal(w.Body.Bytes(), png) {
		t.Fatalf("unexpected media response %q", w.Header().Get("Content-Type"))
	}

	w = ts.do(t, http.MethodGet, "/api/games/"+g.ID, nil, "")
	var got handler.GameDetail
	decode(t, w, &got)
	if got.CoverImage != want {
		t.Fatalf("cover not stored, got %q", got.CoverImage)
	}
}

func TestOAuthLoginFlow(t *testing.T) {
	ts := newTestServer(t, Options{})

	expectStatus(t, ts.do(t, http.MethodGet, "/auth/google", nil, ""), http.StatusNotFound)

	w := ts.do(t, http.MethodGet, "/auth/github", nil, "")
	expectStatus(t, w, http.StatusTemporaryRedirect)
	var state *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	if state == nil || !strings.Contains(w.Header().Get("Location"), url.QueryEscape(state.Value)) {
		t.Fatalf("expected state cookie and redirect, got %v", w.Header())
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=abc&state=wrong", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: state.Value})
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusFound)
	if w.Header().Get("Location") != "/login" {
		t.Fatalf("expected failure redirect, got %q", w.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=abc&state="+url.QueryEscape(state.Value), nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: state.Value})
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusFound)
	if w.Header().Get("Location") != frontendURL {
		t.Fatalf("expected frontend redirect, got %q", w.Header().Get("Location"))
	}
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			session = c
		}
	}
	if session == nil || !session.HttpOnly || session.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected strict http-only session cookie, got %+v", session)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: session.Value})
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusOK)
	var me handler.MeResponse
	decode(t, w, &me)
	if me.Username != "octocat" || me.Role != models.RoleUser || me.Email == nil || *me.Email != "octo@example.com" {
		t.Fatalf("unexpected me %+v", me)
	}

	w = ts.do(t, http.MethodGet, "/auth/logout", nil, "")
	expectStatus(t, w, http.StatusOK)
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected logout to clear the session cookie")
	}
}

func TestAuthRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{AuthLimiter: ratelimit.NewMemoryLimiter(1, time.Minute)})
	expectStatus(t, ts.do(t, http.MethodGet, "/auth/logout", nil, ""), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/auth/logout", nil, ""), http.StatusTooManyRequests)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/health", nil, ""), http.StatusOK)
}

func TestAuthRateLimitIgnoresForwardedFor(t *testing.T) {
	ts := newTestServer(t, Options{AuthLimiter: ratelimit.NewMemoryLimiter(1, time.Minute)})
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0."+string(rune('1'+i)))
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}
}

func TestAuthRateLimitTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1.
	ts := newTestServer(t, Options{
		AuthLimiter:    ratelimit.NewMemoryLimiter(1, time.Minute),
		TrustedProxies: []string{"192.0.2.1"},
	})
	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w.Code
	}
	if send("203.0.113.7") != http.StatusOK || send("203.0.113.8") != http.StatusOK {
		t.Fatal("expected distinct forwarded clients to have separate windows")
	}
	if code := send("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, code)
	}
}

func TestSessionLookupFailure(t *testing.T) {
	ts := newTestServer(t, Options{})
	sqlDB, err := ts.store.DB().DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.Close()

	w := ts.do(t, http.MethodGet, "/auth/me", nil, ts.adminToken)
	expectStatus(t, w, http.StatusInternalServerError)
	var e handler.ErrorResponse
	decode(t, w, &e)
	if e.Message != "Error verifying session" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	expectStatus(t, ts.do(t, http.MethodPost, "/api/games", map[string]string{"title": "x"}, ts.adminToken), http.StatusInternalServerError)
}

func TestSystemEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.createPlatform(t, "PC")
	ts.createGame(t, map[string]interface{}{"title": "Quake", "genres": []string{"shooter", "fps"}})

	w := ts.do(t, http.MethodGet, "/api/health", nil, "")
	expectStatus(t, w, http.StatusOK)
	var health handler.HealthResponse
	decode(t, w, &health)
	if health.Status != "OK" || health.Timestamp == "" {
		t.Fatalf("unexpected health %+v", health)
	}

	w = ts.do(t, http.MethodGet, "/api/stats", nil, "")
	expectStatus(t, w, http.StatusOK)
	var stats store.Stats
	decode(t, w, &stats)
	if stats != (store.Stats{Users: 2, Games: 1, Platforms: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	w = ts.do(t, http.MethodGet, "/api/genres", nil, "")
	expectStatus(t, w, http.StatusOK)
	var genres handler.GenreListResponse
	decode(t, w, &genres)
	if len(genres.Genres) != 2 || genres.Genres[0].Name != "fps" || genres.Genres[0].Games != 1 {
		t.Fatalf("unexpected genres %+v", genres)
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/", nil, ""), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/nowhere", nil, ""), http.StatusNotFound)
	if ts.do(t, http.MethodGet, "/", nil, "").Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}
