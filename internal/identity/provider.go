package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the subset of an external account the catalog keeps.
type Profile struct {
	Provider    string
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

// Provider is an OAuth identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// ErrNoProfile is returned when the provider answers without a usable account id.
var ErrNoProfile = errors.New("identity: provider returned no account id")

// OAuthProvider runs the authorization-code flow against a provider and maps
// its profile endpoint onto a Profile.
type OAuthProvider struct {
	Config     *oauth2.Config
	ProfileURL string
	EmailsURL  string

	name    string
	profile func(ctx context.Context, p *OAuthProvider, client *http.Client) (*Profile, error)
}

// NewGoogle builds the google provider.
func NewGoogle(clientID, clientSecret, callbackURL string) *OAuthProvider {
	return &OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		ProfileURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		name:       "google",
		profile:    googleProfile,
	}
}

// NewGitHub builds the github provider.
func NewGitHub(clientID, clientSecret, callbackURL string) *OAuthProvider {
	return &OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		ProfileURL: "https://api.github.com/user",
		EmailsURL:  "https://api.github.com/user/emails",
		name:       "github",
		profile:    githubProfile,
	}
}

func (p *OAuthProvider) Name() string { return p.name }

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the account profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange %s code: %w", p.name, err)
	}
	profile, err := p.profile(ctx, p, p.Config.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, ErrNoProfile
	}
	profile.Provider = p.name
	return profile, nil
}

func googleProfile(ctx context.Context, p *OAuthProvider, client *http.Client) (*Profile, error) {
	var body struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &body); err != nil {
		return nil, err
	}
	return &Profile{ID: body.Sub, DisplayName: body.Name, Email: body.Email, AvatarURL: body.Picture}, nil
}

func githubProfile(ctx context.Context, p *OAuthProvider, client *http.Client) (*Profile, error) {
	var body struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &body); err != nil {
		return nil, err
	}
	profile := &Profile{DisplayName: body.Name, Email: body.Email, AvatarURL: body.AvatarURL}
	if body.ID != 0 {
		profile.ID = strconv.FormatInt(body.ID, 10)
	}
	if profile.DisplayName == "" {
		profile.DisplayName = body.Login
	}
	if profile.Email == "" && p.EmailsURL != "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		// A private address list is not fatal; the account just has no email.
		if err := getJSON(ctx, client, p.EmailsURL, &emails); err == nil {
			for _, e := range emails {
				if e.Verified && (e.Primary || profile.Email == "") {
					profile.Email = e.Email
				}
			}
		}
	}
	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
