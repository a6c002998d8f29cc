// Package query turns request filters into gorm scopes. Absent filters are
// omitted rather than matching nothing.
package query

import (
	"strings"

	"gamecatalog/backend/internal/models"

	"gorm.io/gorm"
)

// Scope narrows a gorm query.
type Scope = func(*gorm.DB) *gorm.DB

// GameFilter holds the optional filters of the game list endpoint.
type GameFilter struct {
	Genres    []string
	Platform  string
	Developer string
	Publisher string
}

// IsEmpty reports whether no filter is set.
func (f GameFilter) IsEmpty() bool {
	return len(f.Genres) == 0 && f.Platform == "" && f.Developer == "" && f.Publisher == ""
}

// Scopes composes the set filters into a conjunctive predicate.
func (f GameFilter) Scopes() []Scope {
	var scopes []Scope
	if len(f.Genres) > 0 {
		genres := f.Genres
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.GameGenre{}).Select("game_id").Where("name IN ?", genres)
			return db.Where("games.id IN (?)", sub)
		})
	}
	if f.Platform != "" {
		scopes = append(scopes, GamesOnPlatform(f.Platform))
	}
	if f.Developer != "" {
		scopes = append(scopes, ContainsFold("games.developer", f.Developer))
	}
	if f.Publisher != "" {
		scopes = append(scopes, ContainsFold("games.publisher", f.Publisher))
	}
	return scopes
}

// GamesOnPlatform restricts games to those linked to platformID.
func GamesOnPlatform(platformID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.GamePlatform{}).Select("game_id").Where("platform_id = ?", platformID)
		return db.Where("games.id IN (?)", sub)
	}
}

// GameSearch matches term as a case-insensitive substring of the title,
// description, developer or publisher.
func GameSearch(term string) Scope {
	pattern := LikePattern(term)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"LOWER(games.title) LIKE ? ESCAPE '\\' OR LOWER(games.description) LIKE ? ESCAPE '\\' OR "+
				"LOWER(games.developer) LIKE ? ESCAPE '\\' OR LOWER(games.publisher) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern,
		)
	}
}

// UserSearch matches term as a case-insensitive substring of the username or email.
func UserSearch(term string) Scope {
	pattern := LikePattern(term)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(users.username) LIKE ? ESCAPE '\\' OR LOWER(users.email) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
}

// CharacterFilter holds the optional filters of the character list endpoint.
type CharacterFilter struct {
	Game string
}

// Scopes composes the set filters.
func (f CharacterFilter) Scopes() []Scope {
	var scopes []Scope
	if f.Game != "" {
		game := f.Game
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.CharacterGame{}).Select("character_id").Where("game_id = ?", game)
			return db.Where("characters.id IN (?)", sub)
		})
	}
	return scopes
}

// PlatformFilter holds the optional filters of the platform list endpoint.
type PlatformFilter struct {
	Type string
}

// Scopes composes the set filters.
func (f PlatformFilter) Scopes() []Scope {
	var scopes []Scope
	if f.Type != "" {
		typ := f.Type
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("platforms.type = ?", typ)
		})
	}
	return scopes
}

// ContainsFold matches column case-insensitively against a substring.
func ContainsFold(column, value string) Scope {
	pattern := LikePattern(value)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern lowercases s, escapes LIKE wildcards and wraps it in %.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// SplitList splits a comma-separated parameter, dropping blanks.
func SplitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
