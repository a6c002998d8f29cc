package models

import "time"

// Game represents a game in the catalog.
// Genres, platforms and characters live in join tables and are attached by the store.
type Game struct {
	Base
	Title         string `gorm:"size:200;not null"`
	Description   string `gorm:"type:text"`
	ReleaseDate   *time.Time
	Developer     string `gorm:"size:100;index"`
	Publisher     string `gorm:"size:100;index"`
	RatingAverage *float64
	CoverImage    string `gorm:"size:512"`
	CreatedBy     string `gorm:"size:24;not null;index"`
}

// GameGenre is one genre label attached to a game.
type GameGenre struct {
	GameID   string `gorm:"primaryKey;size:24"`
	Name     string `gorm:"primaryKey;size:50;index"`
	Position int
}

// GamePlatform links a game to a platform it runs on.
type GamePlatform struct {
	GameID     string `gorm:"primaryKey;size:24"`
	PlatformID string `gorm:"primaryKey;size:24;index"`
	Position   int
}

// GameCharacter links a game to a character appearing in it.
type GameCharacter struct {
	GameID      string `gorm:"primaryKey;size:24"`
	CharacterID string `gorm:"primaryKey;size:24;index"`
	Position    int
}
