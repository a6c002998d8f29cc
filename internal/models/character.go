package models

import "gorm.io/datatypes"

// Character represents a game character.
type Character struct {
	Base
	Name            string                      `gorm:"size:100;not null;index"`
	Bio             string                      `gorm:"type:text"`
	FirstAppearance string                      `gorm:"size:200"`
	Abilities       datatypes.JSONSlice[string] `gorm:"type:json"`
	PortraitURL     string                      `gorm:"size:512"`
}

// CharacterGame links a character to the games it appears in.
// It is maintained independently of GameCharacter.
type CharacterGame struct {
	CharacterID string `gorm:"primaryKey;size:24"`
	GameID      string `gorm:"primaryKey;size:24;index"`
	Position    int
}
