package store

import (
	"context"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"

	"gorm.io/gorm"
)

// CharacterRecord is a character row with the ids of the games it appears in.
type CharacterRecord struct {
	models.Character
	GameIDs []string
}

// CharacterPatch describes a partial update. A nil Games leaves links untouched.
type CharacterPatch struct {
	Columns map[string]interface{}
	Games   *[]string
}

// ListCharacters returns one page of characters matching scopes, newest first.
func (s *Store) ListCharacters(ctx context.Context, scopes []query.Scope, page Page) ([]CharacterRecord, int64, error) {
	characters, total, err := paginate[models.Character](s.scoped(ctx, &models.Character{}, scopes), page, recencyOrder)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.attachCharacterGames(ctx, characters)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetCharacter fetches one character with its game links.
func (s *Store) GetCharacter(ctx context.Context, id string) (*CharacterRecord, error) {
	var character models.Character
	if err := s.db.WithContext(ctx).First(&character, "id = ?", id).Error; err != nil {
		return nil, err
	}
	records, err := s.attachCharacterGames(ctx, []models.Character{character})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// CreateCharacter inserts the character and its game links.
func (s *Store) CreateCharacter(ctx context.Context, rec *CharacterRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec.Character).Error; err != nil {
			return err
		}
		rec.GameIDs = Unique(rec.GameIDs)
		return replaceCharacterGames(tx, rec.ID, rec.GameIDs)
	})
}

// UpdateCharacter applies patch and returns the fresh record.
func (s *Store) UpdateCharacter(ctx context.Context, id string, patch CharacterPatch) (*CharacterRecord, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var character models.Character
		if err := tx.First(&character, "id = ?", id).Error; err != nil {
			return err
		}
		if len(patch.Columns) > 0 {
			if err := tx.Model(&character).Updates(patch.Columns).Error; err != nil {
				return err
			}
		}
		if patch.Games != nil {
			return replaceCharacterGames(tx, id, Unique(*patch.Games))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCharacter(ctx, id)
}

// DeleteCharacter removes the character and its own game links.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Character{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("character_id = ?", id).Delete(&models.CharacterGame{}).Error
	})
}

// CharactersByID resolves character ids in one query.
func (s *Store) CharactersByID(ctx context.Context, ids []string) (map[string]models.Character, error) {
	return byIDs(ctx, s.db, ids, func(c *models.Character) string { return c.ID })
}

func (s *Store) attachCharacterGames(ctx context.Context, characters []models.Character) ([]CharacterRecord, error) {
	records := make([]CharacterRecord, len(characters))
	if len(characters) == 0 {
		return records, nil
	}
	ids := make([]string, len(characters))
	index := make(map[string]int, len(characters))
	for i, c := range characters {
		ids[i] = c.ID
		index[c.ID] = i
		records[i] = CharacterRecord{Character: c, GameIDs: []string{}}
	}

	var links []models.CharacterGame
	if err := s.db.WithContext(ctx).Where("character_id IN ?", ids).Order("position").Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		r := &records[index[l.CharacterID]]
		r.GameIDs = append(r.GameIDs, l.GameID)
	}
	return records, nil
}

func replaceCharacterGames(tx *gorm.DB, characterID string, gameIDs []string) error {
	if err := tx.Where("character_id = ?", characterID).Delete(&models.CharacterGame{}).Error; err != nil {
		return err
	}
	if len(gameIDs) == 0 {
		return nil
	}
	rows := make([]models.CharacterGame, len(gameIDs))
	for i, id := range gameIDs {
		rows[i] = models.CharacterGame{CharacterID: characterID, GameID: id, Position: i}
	}
	return tx.Create(&rows).Error
}
