package store

import (
	"context"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"

	"gorm.io/gorm"
)

// GameRecord is a game row together with its genre labels and reference ids.
type GameRecord struct {
	models.Game
	Genres       []string
	PlatformIDs  []string
	CharacterIDs []string
}

// GamePatch describes a partial update. Nil slices leave the links untouched.
type GamePatch struct {
	Columns    map[string]interface{}
	Genres     *[]string
	Platforms  *[]string
	Characters *[]string
}

const recencyOrder = "created_at DESC, id DESC"

// ListGames returns one page of games matching scopes, newest first.
func (s *Store) ListGames(ctx context.Context, scopes []query.Scope, page Page) ([]GameRecord, int64, error) {
	games, total, err := paginate[models.Game](s.scoped(ctx, &models.Game{}, scopes), page, recencyOrder)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.attachGameLinks(ctx, games)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetGame fetches one game with its links.
func (s *Store) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	records, err := s.attachGameLinks(ctx, []models.Game{game})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// GameExists reports whether a game with id exists.
func (s *Store) GameExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateGame inserts the game and its links in one transaction.
func (s *Store) CreateGame(ctx context.Context, rec *GameRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec.Game).Error; err != nil {
			return err
		}
		rec.Genres = Unique(rec.Genres)
		rec.PlatformIDs = Unique(rec.PlatformIDs)
		rec.CharacterIDs = Unique(rec.CharacterIDs)
		if err := replaceGenres(tx, rec.ID, rec.Genres); err != nil {
			return err
		}
		if err := replaceGamePlatforms(tx, rec.ID, rec.PlatformIDs); err != nil {
			return err
		}
		return replaceGameCharacters(tx, rec.ID, rec.CharacterIDs)
	})
}

// UpdateGame applies patch to the game with id and returns the fresh record.
func (s *Store) UpdateGame(ctx context.Context, id string, patch GamePatch) (*GameRecord, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, "id = ?", id).Error; err != nil {
			return err
		}
		if len(patch.Columns) > 0 {
			if err := tx.Model(&game).Updates(patch.Columns).Error; err != nil {
				return err
			}
		}
		if patch.Genres != nil {
			if err := replaceGenres(tx, id, Unique(*patch.Genres)); err != nil {
				return err
			}
		}
		if patch.Platforms != nil {
			if err := replaceGamePlatforms(tx, id, Unique(*patch.Platforms)); err != nil {
				return err
			}
		}
		if patch.Characters != nil {
			if err := replaceGameCharacters(tx, id, Unique(*patch.Characters)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetGame(ctx, id)
}

// SetGameCover stores the cover image URL of a game.
func (s *Store) SetGameCover(ctx context.Context, id, url string) error {
	result := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Update("cover_image", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGame removes the game and its own link rows. Favorites and character
// links pointing at the game are left as they are.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Game{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, link := range []interface{}{&models.GameGenre{}, &models.GamePlatform{}, &models.GameCharacter{}} {
			if err := tx.Where("game_id = ?", id).Delete(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GenreCount is a genre label with the number of games carrying it.
type GenreCount struct {
	Name  string
	Games int64
}

// ListGenres returns every genre in use, alphabetically.
func (s *Store) ListGenres(ctx context.Context) ([]GenreCount, error) {
	genres := []GenreCount{}
	err := s.db.WithContext(ctx).Model(&models.GameGenre{}).
		Select("name, COUNT(*) AS games").
		Group("name").
		Order("name").
		Scan(&genres).Error
	return genres, err
}

// GamesByID resolves game ids in one query. Unknown ids are absent from the map.
func (s *Store) GamesByID(ctx context.Context, ids []string) (map[string]models.Game, error) {
	return byIDs(ctx, s.db, ids, func(g *models.Game) string { return g.ID })
}

func (s *Store) attachGameLinks(ctx context.Context, games []models.Game) ([]GameRecord, error) {
	records := make([]GameRecord, len(games))
	if len(games) == 0 {
		return records, nil
	}
	ids := make([]string, len(games))
	index := make(map[string]int, len(games))
	for i, g := range games {
		ids[i] = g.ID
		index[g.ID] = i
		records[i] = GameRecord{Game: g, Genres: []string{}, PlatformIDs: []string{}, CharacterIDs: []string{}}
	}

	db := s.db.WithContext(ctx)

	var genres []models.GameGenre
	if err := db.Where("game_id IN ?", ids).Order("position").Find(&genres).Error; err != nil {
		return nil, err
	}
	for _, g := range genres {
		r := &records[index[g.GameID]]
		r.Genres = append(r.Genres, g.Name)
	}

	var platforms []models.GamePlatform
	if err := db.Where("game_id IN ?", ids).Order("position").Find(&platforms).Error; err != nil {
		return nil, err
	}
	for _, p := range platforms {
		r := &records[index[p.GameID]]
		r.PlatformIDs = append(r.PlatformIDs, p.PlatformID)
	}

	var characters []models.GameCharacter
	if err := db.Where("game_id IN ?", ids).Order("position").Find(&characters).Error; err != nil {
		return nil, err
	}
	for _, c := range characters {
		r := &records[index[c.GameID]]
		r.CharacterIDs = append(r.CharacterIDs, c.CharacterID)
	}

	return records, nil
}

func replaceGenres(tx *gorm.DB, gameID string, genres []string) error {
	if err := tx.Where("game_id = ?", gameID).Delete(&models.GameGenre{}).Error; err != nil {
		return err
	}
	if len(genres) == 0 {
		return nil
	}
	rows := make([]models.GameGenre, len(genres))
	for i, name := range genres {
		rows[i] = models.GameGenre{GameID: gameID, Name: name, Position: i}
	}
	return tx.Create(&rows).Error
}

func replaceGamePlatforms(tx *gorm.DB, gameID string, platformIDs []string) error {
	if err := tx.Where("game_id = ?", gameID).Delete(&models.GamePlatform{}).Error; err != nil {
		return err
	}
	if len(platformIDs) == 0 {
		return nil
	}
	rows := make([]models.GamePlatform, len(platformIDs))
	for i, id := range platformIDs {
		rows[i] = models.GamePlatform{GameID: gameID, PlatformID: id, Position: i}
	}
	return tx.Create(&rows).Error
}

func replaceGameCharacters(tx *gorm.DB, gameID string, characterIDs []string) error {
	if err := tx.Where("game_id = ?", gameID).Delete(&models.GameCharacter{}).Error; err != nil {
		return err
	}
	if len(characterIDs) == 0 {
		return nil
	}
	rows := make([]models.GameCharacter, len(characterIDs))
	for i, id := range characterIDs {
		rows[i] = models.GameCharacter{GameID: gameID, CharacterID: id, Position: i}
	}
	return tx.Create(&rows).Error
}
