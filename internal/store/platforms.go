package store

import (
	"context"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"
)

// ListPlatforms returns one page of platforms matching scopes, ordered by name.
func (s *Store) ListPlatforms(ctx context.Context, scopes []query.Scope, page Page) ([]models.Platform, int64, error) {
	return paginate[models.Platform](s.scoped(ctx, &models.Platform{}, scopes), page, "name ASC")
}

// GetPlatform fetches one platform.
func (s *Store) GetPlatform(ctx context.Context, id string) (*models.Platform, error) {
	var platform models.Platform
	if err := s.db.WithContext(ctx).First(&platform, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

// CreatePlatform inserts a platform. A taken name yields a duplicate-key error.
func (s *Store) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	return s.db.WithContext(ctx).Create(platform).Error
}

// UpdatePlatform applies columns to the platform with id and returns it.
func (s *Store) UpdatePlatform(ctx context.Context, id string, columns map[string]interface{}) (*models.Platform, error) {
	platform, err := s.GetPlatform(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		if err := s.db.WithContext(ctx).Model(platform).Updates(columns).Error; err != nil {
			return nil, err
		}
	}
	return s.GetPlatform(ctx, id)
}

// DeletePlatform removes a platform. Game links to it are not reconciled.
func (s *Store) DeletePlatform(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Platform{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PlatformsByID resolves platform ids in one query.
func (s *Store) PlatformsByID(ctx context.Context, ids []string) (map[string]models.Platform, error) {
	return byIDs(ctx, s.db, ids, func(p *models.Platform) string { return p.ID })
}
