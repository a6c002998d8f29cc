package store

import (
	"context"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"

	"gorm.io/gorm"
)

// UserRecord is a user row with the ids in its favorites list.
type UserRecord struct {
	models.User
	FavoriteIDs []string
}

// ListUsers returns one page of users matching scopes, newest first.
func (s *Store) ListUsers(ctx context.Context, scopes []query.Scope, page Page) ([]models.User, int64, error) {
	return paginate[models.User](s.scoped(ctx, &models.User{}, scopes), page, recencyOrder)
}

// UserByID fetches a user without favorites.
func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user with the ids of its favorite games, oldest favorite first.
func (s *Store) GetUser(ctx context.Context, id string) (*UserRecord, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var favorites []models.UserFavorite
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Order("created_at, game_id").Find(&favorites).Error; err != nil {
		return nil, err
	}
	rec := &UserRecord{User: *user, FavoriteIDs: make([]string, 0, len(favorites))}
	for _, f := range favorites {
		rec.FavoriteIDs = append(rec.FavoriteIDs, f.GameID)
	}
	return rec, nil
}

// FindUserByProvider looks a user up by its external identity.
func (s *Store) FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("oauth_provider = ? AND provider_id = ?", provider, providerID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail looks a user up by email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// UpdateUser applies columns to the user with id and returns it.
func (s *Store) UpdateUser(ctx context.Context, id string, columns map[string]interface{}) (*models.User, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(columns).Error; err != nil {
			return nil, err
		}
	}
	return s.UserByID(ctx, id)
}

// SetUserRole changes the role of a user.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user and its favorites list.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("user_id = ?", id).Delete(&models.UserFavorite{}).Error
	})
}

// UsersByID resolves user ids in one query.
func (s *Store) UsersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	return byIDs(ctx, s.db, ids, func(u *models.User) string { return u.ID })
}

// HasFavorite reports whether gameID is in the user's favorites.
func (s *Store) HasFavorite(ctx context.Context, userID, gameID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserFavorite{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddFavorite appends gameID to the user's favorites. Callers check presence
// first; a concurrent duplicate fails with a duplicate-key error.
func (s *Store) AddFavorite(ctx context.Context, userID, gameID string) error {
	return s.db.WithContext(ctx).Create(&models.UserFavorite{UserID: userID, GameID: gameID}).Error
}

// RemoveFavorite drops gameID from the user's favorites. Absent entries are not an error.
func (s *Store) RemoveFavorite(ctx context.Context, userID, gameID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.UserFavorite{}).Error
}
