// Package store wraps gorm access for the catalog. Entities are read without
// implicit preloading: callers fetch rows, collect referenced ids and resolve
// them in batches with the *ByID helpers.
package store

import (
	"context"
	"errors"
	"strings"

	"gamecatalog/backend/internal/models"
	"gamecatalog/backend/internal/query"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Store is the catalog repository.
type Store struct {
	db *gorm.DB
}

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Page selects a window of rows.
type Page struct {
	Offset int
	Limit  int
}

// paginate counts the rows matched by base and fetches one ordered page.
// base is called twice so the count and the fetch never share a statement.
func paginate[T any](base func() *gorm.DB, page Page, order string) ([]T, int64, error) {
	var totalItems int64
	if err := base().Count(&totalItems).Error; err != nil {
		return nil, 0, err
	}

	results := []T{}
	if totalItems == 0 {
		return results, 0, nil
	}
	if err := base().Order(order).Offset(page.Offset).Limit(page.Limit).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, totalItems, nil
}

// byIDs fetches rows whose primary key is in ids, keyed by id.
func byIDs[T any](ctx context.Context, db *gorm.DB, ids []string, idOf func(*T) string) (map[string]T, error) {
	out := make(map[string]T, len(ids))
	ids = Unique(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []T
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[idOf(&rows[i])] = rows[i]
	}
	return out, nil
}

func (s *Store) scoped(ctx context.Context, model interface{}, scopes []query.Scope) func() *gorm.DB {
	return func() *gorm.DB {
		return s.db.WithContext(ctx).Model(model).Scopes(scopes...)
	}
}

// Unique drops duplicates and blanks while keeping the first occurrence order.
func Unique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Stats holds aggregate counts for the stats endpoint.
type Stats struct {
	Users      int64 `json:"users"`
	Games      int64 `json:"games"`
	Characters int64 `json:"characters"`
	Platforms  int64 `json:"platforms"`
}

// Stats counts every entity collection.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &st.Users},
		{&models.Game{}, &st.Games},
		{&models.Character{}, &st.Characters},
		{&models.Platform{}, &st.Platforms},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
