// backend/src/services/activity_service.go
package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/patrickmn/go-cache"
)

const activityTypesCacheKey = "activity_types:all"

// ActivityService manages the catalog of activity type definitions. The
// catalog changes rarely and is read on every submission form render, so list
// and lookup results are cached with explicit invalidation on writes. Reward
// amounts themselves are never cached; they are recomputed live from the
// definition as the representative edits the participant count.
type ActivityService struct {
	db    *sql.DB
	cache *cache.Cache
}

func NewActivityService(db *sql.DB, c *cache.Cache) *ActivityService {
	return &ActivityService{db: db, cache: c}
}

func (s *ActivityService) invalidate() {
	s.cache.Delete(activityTypesCacheKey)
}

func scanActivityType(scan func(dest ...interface{}) error) (*models.ActivityType, error) {
	var at models.ActivityType
	var tiersJSON, fieldsJSON string
	if err := scan(&at.ID, &at.Name, &at.Category, &tiersJSON, &fieldsJSON, &at.CreatedAt, &at.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tiersJSON), &at.Tiers); err != nil {
		return nil, fmt.Errorf("corrupt tiers for activity type %d: %w", at.ID, err)
	}
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &at.CustomFields); err != nil {
			return nil, fmt.Errorf("corrupt custom fields for activity type %d: %w", at.ID, err)
		}
	}
	return &at, nil
}

// List returns the full catalog, served from cache when warm.
func (s *ActivityService) List() ([]models.ActivityType, error) {
	if cached, found := s.cache.Get(activityTypesCacheKey); found {
		if types, ok := cached.([]models.ActivityType); ok {
			return types, nil
		}
	}

	rows, err := s.db.Query(`SELECT id, name, category, tiers, custom_fields, created_at, updated_at FROM activity_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ActivityType
	for rows.Next() {
		at, err := scanActivityType(rows.Scan)
		if err != nil {
			return nil, err
		}
		types = append(types, *at)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.Set(activityTypesCacheKey, types, DefaultCacheExpiration)
	return types, nil
}

func (s *ActivityService) Get(id int64) (*models.ActivityType, error) {
	row := s.db.QueryRow(`SELECT id, name, category, tiers, custom_fields, created_at, updated_at FROM activity_types WHERE id = ?`, id)
	at, err := scanActivityType(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivityTypeNotFound
		}
		return nil, err
	}
	return at, nil
}

// Create validates and saves a new activity type definition. A definition
// without tiers is refused before anything is written.
func (s *ActivityService) Create(at *models.ActivityType) error {
	if err := at.Validate(); err != nil {
		return err
	}
	tiersJSON, err := json.Marshal(at.Tiers)
	if err != nil {
		return err
	}
	fieldsJSON, err := json.Marshal(at.CustomFields)
	if err != nil {
		return err
	}

	now := time.Now()
	at.CreatedAt = now
	at.UpdatedAt = now
	res, err := s.db.Exec(
		`INSERT INTO activity_types (name, category, tiers, custom_fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		at.Name, at.Category, string(tiersJSON), string(fieldsJSON), at.CreatedAt, at.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	at.ID = id

	s.invalidate()
	logger.L.Info("Activity type created", "id", at.ID, "name", at.Name, "tiers", len(at.Tiers))
	return nil
}

func (s *ActivityService) Update(at *models.ActivityType) error {
	if err := at.Validate(); err != nil {
		return err
	}
	tiersJSON, err := json.Marshal(at.Tiers)
	if err != nil {
		return err
	}
	fieldsJSON, err := json.Marshal(at.CustomFields)
	if err != nil {
		return err
	}

	at.UpdatedAt = time.Now()
	res, err := s.db.Exec(
		`UPDATE activity_types SET name = ?, category = ?, tiers = ?, custom_fields = ?, updated_at = ? WHERE id = ?`,
		at.Name, at.Category, string(tiersJSON), string(fieldsJSON), at.UpdatedAt, at.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrActivityTypeNotFound
	}

	s.invalidate()
	return nil
}

func (s *ActivityService) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM activity_types WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrActivityTypeNotFound
	}

	s.invalidate()
	return nil
}
