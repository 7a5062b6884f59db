package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mlangford/wheeljournal/internal/models"
)

// CreateStrategy inserts a new strategy
func (db *DB) CreateStrategy(s *models.Strategy) error {
	query := `
		INSERT INTO strategies (user_id, name, capital_allocation, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	if s.Status == "" {
		s.Status = models.StrategyStatusActive
	}

	err := db.conn.QueryRow(query, s.UserID, s.Name, s.CapitalAllocation, s.Status, now).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create strategy: %w", err)
	}
	s.CreatedAt = now
	return nil
}

// GetStrategyByID retrieves one strategy scoped to its owner
func (db *DB) GetStrategyByID(userID string, id int) (*models.Strategy, error) {
	query := `
		SELECT id, user_id, name, capital_allocation, status, created_at
		FROM strategies
		WHERE user_id = $1 AND id = $2
	`
	return db.scanSingleStrategy(db.conn.QueryRow(query, userID, id))
}

// GetStrategyByName retrieves a strategy by its name. Used by the campaign
// view, which is pinned to a named strategy record.
func (db *DB) GetStrategyByName(userID, name string) (*models.Strategy, error) {
	query := `
		SELECT id, user_id, name, capital_allocation, status, created_at
		FROM strategies
		WHERE user_id = $1 AND name = $2
	`
	return db.scanSingleStrategy(db.conn.QueryRow(query, userID, name))
}

// GetStrategiesByUser retrieves all strategies for a user
func (db *DB) GetStrategiesByUser(userID string) ([]*models.Strategy, error) {
	query := `
		SELECT id, user_id, name, capital_allocation, status, created_at
		FROM strategies
		WHERE user_id = $1
		ORDER BY name ASC
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var strategies []*models.Strategy
	for rows.Next() {
		var s models.Strategy
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CapitalAllocation, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, &s)
	}
	return strategies, nil
}

// UpdateStrategy updates a strategy's name, capital allocation and status
func (db *DB) UpdateStrategy(s *models.Strategy) error {
	query := `
		UPDATE strategies SET name = $3, capital_allocation = $4, status = $5
		WHERE user_id = $1 AND id = $2
	`
	result, err := db.conn.Exec(query, s.UserID, s.ID, s.Name, s.CapitalAllocation, s.Status)
	if err != nil {
		return fmt.Errorf("failed to update strategy: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("strategy %d: %w", s.ID, ErrNotFound)
	}
	return nil
}

// DeleteStrategy removes a strategy; trades keep a dangling-free association
// via ON DELETE SET NULL.
func (db *DB) DeleteStrategy(userID string, id int) error {
	query := `DELETE FROM strategies WHERE user_id = $1 AND id = $2`
	result, err := db.conn.Exec(query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("strategy %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) scanSingleStrategy(row *sql.Row) (*models.Strategy, error) {
	var s models.Strategy
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.CapitalAllocation, &s.Status, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("strategy: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy: %w", err)
	}
	return &s, nil
}

// CreateTag inserts a new tag
func (db *DB) CreateTag(t *models.Tag) error {
	query := `INSERT INTO tags (user_id, name) VALUES ($1, $2) RETURNING id`
	if err := db.conn.QueryRow(query, t.UserID, t.Name).Scan(&t.ID); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// GetTagsByUser retrieves all tags for a user
func (db *DB) GetTagsByUser(userID string) ([]*models.Tag, error) {
	query := `SELECT id, user_id, name FROM tags WHERE user_id = $1 ORDER BY name ASC`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, nil
}

// DeleteTag removes a tag
func (db *DB) DeleteTag(userID string, id int) error {
	query := `DELETE FROM tags WHERE user_id = $1 AND id = $2`
	result, err := db.conn.Exec(query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return nil
}
