package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/baiirun/kanban/internal/model"
)

// InsertTag adds a tag and sets its ID. Name uniqueness is the caller's concern.
func (tx *Tx) InsertTag(tag *model.Tag) error {
	result, err := tx.Exec(`INSERT INTO tags (name) VALUES (?)`, tag.Name)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	tag.ID = id
	return nil
}

// GetTag retrieves a tag by ID
func (tx *Tx) GetTag(id int64) (*model.Tag, error) {
	t := &model.Tag{}
	err := tx.QueryRow(`SELECT id, name FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return t, nil
}

// GetTagByName retrieves a tag by exact (case-sensitive) name.
// When several tags share a name the oldest wins.
func (tx *Tx) GetTagByName(name string) (*model.Tag, error) {
	t := &model.Tag{}
	err := tx.QueryRow(`SELECT id, name FROM tags WHERE name = ? ORDER BY id LIMIT 1`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return t, nil
}

// ListTags returns all tags ordered by ID
func (tx *Tx) ListTags() ([]model.Tag, error) {
	rows, err := tx.Query(`SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// RenameTag changes a tag's name.
func (tx *Tx) RenameTag(id int64, name string) error {
	result, err := tx.Exec(`UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename tag: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTag removes a tag. Associations must be detached first.
func (tx *Tx) DeleteTag(id int64) error {
	result, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return nil
}
