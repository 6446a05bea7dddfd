package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/baiirun/kanban/internal/model"
)

const workItemColumns = `id, title, description, assigned_user_id, state, created_at, state_updated_at`

// scanWorkItem scans a work_items row. Tags are not loaded.
func scanWorkItem(scanner interface{ Scan(...any) error }) (*model.WorkItem, error) {
	item := &model.WorkItem{}
	var assigned sql.NullInt64
	err := scanner.Scan(
		&item.ID, &item.Title, &item.Description, &assigned,
		&item.State, &item.CreatedAt, &item.StateUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assigned.Valid {
		id := assigned.Int64
		item.AssignedUserID = &id
	}
	return item, nil
}

// InsertWorkItem adds a work item and sets its ID. Tags are attached separately.
func (tx *Tx) InsertWorkItem(item *model.WorkItem) error {
	if !item.State.IsValid() {
		return fmt.Errorf("invalid state: %s", item.State)
	}

	result, err := tx.Exec(`
		INSERT INTO work_items (title, description, assigned_user_id, state, created_at, state_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.Title, item.Description, item.AssignedUserID, item.State, item.CreatedAt, item.StateUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create work item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// GetWorkItem retrieves a work item by ID with its tags loaded.
func (tx *Tx) GetWorkItem(id int64) (*model.WorkItem, error) {
	row := tx.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}

	tags, err := tx.TagsForWorkItem(id)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return item, nil
}

// SaveWorkItem writes the scalar fields of an existing work item.
// The tag set is maintained through AttachTag and DetachTag.
func (tx *Tx) SaveWorkItem(item *model.WorkItem) error {
	if !item.State.IsValid() {
		return fmt.Errorf("invalid state: %s", item.State)
	}

	result, err := tx.Exec(`
		UPDATE work_items
		SET title = ?, description = ?, assigned_user_id = ?, state = ?, state_updated_at = ?
		WHERE id = ?`,
		item.Title, item.Description, item.AssignedUserID, item.State, item.StateUpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update work item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("work item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// DeleteWorkItem removes a work item and its tag associations.
func (tx *Tx) DeleteWorkItem(id int64) error {
	if _, err := tx.Exec(`DELETE FROM work_item_tags WHERE work_item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tag associations: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("work item %d: %w", id, ErrNotFound)
	}
	return nil
}
