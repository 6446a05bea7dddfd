package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/baiirun/kanban/internal/model"
)

// ListFilter narrows a work item listing. Nil fields do not filter.
type ListFilter struct {
	State  *model.State
	UserID *int64
	TagID  *int64
}

// ListSummaries returns work item summaries matching the filter, ordered by ID.
func (tx *Tx) ListSummaries(filter ListFilter) ([]model.WorkItemSummary, error) {
	query := `
		SELECT w.id, w.title, u.name, w.state
		FROM work_items w
		LEFT JOIN users u ON u.id = w.assigned_user_id`
	args := []any{}

	if filter.TagID != nil {
		query += ` JOIN work_item_tags wt ON wt.work_item_id = w.id AND wt.tag_id = ?`
		args = append(args, *filter.TagID)
	}
	query += ` WHERE 1=1`

	if filter.State != nil {
		if !filter.State.IsValid() {
			return nil, fmt.Errorf("invalid state: %s", *filter.State)
		}
		query += ` AND w.state = ?`
		args = append(args, *filter.State)
	}
	if filter.UserID != nil {
		query += ` AND w.assigned_user_id = ?`
		args = append(args, *filter.UserID)
	}
	query += ` ORDER BY w.id`

	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}

	summaries := []model.WorkItemSummary{}
	for rows.Next() {
		var s model.WorkItemSummary
		var assignee sql.NullString
		if err := rows.Scan(&s.ID, &s.Title, &assignee, &s.State); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		if assignee.Valid {
			s.AssignedTo = &assignee.String
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate work items: %w", err)
	}
	_ = rows.Close()

	// Load tag names for each item
	for i := range summaries {
		tags, err := tx.TagsForWorkItem(summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].Tags = model.TagNames(tags)
	}

	return summaries, nil
}

// WorkItemDetails returns the full projection of a work item. A missing or
// unassigned assignee yields a nil AssignedTo.
func (tx *Tx) WorkItemDetails(id int64) (*model.WorkItemDetails, error) {
	d := &model.WorkItemDetails{}
	var assignee sql.NullString
	err := tx.QueryRow(`
		SELECT w.id, w.title, w.description, w.created_at, u.name, w.state, w.state_updated_at
		FROM work_items w
		LEFT JOIN users u ON u.id = w.assigned_user_id
		WHERE w.id = ?`, id).Scan(
		&d.ID, &d.Title, &d.Description, &d.CreatedAt, &assignee, &d.State, &d.StateUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	if assignee.Valid {
		d.AssignedTo = &assignee.String
	}

	tags, err := tx.TagsForWorkItem(id)
	if err != nil {
		return nil, err
	}
	d.Tags = model.TagNames(tags)
	return d, nil
}

// CountByState returns the number of work items in each state.
func (tx *Tx) CountByState() (map[model.State]int, error) {
	rows, err := tx.Query(`SELECT state, COUNT(*) FROM work_items GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.State]int, len(model.States))
	for rows.Next() {
		var state model.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[state] = count
	}
	return counts, rows.Err()
}
