package db

import (
	"fmt"

	"github.com/baiirun/kanban/internal/model"
)

// The association index: work_item_tags links items to tags, and
// work_items.assigned_user_id links items to users. Both are indexed on the
// tag/user side so back-sets are lookups rather than full scans.

// AttachTag links a tag to a work item. Attaching twice is a no-op.
func (tx *Tx) AttachTag(itemID, tagID int64) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO work_item_tags (work_item_id, tag_id) VALUES (?, ?)`,
		itemID, tagID)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// DetachTag removes the link between a work item and a tag.
func (tx *Tx) DetachTag(itemID, tagID int64) error {
	_, err := tx.Exec(`DELETE FROM work_item_tags WHERE work_item_id = ? AND tag_id = ?`, itemID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

// DetachTagEverywhere removes a tag from every work item and returns how many
// links were removed.
func (tx *Tx) DetachTagEverywhere(tagID int64) (int64, error) {
	result, err := tx.Exec(`DELETE FROM work_item_tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach tag: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// TagsForWorkItem returns the tags attached to a work item, ordered by name.
func (tx *Tx) TagsForWorkItem(itemID int64) ([]model.Tag, error) {
	rows, err := tx.Query(`
		SELECT t.id, t.name
		FROM tags t
		JOIN work_item_tags wt ON t.id = wt.tag_id
		WHERE wt.work_item_id = ?
		ORDER BY t.name, t.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work item tags: %w", err)
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

// WorkItemsWithTag returns the work items a tag is attached to. Tags of the
// returned items are not loaded.
func (tx *Tx) WorkItemsWithTag(tagID int64) ([]model.WorkItem, error) {
	return tx.queryWorkItems(`
		SELECT w.id, w.title, w.description, w.assigned_user_id, w.state, w.created_at, w.state_updated_at
		FROM work_items w
		JOIN work_item_tags wt ON w.id = wt.work_item_id
		WHERE wt.tag_id = ?
		ORDER BY w.id`, tagID)
}

// WorkItemsAssignedTo returns the work items assigned to a user. Tags of the
// returned items are not loaded.
func (tx *Tx) WorkItemsAssignedTo(userID int64) ([]model.WorkItem, error) {
	return tx.queryWorkItems(`
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE assigned_user_id = ?
		ORDER BY id`, userID)
}

// UnassignUser clears the assignee on every work item assigned to the user and
// returns how many items were released.
func (tx *Tx) UnassignUser(userID int64) (int64, error) {
	result, err := tx.Exec(`UPDATE work_items SET assigned_user_id = NULL WHERE assigned_user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to unassign user: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// queryWorkItems is a helper to scan work item rows.
func (tx *Tx) queryWorkItems(query string, args ...any) ([]model.WorkItem, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
