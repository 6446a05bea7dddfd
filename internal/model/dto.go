package model

import "time"

// WorkItemCreate carries the fields accepted when creating a work item.
type WorkItemCreate struct {
	Title          string
	AssignedUserID *int64
	Description    *string
	Tags           []string
}

// WorkItemUpdate carries a full update request. Nil pointers leave the stored
// value untouched; Tags and State always replace the stored values.
type WorkItemUpdate struct {
	ID             int64
	Title          *string
	Description    *string
	AssignedUserID *int64
	Tags           []string
	State          State
}

// WorkItemPatch carries a partial update. Nil fields keep the stored value,
// including the tag set and state.
type WorkItemPatch struct {
	ID             int64
	Title          *string
	Description    *string
	AssignedUserID *int64
	Tags           *[]string
	State          *State
}

// WorkItemSummary is the list projection of a work item.
type WorkItemSummary struct {
	ID         int64
	Title      string
	AssignedTo *string // assignee name, nil when unassigned
	Tags       []string
	State      State
}

// WorkItemDetails is the full projection of a single work item.
type WorkItemDetails struct {
	ID             int64
	Title          string
	Description    string
	CreatedAt      time.Time
	AssignedTo     *string
	Tags           []string
	State          State
	StateUpdatedAt time.Time
}
