// Package model defines the entities and outcome values of the kanban board.
package model

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a work item.
type State string

const (
	StateNew      State = "New"
	StateActive   State = "Active"
	StateResolved State = "Resolved"
	StateClosed   State = "Closed"
	StateRemoved  State = "Removed"
)

// States lists every state in board order.
var States = []State{StateNew, StateActive, StateResolved, StateClosed, StateRemoved}

// IsValid returns true if the state is one of the defined values.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateActive, StateResolved, StateClosed, StateRemoved:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// ParseState converts user input to a State. Matching is case-sensitive.
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid state: %q (want one of New, Active, Resolved, Closed, Removed)", s)
	}
	return state, nil
}

// transitions is the strict transition table. Same-state moves are always allowed.
var transitions = map[State][]State{
	StateNew:      {StateActive, StateResolved, StateClosed, StateRemoved},
	StateActive:   {StateResolved, StateClosed, StateRemoved},
	StateResolved: {StateActive, StateClosed},
	StateClosed:   nil,
	StateRemoved:  nil,
}

// CanTransitionTo reports whether next is reachable from s under the strict table.
func (s State) CanTransitionTo(next State) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Deletable reports whether Delete may act on an item in this state.
func (s State) Deletable() bool {
	return s == StateNew || s == StateActive
}

// WorkItem is a trackable unit of work.
type WorkItem struct {
	ID             int64
	Title          string
	Description    string
	AssignedUserID *int64
	State          State
	Tags           []Tag // populated when loading from the store
	CreatedAt      time.Time
	StateUpdatedAt time.Time
}

// TagNames returns the names of tags in order.
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag is a named label. Names are unique across tags.
type Tag struct {
	ID   int64
	Name string
}

// User is a person who can be assigned work. Emails are unique across users.
type User struct {
	ID    int64
	Name  string
	Email string
}
