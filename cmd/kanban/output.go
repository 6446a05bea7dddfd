package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/baiirun/kanban/internal/model"
)

// WorkItemJSON is the list representation of a work item.
type WorkItemJSON struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	AssignedTo *string  `json:"assigned_to"`
	Tags       []string `json:"tags"`
	State      string   `json:"state"`
}

// WorkItemDetailJSON is the full representation of a work item.
type WorkItemDetailJSON struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AssignedTo     *string  `json:"assigned_to"`
	Tags           []string `json:"tags"`
	State          string   `json:"state"`
	CreatedAt      string   `json:"created_at"`
	StateUpdatedAt string   `json:"state_updated_at"`
}

type TagJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toWorkItemJSON(items []model.WorkItemSummary) []WorkItemJSON {
	out := make([]WorkItemJSON, 0, len(items))
	for _, s := range items {
		tags := s.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, WorkItemJSON{
			ID:         s.ID,
			Title:      s.Title,
			AssignedTo: s.AssignedTo,
			Tags:       tags,
			State:      string(s.State),
		})
	}
	return out
}

func toWorkItemDetailJSON(d model.WorkItemDetails) WorkItemDetailJSON {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return WorkItemDetailJSON{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		AssignedTo:     d.AssignedTo,
		Tags:           tags,
		State:          string(d.State),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		StateUpdatedAt: d.StateUpdatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// responseError turns a non-success response into an error for the exit code.
func responseError(resp model.Response, what string) error {
	switch resp {
	case model.Created, model.Updated, model.Deleted:
		return nil
	case model.NotFound:
		return fmt.Errorf("%s not found", what)
	case model.Conflict:
		return fmt.Errorf("%s: conflict", what)
	case model.BadRequest:
		return fmt.Errorf("%s: bad request", what)
	default:
		return fmt.Errorf("%s: unexpected response %s", what, resp)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printWorkItems(w io.Writer, items []model.WorkItemSummary) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No work items")
		return
	}
	for _, s := range items {
		assignee := "-"
		if s.AssignedTo != nil {
			assignee = *s.AssignedTo
		}
		line := fmt.Sprintf("%4d  %-9s %-14s %s", s.ID, s.State, assignee, s.Title)
		if len(s.Tags) > 0 {
			line += "  [" + strings.Join(s.Tags, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
}
