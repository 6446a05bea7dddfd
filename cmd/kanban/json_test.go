package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestListJSON_EmptyResult(t *testing.T) {
	dbPath := setupTestDB(t)

	output := mustRun(t, dbPath, "item", "list", "--json")

	var result []WorkItemJSON
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, output)
	}
	if result == nil || len(result) != 0 {
		t.Errorf("expected empty array, got %v", result)
	}
}

func TestListJSON_WithItems(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "tag1")
	mustRun(t, dbPath, "user", "add", "Alice", "alice@example.com")
	mustRun(t, dbPath, "item", "add", "Task A", "--tag", "tag1", "--assign", "1")
	mustRun(t, dbPath, "item", "add", "Task B")

	output := mustRun(t, dbPath, "item", "list", "--json")

	var result []WorkItemJSON
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, output)
	}
	if len(result) != 2 {
		t.Fatalf("got %d items, want 2", len(result))
	}

	a := result[0]
	if a.Title != "Task A" {
		t.Errorf("title = %q, want %q", a.Title, "Task A")
	}
	if a.State != "New" {
		t.Errorf("state = %q, want %q", a.State, "New")
	}
	if a.AssignedTo == nil || *a.AssignedTo != "Alice" {
		t.Errorf("assigned_to = %v, want Alice", a.AssignedTo)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "tag1" {
		t.Errorf("tags = %v, want [tag1]", a.Tags)
	}

	b := result[1]
	if b.AssignedTo != nil {
		t.Errorf("assigned_to = %v, want nil", b.AssignedTo)
	}
}

func TestListJSON_ByTag(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "tag1")
	for i, title := range []string{"one", "two", "three"} {
		args := []string{"item", "add", title}
		if i != 1 {
			args = append(args, "--tag", "tag1")
		}
		mustRun(t, dbPath, args...)
	}

	output := mustRun(t, dbPath, "item", "list", "--tag", "tag1", "--json")

	var result []WorkItemJSON
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, output)
	}
	if len(result) != 2 || result[0].Title != "one" || result[1].Title != "three" {
		t.Errorf("result = %+v, want one and three", result)
	}
}

func TestShowJSON_FullDetail(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "ui")
	mustRun(t, dbPath, "user", "add", "Bob", "bob@example.com")
	mustRun(t, dbPath, "item", "add", "Show Task", "-d", "A description", "--assign", "1", "--tag", "ui")
	mustRun(t, dbPath, "item", "update", "1", "--state", "Resolved")

	output := mustRun(t, dbPath, "item", "show", "1", "--json")

	var result WorkItemDetailJSON
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, output)
	}
	if result.ID != 1 {
		t.Errorf("id = %d, want 1", result.ID)
	}
	if result.Description != "A description" {
		t.Errorf("description = %q, want %q", result.Description, "A description")
	}
	if result.State != "Resolved" {
		t.Errorf("state = %q, want %q", result.State, "Resolved")
	}
	if result.AssignedTo == nil || *result.AssignedTo != "Bob" {
		t.Errorf("assigned_to = %v, want Bob", result.AssignedTo)
	}
	if result.CreatedAt == "" || result.StateUpdatedAt == "" {
		t.Errorf("timestamps missing: %+v", result)
	}
	if result.StateUpdatedAt < result.CreatedAt {
		t.Errorf("state_updated_at %s before created_at %s", result.StateUpdatedAt, result.CreatedAt)
	}
}

func TestShowJSON_EmptyArrayFields(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "item", "add", "Bare")

	output := mustRun(t, dbPath, "item", "show", "1", "--json")

	// Tags must be [] not null
	if !strings.Contains(output, `"tags": []`) {
		t.Errorf("expected empty tags array in output:\n%s", output)
	}
	if !strings.Contains(output, `"assigned_to": null`) {
		t.Errorf("expected null assignee in output:\n%s", output)
	}
}

func TestTagAndUserListJSON(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "x")
	mustRun(t, dbPath, "user", "add", "Eve", "eve@example.com")

	var tags []TagJSON
	if err := json.Unmarshal([]byte(mustRun(t, dbPath, "tag", "list", "--json")), &tags); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "x" {
		t.Errorf("tags = %+v", tags)
	}

	var users []UserJSON
	if err := json.Unmarshal([]byte(mustRun(t, dbPath, "user", "list", "--json")), &users); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(users) != 1 || users[0].Email != "eve@example.com" {
		t.Errorf("users = %+v", users)
	}
}

func TestStatusJSON(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "item", "add", "one")

	var result StatusJSON
	if err := json.Unmarshal([]byte(mustRun(t, dbPath, "status", "--json")), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Total != 1 || result.Counts["New"] != 1 || result.Counts["Removed"] != 0 {
		t.Errorf("status = %+v", result)
	}
	if len(result.Counts) != 5 {
		t.Errorf("counts has %d states, want 5", len(result.Counts))
	}
}
