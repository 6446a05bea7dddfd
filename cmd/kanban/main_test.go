package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestDB returns a fresh database path and isolates config lookup.
func setupTestDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return filepath.Join(dir, "board.db")
}

// runCLI executes the command tree against dbPath and returns its output.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	cmd := newRootCmd(a)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := cmd.Execute()
	a.close()
	return buf.String(), err
}

// mustRun is runCLI that fails the test on error.
func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dbPath, args...)
	if err != nil {
		t.Fatalf("kanban %s: %v\noutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestInit(t *testing.T) {
	dbPath := setupTestDB(t)

	out := mustRun(t, dbPath, "init")
	if !strings.Contains(out, "schema version 1") {
		t.Errorf("output = %q, want schema version 1", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestInit_WriteConfig(t *testing.T) {
	dbPath := setupTestDB(t)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	mustRun(t, dbPath, "init", "--write-config")
	if _, err := os.Stat(".kanban/config.yaml"); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	// Second run picks up the local config and refuses to overwrite it
	if _, err := runCLI(t, dbPath, "init", "--write-config"); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestItemLifecycle(t *testing.T) {
	dbPath := setupTestDB(t)

	mustRun(t, dbPath, "tag", "add", "bug")
	mustRun(t, dbPath, "user", "add", "Alice", "alice@example.com")

	out := mustRun(t, dbPath, "item", "add", "Fix crash", "-d", "Crashes on save", "--assign", "1", "--tag", "bug")
	if !strings.Contains(out, "Created work item 1") {
		t.Errorf("add output = %q", out)
	}

	mustRun(t, dbPath, "item", "update", "1", "--state", "Active")
	out = mustRun(t, dbPath, "item", "show", "1")
	for _, want := range []string{"Fix crash", "Active", "Alice", "bug", "Crashes on save"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	// Active items move to Removed and disappear from the default list
	mustRun(t, dbPath, "item", "delete", "1")
	out = mustRun(t, dbPath, "item", "list")
	if !strings.Contains(out, "No work items") {
		t.Errorf("list output = %q, want no items", out)
	}
	out = mustRun(t, dbPath, "item", "list", "--removed")
	if !strings.Contains(out, "Fix crash") {
		t.Errorf("removed list = %q, want Fix crash", out)
	}

	// Removed items cannot be deleted again
	if _, err := runCLI(t, dbPath, "item", "delete", "1"); err == nil || !strings.Contains(err.Error(), "conflict") {
		t.Errorf("second delete error = %v, want conflict", err)
	}
}

func TestItemAdd_UnknownTag(t *testing.T) {
	dbPath := setupTestDB(t)

	_, err := runCLI(t, dbPath, "item", "add", "Task", "--tag", "ghost")
	if err == nil || !strings.Contains(err.Error(), "bad request") {
		t.Errorf("error = %v, want bad request", err)
	}
}

func TestItemUpdate_KeepsTagsUnlessGiven(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "a")
	mustRun(t, dbPath, "tag", "add", "b")
	mustRun(t, dbPath, "item", "add", "Task", "-t", "a")

	mustRun(t, dbPath, "item", "update", "1", "--title", "Renamed")
	out := mustRun(t, dbPath, "item", "show", "1")
	if !strings.Contains(out, "Renamed") || !strings.Contains(out, "[a]") {
		t.Errorf("show output = %q, want title Renamed and tag a", out)
	}

	mustRun(t, dbPath, "item", "update", "1", "-t", "b")
	out = mustRun(t, dbPath, "item", "show", "1")
	if !strings.Contains(out, "[b]") {
		t.Errorf("show output = %q, want tag b only", out)
	}

	mustRun(t, dbPath, "item", "update", "1", "--clear-tags")
	out = mustRun(t, dbPath, "item", "show", "1")
	if strings.Contains(out, "Tags:") {
		t.Errorf("show output = %q, want no tags", out)
	}
}

func TestItemList_ExclusiveFilters(t *testing.T) {
	dbPath := setupTestDB(t)

	_, err := runCLI(t, dbPath, "item", "list", "--state", "New", "--removed")
	if err == nil {
		t.Error("expected error for combined filters")
	}

	_, err = runCLI(t, dbPath, "item", "list", "--tag", "nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want tag not found", err)
	}

	_, err = runCLI(t, dbPath, "item", "list", "--state", "open")
	if err == nil {
		t.Error("expected error for invalid state")
	}
}

func TestTagDelete_RequiresForce(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "old")

	_, err := runCLI(t, dbPath, "tag", "delete", "1")
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("error = %v, want --force hint", err)
	}

	mustRun(t, dbPath, "tag", "delete", "1", "--force")
	out := mustRun(t, dbPath, "tag", "list")
	if !strings.Contains(out, "No tags") {
		t.Errorf("tag list = %q, want empty", out)
	}
}

func TestTagAdd_Duplicate(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "tag", "add", "ops")

	_, err := runCLI(t, dbPath, "tag", "add", "ops")
	if err == nil || !strings.Contains(err.Error(), "already exists (id 1)") {
		t.Errorf("error = %v, want duplicate with id", err)
	}
}

func TestUserUpdateAndDelete(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "user", "add", "Bob", "bob@example.com")
	mustRun(t, dbPath, "item", "add", "Task", "--assign", "1")

	mustRun(t, dbPath, "user", "update", "1", "--name", "Robert")
	out := mustRun(t, dbPath, "user", "show", "1")
	if !strings.Contains(out, "Robert <bob@example.com>") {
		t.Errorf("user show = %q", out)
	}

	mustRun(t, dbPath, "user", "delete", "1", "--force")
	out = mustRun(t, dbPath, "item", "show", "1")
	if strings.Contains(out, "Assignee") {
		t.Errorf("item still assigned after user delete:\n%s", out)
	}
}

func TestStatus(t *testing.T) {
	dbPath := setupTestDB(t)
	mustRun(t, dbPath, "item", "add", "one")
	mustRun(t, dbPath, "item", "add", "two")
	mustRun(t, dbPath, "item", "update", "2", "--state", "Closed")

	out := mustRun(t, dbPath, "status")
	for _, want := range []string{"New       1", "Closed    1", "Total     2"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestStrictTransitionsFromConfig(t *testing.T) {
	dbPath := setupTestDB(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("board:\n  strict_transitions: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mustRun(t, dbPath, "--config", cfgPath, "item", "add", "Task")
	mustRun(t, dbPath, "--config", cfgPath, "item", "update", "1", "--state", "Closed")

	_, err := runCLI(t, dbPath, "--config", cfgPath, "item", "update", "1", "--state", "Active")
	if err == nil || !strings.Contains(err.Error(), "conflict") {
		t.Errorf("error = %v, want conflict from strict transitions", err)
	}

	// Without the config the same change is allowed
	mustRun(t, dbPath, "item", "update", "1", "--state", "Active")
}
