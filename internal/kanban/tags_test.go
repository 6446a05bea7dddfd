package kanban

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baiirun/kanban/internal/model"
)

func TestTagCreate(t *testing.T) {
	b, _ := setupBoard(t)

	resp, id, err := b.Tags.Create("bug")
	require.NoError(t, err)
	require.Equal(t, model.Created, resp)
	require.Greater(t, id, int64(0))

	resp, dup, err := b.Tags.Create("bug")
	require.NoError(t, err)
	require.Equal(t, model.Conflict, resp)
	require.Equal(t, id, dup, "conflict returns the existing tag's id")

	resp, _, err = b.Tags.Create("")
	require.NoError(t, err)
	require.Equal(t, model.BadRequest, resp)

	tags, err := b.Tags.Read()
	require.NoError(t, err)
	require.Equal(t, []model.Tag{{ID: id, Name: "bug"}}, tags)
}

func TestTagCreate_Concurrent(t *testing.T) {
	b, _ := setupBoard(t)

	const workers = 8
	results := make([]model.Response, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _, err := b.Tags.Create("race")
			if err == nil {
				results[i] = resp
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for _, r := range results {
		if r == model.Created {
			created++
		} else {
			require.Equal(t, model.Conflict, r)
		}
	}
	require.Equal(t, 1, created)
}

func TestTagFind(t *testing.T) {
	b, _ := setupBoard(t)
	id := mustCreateTag(t, b, "ops")

	tag, found, err := b.Tags.Find(id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ops", tag.Name)

	tag, found, err = b.Tags.FindByName("ops")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, id, tag.ID)

	_, found, err = b.Tags.Find(id + 100)
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = b.Tags.FindByName("OPS")
	require.NoError(t, err)
	require.False(t, found, "names match exactly")
}

func TestTagUpdate(t *testing.T) {
	b, _ := setupBoard(t)
	bug := mustCreateTag(t, b, "bug")
	mustCreateTag(t, b, "feature")
	item := mustCreateItem(t, b, model.WorkItemCreate{Title: "Task", Tags: []string{"bug"}})

	resp, err := b.Tags.Update(bug, "defect")
	require.NoError(t, err)
	require.Equal(t, model.Updated, resp)
	require.Equal(t, []string{"defect"}, mustFind(t, b, item).Tags, "rename is visible on tagged items")

	resp, err = b.Tags.Update(bug, "defect")
	require.NoError(t, err)
	require.Equal(t, model.Updated, resp, "renaming to its own name is allowed")

	resp, err = b.Tags.Update(bug, "feature")
	require.NoError(t, err)
	require.Equal(t, model.Conflict, resp)

	resp, err = b.Tags.Update(bug, " ")
	require.NoError(t, err)
	require.Equal(t, model.BadRequest, resp)

	resp, err = b.Tags.Update(999, "other")
	require.NoError(t, err)
	require.Equal(t, model.NotFound, resp)
}

func TestTagDelete(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		b, _ := setupBoard(t)
		resp, err := b.Tags.Delete(5, true)
		require.NoError(t, err)
		require.Equal(t, model.NotFound, resp)
	})

	t.Run("without force is always refused", func(t *testing.T) {
		b, _ := setupBoard(t)
		id := mustCreateTag(t, b, "lonely")

		resp, err := b.Tags.Delete(id, false)
		require.NoError(t, err)
		require.Equal(t, model.Conflict, resp)

		_, found, err := b.Tags.Find(id)
		require.NoError(t, err)
		require.True(t, found)
	})

	t.Run("force refused while an active item uses it", func(t *testing.T) {
		b, _ := setupBoard(t)
		id := mustCreateTag(t, b, "hot")
		item := mustCreateItem(t, b, model.WorkItemCreate{Title: "Task", Tags: []string{"hot"}})
		moveTo(t, b, item, model.StateActive)

		resp, err := b.Tags.Delete(id, true)
		require.NoError(t, err)
		require.Equal(t, model.Conflict, resp)
		require.Equal(t, []string{"hot"}, mustFind(t, b, item).Tags)
	})

	t.Run("force detaches and removes", func(t *testing.T) {
		b, _ := setupBoard(t)
		id := mustCreateTag(t, b, "old")
		mustCreateTag(t, b, "keep")
		first := mustCreateItem(t, b, model.WorkItemCreate{Title: "one", Tags: []string{"old", "keep"}})
		second := mustCreateItem(t, b, model.WorkItemCreate{Title: "two", Tags: []string{"old"}})
		moveTo(t, b, second, model.StateClosed)

		resp, err := b.Tags.Delete(id, true)
		require.NoError(t, err)
		require.Equal(t, model.Deleted, resp)

		require.Equal(t, []string{"keep"}, mustFind(t, b, first).Tags)
		require.Empty(t, mustFind(t, b, second).Tags)

		_, found, err := b.Tags.Find(id)
		require.NoError(t, err)
		require.False(t, found)

		_, found, err = b.WorkItems.ReadByTag("old")
		require.NoError(t, err)
		require.False(t, found)
	})
}
