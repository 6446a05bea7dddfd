package kanban

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/baiirun/kanban/internal/model"
)

// TestBoard_ReferentialConsistency is a property-based test using rapid.
// It drives random sequences of board operations and checks that items only
// ever reference registered tags and that lifecycle timestamps stay ordered.
func TestBoard_ReferentialConsistency(t *testing.T) {
	tagPool := []string{"alpha", "beta", "gamma", "ghost"}

	rapid.Check(t, func(r *rapid.T) {
		b, clock := setupBoard(t)
		tagIDs := map[string]int64{}
		for _, name := range tagPool[:3] {
			tagIDs[name] = mustCreateTag(t, b, name)
		}
		user := mustCreateUser(t, b, "Pat", "pat@example.com")

		var ids []int64
		drawTags := func() []string {
			n := rapid.IntRange(0, 3).Draw(r, "numTags")
			names := make([]string, n)
			for i := range names {
				names[i] = rapid.SampledFrom(tagPool).Draw(r, "tag")
			}
			return names
		}

		steps := rapid.IntRange(1, 25).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			clock.Advance(time.Duration(rapid.IntRange(0, 120).Draw(r, "advance")) * time.Minute)

			switch rapid.IntRange(0, 3).Draw(r, "op") {
			case 0:
				in := model.WorkItemCreate{
					Title: rapid.StringMatching(`[a-z]{1,8}`).Draw(r, "title"),
					Tags:  drawTags(),
				}
				if rapid.Bool().Draw(r, "assign") {
					in.AssignedUserID = &user
				}
				resp, id, err := b.WorkItems.Create(in)
				require.NoError(t, err)
				if resp == model.Created {
					ids = append(ids, id)
				} else {
					require.Equal(t, model.BadRequest, resp)
				}
			case 1:
				if len(ids) == 0 {
					continue
				}
				id := rapid.SampledFrom(ids).Draw(r, "id")
				before := mustFind(t, b, id)
				state := rapid.SampledFrom(model.States).Draw(r, "state")
				resp, err := b.WorkItems.Update(model.WorkItemUpdate{ID: id, Tags: drawTags(), State: state})
				require.NoError(t, err)
				after := mustFind(t, b, id)
				if resp == model.Updated && state != before.State {
					require.WithinDuration(t, clock.Now(), after.StateUpdatedAt, time.Second)
				} else {
					require.True(t, before.StateUpdatedAt.Equal(after.StateUpdatedAt))
				}
			case 2:
				if len(ids) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(ids)-1).Draw(r, "idx")
				id := ids[idx]
				before := mustFind(t, b, id)
				resp, err := b.WorkItems.Delete(id)
				require.NoError(t, err)
				_, found, err := b.WorkItems.Find(id)
				require.NoError(t, err)
				switch before.State {
				case model.StateNew:
					require.Equal(t, model.Deleted, resp)
					require.False(t, found)
					ids = append(ids[:idx], ids[idx+1:]...)
				case model.StateActive:
					require.Equal(t, model.Deleted, resp)
					require.True(t, found)
				default:
					require.Equal(t, model.Conflict, resp)
				}
			case 3:
				name := rapid.SampledFrom(tagPool[:3]).Draw(r, "deleteTag")
				id, ok := tagIDs[name]
				if !ok {
					continue
				}
				resp, err := b.Tags.Delete(id, true)
				require.NoError(t, err)
				if resp == model.Deleted {
					delete(tagIDs, name)
				} else {
					require.Equal(t, model.Conflict, resp)
				}
			}

			checkConsistency(t, b, ids, tagIDs)
		}
	})
}

func checkConsistency(t *testing.T, b *Board, ids []int64, tagIDs map[string]int64) {
	t.Helper()

	for _, id := range ids {
		d := mustFind(t, b, id)
		require.False(t, d.StateUpdatedAt.Before(d.CreatedAt), "item %d stamped before creation", id)
		for _, name := range d.Tags {
			_, ok := tagIDs[name]
			require.True(t, ok, "item %d references unregistered tag %q", id, name)
		}
	}

	visible, err := b.WorkItems.Read()
	require.NoError(t, err)
	for _, s := range visible {
		require.NotEqual(t, model.StateRemoved, s.State)
	}
	removed, err := b.WorkItems.ReadRemoved()
	require.NoError(t, err)
	require.Len(t, ids, len(visible)+len(removed))

	counts, err := b.WorkItems.CountByState()
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	require.Equal(t, len(ids), total)
}

// TestUpdate_TagSetRoundTrip checks that after any sequence of updates an
// item's tag set equals the last requested set, and that ReadByTag returns
// exactly the items carrying each tag.
func TestUpdate_TagSetRoundTrip(t *testing.T) {
	tagPool := []string{"api", "db", "docs", "ui", "urgent"}

	rapid.Check(t, func(r *rapid.T) {
		b, _ := setupBoard(t)
		for _, name := range tagPool {
			mustCreateTag(t, b, name)
		}

		numItems := rapid.IntRange(1, 4).Draw(r, "numItems")
		ids := make([]int64, numItems)
		last := make(map[int64][]string, numItems)
		for i := range ids {
			ids[i] = mustCreateItem(t, b, model.WorkItemCreate{Title: "item"})
			last[ids[i]] = nil
		}

		updates := rapid.IntRange(1, 12).Draw(r, "updates")
		for i := 0; i < updates; i++ {
			id := rapid.SampledFrom(ids).Draw(r, "id")
			tags := rapid.SliceOfN(rapid.SampledFrom(tagPool), 0, 6).Draw(r, "tags")
			resp, err := b.WorkItems.Update(model.WorkItemUpdate{ID: id, Tags: tags, State: model.StateNew})
			require.NoError(t, err)
			require.Equal(t, model.Updated, resp)
			last[id] = tags
		}

		for _, id := range ids {
			want := slices.Clone(last[id])
			slices.Sort(want)
			want = slices.Compact(want)
			got := mustFind(t, b, id).Tags
			require.Equal(t, len(want), len(got), "item %d tags %v, want %v", id, got, want)
			if len(want) > 0 {
				require.Equal(t, want, got)
			}
		}

		for _, name := range tagPool {
			var want []int64
			for _, id := range ids {
				if slices.Contains(last[id], name) {
					want = append(want, id)
				}
			}
			items, found, err := b.WorkItems.ReadByTag(name)
			require.NoError(t, err)
			require.True(t, found)
			got := make([]int64, 0, len(items))
			for _, s := range items {
				got = append(got, s.ID)
			}
			require.Equal(t, len(want), len(got), "tag %q", name)
			if len(want) > 0 {
				require.Equal(t, want, got, "tag %q", name)
			}
		}
	})
}
