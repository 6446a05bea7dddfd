package kanban

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/baiirun/kanban/internal/db"
	"github.com/baiirun/kanban/internal/model"
)

// WorkItemRepository manages the work item lifecycle. Each operation runs in
// a single transaction, so tag and assignee validation see the same snapshot
// as the mutation they guard.
type WorkItemRepository struct {
	db     *db.DB
	logger *zap.Logger
	now    func() time.Time
	strict bool
	tags   *TagRepository
	users  *UserRepository
}

// Create adds a work item in state New. Unknown tag names or an unknown
// assignee make the request a BadRequest and nothing is stored.
func (r *WorkItemRepository) Create(in model.WorkItemCreate) (model.Response, int64, error) {
	if strings.TrimSpace(in.Title) == "" {
		r.logger.Info("work item create rejected", zap.String("reason", "empty title"))
		return model.BadRequest, 0, nil
	}

	var response model.Response
	var id int64
	err := r.db.WithTx(func(tx *db.Tx) error {
		if in.AssignedUserID != nil {
			ok, err := r.users.exists(tx, *in.AssignedUserID)
			if err != nil {
				return err
			}
			if !ok {
				r.logger.Info("work item create rejected", zap.Int64("assignee", *in.AssignedUserID), zap.String("reason", "unknown user"))
				response = model.BadRequest
				return nil
			}
		}

		tags, missing, err := r.tags.resolve(tx, in.Tags)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			r.logger.Info("work item create rejected", zap.Strings("tags", missing), zap.String("reason", "unknown tags"))
			response = model.BadRequest
			return nil
		}

		now := r.now()
		item := &model.WorkItem{
			Title:          in.Title,
			AssignedUserID: in.AssignedUserID,
			State:          model.StateNew,
			CreatedAt:      now,
			StateUpdatedAt: now,
		}
		if in.Description != nil {
			item.Description = *in.Description
		}
		if err := tx.InsertWorkItem(item); err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.AttachTag(item.ID, tag.ID); err != nil {
				return err
			}
		}

		response, id = model.Created, item.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if response == model.Created {
		r.logger.Debug("work item created", zap.Int64("id", id), zap.Int("tags", len(in.Tags)))
	}
	return response, id, nil
}

// Find returns the details of a work item.
func (r *WorkItemRepository) Find(id int64) (model.WorkItemDetails, bool, error) {
	var details *model.WorkItemDetails
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		details, err = tx.WorkItemDetails(id)
		return err
	})
	if errors.Is(err, db.ErrNotFound) {
		return model.WorkItemDetails{}, false, nil
	}
	if err != nil {
		return model.WorkItemDetails{}, false, err
	}
	return *details, true, nil
}

// Read returns every work item except those in state Removed.
func (r *WorkItemRepository) Read() ([]model.WorkItemSummary, error) {
	all, err := r.list(db.ListFilter{})
	if err != nil {
		return nil, err
	}

	visible := make([]model.WorkItemSummary, 0, len(all))
	for _, s := range all {
		if s.State != model.StateRemoved {
			visible = append(visible, s)
		}
	}
	return visible, nil
}

// ReadByState returns the work items in the given state.
func (r *WorkItemRepository) ReadByState(state model.State) ([]model.WorkItemSummary, error) {
	return r.list(db.ListFilter{State: &state})
}

// ReadRemoved returns the work items in state Removed.
func (r *WorkItemRepository) ReadRemoved() ([]model.WorkItemSummary, error) {
	return r.ReadByState(model.StateRemoved)
}

// ReadByUser returns the work items assigned to a user. The bool is false
// when the user does not exist.
func (r *WorkItemRepository) ReadByUser(userID int64) ([]model.WorkItemSummary, bool, error) {
	var summaries []model.WorkItemSummary
	found := true
	err := r.db.WithTx(func(tx *db.Tx) error {
		ok, err := r.users.exists(tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			found = false
			return nil
		}
		summaries, err = tx.ListSummaries(db.ListFilter{UserID: &userID})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return summaries, found, nil
}

// ReadByTag returns the work items carrying the named tag. The bool is false
// when no tag has that name.
func (r *WorkItemRepository) ReadByTag(name string) ([]model.WorkItemSummary, bool, error) {
	var summaries []model.WorkItemSummary
	found := true
	err := r.db.WithTx(func(tx *db.Tx) error {
		tag, err := tx.GetTagByName(name)
		if errors.Is(err, db.ErrNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		summaries, err = tx.ListSummaries(db.ListFilter{TagID: &tag.ID})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return summaries, found, nil
}

func (r *WorkItemRepository) list(filter db.ListFilter) ([]model.WorkItemSummary, error) {
	var summaries []model.WorkItemSummary
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		summaries, err = tx.ListSummaries(filter)
		return err
	})
	return summaries, err
}

// Update applies a full update to a work item.
//
// Title, description and assignee change only when provided. The tag set
// is reconciled to exactly in.Tags. stateUpdatedAt is stamped only when the
// state actually changes. Validation happens before any mutation, so a
// rejected update leaves the item untouched.
func (r *WorkItemRepository) Update(in model.WorkItemUpdate) (model.Response, error) {
	var response model.Response
	var from model.State
	err := r.db.WithTx(func(tx *db.Tx) error {
		item, err := tx.GetWorkItem(in.ID)
		if errors.Is(err, db.ErrNotFound) {
			response = model.NotFound
			return nil
		}
		if err != nil {
			return err
		}
		from = item.State
		response, err = r.apply(tx, item, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logUpdate(in, from, response)
	return response, nil
}

// Patch applies the fields set in p and keeps the stored value for the rest.
// The stored tag set and state are read in the same transaction as the write.
func (r *WorkItemRepository) Patch(p model.WorkItemPatch) (model.Response, error) {
	var response model.Response
	var from model.State
	var in model.WorkItemUpdate
	err := r.db.WithTx(func(tx *db.Tx) error {
		item, err := tx.GetWorkItem(p.ID)
		if errors.Is(err, db.ErrNotFound) {
			response = model.NotFound
			return nil
		}
		if err != nil {
			return err
		}
		from = item.State

		in = model.WorkItemUpdate{
			ID:             p.ID,
			Title:          p.Title,
			Description:    p.Description,
			AssignedUserID: p.AssignedUserID,
			Tags:           model.TagNames(item.Tags),
			State:          item.State,
		}
		if p.Tags != nil {
			in.Tags = *p.Tags
		}
		if p.State != nil {
			in.State = *p.State
		}
		response, err = r.apply(tx, item, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logUpdate(in, from, response)
	return response, nil
}

// apply validates in against the loaded item and writes it.
func (r *WorkItemRepository) apply(tx *db.Tx, item *model.WorkItem, in model.WorkItemUpdate) (model.Response, error) {
	reason, err := r.validateUpdate(tx, item, in)
	if err != nil {
		return 0, err
	}
	if reason != "" {
		r.logger.Info("work item update rejected", zap.Int64("id", in.ID), zap.String("reason", reason))
		return model.BadRequest, nil
	}

	wanted, missing, err := r.tags.resolve(tx, in.Tags)
	if err != nil {
		return 0, err
	}
	if len(missing) > 0 {
		r.logger.Info("work item update rejected", zap.Int64("id", in.ID), zap.Strings("tags", missing), zap.String("reason", "unknown tags"))
		return model.BadRequest, nil
	}

	if r.strict && !item.State.CanTransitionTo(in.State) {
		r.logger.Info("work item transition refused",
			zap.Int64("id", in.ID),
			zap.Stringer("from", item.State),
			zap.Stringer("to", in.State),
		)
		return model.Conflict, nil
	}

	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.AssignedUserID != nil {
		item.AssignedUserID = in.AssignedUserID
	}
	if item.State != in.State {
		item.State = in.State
		item.StateUpdatedAt = r.stamp(item)
	}
	if err := tx.SaveWorkItem(item); err != nil {
		return 0, err
	}

	attach, detach := reconcileTags(item.Tags, wanted)
	for _, tag := range detach {
		if err := tx.DetachTag(item.ID, tag.ID); err != nil {
			return 0, err
		}
	}
	for _, tag := range attach {
		if err := tx.AttachTag(item.ID, tag.ID); err != nil {
			return 0, err
		}
	}
	return model.Updated, nil
}

func (r *WorkItemRepository) logUpdate(in model.WorkItemUpdate, from model.State, response model.Response) {
	if response == model.Updated {
		r.logger.Debug("work item updated",
			zap.Int64("id", in.ID),
			zap.Stringer("from", from),
			zap.Stringer("to", in.State),
		)
	}
}

// validateUpdate returns a non-empty reason when in cannot be applied.
func (r *WorkItemRepository) validateUpdate(tx *db.Tx, item *model.WorkItem, in model.WorkItemUpdate) (string, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return "empty title", nil
	}
	if !in.State.IsValid() {
		return "invalid state " + string(in.State), nil
	}
	if in.AssignedUserID != nil && !sameAssignee(item.AssignedUserID, in.AssignedUserID) {
		ok, err := r.users.exists(tx, *in.AssignedUserID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "unknown user", nil
		}
	}
	return "", nil
}

// Delete removes a work item according to its state. New items are deleted
// outright, Active items are moved to Removed, and Resolved, Closed or
// Removed items cannot be deleted.
func (r *WorkItemRepository) Delete(id int64) (model.Response, error) {
	var response model.Response
	var state model.State
	err := r.db.WithTx(func(tx *db.Tx) error {
		item, err := tx.GetWorkItem(id)
		if errors.Is(err, db.ErrNotFound) {
			response = model.NotFound
			return nil
		}
		if err != nil {
			return err
		}
		state = item.State

		if !item.State.Deletable() {
			response = model.Conflict
			return nil
		}
		if item.State == model.StateNew {
			if err := tx.DeleteWorkItem(id); err != nil {
				return err
			}
		} else {
			item.State = model.StateRemoved
			item.StateUpdatedAt = r.stamp(item)
			if err := tx.SaveWorkItem(item); err != nil {
				return err
			}
		}

		response = model.Deleted
		return nil
	})
	if err != nil {
		return 0, err
	}

	if response == model.Conflict {
		r.logger.Info("work item delete refused", zap.Int64("id", id), zap.Stringer("state", state))
	} else {
		r.logger.Debug("work item delete", zap.Int64("id", id), zap.Stringer("state", state), zap.Stringer("response", response))
	}
	return response, nil
}

// CountByState returns the number of work items in each state, including
// zero counts.
func (r *WorkItemRepository) CountByState() (map[model.State]int, error) {
	var counts map[model.State]int
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		counts, err = tx.CountByState()
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, s := range model.States {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return counts, nil
}

// stamp returns the time to record as stateUpdatedAt, never earlier than
// the item's creation.
func (r *WorkItemRepository) stamp(item *model.WorkItem) time.Time {
	now := r.now()
	if now.Before(item.CreatedAt) {
		return item.CreatedAt
	}
	return now
}

// reconcileTags compares tag sets by name and returns the tags to attach and
// the tags to detach so that current becomes wanted.
func reconcileTags(current, wanted []model.Tag) (attach, detach []model.Tag) {
	have := make(map[string]bool, len(current))
	for _, t := range current {
		have[t.Name] = true
	}
	want := make(map[string]bool, len(wanted))
	for _, t := range wanted {
		want[t.Name] = true
		if !have[t.Name] {
			attach = append(attach, t)
		}
	}
	for _, t := range current {
		if !want[t.Name] {
			detach = append(detach, t)
		}
	}
	return attach, detach
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
