package kanban

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/baiirun/kanban/internal/db"
	"github.com/baiirun/kanban/internal/model"
)

// TagRepository is the tag registry. Tag names are unique; the check and the
// insert happen under mu so concurrent creates cannot both succeed.
type TagRepository struct {
	db     *db.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// Create registers a tag. A taken name returns Conflict with the existing
// tag's ID.
func (r *TagRepository) Create(name string) (model.Response, int64, error) {
	if strings.TrimSpace(name) == "" {
		return model.BadRequest, 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	var id int64
	err := r.db.WithTx(func(tx *db.Tx) error {
		existing, err := tx.GetTagByName(name)
		if err == nil {
			response, id = model.Conflict, existing.ID
			return nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		tag := &model.Tag{Name: name}
		if err := tx.InsertTag(tag); err != nil {
			return err
		}
		response, id = model.Created, tag.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	r.logger.Debug("tag create", zap.String("name", name), zap.Int64("id", id), zap.Stringer("response", response))
	return response, id, nil
}

// Find returns the tag with the given ID.
func (r *TagRepository) Find(id int64) (model.Tag, bool, error) {
	return r.find(func(tx *db.Tx) (*model.Tag, error) { return tx.GetTag(id) })
}

// FindByName returns the tag with the given name.
func (r *TagRepository) FindByName(name string) (model.Tag, bool, error) {
	return r.find(func(tx *db.Tx) (*model.Tag, error) { return tx.GetTagByName(name) })
}

func (r *TagRepository) find(get func(tx *db.Tx) (*model.Tag, error)) (model.Tag, bool, error) {
	var tag *model.Tag
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		tag, err = get(tx)
		return err
	})
	if errors.Is(err, db.ErrNotFound) {
		return model.Tag{}, false, nil
	}
	if err != nil {
		return model.Tag{}, false, err
	}
	return *tag, true, nil
}

// Read returns every tag ordered by ID.
func (r *TagRepository) Read() ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		tags, err = tx.ListTags()
		return err
	})
	return tags, err
}

// Update renames a tag. Renaming to a name held by another tag is a Conflict.
func (r *TagRepository) Update(id int64, name string) (model.Response, error) {
	if strings.TrimSpace(name) == "" {
		return model.BadRequest, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	err := r.db.WithTx(func(tx *db.Tx) error {
		if _, err := tx.GetTag(id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				response = model.NotFound
				return nil
			}
			return err
		}

		other, err := tx.GetTagByName(name)
		switch {
		case err == nil && other.ID != id:
			response = model.Conflict
			return nil
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return err
		}

		if err := tx.RenameTag(id, name); err != nil {
			return err
		}
		response = model.Updated
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("tag update", zap.Int64("id", id), zap.String("name", name), zap.Stringer("response", response))
	return response, nil
}

// Delete removes a tag. Without force the request is always a Conflict.
// With force it is a Conflict while any Active work item carries the tag;
// otherwise the tag is detached from every work item and removed.
func (r *TagRepository) Delete(id int64, force bool) (model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	var detached int64
	err := r.db.WithTx(func(tx *db.Tx) error {
		if _, err := tx.GetTag(id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				response = model.NotFound
				return nil
			}
			return err
		}

		if !force {
			response = model.Conflict
			return nil
		}

		items, err := tx.WorkItemsWithTag(id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.State == model.StateActive {
				response = model.Conflict
				return nil
			}
		}

		detached, err = tx.DetachTagEverywhere(id)
		if err != nil {
			return err
		}
		if err := tx.DeleteTag(id); err != nil {
			return err
		}
		response = model.Deleted
		return nil
	})
	if err != nil {
		return 0, err
	}

	if response == model.Conflict {
		r.logger.Info("tag delete refused", zap.Int64("id", id), zap.Bool("force", force))
	} else {
		r.logger.Debug("tag delete", zap.Int64("id", id), zap.Int64("detached", detached), zap.Stringer("response", response))
	}
	return response, nil
}

// resolve maps tag names to registered tags, dropping duplicate names.
// Names with no registered tag are returned in missing.
func (r *TagRepository) resolve(tx *db.Tx, names []string) (tags []model.Tag, missing []string, err error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := tx.GetTagByName(name)
		if errors.Is(err, db.ErrNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tags = append(tags, *tag)
	}
	return tags, missing, nil
}
