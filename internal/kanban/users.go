package kanban

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/baiirun/kanban/internal/db"
	"github.com/baiirun/kanban/internal/model"
)

// UserRepository is the user registry. Email addresses are unique.
type UserRepository struct {
	db     *db.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// Create registers a user. A taken email returns Conflict with the existing
// user's ID.
func (r *UserRepository) Create(name, email string) (model.Response, int64, error) {
	if strings.TrimSpace(email) == "" {
		return model.BadRequest, 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	var id int64
	err := r.db.WithTx(func(tx *db.Tx) error {
		existing, err := tx.GetUserByEmail(email)
		if err == nil {
			response, id = model.Conflict, existing.ID
			return nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		user := &model.User{Name: name, Email: email}
		if err := tx.InsertUser(user); err != nil {
			return err
		}
		response, id = model.Created, user.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	r.logger.Debug("user create", zap.String("email", email), zap.Int64("id", id), zap.Stringer("response", response))
	return response, id, nil
}

// Find returns the user with the given ID.
func (r *UserRepository) Find(id int64) (model.User, bool, error) {
	var user *model.User
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		user, err = tx.GetUser(id)
		return err
	})
	if errors.Is(err, db.ErrNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return *user, true, nil
}

// Read returns every user ordered by ID.
func (r *UserRepository) Read() ([]model.User, error) {
	var users []model.User
	err := r.db.WithTx(func(tx *db.Tx) error {
		var err error
		users, err = tx.ListUsers()
		return err
	})
	return users, err
}

// Update replaces a user's name and email.
func (r *UserRepository) Update(id int64, name, email string) (model.Response, error) {
	if strings.TrimSpace(email) == "" {
		return model.BadRequest, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	err := r.db.WithTx(func(tx *db.Tx) error {
		user, err := tx.GetUser(id)
		if errors.Is(err, db.ErrNotFound) {
			response = model.NotFound
			return nil
		}
		if err != nil {
			return err
		}

		other, err := tx.GetUserByEmail(email)
		switch {
		case err == nil && other.ID != id:
			response = model.Conflict
			return nil
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return err
		}

		user.Name = name
		user.Email = email
		if err := tx.SaveUser(user); err != nil {
			return err
		}
		response = model.Updated
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("user update", zap.Int64("id", id), zap.Stringer("response", response))
	return response, nil
}

// Delete removes a user. Without force the request is a Conflict. With force
// it is a Conflict while the user is assigned to an Active work item;
// otherwise the user is unassigned everywhere and removed.
func (r *UserRepository) Delete(id int64, force bool) (model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var response model.Response
	var unassigned int64
	err := r.db.WithTx(func(tx *db.Tx) error {
		if _, err := tx.GetUser(id); err != nil {
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

		items, err := tx.WorkItemsAssignedTo(id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.State == model.StateActive {
				response = model.Conflict
				return nil
			}
		}

		unassigned, err = tx.UnassignUser(id)
		if err != nil {
			return err
		}
		if err := tx.DeleteUser(id); err != nil {
			return err
		}
		response = model.Deleted
		return nil
	})
	if err != nil {
		return 0, err
	}

	if response == model.Conflict {
		r.logger.Info("user delete refused", zap.Int64("id", id), zap.Bool("force", force))
	} else {
		r.logger.Debug("user delete", zap.Int64("id", id), zap.Int64("unassigned", unassigned), zap.Stringer("response", response))
	}
	return response, nil
}

// exists reports whether a user with the given ID is registered.
func (r *UserRepository) exists(tx *db.Tx, id int64) (bool, error) {
	_, err := tx.GetUser(id)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
