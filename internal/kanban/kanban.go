// Package kanban implements the work item lifecycle and the tag and user
// registries that keep a board referentially consistent.
//
// Every mutating operation returns a model.Response describing the domain
// outcome. A non-nil error is reserved for store failures; callers must not
// treat NotFound, Conflict or BadRequest as errors.
package kanban

import (
	"time"

	"go.uber.org/zap"

	"github.com/baiirun/kanban/internal/db"
)

// Board bundles the work item, tag and user repositories over one store.
type Board struct {
	WorkItems *WorkItemRepository
	Tags      *TagRepository
	Users     *UserRepository
}

type options struct {
	logger *zap.Logger
	now    func() time.Time
	strict bool
}

// Option configures a Board.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for createdAt and stateUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStrictTransitions rejects state changes that the transition table does
// not allow. Updates are permissive by default.
func WithStrictTransitions(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// New returns a Board backed by database. The schema must already be migrated.
func New(database *db.DB, opts ...Option) *Board {
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	tags := &TagRepository{db: database, logger: o.logger.Named("tags")}
	users := &UserRepository{db: database, logger: o.logger.Named("users")}
	items := &WorkItemRepository{
		db:     database,
		logger: o.logger.Named("workitems"),
		now:    o.now,
		strict: o.strict,
		tags:   tags,
		users:  users,
	}

	return &Board{WorkItems: items, Tags: tags, Users: users}
}
