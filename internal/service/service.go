package service

import (
	"context"
	"time"

	"kidcoins/internal/apperr"
	"kidcoins/internal/database"
	"kidcoins/internal/events"
	"kidcoins/internal/metrics"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"

	"github.com/sirupsen/logrus"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	ID   int64
	Role models.Role
}

func (a Actor) IsAdmin() bool  { return a.Role == models.RoleAdmin }
func (a Actor) IsParent() bool { return a.Role == models.RoleParent }
func (a Actor) IsChild() bool  { return a.Role == models.RoleChild }

// Options carries the collaborators shared by every service
type Options struct {
	DB      *database.DB
	Logger  *logrus.Logger
	Events  events.Publisher
	Metrics *metrics.Metrics
	// Now defaults to time.Now
	Now func() time.Time
}

// core is embedded by each workflow service
type core struct {
	db      *database.DB
	log     *logrus.Logger
	events  events.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
}

func newCore(opts Options) core {
	c := core{
		db:      opts.DB,
		log:     opts.Logger,
		events:  opts.Events,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.events == nil {
		c.events = events.NoopPublisher{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// inTx runs fn with a store bound to a new transaction
func (c *core) inTx(ctx context.Context, fn func(st *repository.Store) error) error {
	return c.db.WithTx(ctx, func(tx *database.Tx) error {
		return fn(repository.NewStore(tx))
	})
}

// read runs fn with a store bound to the pool
func (c *core) read(ctx context.Context, fn func(st *repository.Store) error) error {
	return c.db.Read(ctx, func(q database.DBTX) error {
		return fn(repository.NewStore(q))
	})
}

// publish sends evt after a successful commit. Failures are logged only.
func (c *core) publish(ctx context.Context, evt events.Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = c.now().UTC()
	}
	if err := c.events.Publish(ctx, evt); err != nil {
		c.metrics.EventFailed()
		c.log.WithError(err).WithField("event", evt.Type).Warn("failed to publish event")
	}
}

// refused records a rejected operation for metrics and passes err through
func (c *core) refused(operation string, err error) error {
	if err != nil {
		c.metrics.Rejected(operation, string(apperr.KindOf(err)))
	}
	return err
}

// appendEntry posts a ledger entry inside the caller's transaction
func (c *core) appendEntry(ctx context.Context, st *repository.Store, entry models.CoinTransaction) (int64, error) {
	id, err := st.Ledger.Append(ctx, entry)
	if err != nil {
		return 0, err
	}
	c.metrics.LedgerAppended(string(entry.Type), entry.Amount)
	return id, nil
}

// lockUser serializes writers for userID and fails with NotFound if the
// user does not exist
func lockUser(ctx context.Context, st *repository.Store, userID int64) error {
	ok, err := st.Users.LockUser(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user %d not found", userID)
	}
	return nil
}

// requireRole fails with Unauthorized unless the actor has one of roles
func requireRole(actor Actor, roles ...models.Role) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return apperr.Unauthorized("this action is not available to %s accounts", actor.Role)
}

// requireChildAccess allows the child itself, an admin, or a linked parent
func requireChildAccess(ctx context.Context, st *repository.Store, actor Actor, childID int64) error {
	if actor.ID == childID || actor.IsAdmin() {
		return nil
	}
	if actor.IsParent() {
		linked, err := st.Families.IsLinked(ctx, actor.ID, childID)
		if err != nil {
			return err
		}
		if linked {
			return nil
		}
	}
	return apperr.Unauthorized("not allowed to access this child")
}

// getChild loads a user and checks it is a child account
func getChild(ctx context.Context, st *repository.Store, childID int64) (*models.User, error) {
	child, err := st.Users.GetUserByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil || child.Role != models.RoleChild {
		return nil, apperr.NotFound("child %d not found", childID)
	}
	return child, nil
}
