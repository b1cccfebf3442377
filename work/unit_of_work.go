// Package work coordinates the writes of one request.
//
// Command handlers queue their writes on a UnitOfWork instead of talking to
// the store. Handlers may call other handlers; only the first handler to
// call Initialize (the root) can commit, so a nested handler never flushes
// a half-built change set.
package work

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gardenlog/docstore"
	"gardenlog/domain"
)

const tracerName = "gardenlog/work"

// UnitOfWork is scoped to a single request and must not be shared between
// goroutines.
type UnitOfWork struct {
	store   *docstore.Store
	logger  *log.Logger
	metrics *Metrics
	tracer  trace.Tracer

	root    string
	pending []Command
	tracked []domain.EventSource
}

type Option func(*UnitOfWork)

func WithLogger(l *log.Logger) Option {
	return func(u *UnitOfWork) {
		if l != nil {
			u.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(u *UnitOfWork) { u.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(u *UnitOfWork) {
		if t != nil {
			u.tracer = t
		}
	}
}

func New(store *docstore.Store, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		store:  store,
		logger: log.StandardLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Initialize records handler as the root unless a root is already set,
// and returns the effective root. Blank names never become root.
func (u *UnitOfWork) Initialize(handler string) string {
	if u.root == "" && strings.TrimSpace(handler) != "" {
		u.root = handler
	}
	return u.root
}

// Root returns the root handler name, empty until Initialize is called.
func (u *UnitOfWork) Root() string { return u.root }

// IsRoot reports whether handler is the root handler.
func (u *UnitOfWork) IsRoot(handler string) bool {
	return u.root != "" && handler == u.root
}

// AddCommand queues cmd. Nothing is executed until commit.
func (u *UnitOfWork) AddCommand(cmd Command) {
	u.pending = append(u.pending, cmd)
}

// Pending returns a copy of the queued commands in execution order.
func (u *UnitOfWork) Pending() []Command {
	out := make([]Command, len(u.pending))
	copy(out, u.pending)
	return out
}

// Queued reports whether a command of kind op for the document is still
// pending.
func (u *UnitOfWork) Queued(op Op, collection, partition, id string) bool {
	for _, c := range u.pending {
		if c.Op == op && c.Collection == collection && c.Partition == partition && c.DocumentID == id {
			return true
		}
	}
	return false
}

// Track remembers src so its events can be dispatched after commit. A
// source is tracked once no matter how often it is passed in.
func (u *UnitOfWork) Track(src domain.EventSource) {
	if src == nil {
		return
	}
	for _, t := range u.tracked {
		if t == src {
			return
		}
	}
	u.tracked = append(u.tracked, src)
}

// Tracked returns the tracked event sources in tracking order.
func (u *UnitOfWork) Tracked() []domain.EventSource {
	out := make([]domain.EventSource, len(u.tracked))
	copy(out, u.tracked)
	return out
}

// Store returns the document store writes are executed against.
func (u *UnitOfWork) Store() *docstore.Store { return u.store }

// SaveChanges commits unconditionally. It is meant for call sites that are
// known to be the only writer of the request.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	return u.commit(ctx, "")
}

// SaveChangesAs commits on behalf of handler. When a root is set and
// handler is not it, the call is rejected: nothing runs, the queue is kept
// and 0 is returned without an error. Callers must read 0 as "not yet
// committed". Without a root the caller is authorized and becomes root.
func (u *UnitOfWork) SaveChangesAs(ctx context.Context, handler string) (int, error) {
	if u.root != "" && (strings.TrimSpace(handler) == "" || handler != u.root) {
		u.metrics.rejected()
		u.logger.WithFields(log.Fields{
			"handler": handler,
			"root":    u.root,
			"pending": len(u.pending),
		}).Warn("unit of work commit rejected: caller is not the root handler")
		return 0, nil
	}
	u.Initialize(handler)
	return u.commit(ctx, handler)
}

// commit runs the queue in order and stops at the first failure. Earlier
// commands stay applied; there is no compensation.
func (u *UnitOfWork) commit(ctx context.Context, handler string) (int, error) {
	ctx, span := u.tracer.Start(ctx, "unit_of_work.commit",
		trace.WithAttributes(
			attribute.String("gardenlog.uow.root", u.root),
			attribute.String("gardenlog.uow.handler", handler),
			attribute.Int("gardenlog.uow.pending", len(u.pending)),
		))
	defer span.End()

	start := time.Now()
	for i, cmd := range u.pending {
		err := errors.New("command has no execute function")
		if cmd.Execute != nil {
			err = cmd.Execute(ctx)
		}
		if err != nil {
			rest := make([]Command, len(u.pending)-i)
			copy(rest, u.pending[i:])
			u.pending = rest

			commitErr := &CommitError{Index: i, Command: cmd, Err: err}
			u.metrics.failed()
			span.SetAttributes(attribute.Int("gardenlog.uow.executed", i))
			span.RecordError(commitErr)
			span.SetStatus(codes.Error, commitErr.Error())
			u.logger.WithFields(log.Fields{
				"handler":  handler,
				"root":     u.root,
				"executed": i,
				"pending":  len(u.pending),
				"command":  cmd.String(),
			}).WithError(err).Error("unit of work commit failed")
			return i, commitErr
		}
		u.metrics.commandExecuted(cmd.Op)
	}

	n := len(u.pending)
	u.pending = nil
	u.metrics.committed(time.Since(start))
	span.SetAttributes(attribute.Int("gardenlog.uow.executed", n))
	span.SetStatus(codes.Ok, "")
	u.logger.WithFields(log.Fields{
		"handler":  handler,
		"root":     u.root,
		"commands": n,
	}).Info("unit of work committed")
	return n, nil
}

// GetCollection returns a typed handle on the named collection of the
// unit of work's store.
func GetCollection[T any](u *UnitOfWork, name string, opts ...docstore.Option[T]) (*docstore.Collection[T], error) {
	return docstore.GetCollection[T](u.store, name, opts...)
}
