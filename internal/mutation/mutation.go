// Package mutation runs remote state-changing calls one at a time per key and
// applies the shared success and failure handling around them.
package mutation

import (
	"context"
	"errors"
	"sync"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var ErrInFlight = errors.New("mutation already in flight")

type Key struct {
	Resource string
	ID       string
}

type Op struct {
	Key     Key
	Failure notify.Notice
	Success *notify.Notice

	// Reload runs after a successful call while the key is still held.
	Reload func(ctx context.Context) error
	// ReloadFailure is emitted when Reload fails; defaults to a generic refresh notice.
	ReloadFailure *notify.Notice

	// Exclusive specs fail with ErrInFlight instead of waiting for the key.
	Exclusive bool
}

type entry struct {
	sem  chan struct{}
	refs int
}

type Executor struct {
	guard    *authguard.Guard
	notifier notify.Notifier

	mu    sync.Mutex
	locks map[Key]*entry
}

func NewExecutor(guard *authguard.Guard, n notify.Notifier) *Executor {
	return &Executor{
		guard:    guard,
		notifier: n,
		locks:    make(map[Key]*entry),
	}
}

// Pending reports whether a mutation holds or waits for key.
func (e *Executor) Pending(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.locks[key]
	return ok && en.refs > 0
}

func (e *Executor) acquire(ctx context.Context, key Key, exclusive bool) (func(), error) {
	e.mu.Lock()
	en, ok := e.locks[key]
	if !ok {
		en = &entry{sem: make(chan struct{}, 1)}
		e.locks[key] = en
	}
	if exclusive && en.refs > 0 {
		e.mu.Unlock()
		return nil, ErrInFlight
	}
	en.refs++
	e.mu.Unlock()

	select {
	case en.sem <- struct{}{}:
	case <-ctx.Done():
		e.unref(key, en)
		return nil, ctx.Err()
	}

	return func() {
		<-en.sem
		e.unref(key, en)
	}, nil
}

func (e *Executor) unref(key Key, en *entry) {
	e.mu.Lock()
	en.refs--
	if en.refs == 0 {
		delete(e.locks, key)
	}
	e.mu.Unlock()
}

// Do dispatches call under op.Key. On success it emits the success notice and
// reloads before releasing the key; on failure the error goes through the auth
// guard, which emits exactly one notice.
func Do[T any](ctx context.Context, e *Executor, sess session.Session, op Op, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	l := logging.FromContext(ctx).With("resource", op.Key.Resource, "id", op.Key.ID)

	release, err := e.acquire(ctx, op.Key, op.Exclusive)
	if err != nil {
		l.Debug("mutation_not_started", "error", err)
		return zero, err
	}
	defer release()

	res, err := call(ctx)
	if err != nil {
		l.Warn("mutation_failed", "error", err)
		return zero, e.guard.Handle(err, sess.SignIn(), op.Failure)
	}

	if op.Success != nil {
		e.notifier.Notify(*op.Success)
	}

	if op.Reload != nil {
		if rerr := op.Reload(ctx); rerr != nil {
			l.Warn("mutation_reload_failed", "error", rerr)
			failure := notify.Failure("refresh")
			if op.ReloadFailure != nil {
				failure = *op.ReloadFailure
			}
			_ = e.guard.Handle(rerr, sess.SignIn(), failure)
		}
	}
	return res, nil
}
