// Package engine bundles the per-user storefront state the BFF keeps between
// requests and evicts once a user goes idle.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/mutation"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/orders"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const DefaultIdleTTL = 30 * time.Minute

// Remote is everything the engine needs from the store API.
type Remote interface {
	cart.Remote
	checkout.Remote
	admin.Remote
	catalog.Remote
	orders.Remote
}

type Engine struct {
	Recorder *notify.Recorder
	Cart     *cart.State
	Checkout *checkout.Flow
	Admin    *admin.Editor
	Orders   *orders.History
	Catalog  *catalog.Browser

	lastSeen atomic.Int64
}

func New(remote Remote) *Engine {
	rec := notify.NewRecorder()
	guard := authguard.New(rec, rec)
	exec := mutation.NewExecutor(guard, rec)

	c := cart.New(cart.Deps{Remote: remote, Executor: exec, Guard: guard, Notifier: rec, Navigator: rec})
	return &Engine{
		Recorder: rec,
		Cart:     c,
		Checkout: checkout.New(checkout.Deps{Remote: remote, Cart: c, Executor: exec, Notifier: rec, Navigator: rec}),
		Admin:    admin.New(admin.Deps{Remote: remote, Executor: exec, Guard: guard, Notifier: rec, Navigator: rec}),
		Orders:   orders.NewHistory(remote, guard, rec, rec),
		Catalog:  catalog.NewBrowser(remote, guard),
	}
}

func (e *Engine) touch(now time.Time) { e.lastSeen.Store(now.UnixNano()) }

func (e *Engine) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, e.lastSeen.Load()))
}

// Registry keeps one engine per signed-in user.
type Registry struct {
	remote  Remote
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	engines map[uuid.UUID]*Engine
}

func NewRegistry(remote Remote, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		remote:  remote,
		idleTTL: idleTTL,
		now:     time.Now,
		engines: make(map[uuid.UUID]*Engine),
	}
}

// For returns the user's engine. Anonymous sessions get a throwaway engine so
// their notices never leak into anyone else's responses.
func (r *Registry) For(sess session.Session) *Engine {
	now := r.now()
	if !sess.Authenticated() {
		e := New(r.remote)
		e.touch(now)
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[sess.Identity.UserID]
	if !ok {
		e = New(r.remote)
		r.engines[sess.Identity.UserID] = e
	}
	e.touch(now)
	return e
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

// Sweep drops engines idle for longer than the TTL and reports how many went.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.engines {
		if e.idleSince(now) > r.idleTTL {
			delete(r.engines, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	l := logging.FromContext(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				l.Info("engines_evicted", "count", n, "remaining", r.Len())
			}
		}
	}
}
