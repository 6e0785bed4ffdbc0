package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	wire "github.com/Skotchmaster/storefront/internal/models"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/cache"
	"github.com/Skotchmaster/storefront/services/storeapi/internal/repo"
)

type recordedEvent struct {
	Topic string
	Key   string
	Type  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(events.Event)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Type: ev.Type})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memCache keeps carts in memory and counts invalidations.
type memCache struct {
	mu      sync.Mutex
	carts   map[uuid.UUID][]wire.CartLineItem
	deletes map[uuid.UUID]int
}

func newMemCache() *memCache {
	return &memCache{carts: map[uuid.UUID][]wire.CartLineItem{}, deletes: map[uuid.UUID]int{}}
}

func (c *memCache) Get(_ context.Context, userID uuid.UUID) ([]wire.CartLineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return items, nil
}

func (c *memCache) Set(_ context.Context, userID uuid.UUID, items []wire.CartLineItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carts[userID] = items
	return nil
}

func (c *memCache) Delete(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, userID)
	c.deletes[userID]++
	return nil
}

func (c *memCache) cached(userID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.carts[userID]
	return ok
}

type fixture struct {
	repo    *repo.GormRepo
	cache   *memCache
	events  *fakePublisher
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := pkgdb.Open(context.Background(), pkgdb.Options{SQLitePath: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))

	f := &fixture{repo: r, cache: newMemCache(), events: &fakePublisher{}}
	f.catalog = &CatalogService{Repo: r, Cache: f.cache, Events: f.events}
	f.cart = &CartService{Repo: r, Cache: f.cache, Events: f.events}
	f.orders = &OrderService{Repo: r, Cache: f.cache, Events: f.events}
	return f
}
