package cart

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mutation"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/snapshot"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const SignInRequiredDelay = time.Second

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrSignInRequired    = errors.New("sign in required")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("quantity exceeds available stock")
	ErrInactive          = errors.New("cart view is not active")
)

var (
	noticeSignIn     = notify.Destructive("Sign in required", "Please sign in to add items to your cart.")
	noticeOutOfStock = notify.Destructive("Out of stock", "This product is currently out of stock.")
	noticeRemoved    = notify.Success("Item removed", "Product has been removed from your cart.")
	noticeLoadFailed = notify.Failure("load cart")
)

type Remote interface {
	Cart(ctx context.Context, token string) ([]models.CartLineItem, error)
	AddToCart(ctx context.Context, token string, productID uuid.UUID, qty int) (models.CartLineItem, error)
	UpdateQuantity(ctx context.Context, token string, lineItemID uuid.UUID, qty int) (models.CartLineItem, error)
	RemoveLineItem(ctx context.Context, token string, lineItemID uuid.UUID) error
}

type Deps struct {
	Remote    Remote
	Executor  *mutation.Executor
	Guard     *authguard.Guard
	Notifier  notify.Notifier
	Navigator notify.Navigator
}

// State is the client-side view of one user's cart.
type State struct {
	remote    Remote
	exec      *mutation.Executor
	guard     *authguard.Guard
	notifier  notify.Notifier
	navigator notify.Navigator

	store  *snapshot.Store[[]models.CartLineItem]
	active atomic.Bool
}

func New(d Deps) *State {
	return &State{
		remote:    d.Remote,
		exec:      d.Executor,
		guard:     d.Guard,
		notifier:  d.Notifier,
		navigator: d.Navigator,
		store:     snapshot.New[[]models.CartLineItem](),
	}
}

func (s *State) Activate()    { s.active.Store(true) }
func (s *State) Deactivate()  { s.active.Store(false) }
func (s *State) Active() bool { return s.active.Load() }

func (s *State) fetch(sess session.Session) snapshot.FetchFunc[[]models.CartLineItem] {
	return func(ctx context.Context) ([]models.CartLineItem, error) {
		items, err := s.remote.Cart(ctx, sess.Token)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.CartLineItem{}
		}
		return items, nil
	}
}

func toSnapshot(v snapshot.Versioned[[]models.CartLineItem]) models.CartSnapshot {
	return models.CartSnapshot{Items: v.Value, Version: v.Version, FetchedAt: v.FetchedAt}
}

// Snapshot returns the latest published cart without waiting for loads.
func (s *State) Snapshot() models.CartSnapshot {
	v, ok := s.store.Current()
	if !ok {
		return models.CartSnapshot{Items: []models.CartLineItem{}}
	}
	return toSnapshot(v)
}

func (s *State) Pricing() pricing.Breakdown {
	return pricing.Calculate(s.Snapshot())
}

func (s *State) ItemCount() int {
	return pricing.ItemCount(s.Snapshot())
}

func (s *State) Pending(lineItemID uuid.UUID) bool {
	return s.exec.Pending(itemKey(lineItemID))
}

// Load fetches the cart for an authenticated session while the cart view is active.
func (s *State) Load(ctx context.Context, sess session.Session) (models.CartSnapshot, error) {
	if !sess.Authenticated() {
		return s.Snapshot(), ErrSignInRequired
	}
	if !s.Active() {
		return s.Snapshot(), ErrInactive
	}
	v, err := s.store.Load(ctx, s.fetch(sess))
	if err != nil {
		logging.FromContext(ctx).Warn("load_cart_failed", "error", err)
		return s.Snapshot(), s.guard.Handle(err, sess.SignIn(), noticeLoadFailed)
	}
	return toSnapshot(v), nil
}

// Refresh drops any in-flight load and fetches again.
func (s *State) Refresh(ctx context.Context, sess session.Session) error {
	_, err := s.store.Invalidate(ctx, s.fetch(sess))
	return err
}

// Reset forgets the published cart, e.g. once the session is gone.
func (s *State) Reset() {
	s.store.Reset()
}

func (s *State) reload(sess session.Session) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.Refresh(ctx, sess)
	}
}

func itemKey(id uuid.UUID) mutation.Key {
	return mutation.Key{Resource: "cart_items", ID: id.String()}
}

func productKey(id uuid.UUID) mutation.Key {
	return mutation.Key{Resource: "cart_products", ID: id.String()}
}

// addKey locks on the existing line when the product is already in the cart,
// since the store merges the add into that line.
func (s *State) addKey(productID uuid.UUID) mutation.Key {
	for _, it := range s.Snapshot().Items {
		if it.ProductID == productID {
			return itemKey(it.ID)
		}
	}
	return productKey(productID)
}

func (s *State) SetQuantity(ctx context.Context, sess session.Session, lineItemID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("set quantity %d: %w", qty, ErrInvalidQuantity)
	}
	_, err := mutation.Do(ctx, s.exec, sess, mutation.Op{
		Key:           itemKey(lineItemID),
		Failure:       notify.Failure("update quantity"),
		Reload:        s.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (models.CartLineItem, error) {
		return s.remote.UpdateQuantity(ctx, sess.Token, lineItemID, qty)
	})
	return err
}

// ChangeQuantity treats a quantity below one as a removal.
func (s *State) ChangeQuantity(ctx context.Context, sess session.Session, lineItemID uuid.UUID, qty int) error {
	if qty < 1 {
		return s.Remove(ctx, sess, lineItemID)
	}
	return s.SetQuantity(ctx, sess, lineItemID, qty)
}

func (s *State) Remove(ctx context.Context, sess session.Session, lineItemID uuid.UUID) error {
	_, err := mutation.Do(ctx, s.exec, sess, mutation.Op{
		Key:           itemKey(lineItemID),
		Failure:       notify.Failure("remove item"),
		Success:       &noticeRemoved,
		Reload:        s.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.remote.RemoveLineItem(ctx, sess.Token, lineItemID)
	})
	return err
}

// Add checks the sign-in and stock guards locally before any remote call.
func (s *State) Add(ctx context.Context, sess session.Session, product models.Product, qty int) error {
	if !sess.Authenticated() {
		s.notifier.Notify(noticeSignIn)
		s.navigator.Navigate(sess.SignIn(), SignInRequiredDelay)
		return ErrSignInRequired
	}
	if !product.InStock() {
		s.notifier.Notify(noticeOutOfStock)
		return fmt.Errorf("add %s: %w", product.ID, ErrOutOfStock)
	}
	if qty < 1 {
		return fmt.Errorf("add quantity %d: %w", qty, ErrInvalidQuantity)
	}
	if qty > product.Stock {
		return fmt.Errorf("add quantity %d of %d in stock: %w", qty, product.Stock, ErrInsufficientStock)
	}

	added := notify.Success("Added to cart", product.Name+" has been added to your cart.")
	_, err := mutation.Do(ctx, s.exec, sess, mutation.Op{
		Key:           s.addKey(product.ID),
		Failure:       notify.Failure("add product to cart"),
		Success:       &added,
		Reload:        s.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (models.CartLineItem, error) {
		return s.remote.AddToCart(ctx, sess.Token, product.ID, qty)
	})
	return err
}
