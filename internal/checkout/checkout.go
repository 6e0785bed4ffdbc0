package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mutation"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	ContinueShoppingPath = "/"
	OrderPlacedPath      = "/profile"
)

var (
	ErrSignInRequired     = errors.New("sign in required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrShippingIncomplete = errors.New("shipping address is incomplete")
	ErrInvalidTransition  = errors.New("invalid checkout step transition")
	ErrSubmitInFlight     = errors.New("order submission already in flight")
)

var (
	noticeMissingInfo = notify.Destructive("Missing information", "Please fill in all required fields.")
	noticeLoadFailed  = notify.Failure("load cart")
)

type Remote interface {
	CreateOrder(ctx context.Context, token, idempotencyKey string, req models.CreateOrderRequest) (models.Order, error)
}

// Cart is the part of cart state checkout reads from and refreshes.
type Cart interface {
	Snapshot() models.CartSnapshot
	Refresh(ctx context.Context, sess session.Session) error
}

type Deps struct {
	Remote    Remote
	Cart      Cart
	Executor  *mutation.Executor
	Notifier  notify.Notifier
	Navigator notify.Navigator
}

type Flow struct {
	remote    Remote
	cart      Cart
	exec      *mutation.Executor
	notifier  notify.Notifier
	navigator notify.Navigator

	mu       sync.Mutex
	step     Step
	shipping models.ShippingAddress
	order    *models.Order

	idemKey     string
	idemVersion uint64

	newKey func() string
}

func New(d Deps) *Flow {
	return &Flow{
		remote:    d.Remote,
		cart:      d.Cart,
		exec:      d.Executor,
		notifier:  d.Notifier,
		navigator: d.Navigator,
		step:      StepShipping,
		shipping:  models.NewShippingAddress(),
		newKey:    uuid.NewString,
	}
}

type View struct {
	Step          Step                   `json:"step"`
	Shipping      models.ShippingAddress `json:"shipping"`
	ShippingValid bool                   `json:"shippingValid"`
	Submitting    bool                   `json:"submitting"`
	Order         *models.Order          `json:"order,omitempty"`
}

func (f *Flow) View(sess session.Session) View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		Step:          f.step,
		Shipping:      f.shipping,
		ShippingValid: f.shipping.Complete(),
		Submitting:    f.Submitting(sess),
		Order:         f.order,
	}
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func submitKey(sess session.Session) mutation.Key {
	id := ""
	if sess.Identity != nil {
		id = sess.Identity.UserID.String()
	}
	return mutation.Key{Resource: "orders", ID: id}
}

// Submitting reports whether an order submission is outstanding; the UI disables
// the place-order control while it is.
func (f *Flow) Submitting(sess session.Session) bool {
	return f.exec.Pending(submitKey(sess))
}

// Enter starts or resumes checkout. A completed checkout starts over.
func (f *Flow) Enter(sess session.Session, snap models.CartSnapshot) error {
	if !sess.Authenticated() {
		f.navigator.Navigate(sess.SignIn(), 0)
		return ErrSignInRequired
	}

	f.mu.Lock()
	if f.step == StepComplete {
		f.resetLocked()
	}
	f.mu.Unlock()

	if snap.Empty() {
		f.navigator.Navigate(ContinueShoppingPath, 0)
		return ErrEmptyCart
	}
	return nil
}

func (f *Flow) resetLocked() {
	f.step = StepShipping
	f.shipping = models.NewShippingAddress()
	f.order = nil
	f.idemKey, f.idemVersion = "", 0
}

func (f *Flow) SetShipping(addr models.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepComplete {
		return fmt.Errorf("set shipping after completion: %w", ErrInvalidTransition)
	}
	f.shipping = addr
	return nil
}

func (f *Flow) IsShippingValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shipping.Complete()
}

func (f *Flow) Next() (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Review moves on only through Submit.
	to := f.step + 1
	if to == StepComplete || !CanTransitionTo(f.step, to) {
		return f.step, fmt.Errorf("next from %s: %w", f.step, ErrInvalidTransition)
	}
	if f.step == StepShipping && !f.shipping.Complete() {
		f.notifier.Notify(noticeMissingInfo)
		return f.step, ErrShippingIncomplete
	}
	f.step = to
	return f.step, nil
}

func (f *Flow) Back() (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	to := f.step - 1
	if !CanTransitionTo(f.step, to) {
		return f.step, fmt.Errorf("back from %s: %w", f.step, ErrInvalidTransition)
	}
	f.step = to
	return f.step, nil
}

// idempotencyKeyLocked keeps one key per cart version so retries of the same
// submission are recognised by the store API.
func (f *Flow) idempotencyKeyLocked(version uint64) string {
	if f.idemKey == "" || f.idemVersion != version {
		f.idemKey = f.newKey()
		f.idemVersion = version
	}
	return f.idemKey
}

func orderItems(snap models.CartSnapshot) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, models.OrderItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			Price:     it.Product.Price,
		})
	}
	return items
}

// Submit places the order from the cart as it is at this moment.
func (f *Flow) Submit(ctx context.Context, sess session.Session) (models.Order, error) {
	l := logging.FromContext(ctx)

	f.mu.Lock()
	if !CanTransitionTo(f.step, StepComplete) {
		step := f.step
		f.mu.Unlock()
		return models.Order{}, fmt.Errorf("submit from %s: %w", step, ErrInvalidTransition)
	}
	shipping := f.shipping
	f.mu.Unlock()

	snap := f.cart.Snapshot()
	if snap.Empty() {
		return models.Order{}, ErrEmptyCart
	}
	if !shipping.Complete() {
		f.notifier.Notify(noticeMissingInfo)
		return models.Order{}, ErrShippingIncomplete
	}

	if f.Submitting(sess) {
		return models.Order{}, ErrSubmitInFlight
	}

	f.mu.Lock()
	key := f.idempotencyKeyLocked(snap.Version)
	f.mu.Unlock()

	req := models.CreateOrderRequest{ShippingAddress: shipping, Items: orderItems(snap)}

	order, err := mutation.Do(ctx, f.exec, sess, mutation.Op{
		Key:       submitKey(sess),
		Failure:   notify.Failure("place order"),
		Exclusive: true,
		Reload: func(ctx context.Context) error {
			return f.cart.Refresh(ctx, sess)
		},
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (models.Order, error) {
		return f.remote.CreateOrder(ctx, sess.Token, key, req)
	})
	if errors.Is(err, mutation.ErrInFlight) {
		return models.Order{}, ErrSubmitInFlight
	}
	if err != nil {
		l.Warn("place_order_failed", "idempotency_key", key, "error", err)
		return models.Order{}, err
	}

	f.mu.Lock()
	f.step = StepComplete
	f.order = &order
	f.idemKey, f.idemVersion = "", 0
	f.mu.Unlock()

	l.Info("order_placed", "order_id", order.ID, "items", len(req.Items))
	f.notifier.Notify(notify.Success(
		"Order placed successfully!",
		fmt.Sprintf("Your order #%s has been placed and is being processed.", order.ID),
	))
	f.navigator.Navigate(OrderPlacedPath, 0)
	return order, nil
}
