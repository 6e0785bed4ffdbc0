package orders

import (
	"context"
	"errors"
	"slices"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var ErrSignInRequired = errors.New("sign in required")

type Remote interface {
	Orders(ctx context.Context, token string) ([]models.Order, error)
}

type History struct {
	remote    Remote
	guard     *authguard.Guard
	notifier  notify.Notifier
	navigator notify.Navigator
}

func NewHistory(remote Remote, guard *authguard.Guard, n notify.Notifier, nav notify.Navigator) *History {
	return &History{remote: remote, guard: guard, notifier: n, navigator: nav}
}

type Summary struct {
	models.Order
	ShortID   string `json:"shortId"`
	ItemCount int    `json:"itemCount"`
	Terminal  bool   `json:"terminal"`
}

// ShortID is the last eight characters of the order id, as shown to customers.
func ShortID(o models.Order) string {
	s := o.ID.String()
	return s[len(s)-8:]
}

func summarize(o models.Order) Summary {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return Summary{Order: o, ShortID: ShortID(o), ItemCount: n, Terminal: o.Status.IsTerminal()}
}

// Load lists the session's orders, newest first. An anonymous session gets the
// logged-out notice and a trip to sign in, like an expired one.
func (h *History) Load(ctx context.Context, sess session.Session) ([]Summary, error) {
	if !sess.Authenticated() {
		h.notifier.Notify(authguard.UnauthorizedNotice)
		h.navigator.Navigate(sess.SignIn(), authguard.SignInDelay)
		return nil, ErrSignInRequired
	}

	list, err := h.remote.Orders(ctx, sess.Token)
	if err != nil {
		logging.FromContext(ctx).Warn("load_orders_failed", "error", err)
		return nil, h.guard.Handle(err, sess.SignIn(), notify.Failure("load orders"))
	}

	slices.SortStableFunc(list, func(a, b models.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	out := make([]Summary, 0, len(list))
	for _, o := range list {
		out = append(out, summarize(o))
	}
	return out, nil
}
