// Package authguard decides whether a failed remote operation means the session
// is gone. It runs before any operation-specific failure handling.
package authguard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/storefront/internal/notify"
)

const SignInDelay = 500 * time.Millisecond

var (
	ErrSessionExpired = errors.New("session expired")
	ErrOperation      = errors.New("operation failed")
)

var UnauthorizedNotice = notify.Destructive("Unauthorized", "You are logged out. Logging in again...")

type Class int

const (
	Other Class = iota
	Unauthorized
)

// StatusCoder is implemented by remote errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

func Classify(err error) Class {
	if err == nil {
		return Other
	}
	if errors.Is(err, ErrSessionExpired) {
		return Unauthorized
	}
	var sc StatusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() == http.StatusUnauthorized {
		return Unauthorized
	}
	return Other
}

type Guard struct {
	notifier  notify.Notifier
	navigator notify.Navigator
}

func New(n notify.Notifier, nav notify.Navigator) *Guard {
	return &Guard{notifier: n, navigator: nav}
}

// Handle emits exactly one notice for err: the unauthorized notice plus a
// redirect to signInURL, or the operation's own failure notice.
func (g *Guard) Handle(err error, signInURL string, failure notify.Notice) error {
	if err == nil {
		return nil
	}
	if Classify(err) == Unauthorized {
		g.notifier.Notify(UnauthorizedNotice)
		g.navigator.Navigate(signInURL, SignInDelay)
		if errors.Is(err, ErrSessionExpired) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	g.notifier.Notify(failure)
	if errors.Is(err, ErrOperation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOperation, err)
}
