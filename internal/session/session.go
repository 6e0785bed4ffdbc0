package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const DefaultSignInURL = "/api/login"

type Identity struct {
	UserID  uuid.UUID `json:"userId"`
	IsAdmin bool      `json:"isAdmin"`
}

// Session is passed explicitly to every engine operation. The zero value is anonymous.
type Session struct {
	Identity  *Identity
	Token     string
	SignInURL string
}

func Anonymous(signInURL string) Session {
	return Session{SignInURL: signInURL}
}

func (s Session) Authenticated() bool {
	return s.Identity != nil && s.Identity.UserID != uuid.Nil
}

func (s Session) Admin() bool {
	return s.Authenticated() && s.Identity.IsAdmin
}

func (s Session) SignIn() string {
	if s.SignInURL == "" {
		return DefaultSignInURL
	}
	return s.SignInURL
}

var ErrInvalidSubject = errors.New("token subject is not a user id")

// FromToken verifies an access token and builds the session it describes.
func FromToken(token string, secret []byte, signInURL string) (Session, error) {
	claims, err := tokens.AccessClaimsFromToken(token, secret)
	if err != nil {
		return Anonymous(signInURL), err
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Anonymous(signInURL), fmt.Errorf("%w: %v", ErrInvalidSubject, err)
	}
	return Session{
		Identity:  &Identity{UserID: uid, IsAdmin: claims.IsAdmin()},
		Token:     token,
		SignInURL: signInURL,
	}, nil
}
