package orders

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
)

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

type fakeRemote struct {
	orders []models.Order
	err    error
	calls  int
}

func (f *fakeRemote) Orders(ctx context.Context, token string) ([]models.Order, error) {
	f.calls++
	return f.orders, f.err
}

func newHistory(r *fakeRemote) (*History, *notify.Recorder) {
	rec := notify.NewRecorder()
	return NewHistory(r, authguard.New(rec, rec), rec, rec), rec
}

func signedIn() session.Session {
	return session.Session{Identity: &session.Identity{UserID: uuid.New()}, Token: "tok", SignInURL: "/api/login"}
}

func TestLoadNewestFirst(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	older := models.Order{ID: uuid.New(), Status: models.OrderDelivered, CreatedAt: base,
		Items: []models.OrderItem{{Quantity: 2}, {Quantity: 1}}}
	newer := models.Order{ID: uuid.New(), Status: models.OrderPending, CreatedAt: base.Add(time.Hour)}
	h, _ := newHistory(&fakeRemote{orders: []models.Order{older, newer}})

	got, err := h.Load(context.Background(), signedIn())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.False(t, got[0].Terminal)
	assert.True(t, got[1].Terminal)
	assert.Equal(t, 3, got[1].ItemCount)
	assert.Len(t, got[1].ShortID, 8)
	assert.Equal(t, older.ID.String()[28:], got[1].ShortID)
}

func TestLoadAnonymous(t *testing.T) {
	t.Parallel()
	r := &fakeRemote{}
	h, rec := newHistory(r)

	_, err := h.Load(context.Background(), session.Anonymous("/api/login"))
	require.ErrorIs(t, err, ErrSignInRequired)
	assert.Equal(t, 0, r.calls)
	notices, redirect := rec.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, authguard.UnauthorizedNotice, notices[0])
	require.NotNil(t, redirect)
	assert.EqualValues(t, 500, redirect.AfterMs)
}

func TestLoadFailure(t *testing.T) {
	t.Parallel()
	h, rec := newHistory(&fakeRemote{err: statusErr(http.StatusInternalServerError)})

	_, err := h.Load(context.Background(), signedIn())
	require.ErrorIs(t, err, authguard.ErrOperation)
	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Failed to load orders. Please try again.", notices[0].Description)
}
