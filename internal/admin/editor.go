package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/authguard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mutation"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/snapshot"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	DeletePrompt = "Are you sure you want to delete this product?"
	HomePath     = "/"
)

var (
	ErrAdminRequired = errors.New("admin access required")
	ErrNotConfirmed  = errors.New("deletion not confirmed")
	ErrNotFound      = errors.New("product not found")
)

var (
	noticeAccessDenied = notify.Destructive("Access Denied", "Admin access required.")
	noticeCreated      = notify.Success("Product created", "Product has been successfully created.")
	noticeUpdated      = notify.Success("Product updated", "Product has been successfully updated.")
	noticeDeleted      = notify.Success("Product deleted", "Product has been successfully deleted.")
	noticeLoadFailed   = notify.Failure("load products")
)

type Remote interface {
	Products(ctx context.Context, token string, category models.Category) ([]models.Product, error)
	CreateProduct(ctx context.Context, token string, in models.ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, token string, id uuid.UUID, in models.ProductInput) (models.Product, error)
	DeleteProduct(ctx context.Context, token string, id uuid.UUID) error
}

type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Deps struct {
	Remote    Remote
	Executor  *mutation.Executor
	Guard     *authguard.Guard
	Notifier  notify.Notifier
	Navigator notify.Navigator
}

type Editor struct {
	remote    Remote
	exec      *mutation.Executor
	guard     *authguard.Guard
	notifier  notify.Notifier
	navigator notify.Navigator

	catalog *snapshot.Store[[]models.Product]
}

func New(d Deps) *Editor {
	return &Editor{
		remote:    d.Remote,
		exec:      d.Executor,
		guard:     d.Guard,
		notifier:  d.Notifier,
		navigator: d.Navigator,
		catalog:   snapshot.New[[]models.Product](),
	}
}

// Gate rejects non-admin sessions with the access denied notice and a trip home.
func (e *Editor) Gate(sess session.Session) error {
	if sess.Admin() {
		return nil
	}
	e.notifier.Notify(noticeAccessDenied)
	e.navigator.Navigate(HomePath, 0)
	return ErrAdminRequired
}

func (e *Editor) fetch(sess session.Session) snapshot.FetchFunc[[]models.Product] {
	return func(ctx context.Context) ([]models.Product, error) {
		return e.remote.Products(ctx, sess.Token, models.CategoryAll)
	}
}

// Catalog returns the last loaded product list without waiting for a load.
func (e *Editor) Catalog() []models.Product {
	v, ok := e.catalog.Current()
	if !ok {
		return nil
	}
	return v.Value
}

func (e *Editor) Products(ctx context.Context, sess session.Session) ([]models.Product, error) {
	if err := e.Gate(sess); err != nil {
		return nil, err
	}
	v, err := e.catalog.Load(ctx, e.fetch(sess))
	if err != nil {
		logging.FromContext(ctx).Warn("load_products_failed", "error", err)
		return e.Catalog(), e.guard.Handle(err, sess.SignIn(), noticeLoadFailed)
	}
	return v.Value, nil
}

// EditForm pre-fills the editor with the product as last loaded.
func (e *Editor) EditForm(ctx context.Context, sess session.Session, id uuid.UUID) (ProductForm, error) {
	products, err := e.Products(ctx, sess)
	if err != nil {
		return ProductForm{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return FormFromProduct(p), nil
		}
	}
	return ProductForm{}, fmt.Errorf("edit %s: %w", id, ErrNotFound)
}

func (e *Editor) reload(sess session.Session) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := e.catalog.Invalidate(ctx, e.fetch(sess))
		return err
	}
}

func productKey(id string) mutation.Key {
	return mutation.Key{Resource: "products", ID: id}
}

func (e *Editor) Create(ctx context.Context, sess session.Session, form ProductForm) (models.Product, error) {
	if err := e.Gate(sess); err != nil {
		return models.Product{}, err
	}
	in, err := form.Validate()
	if err != nil {
		return models.Product{}, err
	}
	return mutation.Do(ctx, e.exec, sess, mutation.Op{
		Key:           productKey("new"),
		Failure:       notify.Failure("create product"),
		Success:       &noticeCreated,
		Reload:        e.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (models.Product, error) {
		return e.remote.CreateProduct(ctx, sess.Token, in)
	})
}

func (e *Editor) Update(ctx context.Context, sess session.Session, id uuid.UUID, form ProductForm) (models.Product, error) {
	if err := e.Gate(sess); err != nil {
		return models.Product{}, err
	}
	in, err := form.Validate()
	if err != nil {
		return models.Product{}, err
	}
	return mutation.Do(ctx, e.exec, sess, mutation.Op{
		Key:           productKey(id.String()),
		Failure:       notify.Failure("update product"),
		Success:       &noticeUpdated,
		Reload:        e.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (models.Product, error) {
		return e.remote.UpdateProduct(ctx, sess.Token, id, in)
	})
}

func (e *Editor) Delete(ctx context.Context, sess session.Session, id uuid.UUID, c Confirmer) error {
	if err := e.Gate(sess); err != nil {
		return err
	}
	if c == nil || !c.Confirm(DeletePrompt) {
		return fmt.Errorf("delete %s: %w", id, ErrNotConfirmed)
	}
	_, err := mutation.Do(ctx, e.exec, sess, mutation.Op{
		Key:           productKey(id.String()),
		Failure:       notify.Failure("delete product"),
		Success:       &noticeDeleted,
		Reload:        e.reload(sess),
		ReloadFailure: &noticeLoadFailed,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.remote.DeleteProduct(ctx, sess.Token, id)
	})
	return err
}

func (e *Editor) Pending(id uuid.UUID) bool {
	return e.exec.Pending(productKey(id.String()))
}

type Stats struct {
	TotalProducts  int             `json:"totalProducts"`
	ActiveProducts int             `json:"activeProducts"`
	OutOfStock     int             `json:"outOfStock"`
	LowStock       int             `json:"lowStock"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

// DashboardStats summarises a product list. Low stock counts products that are
// in stock but below models.LowStockThreshold.
func DashboardStats(products []models.Product) Stats {
	s := Stats{TotalProducts: len(products), InventoryValue: decimal.Zero}
	for _, p := range products {
		if p.IsActive {
			s.ActiveProducts++
		}
		switch {
		case p.Stock <= 0:
			s.OutOfStock++
		case p.LowStock():
			s.LowStock++
		}
		s.InventoryValue = s.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	s.InventoryValue = s.InventoryValue.Round(2)
	return s
}
