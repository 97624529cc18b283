package products

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-seller-dashboard/sellerapi"
	"github.com/jrsteele09/go-seller-dashboard/sessions"
)

// CredentialSource yields the bearer credential for the session in a jar, or
// ErrAuthRequired when there is none.
type CredentialSource interface {
	AccessToken(ctx context.Context, jar sessions.Jar) (string, error)
}

type API interface {
	Get(ctx context.Context, accessToken, path string, out any) error
}

var (
	_ CredentialSource = (*sessions.Client)(nil)
	_ API              = (*sellerapi.Client)(nil)
)

type activeProducts struct {
	Products []Product `json:"products"`
}

// Loader reads a seller's active products through their cache.
type Loader struct {
	creds  CredentialSource
	api    API
	store  *Store
	maxAge time.Duration
}

type LoaderOption func(*Loader)

// WithMaxAge sets how long a loaded list is served without refetching.
func WithMaxAge(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.maxAge = d
	}
}

func NewLoader(creds CredentialSource, api API, store *Store, options ...LoaderOption) (*Loader, error) {
	if creds == nil {
		return nil, errors.New("[NewLoader] credential source is required")
	}
	if api == nil {
		return nil, errors.New("[NewLoader] business api is required")
	}
	if store == nil {
		store = NewStore()
	}
	l := &Loader{creds: creds, api: api, store: store, maxAge: 5 * time.Minute}
	for _, opt := range options {
		opt(l)
	}
	return l, nil
}

func (l *Loader) Store() *Store {
	return l.store
}

// List returns the seller's active products, served from the cache while it
// is fresh. A session credential is required even for a cached list.
func (l *Loader) List(ctx context.Context, jar sessions.Jar, sellerID string) ([]Product, error) {
	token, err := l.creds.AccessToken(ctx, jar)
	if err != nil {
		return nil, err
	}
	c := l.store.For(sellerID)
	if c.Fresh(l.maxAge) {
		list, _ := c.Snapshot()
		return list, nil
	}
	return l.fetch(ctx, token, sellerID)
}

// Unchanged reports whether the seller's cached list is fresh and still at revision.
func (l *Loader) Unchanged(sellerID string, revision uint64) bool {
	c := l.store.For(sellerID)
	return c.Fresh(l.maxAge) && c.Revision() == revision
}

// Refetch loads the list from the business API. When a later load was begun
// meanwhile, the cached state (not this response) is returned.
func (l *Loader) Refetch(ctx context.Context, jar sessions.Jar, sellerID string) ([]Product, error) {
	token, err := l.creds.AccessToken(ctx, jar)
	if err != nil {
		return nil, err
	}
	return l.fetch(ctx, token, sellerID)
}

func (l *Loader) fetch(ctx context.Context, token, sellerID string) ([]Product, error) {
	c := l.store.For(sellerID)
	gen := c.BeginLoad()
	var payload activeProducts
	if err := l.api.Get(ctx, token, sellerapi.PathActiveProducts, &payload); err != nil {
		c.AbortLoad(gen)
		return nil, sellerapi.AuthRequired(err)
	}
	c.CompleteLoad(gen, payload.Products)

	list, loaded := c.Snapshot()
	if !loaded {
		// Superseded before any load finished; this response is the best view.
		return activeOnly(payload.Products), nil
	}
	return list, nil
}

func activeOnly(list []Product) []Product {
	out := make([]Product, 0, len(list))
	for _, p := range list {
		out = Reconcile(out, Change{Type: EventInsert, Product: p})
	}
	return out
}
