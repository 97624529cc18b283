package products_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-seller-dashboard/products"
	"github.com/stretchr/testify/require"
)

func TestCacheBuffersEventsBeforeFirstLoad(t *testing.T) {
	c := products.NewCache()

	require.False(t, c.Apply(products.Change{Type: products.EventInsert, Product: product("c", "active", "")}))
	require.False(t, c.Apply(products.Change{Type: products.EventDelete, Product: products.Product{ID: "a"}}))
	list, loaded := c.Snapshot()
	require.False(t, loaded)
	require.Empty(t, list)

	gen := c.BeginLoad()
	require.True(t, c.CompleteLoad(gen, []products.Product{product("a", "active", ""), product("b", "active", "")}))

	list, loaded = c.Snapshot()
	require.True(t, loaded)
	require.Equal(t, []string{"b", "c"}, ids(list))
}

func TestCacheReplaysEventsReceivedDuringLoad(t *testing.T) {
	c := products.NewCache()
	c.CompleteLoad(c.BeginLoad(), []products.Product{product("a", "active", "")})

	gen := c.BeginLoad()
	// Deleted after the server built its response.
	require.True(t, c.Apply(products.Change{Type: products.EventDelete, Product: products.Product{ID: "a"}}))
	require.True(t, c.CompleteLoad(gen, []products.Product{product("a", "active", "")}))

	list, _ := c.Snapshot()
	require.Empty(t, list)
}

func TestCacheLastIssuedLoadWins(t *testing.T) {
	c := products.NewCache()
	first := c.BeginLoad()
	second := c.BeginLoad()

	require.True(t, c.CompleteLoad(second, []products.Product{product("new", "active", "")}))
	require.False(t, c.CompleteLoad(first, []products.Product{product("old", "active", "")}))

	list, _ := c.Snapshot()
	require.Equal(t, []string{"new"}, ids(list))
}

func TestCacheIgnoresOlderVersions(t *testing.T) {
	c := products.NewCache()
	c.CompleteLoad(c.BeginLoad(), []products.Product{product("a", "active", "2026-03-01T12:00:00Z")})

	older := product("a", "archived", "2026-03-01T11:00:00Z")
	c.Apply(products.Change{Type: products.EventUpdate, Product: older})
	list, _ := c.Snapshot()
	require.Equal(t, []string{"a"}, ids(list))

	newer := product("a", "archived", "2026-03-01T13:00:00.123456+00:00")
	c.Apply(products.Change{Type: products.EventUpdate, Product: newer})
	list, _ = c.Snapshot()
	require.Empty(t, list)
}

func TestCacheAbortKeepsList(t *testing.T) {
	c := products.NewCache()
	c.CompleteLoad(c.BeginLoad(), []products.Product{product("a", "active", "")})
	rev := c.Revision()

	c.AbortLoad(c.BeginLoad())
	list, loaded := c.Snapshot()
	require.True(t, loaded)
	require.Equal(t, []string{"a"}, ids(list))
	require.Equal(t, rev, c.Revision())
}

func TestCacheFreshness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := products.NewStore(products.WithNowTime(func() time.Time { return now }))
	c := store.For("s1")
	require.False(t, c.Fresh(time.Minute))

	c.CompleteLoad(c.BeginLoad(), nil)
	require.True(t, c.Fresh(time.Minute))

	now = now.Add(2 * time.Minute)
	require.False(t, c.Fresh(time.Minute))

	c.CompleteLoad(c.BeginLoad(), nil)
	c.MarkStale()
	require.False(t, c.Fresh(time.Minute))
}

func TestCachePendingLimitMarksStale(t *testing.T) {
	store := products.NewStore(products.WithPendingLimit(2))
	c := store.For("s1")
	c.CompleteLoad(c.BeginLoad(), nil)
	gen := c.BeginLoad()
	for _, id := range []string{"a", "b", "c"} {
		c.Apply(products.Change{Type: products.EventInsert, Product: product(id, "active", "")})
	}
	require.False(t, c.Fresh(time.Hour))

	// The replay lost "a", so the installed list stays stale.
	require.True(t, c.CompleteLoad(gen, nil))
	require.False(t, c.Fresh(time.Hour))

	list := []products.Product{product("a", "active", ""), product("b", "active", ""), product("c", "active", "")}
	require.True(t, c.CompleteLoad(c.BeginLoad(), list))
	require.True(t, c.Fresh(time.Hour))
}

func TestStoreRoutesBySeller(t *testing.T) {
	store := products.NewStore()
	s1, s2 := store.For("s1"), store.For("s2")
	s1.CompleteLoad(s1.BeginLoad(), []products.Product{product("a", "active", "")})
	s2.CompleteLoad(s2.BeginLoad(), []products.Product{product("b", "active", "")})

	p := product("c", "active", "")
	p.SellerID = "s2"
	require.Equal(t, 1, store.Apply(products.Change{Type: products.EventInsert, Product: p}))

	p.SellerID = "unknown"
	require.Equal(t, 0, store.Apply(products.Change{Type: products.EventInsert, Product: p}))

	// Key-only rows reach only caches that can hold them.
	require.Equal(t, 0, store.Apply(products.Change{Type: products.EventInsert, Product: product("d", "active", "")}))
	require.Equal(t, 1, store.Apply(products.Change{Type: products.EventUpdate, Product: product("a", "draft", "")}))
	require.Equal(t, 2, store.Apply(products.Change{Type: products.EventDelete, Product: products.Product{ID: "b"}}))

	list1, _ := s1.Snapshot()
	list2, _ := s2.Snapshot()
	require.Empty(t, list1)
	require.Equal(t, []string{"c"}, ids(list2))

	store.MarkAllStale()
	require.False(t, s1.Fresh(time.Hour))
	require.Equal(t, 2, store.Len())
}
