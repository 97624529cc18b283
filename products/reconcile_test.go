package products_test

import (
	"testing"

	"github.com/jrsteele09/go-seller-dashboard/products"
	"github.com/stretchr/testify/require"
)

func product(id, status, updatedAt string) products.Product {
	return products.Product{ID: id, Title: "Wallet " + id, Status: status, Price: 40, UpdatedAt: updatedAt}
}

func ids(list []products.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestReconcile(t *testing.T) {
	base := []products.Product{product("a", "active", ""), product("b", "active", "")}

	tests := []struct {
		name   string
		change products.Change
		want   []string
	}{
		{name: "insert active", change: products.Change{Type: products.EventInsert, Product: product("c", "active", "")}, want: []string{"a", "b", "c"}},
		{name: "insert draft", change: products.Change{Type: products.EventInsert, Product: product("c", "draft", "")}, want: []string{"a", "b"}},
		{name: "insert existing id", change: products.Change{Type: products.EventInsert, Product: product("a", "active", "")}, want: []string{"a", "b"}},
		{name: "update active", change: products.Change{Type: products.EventUpdate, Product: product("b", "active", "")}, want: []string{"a", "b"}},
		{name: "update admits new active", change: products.Change{Type: products.EventUpdate, Product: product("c", "active", "")}, want: []string{"a", "b", "c"}},
		{name: "update archived removes", change: products.Change{Type: products.EventUpdate, Product: product("a", "archived", "")}, want: []string{"b"}},
		{name: "update inactive absent", change: products.Change{Type: products.EventUpdate, Product: product("z", "draft", "")}, want: []string{"a", "b"}},
		{name: "delete", change: products.Change{Type: products.EventDelete, Product: products.Product{ID: "a"}}, want: []string{"b"}},
		{name: "delete absent", change: products.Change{Type: products.EventDelete, Product: products.Product{ID: "z"}}, want: []string{"a", "b"}},
		{name: "unknown event", change: products.Change{Type: "TRUNCATE", Product: product("a", "active", "")}, want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := products.Reconcile(base, tt.change)
			require.Equal(t, tt.want, ids(once))
			require.Equal(t, once, products.Reconcile(once, tt.change))
			require.Equal(t, []string{"a", "b"}, ids(base))
		})
	}
}

func TestReconcileDeleteTwiceIsIdempotent(t *testing.T) {
	list := []products.Product{product("a", "active", ""), product("b", "active", "")}
	del := products.Change{Type: products.EventDelete, Product: products.Product{ID: "a"}}

	once := products.Reconcile(list, del)
	twice := products.Reconcile(once, del)
	require.Equal(t, once, twice)
}

func TestReconcileInactiveEventForAbsentProductIsNoop(t *testing.T) {
	list := []products.Product{product("a", "active", "")}
	for _, typ := range []products.EventType{products.EventInsert, products.EventUpdate} {
		got := products.Reconcile(list, products.Change{Type: typ, Product: product("x", "draft", "")})
		require.Equal(t, list, got)
	}
}

func TestReconcileUpdateKeepsImages(t *testing.T) {
	withImages := product("a", "active", "")
	withImages.Images = []products.Image{{ID: "i1", Path: "a/front.jpg", IsPrimary: true}}

	update := product("a", "active", "")
	update.Title = "Renamed"
	got := products.Reconcile([]products.Product{withImages}, products.Change{Type: products.EventUpdate, Product: update})
	require.Equal(t, "Renamed", got[0].Title)
	require.Equal(t, withImages.Images, got[0].Images)
}

func TestImageURL(t *testing.T) {
	const bucket = "https://data.dropleather.com/storage/v1/object/public/product-images/"

	p := product("a", "active", "")
	require.Equal(t, products.PlaceholderImage, p.ImageURL(bucket))

	p.Images = []products.Image{{ID: "2", Path: "a/side.jpg", Position: 2}, {ID: "1", Path: "a/front.jpg", Position: 1}}
	require.Equal(t, bucket+"a/front.jpg", p.ImageURL(bucket))

	p.Images[0].IsPrimary = true
	require.Equal(t, bucket+"a/side.jpg", p.ImageURL(bucket))
}

func TestRowProduct(t *testing.T) {
	stock := 3
	row := products.Row{ID: "a", SellerID: "s1", Title: "Belt", Status: "active", Stock: &stock, UpdatedAt: "2026-01-01T10:00:00+00:00"}
	p := row.Product()
	require.Equal(t, "s1", p.SellerID)
	require.Equal(t, 3, *p.Stock)
	require.Empty(t, p.Images)
	require.True(t, p.IsActive())
}
