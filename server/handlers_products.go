package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-seller-dashboard/products"
)

const productsGrid = "products_grid"

type productCard struct {
	products.Product
	ImageSrc string
	AltText  string
}

type productsView struct {
	Cards    []productCard
	Revision uint64
	GridURL  string
}

// ProductsShowcaseHandler renders the seller's active products
func (s *Server) ProductsShowcaseHandler() http.HandlerFunc {
	tmpl := parsePage("products_showcase.html")

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "Products", "products")
		seller, ok := sellerFromContext(r.Context())
		if !ok {
			s.redirectToLogin(w, r)
			return
		}
		view, err := s.productsView(w, r, seller.Session.UserID())
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your products."
		}
		page.View = view
		render(w, r, tmpl, "layout", http.StatusOK, page)
	}
}

// ProductsGridHandler re-renders the product grid for polling clients. A client
// already showing the current revision gets 204 and keeps its grid.
func (s *Server) ProductsGridHandler() http.HandlerFunc {
	tmpl := parsePage("products_showcase.html")

	return func(w http.ResponseWriter, r *http.Request) {
		seller, ok := sellerFromContext(r.Context())
		if !ok {
			s.redirectToLogin(w, r)
			return
		}
		sellerID := seller.Session.UserID()
		if rev, err := strconv.ParseUint(r.URL.Query().Get("rev"), 10, 64); err == nil && s.services.Products.Unchanged(sellerID, rev) {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		page := s.newPage(r, "Products", "products")
		page.Retry = RouteProductsShowcase
		view, err := s.productsView(w, r, sellerID)
		if err != nil {
			if s.handleLoadError(w, r, err) {
				return
			}
			page.Error = "We couldn't load your products."
		}
		page.View = view
		render(w, r, tmpl, productsGrid, http.StatusOK, page)
	}
}

func (s *Server) productsView(w http.ResponseWriter, r *http.Request, sellerID string) (*productsView, error) {
	list, err := s.services.Products.List(r.Context(), jarFromRequest(w, r), sellerID)
	if err != nil {
		return nil, err
	}
	revision := s.services.Products.Store().For(sellerID).Revision()
	view := &productsView{
		Cards:    make([]productCard, 0, len(list)),
		Revision: revision,
		GridURL:  RouteProductsGrid + "?rev=" + strconv.FormatUint(revision, 10),
	}
	for _, p := range list {
		alt := p.Title
		if img, ok := p.PrimaryImage(); ok && img.AltText != "" {
			alt = img.AltText
		}
		view.Cards = append(view.Cards, productCard{
			Product:  p,
			ImageSrc: p.ImageURL(s.config.GetStorageBaseURL()),
			AltText:  alt,
		})
	}
	return view, nil
}
