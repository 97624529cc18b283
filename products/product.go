// Package products mirrors a seller's active products and keeps the mirror
// current with change-feed events.
package products

import (
	"sort"
	"strings"
	"time"
)

const StatusActive = "active"

// PlaceholderImage is shown for products without images.
const PlaceholderImage = "/static/images/product.svg"

type Image struct {
	ID        string `json:"id"`
	Path      string `json:"image_path"`
	IsPrimary bool   `json:"isPrimary"`
	AltText   string `json:"altText,omitempty"`
	Position  int    `json:"position"`
}

// Product is the business API's view of a catalog item.
type Product struct {
	ID           string   `json:"id"`
	SellerID     string   `json:"sellerId,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Price        float64  `json:"price"`
	ComparePrice *float64 `json:"comparePrice,omitempty"`
	SKU          string   `json:"sku,omitempty"`
	Category     string   `json:"category,omitempty"`
	Status       string   `json:"status"`
	Stock        *int     `json:"stock,omitempty"`
	Images       []Image  `json:"images"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

// PrimaryImage returns the image flagged primary, else the lowest positioned one.
func (p Product) PrimaryImage() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	ordered := append([]Image(nil), p.Images...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
	return ordered[0], true
}

// ImageURL resolves the primary image against the public storage bucket URL.
func (p Product) ImageURL(storageBase string) string {
	img, ok := p.PrimaryImage()
	if !ok || img.Path == "" {
		return PlaceholderImage
	}
	return strings.TrimRight(storageBase, "/") + "/" + strings.TrimLeft(img.Path, "/")
}

// updatedTime parses UpdatedAt. The zero time means the version is unknown.
func (p Product) updatedTime() time.Time {
	return parseTimestamp(p.UpdatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Row is a products table row as the change feed delivers it.
type Row struct {
	ID           string   `json:"id"`
	SellerID     string   `json:"seller_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	ComparePrice *float64 `json:"compare_price"`
	SKU          string   `json:"sku"`
	Category     string   `json:"category"`
	Status       string   `json:"status"`
	Stock        *int     `json:"stock"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// Product converts the row. Rows never carry images.
func (r Row) Product() Product {
	return Product{
		ID:           r.ID,
		SellerID:     r.SellerID,
		Title:        r.Title,
		Description:  r.Description,
		Price:        r.Price,
		ComparePrice: r.ComparePrice,
		SKU:          r.SKU,
		Category:     r.Category,
		Status:       r.Status,
		Stock:        r.Stock,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
