// Package catalog holds the static reference list of recommendable
// products and resolves model-supplied recommendation stubs against it.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"glowchat/internal/extract"
)

// Product is one catalog entry, looked up by ID only.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Catalog is the static product set.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

// New builds a catalog from products, preserving order.
func New(products []Product) *Catalog {
	c := &Catalog{
		products: append([]Product(nil), products...),
		byID:     make(map[string]Product, len(products)),
	}
	for _, p := range c.products {
		c.byID[p.ID] = p
	}
	return c
}

// catalogFile is the on-disk shape: {"products": [...]}.
type catalogFile struct {
	Products []Product `json:"products"`
}

// Load reads a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(cf.Products), nil
}

// Default returns the compiled-in sample catalog.
func Default() *Catalog {
	return New([]Product{
		{
			ID:          "p001",
			Name:        "HydraBoost Moisturizing Cream",
			Category:    "skincare",
			Description: "Daily liquid care for normal to dry skin",
			URL:         "https://example.com/products/hydraboost",
		},
		{
			ID:          "p002",
			Name:        "Glycolic Bright Serum",
			Category:    "skincare",
			Description: "8% glycolic face serum for dark-spot brightening",
			URL:         "https://example.com/products/glycolic-bright-serum",
		},
		{
			ID:          "p003",
			Name:        "Instant Volume Waterproof Mascara",
			Category:    "makeup",
			Description: "Smudge-resistant volumizing mascara",
			URL:         "https://example.com/products/volume-mascara",
		},
		{
			ID:          "p004",
			Name:        "Total Repair Shampoo",
			Category:    "haircare",
			Description: "Strengthening shampoo for damaged hair",
			URL:         "https://example.com/products/total-repair-shampoo",
		},
	})
}

// Lookup returns the product with the given ID.
func (c *Catalog) Lookup(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Products returns the catalog entries in order.
func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Recommendation is a model-supplied recommendation resolved against
// the catalog.
type Recommendation struct {
	ID        string
	Name      string
	Category  string
	Reason    string
	URL       string
	InCatalog bool
}

// Enrich resolves each stub whose ID is a known product: catalog
// name/category/URL win over model-supplied fields. Unknown IDs pass
// through as the model emitted them. Order is preserved.
func (c *Catalog) Enrich(recs []extract.Recommendation) []Recommendation {
	if len(recs) == 0 {
		return nil
	}
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		enriched := Recommendation{
			ID:       r.ID,
			Name:     r.Name,
			Category: r.Category,
			Reason:   r.Reason,
		}
		if p, ok := c.byID[r.ID]; ok {
			enriched.Name = p.Name
			enriched.Category = p.Category
			enriched.URL = p.URL
			enriched.InCatalog = true
		}
		out = append(out, enriched)
	}
	return out
}
