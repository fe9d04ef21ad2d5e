// Package models defines the data extracted from the storefront.
package models

// NoCategory is stored when a card's embedded script carries no category.
const NoCategory = "no category"

// ProductRecord is one extracted product card. Field order is the
// persisted schema and never varies.
type ProductRecord struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	ImageURL      string `json:"image_url"`
	Category      string `json:"category"`
	FullPrice     string `json:"full_price"`
	DiscountPrice string `json:"discount_price"`
}

// Row returns the record fields in schema order.
func (r *ProductRecord) Row() []string {
	return []string{r.Name, r.URL, r.ImageURL, r.Category, r.FullPrice, r.DiscountPrice}
}
