package domain

// Product is the slice of a sourced catalog product the categorizer scores.
type Product struct {
	ProductID   string   `json:"product_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProductType string   `json:"product_type"`
	Vendor      string   `json:"vendor"`
	Tags        []string `json:"tags"`
	StoreID     string   `json:"store_id,omitempty"`
}

// StorePattern is the learned shape of one store bucket: the vocabulary its
// existing products exhibit. Patterns are rebuilt from assigned products and
// cached for the process lifetime until an explicit refresh.
type StorePattern struct {
	StoreID      string   `json:"store_id"`
	Keywords     []string `json:"keywords"`
	ProductTypes []string `json:"product_types"`
	Vendors      []string `json:"vendors"`
	Tags         []string `json:"tags"`
}
