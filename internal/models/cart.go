package models

// Le panier est stocké dans Redis comme tableau JSON de CartItem,
// clé cart:<userID>
type CartItem struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"image_url,omitempty"`
}
