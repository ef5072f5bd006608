package models

// Wishlist : vue hydratée renvoyée au client, fiches produit incluses
// (les produits désactivés sont filtrés à la lecture)
type Wishlist struct {
	UserID string    `json:"user_id"`
	Items  []Product `json:"items"`
	Count  int       `json:"count"`
}
