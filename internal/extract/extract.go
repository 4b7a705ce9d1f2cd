// Package extract recovers structured product and order entities from the
// markdown the model service writes. Entities are cut out of the text once,
// at stream resolution, and stored next to the message so rendering never has
// to re-parse.
package extract

import "shopchat/backend/internal/model"

// Extract runs both extractors over finalized assistant text. The returned
// clean string is the text with product image markup removed; order shapes
// stay in place because they read as prose. Cleaning is idempotent: running
// Extract over its own clean output leaves the text unchanged.
func Extract(text string) ([]model.Product, []model.Order, string) {
	products, clean := ExtractProducts(text)
	orders := ExtractOrders(clean)
	return products, orders, clean
}
