package repo

import (
	"context"

	"gorm.io/gorm"
)

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name   string
	Unit   string
	Amount int64
}

// ShoppingList sums ingredient amounts across every recipe in userID's cart,
// grouped by (name, unit) and ordered by name. Same-named ingredients with
// different units stay on separate lines.
func ShoppingList(ctx context.Context, db *gorm.DB, userID uint) ([]ShoppingItem, error) {
	var out []ShoppingItem
	err := db.WithContext(ctx).
		Table("shopping_cart sc").
		Select("i.name AS name, i.measurement_unit AS unit, SUM(ri.amount) AS amount").
		Joins("JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name asc, i.measurement_unit asc").
		Scan(&out).Error
	return out, err
}
