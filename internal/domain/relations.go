package domain

import "time"

// Favorite marks a recipe as favored by a user. One row per (user, recipe).
type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_favorite_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_favorite_user_recipe,priority:2;index"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// ShoppingCartEntry puts a recipe into a user's shopping cart. One row per
// (user, recipe).
type ShoppingCartEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_cart_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_cart_user_recipe,priority:2;index"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ShoppingCartEntry.
func (ShoppingCartEntry) TableName() string { return "shopping_cart" }

// Subscription records that SubscriberID follows AuthorID. Self-follows are
// rejected by a CHECK constraint in addition to the service-level check.
type Subscription struct {
	ID           uint      `gorm:"primaryKey"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:ux_subscription_pair,priority:1;check:chk_subscription_not_self,subscriber_id <> author_id"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:ux_subscription_pair,priority:2;index"`
	CreatedAt    time.Time

	Subscriber User `gorm:"foreignKey:SubscriberID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author     User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{}, &Tag{}, &Ingredient{}, &Recipe{}, &RecipeIngredient{},
		&Favorite{}, &ShoppingCartEntry{}, &Subscription{},
		&Idempotency{}, &RevokedToken{},
	}
}
