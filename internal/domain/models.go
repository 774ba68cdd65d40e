// Package domain defines the persistence models for users, recipes,
// ingredients, tags and the relations between them. These types are mapped
// with GORM and form the core data layer of the Foodgram backend.
package domain

import (
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Field limits shared by the validation layer and the schema.
const (
	MaxEmailLen       = 254
	MaxUsernameLen    = 150
	MaxPersonNameLen  = 150
	MaxTagLen         = 32
	MaxIngredientLen  = 128
	MaxUnitLen        = 64
	MaxRecipeNameLen  = 256
	MinAmount         = 1
	MaxAmount         = 32000
	MinCookingTime    = 1
	MaxCookingTime    = 32000
	ShortLinkLen      = 5
)

// User is a registered account. Email and username are unique.
//
// Fields:
//   - Avatar: media key of the uploaded avatar, nil when unset.
//   - PasswordHash: bcrypt hash, never serialized.
type User struct {
	ID           uint      `json:"id"         gorm:"primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex:ux_users_email"`
	Username     string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150);not null"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(150);not null"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	Avatar       *string   `json:"avatar"     gorm:"type:varchar(512)"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Tag labels recipes (e.g. "breakfast"). Slug is unique.
type Tag struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(32);not null"`
	Slug string `json:"slug" gorm:"type:varchar(32);not null;uniqueIndex:ux_tags_slug"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Ingredient is a named product with its measurement unit. The pair
// (name, measurement_unit) is unique.
type Ingredient struct {
	ID              uint   `json:"id"               gorm:"primaryKey"`
	Name            string `json:"name"             gorm:"type:varchar(128);not null;uniqueIndex:ux_ingredient_name_unit,priority:1"`
	MeasurementUnit string `json:"measurement_unit" gorm:"type:varchar(64);not null;uniqueIndex:ux_ingredient_name_unit,priority:2"`
	// SearchName is FoldName(Name), kept so prefix search does not depend
	// on the database's LOWER(), which SQLite applies to ASCII only.
	SearchName string `json:"-" gorm:"type:varchar(128);not null;default:'';index"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// BeforeSave keeps SearchName in step with Name.
func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = FoldName(i.Name)
	return nil
}

// FoldName is the Unicode case fold used for ingredient search.
func FoldName(s string) string { return cases.Fold().String(s) }

// Recipe is authored by a user and deleted together with its author.
//
// Fields:
//   - Image: media key of the dish photo.
//   - ShortLink: random token used by the /s/{token} redirector.
//   - Tags: many-to-many through recipe_tags.
//   - Ingredients: join rows carrying the amount.
type Recipe struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	AuthorID    uint      `json:"-"            gorm:"not null;index:idx_recipes_author"`
	Name        string    `json:"name"         gorm:"type:varchar(256);not null"`
	Image       string    `json:"image"        gorm:"type:varchar(512);not null"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipes_cooking_time,cooking_time BETWEEN 1 AND 32000"`
	ShortLink   string    `json:"-"            gorm:"type:varchar(5);not null;uniqueIndex:ux_recipes_short_link"`
	CreatedAt   time.Time `json:"-"            gorm:"index:idx_recipes_created"`
	UpdatedAt   time.Time `json:"-"`

	Author      User               `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags        []Tag              `json:"-" gorm:"many2many:recipe_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient links a recipe to an ingredient with an amount. An
// ingredient appears at most once per recipe.
type RecipeIngredient struct {
	ID           uint `json:"-"      gorm:"primaryKey"`
	RecipeID     uint `json:"-"      gorm:"not null;uniqueIndex:ux_recipe_ingredient,priority:1"`
	IngredientID uint `json:"id"     gorm:"not null;uniqueIndex:ux_recipe_ingredient,priority:2;index"`
	Amount       int  `json:"amount" gorm:"not null;check:chk_recipe_ingredient_amount,amount BETWEEN 1 AND 32000"`

	Recipe     Recipe     `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RecipeIngredient.
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
