package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/domain"
)

var (
	usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRE     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	cookingTimeMsg = fmt.Sprintf("must be between %d and %d", domain.MinCookingTime, domain.MaxCookingTime)
	amountMsg      = fmt.Sprintf("must be between %d and %d", domain.MinAmount, domain.MaxAmount)
)

// ---------- Users ----------

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Validate checks field formats; uniqueness is checked against storage.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(0, domain.MaxEmailLen), is.EmailFormat),
		validation.Field(&in.Username,
			validation.Required,
			validation.Length(0, domain.MaxUsernameLen),
			validation.Match(usernameRE).Error("may contain only letters, digits and @/./+/-/_"),
		),
		validation.Field(&in.FirstName, validation.Required, validation.Length(0, domain.MaxPersonNameLen)),
		validation.Field(&in.LastName, validation.Required, validation.Length(0, domain.MaxPersonNameLen)),
		validation.Field(&in.Password, validation.Required, validation.RuneLength(auth.MinPasswordLen, 128)),
	)
}

// SetPasswordInput changes the caller's password.
type SetPasswordInput struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

func (in SetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.NewPassword, validation.Required, validation.RuneLength(auth.MinPasswordLen, 128)),
		validation.Field(&in.CurrentPassword, validation.Required),
	)
}

// LoginInput is the token login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// ---------- Recipes ----------

// IngredientAmount references an ingredient by id with the amount used.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

func (a IngredientAmount) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Amount,
			validation.Required.Error(amountMsg),
			validation.Min(domain.MinAmount).Error(amountMsg),
			validation.Max(domain.MaxAmount).Error(amountMsg),
		),
	)
}

// RecipeInput is the create/update payload. On update nil scalar fields keep
// their stored value; tags and ingredients are always required and replace
// the stored sets.
type RecipeInput struct {
	Name        *string            `json:"name"`
	Image       *string            `json:"image"`
	Text        *string            `json:"text"`
	CookingTime *int               `json:"cooking_time"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

// validate checks the payload shape. partial is true for updates.
func (in RecipeInput) validate(partial bool) error {
	need := func(p bool) bool { return !partial || p }
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.When(need(in.Name != nil),
			validation.Required,
			validation.RuneLength(0, domain.MaxRecipeNameLen),
		)),
		validation.Field(&in.Image, validation.When(need(in.Image != nil), validation.Required)),
		validation.Field(&in.Text, validation.When(need(in.Text != nil), validation.Required)),
		validation.Field(&in.CookingTime, validation.When(need(in.CookingTime != nil),
			validation.Required.Error(cookingTimeMsg),
			validation.Min(domain.MinCookingTime).Error(cookingTimeMsg),
			validation.Max(domain.MaxCookingTime).Error(cookingTimeMsg),
		)),
		validation.Field(&in.Tags,
			validation.Required.Error("at least one tag is required"),
			validation.By(uniqueIDs("tags must not repeat")),
		),
		validation.Field(&in.Ingredients,
			validation.Required.Error("at least one ingredient is required"),
			validation.By(uniqueIngredients),
			validation.Each(),
		),
	)
}

func uniqueIDs(msg string) validation.RuleFunc {
	return func(v any) error {
		ids, _ := v.([]uint)
		seen := make(map[uint]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				return errors.New(msg)
			}
			seen[id] = struct{}{}
		}
		return nil
	}
}

func uniqueIngredients(v any) error {
	items, _ := v.([]IngredientAmount)
	seen := make(map[uint]struct{}, len(items))
	for _, it := range items {
		if it.ID == 0 {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			return errors.New("ingredients must not repeat")
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// ---------- Catalog seeds ----------

// TagSeed is one row of a tag import file.
type TagSeed struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s TagSeed) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.RuneLength(0, domain.MaxTagLen)),
		validation.Field(&s.Slug, validation.Required, validation.Length(0, domain.MaxTagLen), validation.Match(slugRE)),
	)
}

// IngredientSeed is one row of an ingredient import file.
type IngredientSeed struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func (s IngredientSeed) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.RuneLength(0, domain.MaxIngredientLen)),
		validation.Field(&s.MeasurementUnit, validation.Required, validation.RuneLength(0, domain.MaxUnitLen)),
	)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
