// Package services defines the business logic for users, recipes, the
// catalog (tags and ingredients) and the per-user relations (favorites,
// shopping cart, subscriptions). This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Lookup errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRecipeNotFound indicates that the requested recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrTagNotFound indicates that the requested tag does not exist.
	ErrTagNotFound = errors.New("tag not found")

	// ErrIngredientNotFound indicates that the requested ingredient does not exist.
	ErrIngredientNotFound = errors.New("ingredient not found")

	// ErrShortLinkNotFound is returned when a short-link token resolves to nothing.
	ErrShortLinkNotFound = errors.New("short link not found")
)

// Permission errors.
var (
	// ErrNotAuthor is returned when someone other than the author tries to
	// modify or delete a recipe.
	ErrNotAuthor = errors.New("only the author can modify this recipe")

	// ErrInvalidCredentials is returned by login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")

	// ErrWrongPassword is returned by set_password when current_password
	// does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Duplicate-state errors. Handlers surface these as 400 with the message.
var (
	ErrAlreadyFavorited  = errors.New("recipe is already in favorites")
	ErrNotFavorited      = errors.New("recipe is not in favorites")
	ErrAlreadyInCart     = errors.New("recipe is already in the shopping cart")
	ErrNotInCart         = errors.New("recipe is not in the shopping cart")
	ErrSelfSubscription  = errors.New("you cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("you are already subscribed to this user")
	ErrNotSubscribed     = errors.New("you are not subscribed to this user")
	ErrEmptyCart         = errors.New("Your shopping cart is empty.")
)

// ErrShortLinkExhausted is returned when no free short-link token could be
// found within the retry budget.
var ErrShortLinkExhausted = errors.New("could not allocate a unique short link")

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

// Error renders fields in a stable order, e.g. "name: cannot be blank; tags: ...".
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// fieldError builds a single-field ValidationError.
func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// asValidation converts ozzo validation.Errors into a ValidationError. Other
// errors (including internal ozzo errors) are returned unchanged.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(ve))}
	flatten("", ve, out.Fields)
	return out
}

func flatten(prefix string, ve validation.Errors, dst map[string]string) {
	for k, e := range ve {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(e, &nested) {
			flatten(key, nested, dst)
			continue
		}
		dst[key] = e.Error()
	}
}

// merge folds more field errors into e, keeping existing messages.
func (e *ValidationError) merge(more map[string]string) {
	for k, m := range more {
		if _, ok := e.Fields[k]; !ok {
			e.Fields[k] = m
		}
	}
}
