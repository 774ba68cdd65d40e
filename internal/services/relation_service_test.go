package services

import (
	"context"
	"errors"
	"testing"
)

func TestFavorites_AddRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := seedUser(t, e.db, "alice")
	bob := seedUser(t, e.db, "bob")
	r := e.createRecipe(t, alice.ID, "pie")

	short, err := e.rel.AddFavorite(ctx, bob.ID, r.ID)
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if short.ID != r.ID || short.Name != "pie" || short.Image != r.Image || short.CookingTime != 15 {
		t.Fatalf("short view = %+v", short)
	}
	if _, err := e.rel.AddFavorite(ctx, bob.ID, r.ID); !errors.Is(err, ErrAlreadyFavorited) {
		t.Fatalf("second add: want ErrAlreadyFavorited, got %v", err)
	}
	// Authors may favorite their own recipes.
	if _, err := e.rel.AddFavorite(ctx, alice.ID, r.ID); err != nil {
		t.Fatalf("author favorite: %v", err)
	}

	got, _ := e.recipes.Get(ctx, bob.ID, r.ID)
	if !got.IsFavorited {
		t.Fatal("is_favorited must be true after add")
	}

	if err := e.rel.RemoveFavorite(ctx, bob.ID, r.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if err := e.rel.RemoveFavorite(ctx, bob.ID, r.ID); !errors.Is(err, ErrNotFavorited) {
		t.Fatalf("second remove: want ErrNotFavorited, got %v", err)
	}
	if _, err := e.rel.AddFavorite(ctx, bob.ID, 999); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("missing recipe: want ErrRecipeNotFound, got %v", err)
	}
	if err := e.rel.RemoveFavorite(ctx, bob.ID, 999); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("remove missing recipe: want ErrRecipeNotFound, got %v", err)
	}
}

func TestCart_AddRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := seedUser(t, e.db, "alice")
	r := e.createRecipe(t, alice.ID, "pie")

	if _, err := e.rel.AddToCart(ctx, alice.ID, r.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if _, err := e.rel.AddToCart(ctx, alice.ID, r.ID); !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("want ErrAlreadyInCart, got %v", err)
	}
	if err := e.rel.RemoveFromCart(ctx, alice.ID, r.ID); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if err := e.rel.RemoveFromCart(ctx, alice.ID, r.ID); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("want ErrNotInCart, got %v", err)
	}
}

func TestRelations_RemovedWithRecipe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := seedUser(t, e.db, "alice")
	bob := seedUser(t, e.db, "bob")
	r := e.createRecipe(t, alice.ID, "pie")
	_, _ = e.rel.AddFavorite(ctx, bob.ID, r.ID)
	_, _ = e.rel.AddToCart(ctx, bob.ID, r.ID)

	if err := e.recipes.Delete(ctx, alice.ID, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int64
	e.db.Table("favorites").Count(&n)
	if n != 0 {
		t.Fatalf("favorites left behind: %d", n)
	}
	e.db.Table("shopping_cart").Count(&n)
	if n != 0 {
		t.Fatalf("cart rows left behind: %d", n)
	}
}

func TestSubscriptions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := seedUser(t, e.db, "alice")
	bob := seedUser(t, e.db, "bob")
	carol := seedUser(t, e.db, "carol")
	for _, name := range []string{"a1", "a2", "a3"} {
		e.createRecipe(t, alice.ID, name)
	}

	if _, err := e.rel.Subscribe(ctx, bob.ID, bob.ID, -1); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("self: want ErrSelfSubscription, got %v", err)
	}
	if _, err := e.rel.Subscribe(ctx, bob.ID, 999, -1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing author: want ErrUserNotFound, got %v", err)
	}

	sv, err := e.rel.Subscribe(ctx, bob.ID, alice.ID, 2)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sv.ID != alice.ID || !sv.IsSubscribed || sv.RecipesCount != 3 || len(sv.Recipes) != 2 {
		t.Fatalf("subscription view = %+v", sv)
	}
	if sv.Recipes[0].Name != "a3" {
		t.Fatalf("recipes preview must be newest first, got %q", sv.Recipes[0].Name)
	}
	if _, err := e.rel.Subscribe(ctx, bob.ID, alice.ID, -1); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("duplicate: want ErrAlreadySubscribed, got %v", err)
	}
	if _, err := e.rel.Subscribe(ctx, bob.ID, carol.ID, -1); err != nil {
		t.Fatalf("Subscribe carol: %v", err)
	}

	list, total, err := e.rel.Subscriptions(ctx, bob.ID, 1, 10, -1)
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("Subscriptions = %d/%d, %v", len(list), total, err)
	}
	if list[0].Username != "alice" || len(list[0].Recipes) != 3 || list[1].Username != "carol" {
		t.Fatalf("subscriptions order/content: %+v", list)
	}
	if len(list[1].Recipes) != 0 || list[1].RecipesCount != 0 {
		t.Fatalf("carol has no recipes: %+v", list[1])
	}

	page2, total, _ := e.rel.Subscriptions(ctx, bob.ID, 2, 1, 0)
	if total != 2 || len(page2) != 1 || page2[0].Username != "carol" {
		t.Fatalf("page 2 = %+v", page2)
	}
	if len(page2[0].Recipes) != 0 {
		t.Fatalf("recipes_limit=0 must return no recipes")
	}

	if err := e.rel.Unsubscribe(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := e.rel.Unsubscribe(ctx, bob.ID, alice.ID); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("want ErrNotSubscribed, got %v", err)
	}
	if err := e.rel.Unsubscribe(ctx, bob.ID, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}

	none, total, err := e.rel.Subscriptions(ctx, alice.ID, 1, 10, -1)
	if err != nil || total != 0 || none == nil || len(none) != 0 {
		t.Fatalf("empty subscriptions must be an empty slice: %v, %d, %v", none, total, err)
	}
}
