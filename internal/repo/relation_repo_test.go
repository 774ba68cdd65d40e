package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

func TestFavoritesAndCart_AddRemoveSets(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	f := seedFixture(t, db)
	r1 := seedRecipe(t, db, f.alice.ID, "r1", time.Now(), []domain.Tag{f.lunch})
	r2 := seedRecipe(t, db, f.alice.ID, "r2", time.Now(), []domain.Tag{f.lunch})

	if err := AddFavorite(ctx, db, f.bob.ID, r1.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := AddFavorite(ctx, db, f.bob.ID, r1.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate favorite: want ErrDuplicate, got %v", err)
	}
	set, err := FavoritedSet(ctx, db, f.bob.ID, []uint{r1.ID, r2.ID})
	if err != nil || !set[r1.ID] || set[r2.ID] {
		t.Fatalf("FavoritedSet = %v, %v", set, err)
	}
	if set, _ := FavoritedSet(ctx, db, 0, []uint{r1.ID}); len(set) != 0 {
		t.Fatalf("anonymous viewer should get an empty set")
	}

	removed, err := RemoveFavorite(ctx, db, f.bob.ID, r1.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveFavorite = %v, %v", removed, err)
	}
	removed, err = RemoveFavorite(ctx, db, f.bob.ID, r1.ID)
	if err != nil || removed {
		t.Fatalf("second RemoveFavorite = %v, %v; want false", removed, err)
	}

	if err := AddToCart(ctx, db, f.bob.ID, r2.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := AddToCart(ctx, db, f.bob.ID, r2.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate cart: want ErrDuplicate, got %v", err)
	}
	cart, _ := InCartSet(ctx, db, f.bob.ID, []uint{r1.ID, r2.ID})
	if cart[r1.ID] || !cart[r2.ID] {
		t.Fatalf("InCartSet = %v", cart)
	}
	if removed, _ := RemoveFromCart(ctx, db, f.bob.ID, r2.ID); !removed {
		t.Fatalf("RemoveFromCart should report removal")
	}
}

func TestSubscriptions(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	f := seedFixture(t, db)
	carol := seedUser(t, db, "carol")

	if err := Subscribe(ctx, db, f.bob.ID, f.alice.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := Subscribe(ctx, db, f.bob.ID, carol.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := Subscribe(ctx, db, f.bob.ID, f.alice.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate subscription: want ErrDuplicate, got %v", err)
	}
	if err := Subscribe(ctx, db, f.bob.ID, f.bob.ID); err == nil {
		t.Fatalf("self subscription must be rejected by the schema")
	}

	n, err := CountSubscriptions(ctx, db, f.bob.ID)
	if err != nil || n != 2 {
		t.Fatalf("CountSubscriptions = %d, %v", n, err)
	}
	page, err := ListSubscriptionsPage(ctx, db, f.bob.ID, 0, 10)
	if err != nil || len(page) != 2 || page[0].Username != "alice" || page[1].Username != "carol" {
		t.Fatalf("ListSubscriptionsPage = %+v, %v", page, err)
	}

	set, _ := SubscribedSet(ctx, db, f.bob.ID, []uint{f.alice.ID, carol.ID, f.bob.ID})
	if !set[f.alice.ID] || !set[carol.ID] || set[f.bob.ID] {
		t.Fatalf("SubscribedSet = %v", set)
	}

	removed, err := Unsubscribe(ctx, db, f.bob.ID, f.alice.ID)
	if err != nil || !removed {
		t.Fatalf("Unsubscribe = %v, %v", removed, err)
	}
	removed, _ = Unsubscribe(ctx, db, f.bob.ID, f.alice.ID)
	if removed {
		t.Fatalf("second Unsubscribe should report nothing removed")
	}
}

func TestShoppingList_AggregatesAcrossRecipes(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	f := seedFixture(t, db)
	saltKg, _, _ := GetOrCreateIngredient(ctx, db, "salt", "kg")

	r1 := seedRecipe(t, db, f.alice.ID, "r1", time.Now(), []domain.Tag{f.lunch},
		domain.RecipeIngredient{IngredientID: f.salt.ID, Amount: 5},
		domain.RecipeIngredient{IngredientID: f.rice.ID, Amount: 100})
	r2 := seedRecipe(t, db, f.alice.ID, "r2", time.Now(), []domain.Tag{f.lunch},
		domain.RecipeIngredient{IngredientID: f.salt.ID, Amount: 10},
		domain.RecipeIngredient{IngredientID: saltKg.ID, Amount: 1})
	r3 := seedRecipe(t, db, f.alice.ID, "r3", time.Now(), []domain.Tag{f.lunch},
		domain.RecipeIngredient{IngredientID: f.rice.ID, Amount: 999})

	empty, err := ShoppingList(ctx, db, f.bob.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty cart = %+v, %v", empty, err)
	}

	for _, r := range []uint{r1.ID, r2.ID} {
		if err := AddToCart(ctx, db, f.bob.ID, r); err != nil {
			t.Fatalf("AddToCart: %v", err)
		}
	}
	// Someone else's cart must not leak in.
	if err := AddToCart(ctx, db, f.alice.ID, r3.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	items, err := ShoppingList(ctx, db, f.bob.ID)
	if err != nil {
		t.Fatalf("ShoppingList: %v", err)
	}
	want := []ShoppingItem{
		{Name: "rice", Unit: "g", Amount: 100},
		{Name: "salt", Unit: "g", Amount: 15},
		{Name: "salt", Unit: "kg", Amount: 1},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %+v; want %+v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d = %+v; want %+v", i, items[i], want[i])
		}
	}
}
