package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

func TestTags_ListGetUpsert(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()

	created, err := EnsureTag(ctx, db, "Lunch", "lunch")
	if err != nil || !created {
		t.Fatalf("EnsureTag create = %v, %v", created, err)
	}
	created, err = EnsureTag(ctx, db, "Breakfast", "breakfast")
	if err != nil || !created {
		t.Fatalf("EnsureTag create = %v, %v", created, err)
	}
	created, err = EnsureTag(ctx, db, "Late lunch", "lunch")
	if err != nil || created {
		t.Fatalf("EnsureTag existing slug = %v, %v", created, err)
	}

	tags, err := ListTags(ctx, db)
	if err != nil || len(tags) != 2 {
		t.Fatalf("ListTags = %+v, %v", tags, err)
	}
	if tags[0].Slug != "breakfast" || tags[1].Name != "Lunch" {
		t.Fatalf("unexpected order or name: %+v", tags)
	}

	if _, err := GetTag(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetTag missing: want ErrNotFound, got %v", err)
	}
	byIDs, err := TagsByIDs(ctx, db, []uint{tags[0].ID, 999})
	if err != nil || len(byIDs) != 1 {
		t.Fatalf("TagsByIDs = %+v, %v", byIDs, err)
	}
}

func TestIngredients_PrefixFilter_GetOrCreate(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()

	for _, n := range []string{"Salt", "salmon", "sugar", "sea_salt"} {
		if _, created, err := GetOrCreateIngredient(ctx, db, n, "g"); err != nil || !created {
			t.Fatalf("GetOrCreateIngredient(%s) = %v, %v", n, created, err)
		}
	}
	ing, created, err := GetOrCreateIngredient(ctx, db, "Salt", "g")
	if err != nil || created || ing.ID == 0 {
		t.Fatalf("existing ingredient should not be created: %+v %v %v", ing, created, err)
	}

	got, err := ListIngredients(ctx, db, "SAL")
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Salt" || got[1].Name != "salmon" {
		t.Fatalf("prefix filter unexpected: %+v", got)
	}

	// '_' is literal, not a wildcard.
	got, _ = ListIngredients(ctx, db, "sea_")
	if len(got) != 1 {
		t.Fatalf("escaped prefix unexpected: %+v", got)
	}
	got, _ = ListIngredients(ctx, db, "s_")
	if len(got) != 0 {
		t.Fatalf("wildcard must not match: %+v", got)
	}

	all, err := ListIngredients(ctx, db, "  ")
	if err != nil || len(all) != 4 {
		t.Fatalf("empty prefix should list all, got %d (%v)", len(all), err)
	}

	everything, err := AllIngredients(ctx, db)
	if err != nil || len(everything) != 4 {
		t.Fatalf("AllIngredients = %d, %v", len(everything), err)
	}
	byIDs, err := IngredientsByIDs(ctx, db, []uint{everything[0].ID, everything[1].ID})
	if err != nil || len(byIDs) != 2 {
		t.Fatalf("IngredientsByIDs = %d, %v", len(byIDs), err)
	}
	if _, err := GetIngredient(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing ingredient: want ErrNotFound, got %v", err)
	}
}

func TestIngredients_PrefixFilter_NonASCIICase(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	for _, n := range []string{"Мука", "мускат", "Äpfel", "молоко"} {
		if _, _, err := GetOrCreateIngredient(ctx, db, n, "г"); err != nil {
			t.Fatalf("GetOrCreateIngredient(%s): %v", n, err)
		}
	}

	got, err := ListIngredients(ctx, db, "мук")
	if err != nil || len(got) != 1 || got[0].Name != "Мука" {
		t.Fatalf("мук = %+v, %v", got, err)
	}
	got, _ = ListIngredients(ctx, db, "МУ")
	if len(got) != 2 {
		t.Fatalf("МУ should match Мука and мускат: %+v", got)
	}
	got, _ = ListIngredients(ctx, db, "äp")
	if len(got) != 1 || got[0].Name != "Äpfel" {
		t.Fatalf("äp = %+v", got)
	}
}

func TestAutoMigrate_BackfillsSearchName(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	ing, _, err := GetOrCreateIngredient(ctx, db, "Сахар", "г")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a row written before the column existed.
	db.Model(&domain.Ingredient{ID: ing.ID}).UpdateColumn("search_name", "")

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	got, _ := ListIngredients(ctx, db, "сах")
	if len(got) != 1 || got[0].ID != ing.ID {
		t.Fatalf("backfilled row not found: %+v", got)
	}
}

func TestIngredients_SameNameDifferentUnit(t *testing.T) {
	db := newTestDB(t, &domain.Ingredient{})
	ctx := context.Background()
	a, _, _ := GetOrCreateIngredient(ctx, db, "milk", "ml")
	b, created, err := GetOrCreateIngredient(ctx, db, "milk", "cup")
	if err != nil || !created || a.ID == b.ID {
		t.Fatalf("expected a distinct ingredient per unit: %+v %+v %v", a, b, err)
	}
}
