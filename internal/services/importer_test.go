package services

import (
	"context"
	"strings"
	"testing"

	"github.com/tbourn/foodgram-backend/internal/repo"
)

func TestImporter_IngredientsCSV(t *testing.T) {
	db := newTestDB(t)
	cat := NewCatalogService(db)
	im := &Importer{DB: db, Catalog: cat}
	ctx := context.Background()

	csv := "name,measurement_unit\n" +
		"olive oil, ml\n" +
		"salt,g\n" +
		",g\n" +
		"salt,g\n" +
		"\"flour, wheat\",g\n"
	rep, err := im.Ingredients(ctx, strings.NewReader(csv), "csv")
	if err != nil {
		t.Fatalf("Ingredients: %v", err)
	}
	if rep != (ImportReport{Created: 3, Existed: 1, Invalid: 1}) {
		t.Fatalf("report = %+v", rep)
	}
	if cat.Index.Load().Len() != 3 {
		t.Fatalf("index must be rebuilt after import, len=%d", cat.Index.Load().Len())
	}

	again, err := im.Ingredients(ctx, strings.NewReader(csv), "csv")
	if err != nil || again.Created != 0 || again.Existed != 4 {
		t.Fatalf("re-import = %+v, %v", again, err)
	}

	all, _ := repo.AllIngredients(ctx, db)
	if len(all) != 3 || all[0].Name != "olive oil" || all[0].MeasurementUnit != "ml" {
		t.Fatalf("stored = %+v", all)
	}
}

func TestImporter_IngredientsJSON(t *testing.T) {
	db := newTestDB(t)
	im := &Importer{DB: db}
	js := `[{"name":"rice","measurement_unit":"g"},{"name":"milk","measurement_unit":""}]`
	rep, err := im.Ingredients(context.Background(), strings.NewReader(js), "json")
	if err != nil || rep.Created != 1 || rep.Invalid != 1 {
		t.Fatalf("report = %+v, %v", rep, err)
	}
	if _, err := im.Ingredients(context.Background(), strings.NewReader("{"), "json"); err == nil {
		t.Fatal("malformed json must fail")
	}
}

func TestImporter_Tags(t *testing.T) {
	db := newTestDB(t)
	im := &Importer{DB: db}
	ctx := context.Background()

	rep, err := im.Tags(ctx, strings.NewReader("Breakfast,breakfast\nLunch,lunch\nBad,not a slug\n"), "csv")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if rep != (ImportReport{Created: 2, Invalid: 1}) {
		t.Fatalf("report = %+v", rep)
	}

	rep, err = im.Tags(ctx, strings.NewReader(`[{"name":"Brunch","slug":"lunch"},{"name":"Dinner","slug":"dinner"}]`), "json")
	if err != nil || rep.Created != 1 || rep.Existed != 1 {
		t.Fatalf("json report = %+v, %v", rep, err)
	}
	tags, _ := repo.ListTags(ctx, db)
	if len(tags) != 3 {
		t.Fatalf("tags = %+v", tags)
	}
	for _, tg := range tags {
		if tg.Slug == "lunch" && tg.Name != "Lunch" {
			t.Fatalf("existing tags are not renamed by an import, got %q", tg.Name)
		}
	}
}

func TestImporter_Errors(t *testing.T) {
	im := &Importer{DB: newTestDB(t)}
	ctx := context.Background()

	if _, err := im.Tags(ctx, strings.NewReader("only-one-column\n"), "csv"); err == nil {
		t.Fatal("wrong column count must fail")
	}
	if _, err := im.Ingredients(ctx, strings.NewReader(""), "yaml"); err == nil {
		t.Fatal("unknown format must fail")
	}

	for path, want := range map[string]string{"a/b.CSV": "csv", "x.json": "json"} {
		if got, err := FormatFromPath(path); err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("tags.txt"); err == nil {
		t.Fatal(".txt must be rejected")
	}
}
