package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "foodgram.db"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("MEDIA_ROOT", filepath.Join(dir, "media"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestImportTags_CSV_Rerunnable(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(path, []byte("name,slug\nBreakfast,breakfast\nLunch,lunch\n,broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "import-tags", path)
	if err != nil {
		t.Fatalf("import-tags: %v", err)
	}
	if strings.TrimSpace(out) != "created=2 existed=0 invalid=1" {
		t.Fatalf("first run = %q", out)
	}

	out, err = run(t, "import-tags", path)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if strings.TrimSpace(out) != "created=0 existed=2 invalid=1" {
		t.Fatalf("second run = %q", out)
	}
}

func TestImportIngredients_JSON(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "ingredients.json")
	body := `[{"name":"eggs","measurement_unit":"pcs"},{"name":"flour","measurement_unit":"g"}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "import-ingredients", path)
	if err != nil {
		t.Fatalf("import-ingredients: %v", err)
	}
	if strings.TrimSpace(out) != "created=2 existed=0 invalid=0" {
		t.Fatalf("out = %q", out)
	}
}

func TestImport_RejectsUnknownExtension(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "tags.xml")
	if err := os.WriteFile(path, []byte("<tags/>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "import-tags", path); err == nil {
		t.Fatal("expected an error for .xml")
	}
	if _, err := run(t, "import-tags"); err == nil {
		t.Fatal("expected an error without a file argument")
	}
}

func TestMigrate(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Idempotent.
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestInvalidConfig_FailsBeforeRunning(t *testing.T) {
	testEnv(t)
	t.Setenv("JWT_SECRET", "short")
	if _, err := run(t, "migrate"); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("err = %v", err)
	}
}
