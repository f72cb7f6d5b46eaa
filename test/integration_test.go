// ABOUTME: Integration tests for cookbook CLI commands.
// ABOUTME: Tests full workflows from add to delete against a built binary.

package test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var cookbookBin string

func TestMain(m *testing.M) {
	// Build cookbook binary
	cmd := exec.Command("go", "build", "-o", "bin/cookbook", "./cmd/cookbook")
	cmd.Dir = ".."
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	wd, _ := os.Getwd()
	cookbookBin = filepath.Join(wd, "..", "bin", "cookbook")

	os.Exit(m.Run())
}

func TestAddListShowDelete(t *testing.T) {
	dataDir := t.TempDir()

	// Add a recipe
	out, err := runCookbook(dataDir, "add", "Lemon Tart", "--date", "2024-03-10", "--rating", "4", "--instructions", "Blind bake the crust")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created recipe") {
		t.Errorf("expected 'Created recipe' in output: %s", out)
	}

	// List recipes
	out, err = runCookbook(dataDir, "list")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Lemon Tart") {
		t.Errorf("expected 'Lemon Tart' in list: %s", out)
	}

	idPrefix := extractID(t, out, "Lemon Tart")

	// Show recipe
	out, err = runCookbook(dataDir, "show", idPrefix, "--raw")
	if err != nil {
		t.Fatalf("show failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Blind bake") {
		t.Errorf("expected instructions in show: %s", out)
	}

	// Edit recipe
	out, err = runCookbook(dataDir, "edit", idPrefix, "--rating", "5", "--notes", "Less sugar next time")
	if err != nil {
		t.Fatalf("edit failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Updated recipe") {
		t.Errorf("expected 'Updated recipe' in output: %s", out)
	}
	out, _ = runCookbook(dataDir, "show", idPrefix, "--raw")
	if !strings.Contains(out, "Less sugar") {
		t.Errorf("expected notes after edit: %s", out)
	}

	// Delete recipe
	out, err = runCookbook(dataDir, "rm", idPrefix, "--force")
	if err != nil {
		t.Fatalf("rm failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Deleted") {
		t.Errorf("expected 'Deleted' in output: %s", out)
	}

	out, _ = runCookbook(dataDir, "list")
	if !strings.Contains(out, "No recipes yet") {
		t.Errorf("expected empty list: %s", out)
	}
}

func TestAddRequiresInstructions(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCookbook(dataDir, "add", "Half Done", "--date", "2024-03-10")
	if err == nil {
		t.Fatalf("expected add without instructions to fail: %s", out)
	}
	if !strings.Contains(out, "--from-draft") {
		t.Errorf("expected draft hint in output: %s", out)
	}

	out, _ = runCookbook(dataDir, "draft", "show")
	if !strings.Contains(out, "Half Done") {
		t.Errorf("expected draft to hold the title: %s", out)
	}

	out, err = runCookbook(dataDir, "add", "--from-draft", "--instructions", "Finish it")
	if err != nil {
		t.Fatalf("add from draft failed: %v\n%s", err, out)
	}

	out, _ = runCookbook(dataDir, "draft", "show")
	if !strings.Contains(out, "No draft saved") {
		t.Errorf("expected draft cleared after save: %s", out)
	}
	out, _ = runCookbook(dataDir, "list")
	if !strings.Contains(out, "Half Done") {
		t.Errorf("expected recovered recipe in list: %s", out)
	}
}

func TestSearchAndSort(t *testing.T) {
	dataDir := t.TempDir()

	_, _ = runCookbook(dataDir, "add", "Pasta", "--date", "2024-01-01", "--rating", "2", "--instructions", "Boil water")
	_, _ = runCookbook(dataDir, "add", "Curry", "--date", "2024-02-01", "--rating", "5", "--instructions", "Toast the spices")

	out, _ := runCookbook(dataDir, "list", "--search", "SPICES")
	if !strings.Contains(out, "Curry") {
		t.Errorf("expected 'Curry' in search: %s", out)
	}
	if strings.Contains(out, "Pasta") {
		t.Errorf("did not expect 'Pasta' in search: %s", out)
	}

	out, _ = runCookbook(dataDir, "list", "--sort", "date-asc")
	if strings.Index(out, "Pasta") > strings.Index(out, "Curry") {
		t.Errorf("expected oldest first: %s", out)
	}

	out, err := runCookbook(dataDir, "list", "--sort", "alphabetical")
	if err == nil {
		t.Errorf("expected unknown sort order to fail: %s", out)
	}
}

func TestPhotosAreNormalized(t *testing.T) {
	dataDir := t.TempDir()
	photo := writePNG(t, 1200, 800)

	out, err := runCookbook(dataDir, "add", "Bread", "--date", "2024-01-01", "--instructions", "Knead", "--image", photo)
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}

	out, _ = runCookbook(dataDir, "list")
	idPrefix := extractID(t, out, "Bread")

	dest := filepath.Join(t.TempDir(), "bread.jpg")
	out, err = runCookbook(dataDir, "image", "get", idPrefix, "1", "-o", dest)
	if err != nil {
		t.Fatalf("image get failed: %v\n%s", err, out)
	}

	f, err := os.Open(dest) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode saved photo: %v", err)
	}
	if format != "jpeg" || cfg.Width != 600 || cfg.Height != 400 {
		t.Errorf("expected 600x400 jpeg, got %dx%d %s", cfg.Width, cfg.Height, format)
	}
}

func TestStorageFullDropsPhotosWhenConfirmed(t *testing.T) {
	dataDir := t.TempDir()
	photo := writePNG(t, 600, 600)
	args := []string{"--quota", "20000", "add", "Soup", "--date", "2024-01-01", "--instructions", "Simmer", "--image", photo}

	out, err := runCookbook(dataDir, args...)
	if err == nil {
		t.Fatalf("expected save to fail without --yes: %s", out)
	}
	if !strings.Contains(out, "storage is full") {
		t.Errorf("expected storage full message: %s", out)
	}

	out, err = runCookbook(dataDir, append(args, "--yes")...)
	if err != nil {
		t.Fatalf("add --yes failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "photos were kept") {
		t.Errorf("expected reduced photo warning: %s", out)
	}

	out, _ = runCookbook(dataDir, "--quota", "20000", "usage")
	if !strings.Contains(out, "1 recipes") || !strings.Contains(out, "Remaining:") {
		t.Errorf("unexpected usage output: %s", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	_, _ = runCookbook(src, "add", "Pancakes", "--date", "2024-01-01", "--rating", "3", "--instructions", "Flip once")

	exportPath := filepath.Join(t.TempDir(), "export.json")
	out, err := runCookbook(src, "export", "--format", "json", "--output", exportPath)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(exportPath) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	var exported struct {
		Recipes []struct {
			Title string `json:"title"`
		} `json:"recipes"`
	}
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(exported.Recipes) != 1 || exported.Recipes[0].Title != "Pancakes" {
		t.Errorf("unexpected export: %s", data)
	}

	dst := t.TempDir()
	out, err = runCookbook(dst, "import", exportPath)
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, out)
	}
	out, _ = runCookbook(dst, "list")
	if !strings.Contains(out, "Pancakes") {
		t.Errorf("expected imported recipe in list: %s", out)
	}

	mdDir := filepath.Join(t.TempDir(), "md")
	if out, err := runCookbook(dst, "export", "--format", "md", "--output", mdDir); err != nil {
		t.Fatalf("markdown export failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(mdDir, "Pancakes.md")); err != nil {
		t.Errorf("expected Pancakes.md: %v", err)
	}
}

func TestBadgerBackend(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCookbook(dataDir, "--backend", "badger", "add", "Salad", "--date", "2024-01-01", "--instructions", "Toss")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}
	out, _ = runCookbook(dataDir, "--backend", "badger", "list")
	if !strings.Contains(out, "Salad") {
		t.Errorf("expected 'Salad' from badger store: %s", out)
	}
}

func extractID(t *testing.T, listOutput, title string) string {
	t.Helper()
	for _, line := range strings.Split(listOutput, "\n") {
		if strings.Contains(line, title) {
			if fields := strings.Fields(line); len(fields) > 0 {
				return fields[0]
			}
		}
	}
	t.Fatalf("could not extract ID for %q from:\n%s", title, listOutput)
	return ""
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic test noise
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCookbook(dataDir string, args ...string) (string, error) {
	allArgs := append([]string{"--data-dir", dataDir}, args...)
	cmd := exec.Command(cookbookBin, allArgs...) //nolint:gosec // Running our own test binary is expected in integration tests
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dataDir, "config"),
		"COOKBOOK_BACKEND=sqlite",
		"NO_COLOR=1",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
