package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/finnorm-cli/internal/utils"
)

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "report.md")
	if err := utils.SafeWriteFile(p, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "hello" {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSONAndYAML(t *testing.T) {
	v := map[string]any{"dataset": "ledger", "rows": 3}
	j, err := utils.PrettyJSON(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(j), "\n  \"dataset\": \"ledger\"") {
		t.Fatalf("unexpected json: %s", j)
	}
	y, err := utils.PrettyYAML(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(y) != "dataset: ledger\nrows: 3\n" {
		t.Fatalf("unexpected yaml: %q", y)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.csv", "a.csv", "c.xlsx"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := utils.ExpandInputs([]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "a.csv"), filepath.Join(dir, "c.xlsx")})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), filepath.Join(dir, "c.xlsx")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v want %v", got, want)
	}

	_, err = utils.ExpandInputs([]string{filepath.Join(dir, "*.pdf")})
	if !errors.Is(err, utils.ErrNoMatches) {
		t.Fatalf("expected ErrNoMatches, got %v", err)
	}
}
