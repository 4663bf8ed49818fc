package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_CollisionSuffixAndSuppressSamples(t *testing.T) {
	home, _ := setup(t)

	// Two tables with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
		if err := os.WriteFile(filepath.Join(d, "videos.csv"), []byte(videosCSV), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	outDir := filepath.Join(home, "summaries")
	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "videos.csv"), "--out-dir", outDir, "--sample-rows", "0")
	if !strings.Contains(out, "[1/2] Processing videos.csv...") || !strings.Contains(out, "[2/2] Processing videos.csv...") {
		t.Fatalf("missing progress lines:\n%s", out)
	}

	b1 := filepath.Join(outDir, "videos.summary.md")
	b2 := filepath.Join(outDir, "videos__2.summary.md")
	for _, p := range []string{b1, b2} {
		body, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing summary %s: %v", p, err)
		}
		if strings.Contains(string(body), "[HEAD AND SAMPLE ROWS]") {
			t.Fatalf("expected no sample rows in %s", p)
		}
		if !strings.Contains(string(body), "Rows: 5 loaded, 4 kept, 1 dropped") {
			t.Fatalf("unexpected summary %s:\n%s", p, body)
		}
	}
}

func TestAnalyzeBatch_QuietJSON(t *testing.T) {
	home, input := setup(t)
	outDir := filepath.Join(home, "summaries")
	out := runCmd(t, "analyze-batch", input, input, "--out-dir", outDir, "-f", "json", "-q")
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no output with --quiet, got:\n%s", out)
	}
	// Duplicate arguments are processed once
	files, _ := filepath.Glob(filepath.Join(outDir, "*.summary.json"))
	if len(files) != 1 || filepath.Base(files[0]) != "videos.summary.json" {
		t.Fatalf("unexpected summaries: %v", files)
	}
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home, _ := setup(t)
	if _, _, err := execute(t, "analyze-batch", filepath.Join(home, "nothing-*.csv")); err == nil {
		t.Fatal("expected error when nothing matches")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	first := uniquePath(dir, "a", ".summary.md")
	if filepath.Base(first) != "a.summary.md" {
		t.Fatalf("first = %s", first)
	}
	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a__2.summary.md"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(uniquePath(dir, "a", ".summary.md")); got != "a__3.summary.md" {
		t.Fatalf("got %s, want a__3.summary.md", got)
	}
}
