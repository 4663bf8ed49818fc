package run_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/KaramelBytes/vidstats-cli/internal/run"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := run.New("chart", "videos.csv", dir)
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}

	derived := &videos.Table{Records: []videos.Record{
		{VideoID: "v1", Views: videos.Present(10)},
		{VideoID: "v2", Views: videos.Present(0)},
	}}
	m.Record(videos.CleanStats{Input: 5, Kept: 3, Dropped: 2}, derived, videos.ZeroViewsExclude)
	if m.Rows.Excluded != 1 || m.Rows.ZeroViews != 1 {
		t.Fatalf("rows = %+v", m.Rows)
	}

	if err := os.MkdirAll(filepath.Join(dir, "charts"), 0o755); err != nil {
		t.Fatal(err)
	}
	art := filepath.Join(dir, "charts", "a.vl.json")
	if err := os.WriteFile(art, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.AddArtifact(art, "chart"); err != nil {
		t.Fatalf("add artifact: %v", err)
	}
	if err := m.AddArtifact(filepath.Join(dir, "missing"), "chart"); err == nil {
		t.Fatalf("expected error for missing artifact")
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := run.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != m.ID || got.Command != "chart" || got.Rows != m.Rows || got.ZeroViews != "exclude" {
		t.Fatalf("loaded %+v, want %+v", got, m)
	}
	if len(got.Artifacts) != 1 || got.Artifacts[0].Path != "charts/a.vl.json" || got.Artifacts[0].Bytes != 2 {
		t.Fatalf("artifacts = %+v", got.Artifacts)
	}
	if got.Dir() != dir {
		t.Fatalf("dir = %q", got.Dir())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := run.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSaveWithoutDir(t *testing.T) {
	if err := run.New("export", "x.csv", "").Save(); err == nil {
		t.Fatalf("expected error")
	}
}
