package chart

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/vidstats-cli/internal/analysis"
	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
	"github.com/KaramelBytes/vidstats-cli/internal/validation"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

func record(id, title, published, keyword string, likes, comments, views int64) videos.Record {
	return videos.Record{
		Title: title, VideoID: id, PublishedRaw: published, Keyword: keyword,
		Likes: videos.Present(likes), Comments: videos.Present(comments), Views: videos.Present(views),
	}
}

func derivedTable(t *testing.T) *videos.Table {
	t.Helper()
	tbl, err := videos.Derive(&videos.Table{Source: "videos.csv", Records: []videos.Record{
		record("v1", "Hello", "2022-08-23", "tech", 50, 10, 2000),
		record("v2", "Apple iPhone review", "2022-05-01", "tech", 1234, 56, 98765),
		record("v4", "Pasta night", "2021-03-05", "food", 7, 2, 300),
		record("v5", "Zero", "2022-01-10", "food", 0, 0, 0),
	}})
	require.NoError(t, err)
	return tbl
}

func TestBuildDefaultSpecs(t *testing.T) {
	charts, err := Build(derivedTable(t), DefaultSpecs())
	require.NoError(t, err)
	require.Len(t, charts, 4)
	assert.Equal(t, 4, charts[0].Frame.Len())
	assert.Equal(t, []string{"publication_year", "keyword", "n", "sum_comments"}, charts[1].Frame.Columns)
	assert.Equal(t, 3, charts[1].Frame.Len())
	assert.True(t, charts[3].Frame.Has(videos.FieldLikesPer1K))
}

func TestSpecValidate(t *testing.T) {
	fr := tabular.FromTable(derivedTable(t))
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"missing y", Spec{Name: "a", Kind: KindScatter, Encoding: Encoding{X: "views"}}, nil},
		{"bad kind", Spec{Name: "a", Kind: "pie", Encoding: Encoding{X: "views", Y: "likes"}}, nil},
		{"unknown column", Spec{Name: "a", Kind: KindScatter, Encoding: Encoding{X: "views", Y: "shares"}}, ErrEncoding},
		{"text y", Spec{Name: "a", Kind: KindBar, Encoding: Encoding{X: "keyword", Y: "title"}}, ErrEncoding},
		{"text x scatter", Spec{Name: "a", Kind: KindScatter, Encoding: Encoding{X: "keyword", Y: "likes"}}, ErrEncoding},
		{"bubble without size", Spec{Name: "a", Kind: KindBubble, Encoding: Encoding{X: "views", Y: "likes"}}, ErrEncoding},
		{"text size", Spec{Name: "a", Kind: KindBubble, Encoding: Encoding{X: "views", Y: "likes", Size: "keyword"}}, ErrEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate(fr)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			var verr *validation.Error
			assert.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
		})
	}

	ok := Spec{Name: "views_by_keyword", Kind: KindBar, Encoding: Encoding{X: "keyword", Y: "views"}}
	assert.NoError(t, ok.Validate(fr))
}

func TestBuildErrors(t *testing.T) {
	tbl := derivedTable(t)
	_, err := Build(tbl, nil)
	assert.Error(t, err)

	dup := DefaultSpecs()[:1]
	dup = append(dup, dup[0])
	_, err = Build(tbl, dup)
	assert.ErrorContains(t, err, "repeated")

	cleaned := &videos.Table{Records: []videos.Record{record("v1", "Hello", "2022-08-23", "tech", 1, 1, 1)}}
	_, err = Build(cleaned, DefaultSpecs()[1:2])
	assert.ErrorIs(t, err, analysis.ErrNotDerived)
}

func TestBuildRejectsNamesThatSanitizeAlike(t *testing.T) {
	tbl := derivedTable(t)
	scatter := func(name string) Spec {
		return Spec{Name: name, Kind: KindScatter, Encoding: Encoding{X: "views", Y: "likes"}}
	}
	_, err := Build(tbl, []Spec{scatter("a/b"), scatter("a:b")})
	assert.ErrorContains(t, err, `both map to "a_b"`)

	_, err = Build(tbl, []Spec{scatter("Views"), scatter("views")})
	assert.Error(t, err)

	charts, err := Build(tbl, []Spec{scatter("a/b"), scatter("a_c")})
	require.NoError(t, err)
	assert.Len(t, charts, 2)
}

func TestXLSXRendererQuotesSheetReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.xlsx")
	specs := []Spec{{Name: "2023_comments", Kind: KindScatter, Encoding: Encoding{X: "views", Y: "comments"}}}
	_, err := Present(derivedTable(t), specs, &XLSXRenderer{Path: path})
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var chartXML string
	for _, zf := range zr.File {
		if zf.Name == "xl/charts/chart1.xml" {
			rc, err := zf.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			chartXML = string(b)
		}
	}
	require.NotEmpty(t, chartXML)
	quoted := strings.Contains(chartXML, "'2023_comments'!$") || strings.Contains(chartXML, "&#39;2023_comments&#39;!$")
	assert.True(t, quoted, "series references must quote the sheet name")
	assert.Equal(t, "'a b'!$C$2", cellRef("a b", "C", 2))
	assert.Equal(t, "'it''s'!$A$1:$A$3", rangeRef("it's", "A", 1, 3))
}

func TestXLSXRenderer(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(FormatXLSX, dir)
	require.NoError(t, err)
	paths, err := Present(derivedTable(t), DefaultSpecs(), r)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "charts.xlsx")}, paths)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"views_vs_likes", "comments_by_year", "title_length_by_year", "engagement_per_1k"}, f.GetSheetList())

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}
	// point charts are sorted by color so each keyword is one block
	assert.Equal(t, "food", cell("views_vs_likes", "D2"))
	assert.Equal(t, "food", cell("views_vs_likes", "D3"))
	assert.Equal(t, "tech", cell("views_vs_likes", "D4"))

	// pivot to the right of the aggregated frame
	assert.Equal(t, "publication_year", cell("comments_by_year", "F1"))
	assert.Equal(t, "food", cell("comments_by_year", "G1"))
	assert.Equal(t, "tech", cell("comments_by_year", "H1"))
	assert.Equal(t, "2021", cell("comments_by_year", "F2"))
	assert.Equal(t, "2", cell("comments_by_year", "G2"))
	assert.Equal(t, "", cell("comments_by_year", "H2"))
	assert.Equal(t, "0", cell("comments_by_year", "G3"))
	assert.Equal(t, "66", cell("comments_by_year", "H3"))

	zr, err := zip.OpenReader(paths[0])
	require.NoError(t, err)
	defer zr.Close()
	charts := 0
	for _, zf := range zr.File {
		if strings.HasPrefix(zf.Name, "xl/charts/chart") && strings.HasSuffix(zf.Name, ".xml") {
			charts++
		}
	}
	assert.Equal(t, 4, charts)
}

func TestVegaLiteRenderer(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer("vegalite", dir)
	require.NoError(t, err)
	paths, err := Present(derivedTable(t), DefaultSpecs(), r)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join(dir, "engagement_per_1k.vl.json"), paths[3])

	b, err := os.ReadFile(paths[3])
	require.NoError(t, err)
	var doc struct {
		Schema string `json:"$schema"`
		Mark   struct {
			Type string `json:"type"`
		} `json:"mark"`
		Data struct {
			Values []map[string]any `json:"values"`
		} `json:"data"`
		Encoding map[string]struct {
			Field string `json:"field"`
			Type  string `json:"type"`
		} `json:"encoding"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, vegaLiteSchema, doc.Schema)
	assert.Equal(t, "circle", doc.Mark.Type)
	require.Len(t, doc.Data.Values, 4)
	assert.Equal(t, 25.0, doc.Data.Values[0]["likes_per_1k"])
	assert.Nil(t, doc.Data.Values[3]["likes_per_1k"], "undefined ratios are null")
	assert.Equal(t, "views", doc.Encoding["size"].Field)
	assert.Equal(t, "quantitative", doc.Encoding["x"].Type)

	b, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "bar", doc.Mark.Type)
	assert.Equal(t, "ordinal", doc.Encoding["x"].Type)
	assert.Equal(t, "keyword", doc.Encoding["xOffset"].Field)
}

func TestVegaLiteRendererKeepsFilesInDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	specs := []Spec{{Name: "../escape", Kind: KindScatter, Encoding: Encoding{X: "views", Y: "likes"}}}
	paths, err := Present(derivedTable(t), specs, &VegaLiteRenderer{Dir: dir})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, dir, filepath.Dir(paths[0]))
	assert.Equal(t, ".._escape.vl.json", filepath.Base(paths[0]))
	_, err = os.Stat(filepath.Join(root, "escape.vl.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewRendererUnknown(t *testing.T) {
	_, err := NewRenderer("png", t.TempDir())
	assert.Error(t, err)
}
