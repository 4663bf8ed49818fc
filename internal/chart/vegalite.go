package chart

import (
	"errors"
	"math"
	"path/filepath"

	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
	"github.com/KaramelBytes/vidstats-cli/internal/utils"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// VegaLiteRenderer writes one <name>.vl.json document per chart with the
// data inlined.
type VegaLiteRenderer struct {
	Dir string
}

type vlDoc struct {
	Schema   string               `json:"$schema"`
	Title    string               `json:"title,omitempty"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Data     vlData               `json:"data"`
	Mark     vlMark               `json:"mark"`
	Encoding map[string]vlChannel `json:"encoding"`
}

type vlData struct {
	Values []map[string]any `json:"values"`
}

type vlMark struct {
	Type    string `json:"type"`
	Tooltip bool   `json:"tooltip"`
	Point   bool   `json:"point,omitempty"`
}

type vlChannel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

var vlMarks = map[Kind]string{
	KindScatter: "point",
	KindBar:     "bar",
	KindLine:    "line",
	KindBubble:  "circle",
}

// Render implements Renderer.
func (r *VegaLiteRenderer) Render(charts []Chart) ([]string, error) {
	if len(charts) == 0 {
		return nil, errors.New("no charts to render")
	}
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		b, err := utils.PrettyJSON(vegaLite(c))
		if err != nil {
			return nil, err
		}
		path := filepath.Join(r.Dir, c.Spec.Artifact()+".vl.json")
		if err := utils.SafeWriteFile(path, b); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func vegaLite(c Chart) vlDoc {
	fr, e := c.Frame, c.Spec.Encoding
	doc := vlDoc{
		Schema:   vegaLiteSchema,
		Title:    c.Spec.Title,
		Width:    640,
		Height:   360,
		Mark:     vlMark{Type: vlMarks[c.Spec.Kind], Tooltip: true, Point: c.Spec.Kind == KindLine},
		Encoding: map[string]vlChannel{},
	}
	doc.Data.Values = make([]map[string]any, 0, fr.Len())
	for _, row := range fr.Rows {
		m := make(map[string]any, len(fr.Columns))
		for i, col := range fr.Columns {
			m[col] = jsonValue(row[i])
		}
		doc.Data.Values = append(doc.Data.Values, m)
	}

	doc.Encoding["x"] = vlChannel{Field: e.X, Type: fieldType(fr, e.X), Title: e.X}
	doc.Encoding["y"] = vlChannel{Field: e.Y, Type: "quantitative", Title: e.Y}
	if e.Color != "" {
		doc.Encoding["color"] = vlChannel{Field: e.Color, Type: "nominal", Title: e.Color}
		if c.Spec.Kind == KindBar {
			doc.Encoding["xOffset"] = vlChannel{Field: e.Color, Type: "nominal"}
		}
	}
	if e.Size != "" {
		doc.Encoding["size"] = vlChannel{Field: e.Size, Type: "quantitative", Title: e.Size}
	}
	return doc
}

// fieldType picks the Vega-Lite measurement type of a column. Years are
// ordered categories rather than numbers.
func fieldType(fr *tabular.Frame, col string) string {
	switch {
	case col == videos.FieldPublicationYear:
		return "ordinal"
	case fr.Numeric(col):
		return "quantitative"
	}
	return "nominal"
}

// jsonValue maps NaN to null; encoding/json rejects NaN.
func jsonValue(v any) any {
	if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return nil
	}
	return v
}
