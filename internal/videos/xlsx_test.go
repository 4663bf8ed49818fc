package videos

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook builds a minimal workbook with the given rows on sheetName.
func writeWorkbook(t *testing.T, sheetName string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheetName))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "videos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, "Videos", [][]any{
		{"Title", "Video ID", "Published At", "Keyword", "Likes", "Comments", "Views"},
		{"Hello", "v1", "2022-08-23", "tech", 50, 10, 2000},
		{},
		{"Other", "v2", "2021-01-01", "food", "", 1, 10},
	})

	tbl, err := Load(path, DefaultLoadOptions())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len(), "blank rows are skipped")
	assert.Equal(t, "videos.xlsx", tbl.Source)
	assert.Equal(t, Present(2000), tbl.Records[0].Views)
	assert.False(t, tbl.Records[1].Likes.Valid)

	opt := DefaultLoadOptions()
	opt.Sheet = "Videos"
	byName, err := LoadXLSX(path, opt)
	require.NoError(t, err)
	assert.Equal(t, tbl.Records, byName.Records)
}

func TestLoadXLSX_FormattedCells(t *testing.T) {
	published := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	path := writeWorkbook(t, "Videos", [][]any{
		{"Title", "Video ID", "Published At", "Keyword", "Likes", "Comments", "Views"},
		{"Hello", "v1", published, "tech", 50, 10, 98765},
		{"Later", "v2", time.Date(2023, 1, 2, 13, 30, 0, 0, time.UTC), "tech", 1, 1, 1000},
	})
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	style, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Videos", "G2", "G3", style))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	tbl, err := LoadXLSX(path, DefaultLoadOptions())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, Present(98765), tbl.Records[0].Views)
	assert.Equal(t, "2022-08-23", tbl.Records[0].PublishedRaw)
	assert.True(t, published.Equal(tbl.Records[0].PublishedAt))
	assert.Equal(t, "2023-01-02 13:30:00", tbl.Records[1].PublishedRaw)

	derived, err := Derive(tbl)
	require.NoError(t, err)
	assert.Equal(t, "2022", derived.Records[0].Features.PublicationYear)
}

func TestLoadXLSX_Errors(t *testing.T) {
	path := writeWorkbook(t, "Videos", [][]any{
		{"Title", "Video ID", "Published At"},
		{"Hello", "v1", "2022-08-23"},
	})
	_, err := LoadXLSX(path, DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrHeader)

	opt := DefaultLoadOptions()
	opt.Sheet = "Missing"
	_, err = LoadXLSX(path, opt)
	assert.ErrorIs(t, err, ErrUnreadable)
}
