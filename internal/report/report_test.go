package report

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/atharv3903/routemap/internal/batch"
	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/pathfind"
)

func TestWrite(t *testing.T) {
	results := batch.Results{
		Outcomes: []batch.Outcome{
			{
				Index:  0,
				Target: model.Coordinate{Lat: 48.14, Lon: 11.58},
				Result: pathfind.Result{Path: model.Path{Nodes: []int64{1, 2, 4}, LengthM: 200}},
			},
			{
				Index:  1,
				Target: model.Coordinate{Lat: 48.2, Lon: 11.6},
				Err:    errors.New("no path"),
			},
		},
	}

	path := filepath.Join(t.TempDir(), "routes.xlsx")
	require.NoError(t, Write(path, "run-1", "48.1372038,11.565651", results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "run-1", rows[0][1])
	assert.Equal(t, "Geohash", rows[1][3])
	assert.Equal(t, "3", rows[2][4])
	assert.Equal(t, "200", rows[2][5])
	assert.Equal(t, "ok", rows[2][7])
	assert.Equal(t, "no path", rows[3][7])
}

func TestWrite_WrapsErrors(t *testing.T) {
	dir := t.TempDir()

	err := Write(filepath.Join(dir, "routes.txt"), "run-1", "o", batch.Results{})
	require.ErrorIs(t, err, excelize.ErrWorkbookFileFormat)
	assert.Contains(t, err.Error(), "save report")

	err = Write(filepath.Join(dir, "missing", "routes.xlsx"), "run-1", "o", batch.Results{})
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "save report")
}
