package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/atharv3903/routemap/internal/model"
)

const (
	ColLatitude  = "LATITUDE"
	ColLongitude = "LONGITUDE"
)

var ErrMissingColumn = errors.New("targets: missing column")

// LoadTargets reads destination coordinates from a CSV file, or from the first
// sheet of an .xlsx workbook. Column names are matched case-sensitively.
func LoadTargets(path string) ([]model.Coordinate, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets: %w", err)
	}
	defer f.Close()

	return ReadTargets(f)
}

// ReadTargets parses CSV with a header row.
func ReadTargets(r io.Reader) ([]model.Coordinate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read targets csv: %w", err)
	}
	return parseRows(rows)
}

func loadXLSX(path string) ([]model.Coordinate, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open targets workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read targets workbook: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]model.Coordinate, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColLatitude)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	latIdx, lonIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case ColLatitude:
			latIdx = i
		case ColLongitude:
			lonIdx = i
		}
	}
	if latIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColLatitude)
	}
	if lonIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColLongitude)
	}

	targets := make([]model.Coordinate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		if latIdx >= len(row) || lonIdx >= len(row) {
			return nil, fmt.Errorf("targets row %d: too few columns", line)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[latIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("targets row %d: %s: %w", line, ColLatitude, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[lonIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("targets row %d: %s: %w", line, ColLongitude, err)
		}
		targets = append(targets, model.Coordinate{Lat: lat, Lon: lon})
	}
	return targets, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
