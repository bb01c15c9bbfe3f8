// Package report writes the per-destination route summary workbook.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/atharv3903/routemap/internal/batch"
	"github.com/atharv3903/routemap/internal/geo"
)

const SheetName = "Routes"

var headers = []any{
	"Index", "Latitude", "Longitude", "Geohash",
	"Nodes", "Length (m)", "Cache hit", "Status",
}

// Write saves one row per outcome to path.
func Write(path, runID string, origin string, results batch.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open report stream: %w", err)
	}

	if err := sw.SetRow("A1", []any{"Run", runID, "Origin", origin}); err != nil {
		return fmt.Errorf("write report title: %w", err)
	}
	if err := sw.SetRow("A2", headers); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for i, o := range results.Outcomes {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		status := "ok"
		var nodes int
		var length float64
		var hit bool
		if o.Err != nil {
			status = o.Err.Error()
		} else {
			nodes = len(o.Result.Path.Nodes)
			length = o.Result.Path.LengthM
			hit = o.Result.CacheHit
		}
		row := []any{
			o.Index, o.Target.Lat, o.Target.Lon, geo.Hash(o.Target),
			nodes, length, hit, status,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write report row %d: %w", o.Index, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
