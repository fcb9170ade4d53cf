package export

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/phenolabs/nmrtab/internal/dataset"
)

// Table is one logical table of an assembled dataset, staged as text
// cells ready for CSV loading.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Tables flattens a dataset into its logical tables. The full spectral
// matrix and the aux regions go long as (sample_key, ppm, value), since
// a table with one column per grid point is not viable in SQL; biomarker
// and report matrices, metadata, params, and variables keep natural
// columns. The data table always comes first.
func Tables(d *dataset.Dataset) []Table {
	tables := []Table{
		dataTable(d),
		metadataTable(d),
		paramsTable(d),
		variablesTable(d),
	}
	if d.TSP != nil {
		tables = append(tables, regionTable("tsp", d.TSP))
	}
	if d.SPCRegion != nil {
		tables = append(tables, regionTable("spc_region", d.SPCRegion))
	}
	if d.GlycRegion != nil {
		tables = append(tables, regionTable("glyc_region", d.GlycRegion))
	}
	return tables
}

func dataTable(d *dataset.Dataset) Table {
	if d.DataType == dataset.DataNMR {
		rows := make([][]string, 0, len(d.Keys)*len(d.Columns))
		for i, key := range d.Keys {
			for j, col := range d.Columns {
				rows = append(rows, []string{key, col, FloatCell(d.Rows[i][j])})
			}
		}
		return Table{Name: "data", Columns: []string{"sample_key", "ppm", "value"}, Rows: rows}
	}

	columns := append([]string{"sample_key"}, d.Columns...)
	rows := make([][]string, len(d.Keys))
	for i, key := range d.Keys {
		row := make([]string, 0, len(columns))
		row = append(row, key)
		if d.Text != nil {
			row = append(row, d.Text[i]...)
		} else {
			for _, v := range d.Rows[i] {
				row = append(row, FloatCell(v))
			}
		}
		rows[i] = row
	}
	return Table{Name: "data", Columns: columns, Rows: rows}
}

func metadataTable(d *dataset.Dataset) Table {
	columns := []string{
		"sample_key", "data_path", "sample_id", "sample_type", "experiment",
		"nmr_folder_id", "project_name", "cohort_name", "run_name",
		"sample_matrix_type", "method", "data_type", "is_ivdr", "tube_type",
		"created_at", "parser_version",
	}
	rows := make([][]string, len(d.Metadata))
	for i, m := range d.Metadata {
		rows[i] = []string{
			m.SampleKey, m.DataPath, m.SampleID, m.SampleType, m.Experiment,
			m.FolderID, m.ProjectName, m.CohortName, m.RunName,
			m.SampleMatrixType, m.Method, m.DataType,
			strconv.FormatBool(m.IsIVDr), m.TubeType,
			m.CreatedAt.Format(time.RFC3339), m.ParserVersion,
		}
	}
	return Table{Name: "metadata", Columns: columns, Rows: rows}
}

func paramsTable(d *dataset.Dataset) Table {
	rows := make([][]string, len(d.Params))
	for i, p := range d.Params {
		rows[i] = []string{p.SampleKey, p.Name, p.Value, p.Source}
	}
	return Table{
		Name:    "params",
		Columns: []string{"sample_key", "param_name", "param_value", "param_source"},
		Rows:    rows,
	}
}

func variablesTable(d *dataset.Dataset) Table {
	columns := []string{
		"var_id", "var_name", "var_type", "var_unit",
		"ppm_center", "ppm_min", "ppm_max", "description",
	}
	rows := make([][]string, len(d.Variables))
	for i, v := range d.Variables {
		rows[i] = []string{
			v.ID, v.Name, v.Type, v.Unit,
			FloatCell(v.PPMCenter), FloatCell(v.PPMMin), FloatCell(v.PPMMax),
			v.Description,
		}
	}
	return Table{Name: "variables", Columns: columns, Rows: rows}
}

func regionTable(name string, r *dataset.Region) Table {
	rows := make([][]string, 0, len(r.Keys)*len(r.PPM))
	for i, key := range r.Keys {
		for j, p := range r.PPM {
			rows = append(rows, []string{
				key, strconv.FormatFloat(p, 'g', -1, 64), FloatCell(r.Rows[i][j]),
			})
		}
	}
	return Table{Name: name, Columns: []string{"sample_key", "ppm", "value"}, Rows: rows}
}

// FloatCell renders a matrix value for CSV. NaN becomes an empty cell and
// infinities the literals CSV sniffers read back as DOUBLE.
func FloatCell(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes a table to path with a header row.
func WriteCSV(t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
