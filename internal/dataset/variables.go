package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// spcglycCatalogue describes the biomarker columns in matrix order. The
// two trailing ratios have no spectral position.
var spcglycCatalogue = []Variable{
	{Name: "SPC_All", Type: "biomarker", Unit: "ratio", PPMCenter: 3.25, PPMMin: 3.18, PPMMax: 3.32, Description: "Total SPC (3.18-3.32 ppm)"},
	{Name: "SPC3", Type: "biomarker", Unit: "ratio", PPMCenter: 3.281, PPMMin: 3.262, PPMMax: 3.3, Description: "SPC subregion 3 (3.262-3.3 ppm)"},
	{Name: "SPC2", Type: "biomarker", Unit: "ratio", PPMCenter: 3.249, PPMMin: 3.236, PPMMax: 3.262, Description: "SPC subregion 2 (3.236-3.262 ppm)"},
	{Name: "SPC1", Type: "biomarker", Unit: "ratio", PPMCenter: 3.218, PPMMin: 3.2, PPMMax: 3.236, Description: "SPC subregion 1 (3.2-3.236 ppm)"},
	{Name: "Glyc_All", Type: "biomarker", Unit: "ratio", PPMCenter: 2.084, PPMMin: 2.050, PPMMax: 2.118, Description: "Total Glycoprotein (2.050-2.118 ppm)"},
	{Name: "GlycA", Type: "biomarker", Unit: "ratio", PPMCenter: 2.0695, PPMMin: 2.050, PPMMax: 2.089, Description: "GlycA (2.050-2.089 ppm)"},
	{Name: "GlycB", Type: "biomarker", Unit: "ratio", PPMCenter: 2.1035, PPMMin: 2.089, PPMMax: 2.118, Description: "GlycB (2.089-2.118 ppm)"},
	{Name: "Alb1", Type: "biomarker", Unit: "ratio", PPMCenter: 0.45, PPMMin: 0.2, PPMMax: 0.7, Description: "Albumin proxy 1 (0.2-0.7 ppm)"},
	{Name: "Alb2", Type: "biomarker", Unit: "ratio", PPMCenter: 8.0, PPMMin: 6.0, PPMMax: 10.0, Description: "Albumin proxy 2 (6.0-10.0 ppm)"},
	{Name: "SPC3_2", Type: "biomarker", Unit: "ratio", PPMCenter: math.NaN(), PPMMin: math.NaN(), PPMMax: math.NaN(), Description: "SPC3/SPC2 ratio"},
	{Name: "SPC_Glyc", Type: "biomarker", Unit: "ratio", PPMCenter: math.NaN(), PPMMin: math.NaN(), PPMMax: math.NaN(), Description: "SPC/Glyc ratio"},
}

func buildVariables(columns []string, dataType string, glyc bool) []Variable {
	if glyc {
		vars := make([]Variable, len(spcglycCatalogue))
		copy(vars, spcglycCatalogue)
		for i := range vars {
			vars[i].ID = fmt.Sprintf("var_%05d", i)
		}
		return vars
	}
	vars := make([]Variable, len(columns))
	for i, name := range columns {
		v := Variable{
			ID:        fmt.Sprintf("var_%05d", i),
			Name:      name,
			PPMCenter: math.NaN(),
			PPMMin:    math.NaN(),
			PPMMax:    math.NaN(),
		}
		if dataType == DataNMR {
			v.Type = "ppm"
			v.Unit = "ppm"
			v.Description = "NMR intensity at " + name + " ppm"
			if center, err := strconv.ParseFloat(name, 64); err == nil {
				v.PPMCenter = center
			}
		} else {
			v.Type = "metabolite"
			v.Unit = "mM"
			v.Description = "Concentration of " + name
		}
		vars[i] = v
	}
	return vars
}

// baseName joins the non-empty descriptive names into the artifact stem,
// falling back to a timestamp when nothing was provided.
func baseName(opts Options, method string, now time.Time) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{
		opts.ProjectName, opts.CohortName, opts.SampleMatrixType, opts.RunName, method,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("nmr_run_%s", now.Format("20060102_150405"))
	}
	return strings.Join(parts, "_")
}
