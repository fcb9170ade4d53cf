package report

import (
	"path/filepath"
	"strings"
)

// Quant report filenames in the order they should be tried. Plasma
// reports outrank urine ones, and within urine the extended panel
// outranks the basic and non-extended panels.
var quantPriority = []string{
	"plasma_quant_report_2_1_0.xml",
	"plasma_quant_report.xml",
	"urine_quant_report_e_1_2_0.xml",
	"urine_quant_report_e_ver_1_0.xml",
	"urine_quant_report_e.xml",
	"urine_quant_report_b_ver_1_0.xml",
	"urine_quant_report_b.xml",
	"urine_quant_report_ne_ver_1_0.xml",
	"urine_quant_report_ne.xml",
}

func reportGlob(expno, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(expno, "pdata", "1", pattern))
	if err != nil {
		return nil
	}
	return matches
}

// preferred narrows matches to those containing marker, unless none do.
func preferred(matches []string, marker string) []string {
	var kept []string
	for _, m := range matches {
		if strings.Contains(m, marker) {
			kept = append(kept, m)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	return matches
}

// FindQCReport locates the quality-control report under an experiment's
// first processed-data directory, preferring the 1_1_0 schema revision.
func FindQCReport(expno string) (string, bool) {
	matches := preferred(reportGlob(expno, "*qc_report*.xml"), "1_1_0.xml")
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// FindLipoReport locates the lipoprotein report, preferring the 1_1_0
// schema revision.
func FindLipoReport(expno string) (string, bool) {
	matches := preferred(reportGlob(expno, "*lipo*.xml"), "1_1_0")
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// FindPacsReport locates the PACS report, preferring the 1_1_0 schema
// revision.
func FindPacsReport(expno string) (string, bool) {
	matches := preferred(reportGlob(expno, "*pacs*.xml"), "1_1_0")
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// FindQuantReport locates the best available quantification report for
// an experiment, walking quantPriority and returning the first match.
func FindQuantReport(expno string) (string, bool) {
	matches := reportGlob(expno, "*quant*.xml")
	for _, name := range quantPriority {
		for _, m := range matches {
			if strings.Contains(m, name) {
				return m, true
			}
		}
	}
	return "", false
}
