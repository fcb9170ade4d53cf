package report

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

const quantStandardReport = `<?xml version="1.0" encoding="UTF-8"?>
<REPORT>
  <QUANTIFICATION version="Bruker B.I.Quant-PS 2.0.0">
    <PARAMETER name="Ethanol" type="conc">
      <VALUE conc="0" concUnit="mmol/L" lod="0.1" lodUnit="mmol/L" loq="0.3" loqUnit="mmol/L"/>
      <RELDATA sigCorrUnit="-" sigCorr="0.98" rawConcUnit="mmol/L" rawConc="0.05" errConc="0.01" errConcUnit="mmol/L"/>
      <REFERENCE vmax="0.8" vmin="0" unit="mmol/L"/>
    </PARAMETER>
    <PARAMETER name="Glucose" type="conc">
      <VALUE conc="4.9" concUnit="mmol/L" lod="0.2" lodUnit="mmol/L" loq="0.6" loqUnit="mmol/L"/>
      <VALUERELATIVE conc="410.2" concUnit="mmol/mol Crea" lod="18" lodUnit="mmol/mol Crea" loq="52" loqUnit="mmol/mol Crea"/>
      <RELDATA sigCorrUnit="-" sigCorr="1.02" rawConcUnit="mmol/L" rawConc="4.8" errConc="0.2" errConcUnit="mmol/L"/>
      <REFERENCE vmax="5.6" vmin="3.9" unit="mmol/L"/>
    </PARAMETER>
    <PARAMETER name="Creatinine" type="conc">
      <VALUE conc="72.1" concUnit="mmol/L" lod="1" lodUnit="mmol/L" loq="3" loqUnit="mmol/L"/>
      <REFERENCE vmax="110" vmin="45" unit="mmol/L"/>
    </PARAMETER>
  </QUANTIFICATION>
</REPORT>
`

const quantVerReport = `<?xml version="1.0" encoding="UTF-8"?>
<REPORT>
  <QUANTIFICATION version="1.0">
    <PARAMETER name="Creatinine" type="conc">
      <VALUE valueext="13.37" unit="mmol/L" lod="0.5" loq="1.5"/>
      <VALUE valueext="0" unit="mmol/mol Crea" lod="0" loq="0"/>
      <REFERENCE vmax="20" vmin="3" unit="mmol/L"/>
    </PARAMETER>
    <PARAMETER name="Alanine" type="conc">
      <VALUE valueext="0.28" unit="mmol/L" lod="0.05" loq="0.15"/>
      <VALUE valueext="21.1" unit="mmol/mol Crea" lod="3.7" loq="11.2"/>
      <REFERENCE vmax="0.4" vmin="0.1" unit="mmol/L"/>
    </PARAMETER>
    <PARAMETER name="Formate" type="conc">
      <VALUE valueext="0.02" unit="mmol/L" lod="0.01" loq="0.04"/>
    </PARAMETER>
  </QUANTIFICATION>
</REPORT>
`

func TestQuantStandardFormat(t *testing.T) {
	path := writeReport(t, t.TempDir(), "plasma_quant_report_2_1_0.xml", quantStandardReport)

	r := NewReader(testutil.NewTestLogger(t))
	quant, ok := r.Quant(path)
	require.True(t, ok, "report should parse")

	assert.Equal(t, "Bruker B.I.Quant-PS 2.0.0", quant.Version)
	require.Len(t, quant.Rows, 3)

	assert.Equal(t, QuantRow{
		Name:        "Ethanol",
		Conc:        "0",
		ConcUnit:    "mmol/L",
		LOD:         "0.1",
		LODUnit:     "mmol/L",
		LOQ:         "0.3",
		LOQUnit:     "mmol/L",
		SigCorrUnit: "-",
		SigCorr:     "0.98",
		RawConcUnit: "mmol/L",
		RawConc:     "0.05",
		ErrConc:     "0.01",
		ErrConcUnit: "mmol/L",
		RefMax:      "0.8",
		RefMin:      "0",
		RefUnit:     "mmol/L",
	}, quant.Rows[0], "the first compound has no relative block")

	// The single VALUERELATIVE belongs to the second compound.
	glucose := quant.Rows[1]
	assert.Equal(t, "4.9", glucose.Conc)
	assert.Equal(t, "410.2", glucose.ConcRel)
	assert.Equal(t, "mmol/mol Crea", glucose.ConcUnitRel)
	assert.Equal(t, "18", glucose.LODRel)
	assert.Equal(t, "52", glucose.LOQRel)
	assert.Equal(t, "4.8", glucose.RawConc)
	assert.Equal(t, "5.6", glucose.RefMax)

	// Creatinine keeps its reference range in this format; the missing
	// RELDATA slot pads out empty.
	creatinine := quant.Rows[2]
	assert.Equal(t, "72.1", creatinine.Conc)
	assert.Empty(t, creatinine.ConcRel)
	assert.Empty(t, creatinine.SigCorr)
	assert.Empty(t, creatinine.RawConc)
	assert.Equal(t, "110", creatinine.RefMax)
	assert.Equal(t, "45", creatinine.RefMin)
}

func TestQuantVerFormat(t *testing.T) {
	path := writeReport(t, t.TempDir(), "urine_quant_report_e_ver_1_0.xml", quantVerReport)

	r := NewReader(testutil.NewTestLogger(t))
	quant, ok := r.Quant(path)
	require.True(t, ok, "report should parse")

	assert.Equal(t, "1.0", quant.Version)
	require.Len(t, quant.Rows, 3)

	// All unit fields of a VALUE come from its single unit attribute, and
	// the raw concentration mirrors the first VALUE. Creatinine reference
	// ranges are dropped even when present.
	assert.Equal(t, QuantRow{
		Name:        "Creatinine",
		Conc:        "13.37",
		ConcUnit:    "mmol/L",
		LOD:         "0.5",
		LODUnit:     "mmol/L",
		LOQ:         "1.5",
		LOQUnit:     "mmol/L",
		ConcRel:     "0",
		ConcUnitRel: "mmol/mol Crea",
		LODRel:      "0",
		LODUnitRel:  "mmol/mol Crea",
		LOQRel:      "0",
		LOQUnitRel:  "mmol/mol Crea",
		RawConc:     "13.37",
		RawConcUnit: "mmol/L",
	}, quant.Rows[0])

	alanine := quant.Rows[1]
	assert.Equal(t, "0.28", alanine.Conc)
	assert.Equal(t, "21.1", alanine.ConcRel)
	assert.Equal(t, "0.4", alanine.RefMax)
	assert.Equal(t, "0.1", alanine.RefMin)
	assert.Equal(t, "mmol/L", alanine.RefUnit)

	formate := quant.Rows[2]
	assert.Equal(t, "0.02", formate.Conc)
	assert.Empty(t, formate.ConcRel, "a single VALUE leaves the relative fields empty")
	assert.Empty(t, formate.RefMax)
}

func TestQuantUnrecognizedVersion(t *testing.T) {
	path := writeReport(t, t.TempDir(), "quant_report.xml",
		`<REPORT><QUANTIFICATION version="B.I.LISA 1.0"><PARAMETER name="A"/></QUANTIFICATION></REPORT>`)

	logger, records := testutil.CaptureLogger()
	_, ok := NewReader(logger).Quant(path)
	assert.False(t, ok)
	assert.Equal(t, 1, records.CountLevel(slog.LevelError))
}

func TestQuantMissingAndMalformedFiles(t *testing.T) {
	r := NewReader(testutil.NewTestLogger(t))

	_, ok := r.Quant(filepath.Join(t.TempDir(), "quant_report.xml"))
	assert.False(t, ok, "missing file should not parse")

	path := writeReport(t, t.TempDir(), "quant_report.xml", "<QUANTIFICATION version=")
	_, ok = r.Quant(path)
	assert.False(t, ok, "malformed file should not parse")
}
