package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

const pacsReport = `<?xml version="1.0" encoding="UTF-8"?>
<REPORT>
  <QUANTIFICATION version="PhenoRisk PACS RuO 1.0.0">
    <PARAMETER name="Glyc">
      <VALUE conc="331.3" concUnit="mg/L"/>
      <REFERENCE vmax="395" vmin="228" unit="mg/L"/>
    </PARAMETER>
    <PARAMETER name="SPC">
      <VALUE conc="&lt; LOD" concUnit=""/>
    </PARAMETER>
  </QUANTIFICATION>
</REPORT>
`

func TestPacsParsesReport(t *testing.T) {
	path := writeReport(t, t.TempDir(), "plasma_pacs_report_1_1_0.xml", pacsReport)

	r := NewReader(testutil.NewTestLogger(t))
	pacs, ok := r.Pacs(path)
	require.True(t, ok, "report should parse")

	assert.Equal(t, "PhenoRisk PACS RuO 1.0.0", pacs.Version, "the version string is kept whole")

	require.Len(t, pacs.Rows, 2)
	assert.Equal(t, PacsRow{
		Name:     "Glyc",
		Conc:     "331.3",
		ConcUnit: "mg/L",
		RefMax:   "395",
		RefMin:   "228",
		RefUnit:  "mg/L",
	}, pacs.Rows[0])

	// Censored concentrations stay verbatim.
	assert.Equal(t, PacsRow{Name: "SPC", Conc: "< LOD"}, pacs.Rows[1])
}

func TestPacsMissingAndMalformedFiles(t *testing.T) {
	r := NewReader(testutil.NewTestLogger(t))

	_, ok := r.Pacs(filepath.Join(t.TempDir(), "pacs.xml"))
	assert.False(t, ok, "missing file should not parse")

	path := writeReport(t, t.TempDir(), "pacs.xml", "<QUANTIFICATION><PARA")
	_, ok = r.Pacs(path)
	assert.False(t, ok, "malformed file should not parse")
}
