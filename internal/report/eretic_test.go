package report

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const quantFactorSample = `<?xml version="1.0" encoding="UTF-8"?>
<Eretic_File>
  <Eretic_Calibration>
    <Artificial_Eretic>
      <Artificial_Eretic_Position>12.0</Artificial_Eretic_Position>
      <Artificial_Eretic_Line_Width>1.0</Artificial_Eretic_Line_Width>
      <Artificial_Eretic_Concentration>10.0</Artificial_Eretic_Concentration>
    </Artificial_Eretic>
    <Eretic_Sample_Tube ID="SampleJet 5mm"/>
    <Temperature_min>297.0</Temperature_min>
    <Temperature_max>301.0</Temperature_max>
    <P1>9.61</P1>
    <Eretic_Factor>5.93e-06</Eretic_Factor>
  </Eretic_Calibration>
  <Application_Parameter>
    <Eretic_Factor>6.06e-06</Eretic_Factor>
    <P1>9.87</P1>
    <Temperature>299.7</Temperature>
  </Application_Parameter>
</Eretic_File>
`

const ereticF80File = `<?xml version="1.0" encoding="UTF-8"?>
<EreticFile>
  <Sample>
    <OneMolInt>123456.5</OneMolInt>
    <PreScanAttn>2.0</PreScanAttn>
    <RG>101.0</RG>
    <Temp>298.1</Temp>
  </Sample>
  <Reference>
    <OneMolInt>654321.25</OneMolInt>
    <PreScanAttn>3.0</PreScanAttn>
    <RG>90.5</RG>
    <Temp>300.2</Temp>
  </Reference>
</EreticFile>
`

func TestEreticParsesCalibrationFile(t *testing.T) {
	path := writeReport(t, t.TempDir(), "QuantFactorSample.xml", quantFactorSample)

	r := NewReader(testutil.NewTestLogger(t))
	e, ok := r.Eretic(path)
	require.True(t, ok, "calibration file should parse")

	assert.Equal(t, float64(600), e.Field)
	assert.Equal(t, 12.0, e.CalEreticPosition)
	assert.Equal(t, 1.0, e.CalEreticLineWidth)
	assert.Equal(t, 10.0, e.CalEreticConcentration)
	assert.Equal(t, "SampleJet 5mm", e.CalTubeID)
	assert.Equal(t, 297.0, e.CalTmin)
	assert.Equal(t, 301.0, e.CalTmax)

	// P1 and Eretic_Factor appear in both sections; the elements must be
	// routed by their enclosing section, not by document order.
	assert.Equal(t, 9.61, e.CalP1)
	assert.Equal(t, 5.93e-06, e.CalEreticCalibration)
	assert.Equal(t, 6.06e-06, e.EreticFactor)
	assert.Equal(t, 9.87, e.P1)
	assert.Equal(t, 299.7, e.Temperature)
}

func TestEreticMissingElementsDefaultToZero(t *testing.T) {
	path := writeReport(t, t.TempDir(), "QuantFactorSample.xml",
		"<Eretic_File><Application_Parameter><Eretic_Factor>2.5e-06</Eretic_Factor></Application_Parameter></Eretic_File>")

	r := NewReader(testutil.NewTestLogger(t))
	e, ok := r.Eretic(path)
	require.True(t, ok, "a sparse calibration file still parses")
	assert.Equal(t, 2.5e-06, e.EreticFactor)
	assert.Zero(t, e.CalP1)
	assert.Zero(t, e.CalEreticCalibration)
	assert.Empty(t, e.CalTubeID)
}

func TestEreticMissingAndMalformedFiles(t *testing.T) {
	r := NewReader(testutil.NewTestLogger(t))

	_, ok := r.Eretic(filepath.Join(t.TempDir(), "QuantFactorSample.xml"))
	assert.False(t, ok, "missing file should not parse")

	path := writeReport(t, t.TempDir(), "QuantFactorSample.xml",
		"<Eretic_File><Eretic_Calibration><P1>not-a-number</P1></Eretic_Calibration></Eretic_File>")
	logger, records := testutil.CaptureLogger()
	_, ok = NewReader(logger).Eretic(path)
	assert.False(t, ok, "malformed file should not parse")
	assert.Equal(t, 1, records.CountLevel(slog.LevelError))
}

func TestEreticF80ParsesBenchtopFile(t *testing.T) {
	path := writeReport(t, t.TempDir(), "eretic_file.xml", ereticF80File)

	r := NewReader(testutil.NewTestLogger(t))
	e, ok := r.EreticF80(path)
	require.True(t, ok, "benchtop file should parse")

	assert.Equal(t, 123456.5, e.SamOneMolInt)
	assert.Equal(t, 2.0, e.SamPreScanAttn)
	assert.Equal(t, 101.0, e.SamRG)
	assert.Equal(t, 298.1, e.SamTemp)
	assert.Equal(t, 654321.25, e.RefOneMolInt)
	assert.Equal(t, 3.0, e.RefPreScanAttn)
	assert.Equal(t, 90.5, e.RefRG)
	assert.Equal(t, 300.2, e.RefTemp)
}

func TestEreticFactorPrefersCalibrationFile(t *testing.T) {
	expno := filepath.Join(t.TempDir(), "10")
	writeReport(t, expno, "QuantFactorSample.xml", quantFactorSample)
	writeReport(t, filepath.Join(expno, "pdata", "1"), "eretic_file.xml", ereticF80File)

	r := NewReader(testutil.NewTestLogger(t))
	factor, ok := r.EreticFactor(expno)
	require.True(t, ok)
	assert.Equal(t, 6.06e-06, factor, "calibration file should win over the benchtop file")
}

func TestEreticFactorFallsBackToBenchtopFile(t *testing.T) {
	expno := filepath.Join(t.TempDir(), "10")
	writeReport(t, filepath.Join(expno, "pdata", "1"), "eretic_file.xml", ereticF80File)

	r := NewReader(testutil.NewTestLogger(t))
	factor, ok := r.EreticFactor(expno)
	require.True(t, ok)
	assert.Equal(t, 123456.5, factor)
}

func TestEreticFactorBrokenCalibrationDoesNotFallBack(t *testing.T) {
	// A present but unparseable calibration file is a hard failure; the
	// benchtop file next to it must not mask it.
	expno := filepath.Join(t.TempDir(), "10")
	writeReport(t, expno, "QuantFactorSample.xml", "<Eretic_File><Eretic_Calibration>")
	writeReport(t, filepath.Join(expno, "pdata", "1"), "eretic_file.xml", ereticF80File)

	r := NewReader(testutil.NewTestLogger(t))
	factor, ok := r.EreticFactor(expno)
	assert.False(t, ok)
	assert.Zero(t, factor)
}

func TestEreticFactorAbsent(t *testing.T) {
	r := NewReader(testutil.NewTestLogger(t))
	factor, ok := r.EreticFactor(filepath.Join(t.TempDir(), "10"))
	assert.False(t, ok)
	assert.Zero(t, factor)
}

func TestDiscoverEreticFactorUsesSiblingExpno(t *testing.T) {
	root := t.TempDir()
	writeReport(t, filepath.Join(root, "20"), "QuantFactorSample.xml", quantFactorSample)

	r := NewReader(testutil.NewTestLogger(t))
	assert.Equal(t, 6.06e-06, r.DiscoverEreticFactor(filepath.Join(root, "21")))
	assert.Equal(t, 6.06e-06, r.DiscoverEreticFactor(filepath.Join(root, "22")))

	// An expno already ending in 0 is its own calibration sibling.
	assert.Equal(t, 6.06e-06, r.DiscoverEreticFactor(filepath.Join(root, "20")))
}

func TestDiscoverEreticFactorDefaultsToOne(t *testing.T) {
	logger, records := testutil.CaptureLogger()
	r := NewReader(logger)

	assert.Equal(t, float64(1), r.DiscoverEreticFactor(filepath.Join(t.TempDir(), "11")))
	assert.Equal(t, float64(1), r.DiscoverEreticFactor(""))
	assert.Equal(t, 1, records.CountLevel(slog.LevelDebug))
}
