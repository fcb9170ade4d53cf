package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/experiment"
	"github.com/phenolabs/nmrtab/internal/testutil"
)

func TestSamplesFromScanUsesUSERA2(t *testing.T) {
	entries := []experiment.Entry{
		{Path: "/data/10", Exp: "prof_plasma_noesy", Usera2: "COV_SLTR01"},
		{Path: "/data/20", Exp: "prof_plasma_noesy", Usera2: "COVQC02"},
		{Path: "/data/30", Exp: "prof_plasma_noesy", Usera2: "COV001"},
		{Path: "/data/40", Exp: "prof_plasma_noesy", Usera2: "COV001"},
	}

	samples := SamplesFromScan(entries, testutil.NewTestLogger(t))

	require.Len(t, samples, 4)
	assert.Equal(t, "COV_sltr01", samples[0].ID, "reference labels are lowercased")
	assert.Equal(t, "COVqc02", samples[1].ID)
	assert.Equal(t, "COV001", samples[2].ID)
	assert.Equal(t, "COV001_1", samples[3].ID, "duplicate IDs get a suffix")
	for i, s := range samples {
		assert.Equal(t, entries[i].Path, s.DataPath)
		assert.Equal(t, "prof_plasma_noesy", s.Experiment)
		assert.Equal(t, TypeSample, s.Type)
		assert.Equal(t, "data", s.FolderID, "folder ID is the dataset directory")
	}
}

func TestSamplesFromScanFallsBackToPositionalIDs(t *testing.T) {
	entries := []experiment.Entry{
		{Path: "/data/10", Exp: "prof_urine_noesy"},
		{Path: "/data/20", Exp: "prof_urine_noesy", Usera2: "COV0002"},
	}

	samples := SamplesFromScan(entries, testutil.NewTestLogger(t))

	require.Len(t, samples, 2)
	assert.Equal(t, "sample_0000", samples[0].ID,
		"an empty first USERA2 disables operator IDs for the whole batch")
	assert.Equal(t, "sample_0001", samples[1].ID)

	assert.Nil(t, SamplesFromScan(nil, testutil.NewTestLogger(t)))
}

func TestSamplesFromPaths(t *testing.T) {
	samples := SamplesFromPaths([]string{"/a/10", "/b/10"})

	require.Len(t, samples, 2)
	assert.Equal(t, Sample{DataPath: "/a/10", ID: "sampleID_0", Type: TypeSample, Experiment: "experiment_", FolderID: "a"}, samples[0])
	assert.Equal(t, "sampleID_1", samples[1].ID)
}

func TestClassifyOrdersPatterns(t *testing.T) {
	samples := Classify([]Sample{
		{ID: "COV_sltr01", Type: TypeSample},
		{ID: "ltr_plasma", Type: TypeSample},
		{ID: "LTR02", Type: TypeSample},
		{ID: "pqc05", Type: TypeSample},
		{ID: "qc_3", Type: TypeSample},
		{ID: "ltrsltr", Type: TypeSample},
		{ID: "patient_07", Type: "preset"},
	})

	types := make([]string, len(samples))
	for i, s := range samples {
		types[i] = s.Type
	}
	assert.Equal(t, []string{
		TypeSLTR, TypeLTR, TypeLTR, TypePQC, TypeQC,
		TypeSLTR,
		"preset",
	}, types, "sltr anywhere beats the ltr prefix; unmatched IDs keep their type")
}

func TestMakeUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a_1", "a_2", "b_1"},
		makeUnique([]string{"a", "b", "a", "a", "b"}))
}

func TestSampleKey(t *testing.T) {
	// md5("abc") = 900150983cd24fb0d6963f7d28e17f72.
	assert.Equal(t, "s1_90015098", sampleKey("s1", "abc"))
	assert.NotEqual(t, sampleKey("s1", "/a/10"), sampleKey("s1", "/b/10"),
		"same ID in different folders stays distinct")
}
