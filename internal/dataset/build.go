package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phenolabs/nmrtab/internal/experiment"
	"github.com/phenolabs/nmrtab/internal/report"
	"github.com/phenolabs/nmrtab/internal/spcglyc"
	"github.com/phenolabs/nmrtab/internal/spectrum"
)

// Options configures a Build. The descriptive names flow into metadata
// and the artifact base name; Spec configures spectrum reading for the
// spec and spcglyc modes. Jobs bounds the per-sample fan-out and defaults
// to GOMAXPROCS.
type Options struct {
	Mode             Mode
	ProjectName      string
	CohortName       string
	RunName          string
	SampleMatrixType string
	Method           string
	Spec             experiment.Options
	Jobs             int
}

// Builder assembles datasets over an experiment reader.
type Builder struct {
	exp     *experiment.Reader
	reports *report.Reader
	glyc    *spcglyc.Extractor
	logger  *slog.Logger
}

// NewBuilder creates a Builder. If logger is nil, a discard logger is
// used.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		exp:     experiment.NewReader(logger),
		reports: report.NewReader(logger),
		glyc:    spcglyc.NewExtractor(logger),
		logger:  logger,
	}
}

// Build reads one data source per sample, drops samples missing from any
// requested source, and assembles the aligned dataset. A sample that
// cannot be read is logged and excluded; the batch continues. Build fails
// only when nothing survives or the context is cancelled.
func (b *Builder) Build(ctx context.Context, samples []Sample, opts Options) (*Dataset, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeSpec
	}

	samples = Classify(samples)
	b.logClassification(samples)
	b.logger.Info("assembling dataset",
		slog.String("mode", string(mode)), slog.Int("samples", len(samples)))

	specOpts := opts.Spec.WithDefaults()
	if mode == ModeSpcglyc {
		// Biomarker windows are defined on the uncalibrated axis.
		specOpts.Uncalibrate = true
	}

	paths := make([]string, len(samples))
	for i, s := range samples {
		paths[i] = s.DataPath
	}

	var (
		columns  []string
		rows     [][]float64
		imag     [][]float64
		text     [][]string
		dataType = DataQuant
		err      error
	)
	switch mode {
	case ModeSpec, ModeSpcglyc:
		rows, imag, err = b.readSpectra(ctx, samples, specOpts, opts.Jobs)
		columns = ppmColumns(spectrum.Linspace(specOpts.From, specOpts.To, specOpts.Points))
		dataType = DataNMR
	case ModeLipo:
		var vals []map[string]float64
		vals, err = b.readLipoRows(ctx, samples, opts.Jobs)
		columns = unionColumns(vals)
		rows = floatMatrix(vals, columns)
	case ModePacs:
		var vals []map[string]string
		vals, err = b.readPacsRows(ctx, samples, opts.Jobs)
		columns = unionColumns(vals)
		text = textMatrix(vals, columns)
	case ModeSmall:
		var vals []map[string]string
		vals, err = b.readQuantRows(ctx, samples, opts.Jobs)
		columns = unionColumns(vals)
		text = textMatrix(vals, columns)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	extra := b.exp.Read(paths, []string{experiment.KindAcqus, experiment.KindQC}, specOpts)
	isIVDr := len(extra.QC) > 0
	if isIVDr {
		b.logger.Info("quality control reports found, IVDr acquisition")
	} else {
		b.logger.Info("no quality control reports found")
	}

	keep := b.align(samples, rows, text, extra)

	aligned := make([]Sample, 0, len(samples))
	var alignedRows [][]float64
	var alignedImag [][]float64
	var alignedText [][]string
	for i, s := range samples {
		if !keep[s.DataPath] {
			continue
		}
		aligned = append(aligned, s)
		if rows != nil {
			alignedRows = append(alignedRows, rows[i])
		}
		if imag != nil {
			alignedImag = append(alignedImag, imag[i])
		}
		if text != nil {
			alignedText = append(alignedText, text[i])
		}
	}
	if len(aligned) == 0 {
		return nil, ErrNoData
	}

	keys := make([]string, len(aligned))
	for i, s := range aligned {
		keys[i] = sampleKey(s.ID, s.DataPath)
	}

	method := opts.Method
	switch mode {
	case ModeSpec:
		if method == "" {
			method = "noesygppr1d"
		}
		method += "@" + samples[0].Experiment
	case ModeSpcglyc:
		method = "spcglyc_" + samples[0].Experiment
	case ModeLipo:
		method = string(ModeLipo)
	case ModePacs:
		method = string(ModePacs)
	case ModeSmall:
		method = string(ModeSmall)
	}

	var tsp, spcRegion, glycRegion *Region
	if mode == ModeSpcglyc {
		ppm := spectrum.Linspace(specOpts.From, specOpts.To, specOpts.Points)
		res, exErr := b.glyc.Extract(alignedRows, ppm, pathsOf(aligned))
		if exErr != nil {
			return nil, exErr
		}
		alignedRows = res.Data
		alignedImag = nil
		columns = append([]string(nil), spcglyc.Names...)
		dataType = DataQuant
		tsp = regionWithKeys(res.TSP, keys)
		spcRegion = regionWithKeys(res.SPC, keys)
		glycRegion = regionWithKeys(res.Glyc, keys)
	}

	now := time.Now()
	d := &Dataset{
		Mode:       mode,
		DataType:   dataType,
		Method:     method,
		BaseName:   baseName(opts, method, now),
		IsIVDr:     isIVDr,
		Keys:       keys,
		Columns:    columns,
		Rows:       alignedRows,
		Imag:       alignedImag,
		Text:       alignedText,
		Metadata:   buildMetadata(keys, aligned, opts, method, dataType, isIVDr, now),
		Params:     buildParams(keys, aligned, extra.Acqus),
		Variables:  buildVariables(columns, dataType, mode == ModeSpcglyc),
		TSP:        tsp,
		SPCRegion:  spcRegion,
		GlycRegion: glycRegion,
	}
	b.logger.Info("dataset assembled",
		slog.Int("samples", len(d.Keys)),
		slog.Int("variables", len(d.Variables)),
		slog.String("dataType", d.DataType),
		slog.String("method", d.Method))
	return d, nil
}

func (b *Builder) logClassification(samples []Sample) {
	counts := make(map[string]int, 5)
	for _, s := range samples {
		counts[s.Type]++
	}
	b.logger.Debug("sample types classified",
		slog.Int(TypeSLTR, counts[TypeSLTR]),
		slog.Int(TypeLTR, counts[TypeLTR]),
		slog.Int(TypePQC, counts[TypePQC]),
		slog.Int(TypeQC, counts[TypeQC]),
		slog.Int(TypeSample, counts[TypeSample]))
}

// forEach runs fn over every index with a bounded number of workers.
// Workers write to disjoint slots, so fn needs no locking. The only error
// is context cancellation.
func (b *Builder) forEach(ctx context.Context, n, jobs int, fn func(i int)) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// readSpectra fills slot i with sample i's resampled intensities, leaving
// failed samples nil for alignment to drop.
func (b *Builder) readSpectra(ctx context.Context, samples []Sample, specOpts experiment.Options, jobs int) (rows, imag [][]float64, err error) {
	rows = make([][]float64, len(samples))
	if specOpts.Imaginary {
		imag = make([][]float64, len(samples))
	}
	err = b.forEach(ctx, len(samples), jobs, func(i int) {
		spec, rerr := b.exp.ReadSpectrum(samples[i].DataPath, specOpts)
		if rerr != nil {
			b.logger.Warn("spectrum not read",
				slog.String("path", samples[i].DataPath), slog.Any("error", rerr))
			return
		}
		rows[i] = spec.Intensity
		if imag != nil {
			imag[i] = spec.Imag
		}
	})
	return rows, imag, err
}

func (b *Builder) readLipoRows(ctx context.Context, samples []Sample, jobs int) ([]map[string]float64, error) {
	rows := make([]map[string]float64, len(samples))
	err := b.forEach(ctx, len(samples), jobs, func(i int) {
		path, found := report.FindLipoReport(samples[i].DataPath)
		if !found {
			return
		}
		lipo, ok := b.reports.Lipo(path)
		if !ok {
			return
		}
		values := make(map[string]float64, len(lipo.Rows))
		for _, row := range lipo.Rows {
			values[row.ID] = row.Value
		}
		rows[i] = values
	})
	return rows, err
}

func (b *Builder) readPacsRows(ctx context.Context, samples []Sample, jobs int) ([]map[string]string, error) {
	rows := make([]map[string]string, len(samples))
	err := b.forEach(ctx, len(samples), jobs, func(i int) {
		path, found := report.FindPacsReport(samples[i].DataPath)
		if !found {
			return
		}
		pacs, ok := b.reports.Pacs(path)
		if !ok {
			return
		}
		values := make(map[string]string, len(pacs.Rows))
		for _, row := range pacs.Rows {
			values[row.Name] = row.Conc
		}
		rows[i] = values
	})
	return rows, err
}

func (b *Builder) readQuantRows(ctx context.Context, samples []Sample, jobs int) ([]map[string]string, error) {
	rows := make([]map[string]string, len(samples))
	err := b.forEach(ctx, len(samples), jobs, func(i int) {
		path, found := report.FindQuantReport(samples[i].DataPath)
		if !found {
			return
		}
		quant, ok := b.reports.Quant(path)
		if !ok {
			return
		}
		values := make(map[string]string, len(quant.Rows))
		for _, row := range quant.Rows {
			values[row.Name] = row.RawConc
		}
		rows[i] = values
	})
	return rows, err
}

// align returns the paths present in every data source: the matrix, and,
// when they produced anything at all, the acquisition parameters and the
// quality control reports. A source that produced nothing restricts
// nothing.
func (b *Builder) align(samples []Sample, rows [][]float64, text [][]string, extra *experiment.Result) map[string]bool {
	matrix := make(map[string]bool, len(samples))
	for i, s := range samples {
		if rows != nil && rows[i] != nil {
			matrix[s.DataPath] = true
		}
		if text != nil && text[i] != nil {
			matrix[s.DataPath] = true
		}
	}

	var acqus map[string]bool
	if extra.Acqus != nil && len(extra.Acqus.Rows) > 0 {
		acqus = make(map[string]bool, len(extra.Acqus.Rows))
		for _, row := range extra.Acqus.Rows {
			acqus[row.Path] = true
		}
	}

	var qc map[string]bool
	if len(extra.QC) > 0 {
		qc = make(map[string]bool, len(extra.QC))
		for _, path := range extra.QC {
			qc[path] = true
		}
	}

	keep := make(map[string]bool, len(samples))
	var excluded []string
	for _, s := range samples {
		ok := matrix[s.DataPath] &&
			(acqus == nil || acqus[s.DataPath]) &&
			(qc == nil || qc[s.DataPath])
		if ok {
			keep[s.DataPath] = true
			continue
		}
		excluded = append(excluded, s.DataPath)
	}
	if len(excluded) > 0 {
		b.logger.Warn("samples not present in every data source",
			slog.Int("count", len(excluded)))
		for _, path := range excluded[:min(5, len(excluded))] {
			b.logger.Debug("sample excluded", slog.String("path", path))
		}
	}
	return keep
}

func buildMetadata(keys []string, aligned []Sample, opts Options, method, dataType string, isIVDr bool, now time.Time) []Metadata {
	meta := make([]Metadata, len(aligned))
	for i, s := range aligned {
		meta[i] = Metadata{
			SampleKey:        keys[i],
			DataPath:         s.DataPath,
			SampleID:         s.ID,
			SampleType:       s.Type,
			Experiment:       s.Experiment,
			FolderID:         s.FolderID,
			ProjectName:      opts.ProjectName,
			CohortName:       opts.CohortName,
			RunName:          opts.RunName,
			SampleMatrixType: opts.SampleMatrixType,
			Method:           method,
			DataType:         dataType,
			IsIVDr:           isIVDr,
			TubeType:         TubeType(s.DataPath),
			CreatedAt:        now,
			ParserVersion:    ParserVersion,
		}
	}
	return meta
}

// buildParams lays acquisition parameters out long, one row per sample
// and column. Only the columns every experiment delivered appear, so
// every aligned sample contributes the same names.
func buildParams(keys []string, aligned []Sample, acqus *experiment.ParamTable) []Param {
	if acqus == nil || len(acqus.Rows) == 0 {
		return nil
	}
	byPath := make(map[string]experiment.ParamRow, len(acqus.Rows))
	for _, row := range acqus.Rows {
		byPath[row.Path] = row
	}
	params := make([]Param, 0, len(aligned)*len(acqus.Columns))
	for i, s := range aligned {
		row, ok := byPath[s.DataPath]
		if !ok {
			continue
		}
		for _, col := range acqus.Columns {
			params = append(params, Param{
				SampleKey: keys[i],
				Name:      col,
				Value:     row.Values[col],
				Source:    SourceAcqus,
			})
		}
	}
	return params
}

// TubeType derives the tube type from the experiment path. Anything not
// marked 3mm is assumed to be a standard 5mm tube.
func TubeType(path string) string {
	if strings.Contains(strings.ToLower(path), "3mm") {
		return "3mm"
	}
	return "5mm"
}

func pathsOf(samples []Sample) []string {
	paths := make([]string, len(samples))
	for i, s := range samples {
		paths[i] = s.DataPath
	}
	return paths
}

func regionWithKeys(r *spcglyc.Region, keys []string) *Region {
	return &Region{Keys: keys, PPM: r.PPM, Rows: r.Rows}
}

func ppmColumns(ppm []float64) []string {
	cols := make([]string, len(ppm))
	for i, p := range ppm {
		cols[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return cols
}

// unionColumns collects column names across rows, first seen first, with
// each row's contribution sorted. Failed samples contribute nothing.
func unionColumns[V any](rows []map[string]V) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				cols = append(cols, name)
			}
		}
	}
	return cols
}

func floatMatrix(rows []map[string]float64, columns []string) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		vals := make([]float64, len(columns))
		for j, col := range columns {
			v, ok := row[col]
			if !ok {
				v = math.NaN()
			}
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}

func textMatrix(rows []map[string]string, columns []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		vals := make([]string, len(columns))
		for j, col := range columns {
			vals[j] = row[col]
		}
		out[i] = vals
	}
	return out
}
