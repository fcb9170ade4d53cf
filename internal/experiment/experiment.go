// Package experiment orchestrates reading Bruker experiment directories:
// scanning data trees for expnos and assembling acquisition parameters,
// reports, titles, and spectra across a batch of experiments. Every
// per-experiment failure is soft; an experiment that cannot deliver a
// component is simply absent from that component's rows.
package experiment

import (
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/phenolabs/nmrtab/internal/bruker"
	"github.com/phenolabs/nmrtab/internal/report"
	"github.com/phenolabs/nmrtab/internal/spectrum"
)

// Options controls spectrum reading during Read. The zero value is
// completed to the defaults used for profiling runs: procno 1, a
// [-0.1, 10] ppm window on a 44079-point grid.
type Options struct {
	Procno      int
	Uncalibrate bool
	From        float64
	To          float64
	Points      int
	Eretic      float64
	HasEretic   bool
	Imaginary   bool
}

// DefaultOptions returns the standard profiling grid.
func DefaultOptions() Options {
	return Options{Procno: 1, From: -0.1, To: 10, Points: 44079}
}

// WithDefaults returns o with unset fields completed to the profiling
// defaults.
func (o Options) WithDefaults() Options {
	if o.Procno == 0 {
		o.Procno = 1
	}
	if o.From == 0 && o.To == 0 {
		o.From, o.To = -0.1, 10
	}
	if o.Points == 0 {
		o.Points = 44079
	}
	return o
}

// ParamRow is one experiment's parameters, keyed by prefixed name.
type ParamRow struct {
	Path   string
	Values map[string]string
}

// ParamTable holds parameters wide across experiments, restricted to the
// columns every experiment delivered, in sorted order.
type ParamTable struct {
	Columns []string
	Rows    []ParamRow
}

// ValueRow is one experiment's report values, keyed by "value." name.
type ValueRow struct {
	Path   string
	Values map[string]string
}

// ValueTable holds report values wide across experiments. Columns is the
// union over rows; within each row's contribution names are sorted.
type ValueTable struct {
	Columns []string
	Rows    []ValueRow
}

// Title is one experiment's title text.
type Title struct {
	Path  string
	Title string
}

// Factor is one experiment's in-place ERETIC factor.
type Factor struct {
	Path   string
	Factor float64
}

// Spec pairs an experiment with its processed spectrum.
type Spec struct {
	Path     string
	Spectrum *spectrum.Spectrum
}

// Result carries whichever components Read was asked for; the rest stay
// nil.
type Result struct {
	Acqus  *ParamTable
	Procs  *ParamTable
	QC     []string
	Titles []Title
	Eretic []Factor
	Spec   []Spec
	Lipo   *ValueTable
	Pacs   *ValueTable
	Quant  *ValueTable
}

// Reader assembles experiment components.
type Reader struct {
	files   *bruker.Reader
	spectra *spectrum.Reader
	reports *report.Reader
	logger  *slog.Logger
}

// NewReader creates a Reader. If logger is nil, a discard logger is used.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{
		files:   bruker.NewReader(logger),
		spectra: spectrum.NewReader(logger),
		reports: report.NewReader(logger),
		logger:  logger,
	}
}

// Kinds Read understands. "all" selects every component; "specOnly"
// selects just the spectra.
const (
	KindAcqus    = "acqus"
	KindProcs    = "procs"
	KindQC       = "qc"
	KindTitle    = "title"
	KindEretic   = "eretic"
	KindSpec     = "spec"
	KindLipo     = "lipo"
	KindQuant    = "quant"
	KindPacs     = "pacs"
	KindAll      = "all"
	KindSpecOnly = "specOnly"
)

func wants(what []string, kind string) bool {
	for _, w := range what {
		if w == kind || w == KindAll {
			return true
		}
		if kind == KindSpec && w == KindSpecOnly {
			return true
		}
	}
	return false
}

// Read assembles the requested components across expnos. Titles and
// report files are always taken from the first processed-data directory;
// opts.Procno only selects the spectrum.
func (r *Reader) Read(expnos []string, what []string, opts Options) *Result {
	opts = opts.WithDefaults()
	res := &Result{}

	if wants(what, KindAcqus) {
		res.Acqus = r.paramTable(expnos, bruker.AcqusFile, "acqus.")
		r.logCount(KindAcqus, len(res.Acqus.Rows))
	}
	if wants(what, KindProcs) {
		res.Procs = r.paramTable(expnos, func(expno string) string {
			return bruker.ProcsFile(expno, 1)
		}, "procs.")
		r.logCount(KindProcs, len(res.Procs.Rows))
	}

	if wants(what, KindQC) {
		for _, expno := range expnos {
			path, found := report.FindQCReport(expno)
			if !found {
				continue
			}
			if _, ok := r.reports.QC(path); ok {
				res.QC = append(res.QC, expno)
			}
		}
		r.logCount(KindQC, len(res.QC))
	}

	if wants(what, KindTitle) {
		for _, expno := range expnos {
			if title, ok := r.files.Title(bruker.TitleFile(expno, 1)); ok {
				res.Titles = append(res.Titles, Title{Path: expno, Title: title})
			}
		}
		r.logCount(KindTitle, len(res.Titles))
	}

	if wants(what, KindEretic) {
		for _, expno := range expnos {
			if factor, ok := r.reports.EreticFactor(expno); ok {
				res.Eretic = append(res.Eretic, Factor{Path: expno, Factor: factor})
			}
		}
		r.logCount(KindEretic, len(res.Eretic))
	}

	if wants(what, KindSpec) {
		for _, expno := range expnos {
			spec, err := r.ReadSpectrum(expno, opts)
			if err != nil {
				r.logger.Warn("spectrum not read", slog.String("path", expno), slog.Any("error", err))
				continue
			}
			res.Spec = append(res.Spec, Spec{Path: expno, Spectrum: spec})
		}
	}

	if wants(what, KindLipo) {
		var rows []ValueRow
		for _, expno := range expnos {
			path, found := report.FindLipoReport(expno)
			if !found {
				continue
			}
			lipo, ok := r.reports.Lipo(path)
			if !ok {
				continue
			}
			values := make(map[string]string, len(lipo.Rows))
			for _, row := range lipo.Rows {
				values["value."+row.ID] = strconv.FormatFloat(row.Value, 'g', -1, 64)
			}
			rows = append(rows, ValueRow{Path: expno, Values: values})
		}
		res.Lipo = buildValueTable(rows)
		r.logCount(KindLipo, len(res.Lipo.Rows))
	}

	if wants(what, KindPacs) {
		var rows []ValueRow
		for _, expno := range expnos {
			path, found := report.FindPacsReport(expno)
			if !found {
				continue
			}
			pacs, ok := r.reports.Pacs(path)
			if !ok {
				continue
			}
			values := make(map[string]string, len(pacs.Rows))
			for _, row := range pacs.Rows {
				values["value."+row.Name] = row.Conc
			}
			rows = append(rows, ValueRow{Path: expno, Values: values})
		}
		res.Pacs = buildValueTable(rows)
		r.logCount(KindPacs, len(res.Pacs.Rows))
	}

	if wants(what, KindQuant) {
		var rows []ValueRow
		for _, expno := range expnos {
			path, found := report.FindQuantReport(expno)
			if !found {
				continue
			}
			quant, ok := r.reports.Quant(path)
			if !ok {
				continue
			}
			values := make(map[string]string, len(quant.Rows))
			for _, row := range quant.Rows {
				values["value."+row.Name] = row.RawConc
			}
			rows = append(rows, ValueRow{Path: expno, Values: values})
		}
		res.Quant = buildValueTable(rows)
		r.logCount(KindQuant, len(res.Quant.Rows))
	}

	return res
}

// ReadSpectrum reads one experiment's processed spectrum with opts. Unless
// opts carries an explicit ERETIC factor the sibling calibration experiment
// is consulted. Safe for concurrent use.
func (r *Reader) ReadSpectrum(expno string, opts Options) (*spectrum.Spectrum, error) {
	opts = opts.WithDefaults()
	factor := opts.Eretic
	if !opts.HasEretic {
		factor = r.reports.DiscoverEreticFactor(expno)
	}
	sopts := []spectrum.Option{
		spectrum.WithProcno(opts.Procno),
		spectrum.WithEretic(factor),
		spectrum.WithWindow(opts.From, opts.To),
		spectrum.WithPoints(opts.Points),
	}
	if opts.Uncalibrate {
		sopts = append(sopts, spectrum.WithUncalibrate())
	}
	if opts.Imaginary {
		sopts = append(sopts, spectrum.WithImaginary())
	}
	return r.spectra.Read(expno, sopts...)
}

func (r *Reader) logCount(kind string, n int) {
	if n == 0 {
		r.logger.Warn("no experiments delivered component", slog.String("kind", kind))
		return
	}
	r.logger.Info("component read", slog.String("kind", kind), slog.Int("count", n))
}

// paramTable reads one parameter file per experiment and keeps the
// columns every experiment has, sorted by name. Repeated parameter names
// within a file keep their first value.
func (r *Reader) paramTable(expnos []string, file func(string) string, prefix string) *ParamTable {
	var rows []ParamRow
	for _, expno := range expnos {
		path := file(expno)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		entries := r.files.Params(path)
		if entries == nil {
			continue
		}
		values := make(map[string]string, len(entries))
		for _, e := range entries {
			name := prefix + e.Name
			if _, dup := values[name]; !dup {
				values[name] = e.Value
			}
		}
		rows = append(rows, ParamRow{Path: expno, Values: values})
	}

	table := &ParamTable{Rows: rows}
	if len(rows) == 0 {
		return table
	}

	counts := make(map[string]int)
	for _, row := range rows {
		for name := range row.Values {
			counts[name]++
		}
	}
	for name, n := range counts {
		if n == len(rows) {
			table.Columns = append(table.Columns, name)
		}
	}
	sort.Strings(table.Columns)

	for i := range rows {
		kept := make(map[string]string, len(table.Columns))
		for _, name := range table.Columns {
			kept[name] = rows[i].Values[name]
		}
		rows[i].Values = kept
	}
	return table
}

func buildValueTable(rows []ValueRow) *ValueTable {
	table := &ValueTable{Rows: rows}
	seen := make(map[string]bool)
	for _, row := range rows {
		names := make([]string, 0, len(row.Values))
		for name := range row.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				table.Columns = append(table.Columns, name)
			}
		}
	}
	return table
}
