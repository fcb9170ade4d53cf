package report

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"strings"
)

// QuantRow is one quantified compound. All values stay textual: reports
// encode censoring and missing measurements as markers, not numbers.
type QuantRow struct {
	Name        string
	Conc        string
	ConcUnit    string
	LOD         string
	LODUnit     string
	LOQ         string
	LOQUnit     string
	ConcRel     string
	ConcUnitRel string
	LODRel      string
	LODUnitRel  string
	LOQRel      string
	LOQUnitRel  string
	SigCorrUnit string
	SigCorr     string
	RawConcUnit string
	RawConc     string
	ErrConc     string
	ErrConcUnit string
	RefMax      string
	RefMin      string
	RefUnit     string
}

// Quant holds a parsed small-molecule quantification report.
type Quant struct {
	Version string
	Rows    []QuantRow
}

type quantValue struct {
	conc, concUnit string
	lod, lodUnit   string
	loq, loqUnit   string
	valueext, unit string
}

type quantRel struct {
	sigCorrUnit, sigCorr string
	rawConcUnit, rawConc string
	errConc, errConcUnit string
}

type quantRef struct {
	vmax, vmin, unit string
}

// Quant reads a plasma or urine quantification report. Two schema
// generations exist: files with "_ver_" in their name carry valueext
// attributes on per-parameter VALUE pairs; newer "Quant" reports carry
// conc attributes with separate VALUERELATIVE and RELDATA elements that
// line up positionally with the parameters, the first compound having no
// relative block.
func (r *Reader) Quant(path string) (*Quant, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("quant report not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	var (
		version     string
		versionSeen bool
		names       []string
		values      []quantValue
		relatives   []quantValue
		reldata     []quantRel
		refs        []quantRef
		paramValues [][]quantValue
		paramRefs   [][]quantRef
		stack       []string
	)

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Error("quant report not parseable", slog.String("path", path), slog.Any("error", err))
			return nil, false
		}
		switch el := tok.(type) {
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.StartElement:
			stack = append(stack, el.Name.Local)
			inParam := containsName(stack[:len(stack)-1], "PARAMETER")

			switch el.Name.Local {
			case "QUANTIFICATION":
				if !versionSeen {
					version = attr(el, "version")
					versionSeen = true
				}
			case "PARAMETER":
				names = append(names, attr(el, "name"))
				paramValues = append(paramValues, nil)
				paramRefs = append(paramRefs, nil)
			case "VALUE":
				v := quantValue{
					conc: attr(el, "conc"), concUnit: attr(el, "concUnit"),
					lod: attr(el, "lod"), lodUnit: attr(el, "lodUnit"),
					loq: attr(el, "loq"), loqUnit: attr(el, "loqUnit"),
					valueext: attr(el, "valueext"), unit: attr(el, "unit"),
				}
				values = append(values, v)
				if inParam && len(paramValues) > 0 {
					paramValues[len(paramValues)-1] = append(paramValues[len(paramValues)-1], v)
				}
			case "VALUERELATIVE":
				relatives = append(relatives, quantValue{
					conc: attr(el, "conc"), concUnit: attr(el, "concUnit"),
					lod: attr(el, "lod"), lodUnit: attr(el, "lodUnit"),
					loq: attr(el, "loq"), loqUnit: attr(el, "loqUnit"),
				})
			case "RELDATA":
				reldata = append(reldata, quantRel{
					sigCorrUnit: attr(el, "sigCorrUnit"), sigCorr: attr(el, "sigCorr"),
					rawConcUnit: attr(el, "rawConcUnit"), rawConc: attr(el, "rawConc"),
					errConc: attr(el, "errConc"), errConcUnit: attr(el, "errConcUnit"),
				})
			case "REFERENCE":
				ref := quantRef{vmax: attr(el, "vmax"), vmin: attr(el, "vmin"), unit: attr(el, "unit")}
				refs = append(refs, ref)
				if inParam && len(paramRefs) > 0 {
					paramRefs[len(paramRefs)-1] = append(paramRefs[len(paramRefs)-1], ref)
				}
			}
		}
	}

	quant := &Quant{Version: version}
	switch {
	case strings.Contains(path, "_ver_"):
		for i, name := range names {
			row := QuantRow{Name: name}
			if vs := paramValues[i]; len(vs) > 0 {
				row.Conc, row.ConcUnit = vs[0].valueext, vs[0].unit
				row.LOD, row.LODUnit = vs[0].lod, vs[0].unit
				row.LOQ, row.LOQUnit = vs[0].loq, vs[0].unit
				row.RawConc, row.RawConcUnit = vs[0].valueext, vs[0].unit
			}
			if vs := paramValues[i]; len(vs) > 1 {
				row.ConcRel, row.ConcUnitRel = vs[1].valueext, vs[1].unit
				row.LODRel, row.LODUnitRel = vs[1].lod, vs[1].unit
				row.LOQRel, row.LOQUnitRel = vs[1].loq, vs[1].unit
			}
			// Creatinine reference ranges are a normalization target, not
			// a diagnostic band, and are skipped.
			if name != "Creatinine" && len(paramRefs[i]) > 0 {
				ref := paramRefs[i][0]
				row.RefMax, row.RefMin, row.RefUnit = ref.vmax, ref.vmin, ref.unit
			}
			quant.Rows = append(quant.Rows, row)
		}

	case strings.Contains(version, "Quant"):
		for i, name := range names {
			row := QuantRow{Name: name}
			if i < len(values) {
				v := values[i]
				row.Conc, row.ConcUnit = v.conc, v.concUnit
				row.LOD, row.LODUnit = v.lod, v.lodUnit
				row.LOQ, row.LOQUnit = v.loq, v.loqUnit
			}
			if i > 0 && i-1 < len(relatives) {
				v := relatives[i-1]
				row.ConcRel, row.ConcUnitRel = v.conc, v.concUnit
				row.LODRel, row.LODUnitRel = v.lod, v.lodUnit
				row.LOQRel, row.LOQUnitRel = v.loq, v.loqUnit
			}
			if i < len(reldata) {
				d := reldata[i]
				row.SigCorrUnit, row.SigCorr = d.sigCorrUnit, d.sigCorr
				row.RawConcUnit, row.RawConc = d.rawConcUnit, d.rawConc
				row.ErrConc, row.ErrConcUnit = d.errConc, d.errConcUnit
			}
			if i < len(refs) {
				row.RefMax, row.RefMin, row.RefUnit = refs[i].vmax, refs[i].vmin, refs[i].unit
			}
			quant.Rows = append(quant.Rows, row)
		}

	default:
		r.logger.Error("quant report version not recognized",
			slog.String("path", path), slog.String("version", version))
		return nil, false
	}

	return quant, true
}
