package report

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
)

// PacsRow is one PhenoRisk PACS parameter; concentrations stay textual
// because reports mix numbers with censored markers.
type PacsRow struct {
	Name     string
	Conc     string
	ConcUnit string
	RefMax   string
	RefMin   string
	RefUnit  string
}

// Pacs holds a parsed PACS report.
type Pacs struct {
	Version string
	Rows    []PacsRow
}

// Pacs reads a PhenoRisk PACS report XML.
func (r *Reader) Pacs(path string) (*Pacs, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("pacs report not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	pacs := &Pacs{}
	dec := xml.NewDecoder(f)
	versionSeen := false
	valueSeen, refSeen := false, false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Error("pacs report not parseable", slog.String("path", path), slog.Any("error", err))
			return nil, false
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "QUANTIFICATION":
			if !versionSeen {
				pacs.Version = attr(el, "version")
				versionSeen = true
			}

		case "PARAMETER":
			pacs.Rows = append(pacs.Rows, PacsRow{Name: attr(el, "name")})
			valueSeen, refSeen = false, false

		case "VALUE":
			if n := len(pacs.Rows); n > 0 && !valueSeen {
				pacs.Rows[n-1].Conc = attr(el, "conc")
				pacs.Rows[n-1].ConcUnit = attr(el, "concUnit")
				valueSeen = true
			}

		case "REFERENCE":
			if n := len(pacs.Rows); n > 0 && !refSeen {
				pacs.Rows[n-1].RefMax = attr(el, "vmax")
				pacs.Rows[n-1].RefMin = attr(el, "vmin")
				pacs.Rows[n-1].RefUnit = attr(el, "unit")
				refSeen = true
			}
		}
	}

	return pacs, true
}
