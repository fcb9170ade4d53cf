package report

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LipoRow is one lipoprotein parameter. Fraction, Name, and Abbr come
// from the comma-separated comment attribute.
type LipoRow struct {
	Fraction string
	Name     string
	Abbr     string
	ID       string
	Type     string
	Value    float64
	Unit     string
	RefMax   float64
	RefMin   float64
	RefUnit  string
}

// Lipo holds a parsed lipoprotein report. Rows are unique by ID, first
// occurrence kept.
type Lipo struct {
	Version string
	Rows    []LipoRow
}

// Lipo reads a lipoprotein profile report XML.
func (r *Reader) Lipo(path string) (*Lipo, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("lipo report not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	lipo := &Lipo{}
	dec := xml.NewDecoder(f)
	versionSeen := false
	valueSeen, refSeen := false, false
	var rows []LipoRow

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Error("lipo report not parseable", slog.String("path", path), slog.Any("error", err))
			return nil, false
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "QUANTIFICATION":
			if !versionSeen {
				if fields := strings.Fields(attr(el, "version")); len(fields) > 0 {
					lipo.Version = fields[0]
				}
				versionSeen = true
			}

		case "PARAMETER":
			row := LipoRow{
				ID:   attr(el, "name"),
				Type: attr(el, "type"),
			}
			parts := strings.Split(attr(el, "comment"), ",")
			if len(parts) > 0 {
				row.Fraction = strings.TrimSpace(parts[0])
			}
			if len(parts) > 1 {
				row.Name = strings.TrimSpace(parts[1])
			}
			if len(parts) > 2 {
				row.Abbr = strings.TrimSpace(parts[2])
			}
			rows = append(rows, row)
			valueSeen, refSeen = false, false

		case "VALUE":
			if n := len(rows); n > 0 && !valueSeen {
				v, err := attrFloat(el, "value")
				if err != nil {
					r.logger.Error("lipo report not parseable", slog.String("path", path), slog.Any("error", err))
					return nil, false
				}
				rows[n-1].Value = v
				rows[n-1].Unit = attr(el, "unit")
				valueSeen = true
			}

		case "REFERENCE":
			if n := len(rows); n > 0 && !refSeen {
				vmax, errMax := attrFloat(el, "vmax")
				vmin, errMin := attrFloat(el, "vmin")
				if errMax != nil || errMin != nil {
					r.logger.Error("lipo report not parseable", slog.String("path", path))
					return nil, false
				}
				rows[n-1].RefMax = vmax
				rows[n-1].RefMin = vmin
				rows[n-1].RefUnit = attr(el, "unit")
				refSeen = true
			}
		}
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		lipo.Rows = append(lipo.Rows, row)
	}
	return lipo, true
}
