package report

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phenolabs/nmrtab/internal/bruker"
)

// QCInfo is one INFO row of a QC report: a described sample condition
// with the applied value and the specified reference range parsed out of
// the display name.
type QCInfo struct {
	Name    string
	Comment string
	Value   string
	Ref     string
}

// QCTest is one PARAMETER row of a QC report.
type QCTest struct {
	Name    string
	Comment string
	Type    string
	Value   string
	Unit    string
	RefMax  string
	RefMin  string
}

// QC holds a parsed quality control report. InfoNames and TestNames are
// the database-friendly forms of the respective row names.
type QC struct {
	Version   string
	Infos     []QCInfo
	InfoNames []string
	Tests     []QCTest
	TestNames []string
}

// QC reads a plasma or urine qc_report XML.
func (r *Reader) QC(path string) (*QC, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("qc report not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	qc := &QC{}
	dec := xml.NewDecoder(f)
	first := true
	valueSeen, refSeen := false, false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Error("qc report not parseable", slog.String("path", path), slog.Any("error", err))
			return nil, false
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if first {
			qc.Version = attr(el, "version")
			first = false
		}

		switch el.Name.Local {
		case "INFO":
			nameRaw := attr(el, "name")
			lower := strings.ToLower(nameRaw)

			var value, ref string
			if _, after, found := strings.Cut(lower, "applied:"); found {
				value = strings.TrimRight(strings.TrimSpace(after), ")")
			}
			if _, after, found := strings.Cut(lower, "specified:"); found {
				ref = strings.TrimSpace(strings.Split(after, ",")[0])
			}
			name := strings.TrimSpace(strings.Split(nameRaw, "(")[0])

			qc.Infos = append(qc.Infos, QCInfo{
				Name:    name,
				Comment: attr(el, "value"),
				Value:   value,
				Ref:     ref,
			})
			qc.InfoNames = append(qc.InfoNames, bruker.CleanName(name))

		case "PARAMETER":
			name := attr(el, "name")
			qc.Tests = append(qc.Tests, QCTest{
				Name:    name,
				Comment: attr(el, "comment"),
				Type:    attr(el, "type"),
			})
			qc.TestNames = append(qc.TestNames,
				bruker.CleanName(strings.ToLower(strings.TrimSpace(strings.Split(name, "(")[0]))))
			valueSeen, refSeen = false, false

		case "VALUE":
			if n := len(qc.Tests); n > 0 && !valueSeen {
				test := &qc.Tests[n-1]
				test.Value = strings.ReplaceAll(attr(el, "value"), `\textless`, "< ")
				test.Unit = attr(el, "unit")
				valueSeen = true
			}

		case "REFERENCE":
			if n := len(qc.Tests); n > 0 && !refSeen {
				test := &qc.Tests[n-1]
				test.RefMax = attr(el, "vmax")
				test.RefMin = attr(el, "vmin")
				refSeen = true
			}
		}
	}

	return qc, true
}
