package report

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Eretic holds the calibration block of a QuantFactorSample.xml file
// (600 MHz instruments).
type Eretic struct {
	Field                  float64
	CalEreticPosition      float64
	CalEreticLineWidth     float64
	CalEreticConcentration float64
	CalTubeID              string
	CalTmin                float64
	CalTmax                float64
	CalP1                  float64
	CalEreticCalibration   float64
	EreticFactor           float64
	Temperature            float64
	P1                     float64
}

// EreticF80 holds the contents of an eretic_file.xml written by 80 MHz
// benchtop instruments. SamOneMolInt plays the role of the ERETIC factor.
type EreticF80 struct {
	SamOneMolInt   float64
	RefOneMolInt   float64
	SamPreScanAttn float64
	RefPreScanAttn float64
	SamRG          float64
	RefRG          float64
	SamTemp        float64
	RefTemp        float64
}

// textTarget selects the first element named name below ancestor (any
// element when ancestor is empty) and stores its text.
type textTarget struct {
	ancestor string
	name     string
	dest     *float64
	done     bool
}

// collectText walks the document and fills each target from the first
// matching element with non-empty text.
func collectText(dec *xml.Decoder, targets []textTarget, onStart func(xml.StartElement)) error {
	var stack []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if onStart != nil {
				onStart(t)
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || len(stack) == 0 {
				continue
			}
			leaf := stack[len(stack)-1]
			for i := range targets {
				tg := &targets[i]
				if tg.done || tg.name != leaf {
					continue
				}
				if tg.ancestor != "" && !containsName(stack[:len(stack)-1], tg.ancestor) {
					continue
				}
				v, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return err
				}
				*tg.dest = v
				tg.done = true
			}
		}
	}
}

func containsName(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}

// Eretic reads a QuantFactorSample.xml calibration file.
func (r *Reader) Eretic(path string) (*Eretic, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("eretic file not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	e := &Eretic{Field: 600}
	targets := []textTarget{
		{name: "Artificial_Eretic_Position", dest: &e.CalEreticPosition},
		{name: "Artificial_Eretic_Line_Width", dest: &e.CalEreticLineWidth},
		{name: "Artificial_Eretic_Concentration", dest: &e.CalEreticConcentration},
		{name: "Temperature_min", dest: &e.CalTmin},
		{name: "Temperature_max", dest: &e.CalTmax},
		{ancestor: "Eretic_Calibration", name: "P1", dest: &e.CalP1},
		{ancestor: "Eretic_Calibration", name: "Eretic_Factor", dest: &e.CalEreticCalibration},
		{ancestor: "Application_Parameter", name: "Eretic_Factor", dest: &e.EreticFactor},
		{ancestor: "Application_Parameter", name: "P1", dest: &e.P1},
		{ancestor: "Application_Parameter", name: "Temperature", dest: &e.Temperature},
	}

	err = collectText(xml.NewDecoder(f), targets, func(el xml.StartElement) {
		if el.Name.Local == "Eretic_Sample_Tube" && e.CalTubeID == "" {
			e.CalTubeID = attr(el, "ID")
		}
	})
	if err != nil {
		r.logger.Error("eretic file not parseable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	return e, true
}

// EreticF80 reads an 80 MHz eretic_file.xml.
func (r *Reader) EreticF80(path string) (*EreticF80, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("eretic file not readable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	defer f.Close()

	e := &EreticF80{}
	targets := []textTarget{
		{ancestor: "Sample", name: "OneMolInt", dest: &e.SamOneMolInt},
		{ancestor: "Sample", name: "PreScanAttn", dest: &e.SamPreScanAttn},
		{ancestor: "Sample", name: "RG", dest: &e.SamRG},
		{ancestor: "Sample", name: "Temp", dest: &e.SamTemp},
		{ancestor: "Reference", name: "OneMolInt", dest: &e.RefOneMolInt},
		{ancestor: "Reference", name: "PreScanAttn", dest: &e.RefPreScanAttn},
		{ancestor: "Reference", name: "RG", dest: &e.RefRG},
		{ancestor: "Reference", name: "Temp", dest: &e.RefTemp},
	}

	if err := collectText(xml.NewDecoder(f), targets, nil); err != nil {
		r.logger.Error("eretic file not parseable", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	return e, true
}

// EreticFactor looks the ERETIC factor up inside an expno directory:
// QuantFactorSample.xml first, then the benchtop pdata/1/eretic_file.xml.
func (r *Reader) EreticFactor(expno string) (float64, bool) {
	quantPath := filepath.Join(expno, "QuantFactorSample.xml")
	if _, err := os.Stat(quantPath); err == nil {
		if e, ok := r.Eretic(quantPath); ok {
			return e.EreticFactor, true
		}
		return 0, false
	}

	f80Path := filepath.Join(expno, "pdata", "1", "eretic_file.xml")
	if _, err := os.Stat(f80Path); err == nil {
		if e, ok := r.EreticF80(f80Path); ok {
			return e.SamOneMolInt, true
		}
	}
	return 0, false
}

// DiscoverEreticFactor finds the factor for an expno by looking in the
// sibling calibration expno, whose path is the expno path with its last
// character replaced by "0". Without a calibration file the factor is 1.
func (r *Reader) DiscoverEreticFactor(expno string) float64 {
	if expno == "" {
		return 1
	}
	sibling := expno[:len(expno)-1] + "0"
	if factor, ok := r.EreticFactor(sibling); ok {
		return factor
	}
	r.logger.Debug("no eretic calibration found, factor set to 1", slog.String("expno", expno))
	return 1
}
