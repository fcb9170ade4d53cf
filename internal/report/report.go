// Package report reads the Bruker IVDr analysis reports that accompany a
// processed experiment: ERETIC calibration files, quality control,
// lipoprotein, PACS, and small-molecule quantification XMLs. Report files
// are optional per experiment; a missing file is reported through a false
// ok value, a malformed one through a logged parse error.
package report

import (
	"encoding/xml"
	"log/slog"
	"strconv"
	"strings"
)

// Reader parses report files. Missing and malformed files are soft
// conditions, logged and signalled via ok=false.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. If logger is nil, a discard logger is used.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{logger: logger}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// attrFloat parses a numeric attribute, treating an absent value as 0.
func attrFloat(el xml.StartElement, name string) (float64, error) {
	s := attr(el, name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
