package bruker

import (
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Value is a scalar read from a parameter file. Values written in angle
// brackets are strings; everything else is parsed as a number when
// possible, falling back to the raw text.
type Value struct {
	Text    string
	Num     float64
	Numeric bool
}

// Float returns the numeric value and whether one is present.
func (v Value) Float() (float64, bool) {
	return v.Num, v.Numeric
}

// Int returns the numeric value truncated to int and whether one is present.
func (v Value) Int() (int, bool) {
	return int(v.Num), v.Numeric
}

// String returns the textual form of the value.
func (v Value) String() string {
	if v.Numeric && v.Text == "" {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Text
}

func parseValue(raw string) Value {
	if strings.Contains(raw, "<") && strings.Contains(raw, ">") {
		s := strings.NewReplacer("<", "", ">", "", " ", "").Replace(raw)
		return Value{Text: s}
	}
	if strings.ContainsAny(raw, ".eE") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Value{Num: f, Numeric: true}
		}
	} else if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Value{Num: float64(n), Numeric: true}
	}
	return Value{Text: raw}
}

// Param extracts a single named parameter from a parameter file. It scans
// for the first line containing "<name>=" and parses the value after the
// equals sign. Returns ok=false when the file or parameter is absent.
func (r *Reader) Param(path, name string) (Value, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("parameter file not readable", slog.String("path", path), slog.Any("error", err))
		return Value{}, false
	}

	needle := name + "="
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, needle) {
			continue
		}
		_, rest, found := strings.Cut(line, "=")
		if !found {
			return Value{}, false
		}
		return parseValue(strings.TrimSpace(rest)), true
	}

	r.logger.Warn("parameter not found", slog.String("name", name), slog.String("path", path))
	return Value{}, false
}

// Entry is one name/value pair extracted from a parameter file, including
// audit metadata rows derived from the file's comment lines.
type Entry struct {
	File  string
	Name  string
	Value string
}

var (
	titleLineRe   = regexp.MustCompile(`^##[A-Z]`)
	xwinStampRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	topspinHdrRe  = regexp.MustCompile(`^[A-Z][a-z]{2}\s+[A-Z][a-z]{2}\s+\d`)
	drivePathRe   = regexp.MustCompile(`^[A-Z]:`)
	vectorValueRe = regexp.MustCompile(`^\(\d+\.\.\d+\)`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
)

// Params extracts every parameter from a parameter file, in file order.
// Title rows (##KEY=), parameter rows (##$KEY=), vector parameters spread
// over a following line, and $$ audit comments (instrument, timestamp,
// data path) are all captured. Returns nil when the file is missing,
// empty, or an AMIX export.
func (r *Reader) Params(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("parameter file not readable", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		r.logger.Warn("parameter file is empty", slog.String("path", path))
		return nil
	}
	if strings.TrimSpace(lines[0]) == "A000" {
		r.logger.Warn("parameter file is AMIX format", slog.String("path", path))
		return nil
	}

	filename := baseName(path)
	var entries []Entry

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "##END=") {
			break
		}

		switch {
		case titleLineRe.MatchString(line):
			name, value, found := strings.Cut(line, "= ")
			if !found {
				continue
			}
			value = strings.TrimSpace(value)
			value = strings.ReplaceAll(value, "\t", " ")
			value = strings.ReplaceAll(value, "$$", "")
			value = collapseSpaces(value)
			entries = append(entries, Entry{File: filename, Name: strings.TrimPrefix(name, "##"), Value: value})

		case strings.HasPrefix(line, "$$ "):
			entries = append(entries, auditEntries(filename, line)...)

		case strings.HasPrefix(line, "##$"):
			name, value, found := strings.Cut(line, "= ")
			if !found {
				continue
			}
			name = strings.TrimPrefix(name, "##$")
			value = strings.TrimSpace(value)
			if vectorValueRe.MatchString(value) {
				i++
				if i < len(lines) {
					for j, field := range strings.Fields(lines[i]) {
						entries = append(entries, Entry{File: filename, Name: name + "_" + strconv.Itoa(j), Value: field})
					}
				}
			} else {
				value = strings.NewReplacer("<", "", ">", "").Replace(value)
				entries = append(entries, Entry{File: filename, Name: name, Value: value})
			}
		}
	}

	if len(entries) == 0 {
		return nil
	}
	return entries
}

// auditEntries parses one $$ comment line into metadata entries. Two
// timestamp layouts occur in the wild: XwinNMR writes
// "YYYY-MM-DD HH:MM:SS TZ instrument", TopSpin writes
// "Mon Jan 02 15:04:05 2006 TZ offset instrument".
func auditEntries(filename, line string) []Entry {
	param := collapseSpaces(strings.TrimSpace(strings.TrimPrefix(line, "$$ ")))

	var date, timeOfDay, timezone, instrument, dataPath string

	switch {
	case xwinStampRe.MatchString(param):
		parts := strings.Split(param, " ")
		if len(parts) >= 4 {
			date = parts[0]
			timeOfDay = parts[1]
			timezone = parts[2]
			instrument = CleanName(parts[3])
		}
	case topspinHdrRe.MatchString(param):
		parts := strings.Split(param, " ")
		if len(parts) >= 8 {
			date = strings.Join([]string{parts[0], parts[1], parts[2], parts[4]}, " ")
			timeOfDay = parts[3]
			timezone = parts[5] + " " + parts[6]
			instrument = CleanName(parts[7])
		}
	case drivePathRe.MatchString(param) || strings.HasPrefix(param, "/u"):
		dataPath = param
	}

	var entries []Entry
	if date != "" && timeOfDay != "" && timezone != "" && instrument != "" {
		entries = append(entries,
			Entry{File: filename, Name: "instrumentDate", Value: date},
			Entry{File: filename, Name: "instrumentTime", Value: timeOfDay},
			Entry{File: filename, Name: "instrumentTimeZone", Value: timezone},
			Entry{File: filename, Name: "instrument", Value: instrument},
		)
	}
	if dataPath != "" {
		entries = append(entries, Entry{File: filename, Name: "dpath", Value: dataPath})
	}
	return entries
}

func collapseSpaces(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
