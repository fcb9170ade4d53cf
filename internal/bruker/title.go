package bruker

import (
	"log/slog"
	"os"
	"strings"
)

// Title reads an experiment title file, joining its non-empty lines with
// newlines. Returns ok=false when the file is absent.
func (r *Reader) Title(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("title file not readable", slog.String("path", path), slog.Any("error", err))
		return "", false
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimRight(line, " \t\r"))
		}
	}
	return strings.Join(kept, "\n"), true
}
