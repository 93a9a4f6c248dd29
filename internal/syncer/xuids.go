package syncer

import (
	"fmt"
	"os"
	"strings"
)

// ReadXUIDs reads the identifier file: one xuid per line, whitespace trimmed,
// blank lines dropped, order and duplicates preserved. A missing file is an
// error, not an empty list; the data repo contract requires it.
func ReadXUIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier file %s: %w", path, err)
	}

	var xuids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		xuids = append(xuids, line)
	}

	return xuids, nil
}
