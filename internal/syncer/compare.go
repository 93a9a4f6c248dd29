package syncer

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
)

// FileHasContent reports whether the file at path already holds exactly the
// given bytes. A missing file compares as different; any other read failure
// is surfaced.
func FileHasContent(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(existing, content), nil
}
