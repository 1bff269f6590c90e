package extract

import (
	"os"
	"strings"
)

// Text returns the file contents as is, minus a UTF-8 byte order mark.
func Text(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}
