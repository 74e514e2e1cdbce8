// Package reqfile reads pip-style requirements files.
package reqfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/frederic-klein/minipip/internal/errs"
)

// Read returns the specs listed in the requirements file at path, one per
// line. Blank lines and "#" comment lines contribute nothing. A missing
// file is the user's problem, not ours.
func Read(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Userf("can't find '%s'", path)
	}
	defer file.Close()

	var specs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return specs, nil
}
