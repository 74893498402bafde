package interaction

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var sequenceNamePattern = regexp.MustCompile(`^interaction_(\d+)$`)

// NextSequenceName scans directory for existing "interaction_<N>.yaml"
// files and returns the name for the next one: "interaction_<max+1>", or
// "interaction_0" if none exist. Non-matching files (including files that
// don't end in .yaml) are ignored.
func NextSequenceName(directory string) (string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return "interaction_0", nil
		}
		return "", fmt.Errorf("interaction: read dir %s: %w", directory, err)
	}

	maxN := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		stem := strings.TrimSuffix(name, ".yaml")
		m := sequenceNamePattern.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("interaction_%d", maxN+1), nil
}
