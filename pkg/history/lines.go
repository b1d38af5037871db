package history

import "strings"

// SplitLines splits file content into lines without their terminators.
// A trailing newline does not produce an empty final line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	text := strings.TrimSuffix(string(data), "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
