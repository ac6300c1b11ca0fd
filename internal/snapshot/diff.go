package snapshot

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RenderListingDiff produces a line-oriented diff of two index listings.
// Unchanged lines are prefixed with a space, removals with '-', additions
// with '+'.
func RenderListingDiff(left, right string) string {
	dmp := diffmatchpatch.New()
	lc1, lc2, lineIndex := dmp.DiffLinesToChars(left, right)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(lc1, lc2, false), lineIndex)

	var b strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" && d.Text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// diffListingFiles reads two listing files and renders their diff.
func diffListingFiles(leftPath, rightPath string) (string, error) {
	left, err := os.ReadFile(leftPath)
	if err != nil {
		return "", fmt.Errorf("reading listing %s: %w", leftPath, err)
	}
	right, err := os.ReadFile(rightPath)
	if err != nil {
		return "", fmt.Errorf("reading listing %s: %w", rightPath, err)
	}
	return RenderListingDiff(string(left), string(right)), nil
}

// ListingsMatch reports whether the rendered diff contains any changed line.
func ListingsMatch(diff string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			return false
		}
	}
	return true
}
