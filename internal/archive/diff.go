package archive

import (
	"fmt"
	"strings"
)

// positionalDiff compares two line sequences index by index. It is a
// naive positional comparison, not an LCS alignment: an insertion at the
// top of a page shows up as many changed lines rather than one added
// block. That tradeoff keeps the numeric contract simple and stable.
func positionalDiff(archived, current []string) (DiffSummary, []string) {
	var summary DiffSummary
	if len(current) > len(archived) {
		summary.Added = len(current) - len(archived)
	}
	if len(archived) > len(current) {
		summary.Removed = len(archived) - len(current)
	}

	overlap := len(archived)
	if len(current) < overlap {
		overlap = len(current)
	}
	var changedLines []string
	for i := 0; i < overlap; i++ {
		if archived[i] != current[i] {
			summary.Changed++
			changedLines = append(changedLines, fmt.Sprintf("line:%d", i+1))
		}
	}
	return summary, changedLines
}

// splitLines splits normalized text into lines, treating empty text as
// zero lines rather than one empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
