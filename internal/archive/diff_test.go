package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionalDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		archived    []string
		current     []string
		wantSummary DiffSummary
		wantLines   []string
	}{
		{
			name:        "identical",
			archived:    []string{"A", "B", "C"},
			current:     []string{"A", "B", "C"},
			wantSummary: DiffSummary{},
			wantLines:   nil,
		},
		{
			name:        "change and addition",
			archived:    []string{"A", "B", "C"},
			current:     []string{"A", "X", "C", "D"},
			wantSummary: DiffSummary{Added: 1, Changed: 1},
			wantLines:   []string{"line:2"},
		},
		{
			name:        "removal only",
			archived:    []string{"A", "B", "C"},
			current:     []string{"A", "B"},
			wantSummary: DiffSummary{Removed: 1},
			wantLines:   nil,
		},
		{
			name:        "every overlapping line changed",
			archived:    []string{"one", "two"},
			current:     []string{"uno", "dos"},
			wantSummary: DiffSummary{Changed: 2},
			wantLines:   []string{"line:1", "line:2"},
		},
		{
			name:        "empty archive",
			archived:    nil,
			current:     []string{"A"},
			wantSummary: DiffSummary{Added: 1},
			wantLines:   nil,
		},
		{
			name:        "both empty",
			archived:    nil,
			current:     nil,
			wantSummary: DiffSummary{},
			wantLines:   nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			summary, lines := positionalDiff(tc.archived, tc.current)
			assert.Equal(t, tc.wantSummary, summary)
			assert.Equal(t, tc.wantLines, lines)
		})
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"only"}, splitLines("only"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"))
}
