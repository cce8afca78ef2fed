package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: []string{}},
		{name: "blanks only", input: []string{"", "  "}, expected: []string{}},
		{name: "order kept", input: []string{"U14", "U12"}, expected: []string{"U14", "U12"}},
		{name: "repeats after trim", input: []string{" U12", "U12 ", "U14", "U12"}, expected: []string{"U12", "U14"}},
		{name: "case sensitive", input: []string{"u12", "U12"}, expected: []string{"u12", "U12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
