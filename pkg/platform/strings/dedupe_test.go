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
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "broker list from env",
			input:    []string{" broker-1:9092", "broker-2:9092 ", "broker-1:9092", ""},
			expected: []string{"broker-1:9092", "broker-2:9092"},
		},
		{
			name:     "only blanks",
			input:    []string{"", "  "},
			expected: []string{},
		},
		{
			name:     "preserves case",
			input:    []string{"Kafka:9092", "kafka:9092"},
			expected: []string{"Kafka:9092", "kafka:9092"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"full_sister":           "full_sister",
		" Full-Sister ":         "full_sister",
		"paternal half brother": "paternal_half_brother",
		"HANAFI":                "hanafi",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Key(in), "input %q", in)
	}
}
