package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "abbreviated month", input: "Jun 12, 2025", expected: "2025-06-12", ok: true},
		{name: "full month", input: "January 3, 2025", expected: "2025-01-03", ok: true},
		{name: "ISO-8601 with Z suffix", input: "2025-06-12T09:00:00Z", expected: "2025-06-12", ok: true},
		{name: "ISO-8601 without zone", input: "2025-06-12T09:00:00", expected: "2025-06-12", ok: true},
		{name: "ISO-8601 with offset", input: "2025-06-12T09:00:00+09:00", expected: "2025-06-12", ok: true},
		{name: "bare date", input: "2025-06-12", expected: "2025-06-12", ok: true},
		{name: "slash date", input: "2025/06/12", expected: "2025-06-12", ok: true},
		{name: "surrounding whitespace", input: "  Jun 8, 2025  ", expected: "2025-06-08", ok: true},
		{name: "not a date", input: "not a date", expected: "", ok: false},
		{name: "empty string", input: "", expected: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := ParseDate(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestMonthKey(t *testing.T) {
	month, ok := MonthKey("Jun 12, 2025")
	assert.True(t, ok)
	assert.Equal(t, "2025-06", month)

	_, ok = MonthKey("garbage")
	assert.False(t, ok)
}
