package progress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "zero", input: 0, expected: "0.00B"},
		{name: "below base", input: 1023, expected: "1023.00B"},
		{name: "one kib", input: 1024, expected: "1.00KiB"},
		{name: "one mib", input: 1024 * 1024, expected: "1.00MiB"},
		{name: "just below mib", input: 1024*1024 - 1, expected: "1024.00KiB"},
		{name: "one and a half gib", input: 3 * 512 * 1024 * 1024, expected: "1.50GiB"},
		{name: "units exhausted", input: 2048 * 1024 * 1024 * 1024 * 1024, expected: "2048.00TiB"},
		{name: "negative clamps", input: -5, expected: "0.00B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.input))
		})
	}
}

func TestFormatETA(t *testing.T) {
	tests := map[string]struct {
		seconds  int64
		expected string
	}{
		"zero":            {seconds: 0, expected: ""},
		"seconds only":    {seconds: 42, expected: "42s"},
		"minutes":         {seconds: 125, expected: "2m 5s"},
		"whole minute":    {seconds: 60, expected: "1m 0s"},
		"hours":           {seconds: 3723, expected: "1h 2m 3s"},
		"hours no minute": {seconds: 3605, expected: "1h 0m 5s"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatETA(tc.seconds))
		})
	}
}

func TestPercentMonotonic(t *testing.T) {
	const total = int64(10_000)
	last := -1.0
	for completed := int64(0); completed <= total+500; completed += 250 {
		pct := Snapshot{Completed: completed, Total: total}.Percent()
		assert.GreaterOrEqual(t, pct, last, "percentage decreased at %d", completed)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
		last = pct
	}
	assert.Equal(t, 100.0, last)
}

func TestPercentUnknownTotal(t *testing.T) {
	assert.Equal(t, 0.0, Snapshot{Completed: 500, Total: 0}.Percent())
}

func TestRenderETAOmission(t *testing.T) {
	tests := []struct {
		name      string
		completed int64
		total     int64
		rate      int64
		wantETA   string
	}{
		{name: "zero rate", completed: 10, total: 100, rate: 0},
		{name: "nothing remaining", completed: 100, total: 100, rate: 50},
		{name: "less than a second left", completed: 95, total: 100, rate: 10},
		{name: "eta present", completed: 50, total: 100, rate: 10, wantETA: "ETA:5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Render(tt.completed, tt.total, tt.rate, 2)
			if tt.wantETA == "" {
				assert.NotContains(t, line, "ETA")
				return
			}
			assert.True(t, strings.HasSuffix(line, tt.wantETA), "line %q", line)
		})
	}
}

func TestRenderLine(t *testing.T) {
	line := Render(1024*1024, 4*1024*1024, 512*1024, 5)
	assert.Equal(t, "512.00KiB/s 1.00MiB/4.00MiB 25.0% CN:5 ETA:6s", line)
}
