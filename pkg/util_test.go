package dedupr

import (
	"strings"
	"testing"
)

func TestParseHumanSize(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		valid    bool
	}{
		{"300", 300, true},
		{"300B", 300, true},
		{"4k", 4096, true},
		{"64KB", 64 << 10, true},
		{"2M", 2 << 20, true},
		{" 1.5m ", 3 << 19, true},
		{"1G", 1 << 30, true},
		{"", 0, false},
		{"M", 0, false},
		{"12X", 0, false},
		{"0", 0, false},
	}

	for _, tc := range testCases {
		got, err := ParseHumanSize(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ParseHumanSize(%q) error = %v", tc.input, err)
			continue
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("ParseHumanSize(%q) should fail, got %d", tc.input, got)
			}
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseHumanSize(%q) = %d, expected %d", tc.input, got, tc.expected)
		}
	}
}

func TestHumanReadableSize(t *testing.T) {
	testCases := []struct {
		size     int64
		expected string
	}{
		{0, "0"},
		{512, "512"},
		{1024, "1K"},
		{2 << 20, "2M"},
		{3 << 19, "1.5M"},
		{5 << 30, "5G"},
	}

	for _, tc := range testCases {
		if got := HumanReadableSize(tc.size); got != tc.expected {
			t.Errorf("HumanReadableSize(%d) = %s, expected %s", tc.size, got, tc.expected)
		}
		// Every rendering parses back, except zero which is not a valid size
		if tc.size > 0 {
			if parsed, err := ParseHumanSize(HumanReadableSize(tc.size)); err != nil || int64(parsed) != tc.size {
				t.Errorf("HumanReadableSize(%d) did not parse back: %d, %v", tc.size, parsed, err)
			}
		}
	}
}

func TestGenerateTempFileName(t *testing.T) {
	name := generateTempFileName("/out/dedupr.json")

	// Hidden, next to the target, so the final rename stays on one filesystem
	if !strings.HasPrefix(name, "/out/.dedupr.json-") || !strings.HasSuffix(name, ".tmp") {
		t.Errorf("Unexpected temp file name %s", name)
	}
}
