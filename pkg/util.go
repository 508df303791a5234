package dedupr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHumanSize parses human-readable size strings (e.g., "2M", "512k", "1G")
func ParseHumanSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	// Split the numeric part from the suffix
	numPart := sizeStr
	suffix := ""
	for i, char := range sizeStr {
		if !(char >= '0' && char <= '9' || char == '.') {
			numPart, suffix = sizeStr[:i], strings.TrimSpace(sizeStr[i:])
			break
		}
	}

	if numPart == "" {
		return 0, fmt.Errorf("no numeric part in size string: %s", sizeStr)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part in size string %s: %w", sizeStr, err)
	}

	var multiplier int64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1 << 10
	case "M", "MB":
		multiplier = 1 << 20
	case "G", "GB":
		multiplier = 1 << 30
	default:
		return 0, fmt.Errorf("unknown size suffix: %s", suffix)
	}

	result := int64(num * float64(multiplier))
	if result <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", sizeStr)
	}
	if result > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	return int(result), nil
}

// HumanReadableSize formats a byte count in the largest unit it fits,
// in a form ParseHumanSize accepts ("2M", "1.5G", "300")
func HumanReadableSize(size int64) string {
	units := []struct {
		suffix string
		factor int64
	}{
		{"G", 1 << 30},
		{"M", 1 << 20},
		{"K", 1 << 10},
	}

	for _, unit := range units {
		if size < unit.factor {
			continue
		}
		if size%unit.factor == 0 {
			return fmt.Sprintf("%d%s", size/unit.factor, unit.suffix)
		}
		return fmt.Sprintf("%.1f%s", float64(size)/float64(unit.factor), unit.suffix)
	}
	return strconv.FormatInt(size, 10)
}
