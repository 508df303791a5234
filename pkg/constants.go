package dedupr

import "strings"

// Default option values
const (
	DefaultOutput        = "dedupr.json"
	DefaultParallel      = 5
	DefaultHashSize      = 2048 // kilobytes sampled from the start and the end of a file
	DefaultHashAlgorithm = "sha256"

	// MaxParallel bounds how many files are open at once
	MaxParallel = 256
)

// Context constants for records held by the results index
const (
	FileContext  = "file"
	ErrorContext = "error"
)

// errorKeyPrefix separates error records from duplicate keys in the index
const errorKeyPrefix = "error:"

// Report formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Preset is a named sampling size and hash algorithm combination
type Preset struct {
	Name          string
	HashSize      int
	HashAlgorithm string
}

// Presets lists the speed shortcuts, fastest first
var Presets = []Preset{
	{Name: "crazyfast", HashSize: 4, HashAlgorithm: "sha1"},
	{Name: "veryfast", HashSize: 64, HashAlgorithm: "sha1"},
	{Name: "faster", HashSize: 512, HashAlgorithm: "sha1"},
	{Name: "fast", HashSize: 1024, HashAlgorithm: "sha256"},
	{Name: "safe", HashSize: 32768, HashAlgorithm: "sha512"},
}

// PresetByName returns the preset with the given name (case-insensitive)
func PresetByName(name string) (Preset, bool) {
	for _, preset := range Presets {
		if strings.EqualFold(preset.Name, name) {
			return preset, true
		}
	}
	return Preset{}, false
}
