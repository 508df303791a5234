package dedupr

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Options configures one run. Zero values mean "use the default".
type Options struct {
	// Folders to scan, in priority order. The first occurrence of a file wins.
	Folders []string
	// Extensions allowed (lowercase, without the dot). Empty or "*" means all.
	Extensions []string
	// Output is the report path; Format is json or yaml (derived from Output when empty).
	Output string
	Format string
	// Parallel is how many files of a folder are hashed at once.
	Parallel int
	// HashSize is how many kilobytes are hashed from the start and the end of each file.
	HashSize int
	// HashAlgorithm is the digest used for fingerprints.
	HashAlgorithm string

	Verbose  bool
	Reverse  bool
	Filename bool
	Delete   bool
}

// normalize returns a copy of the options with defaults applied and values
// cleaned up. It never touches the filesystem.
func (o Options) normalize() (Options, error) {
	n := o
	n.Folders = append([]string(nil), o.Folders...)

	if len(n.Folders) == 0 {
		return n, configErrorf("no folders were passed")
	}
	for _, folder := range n.Folders {
		if strings.TrimSpace(folder) == "" {
			return n, configErrorf("empty folder name")
		}
	}

	n.Extensions = normalizeExtensions(o.Extensions)

	if n.Output == "" {
		n.Output = DefaultOutput
	}

	if n.Parallel == 0 {
		n.Parallel = DefaultParallel
	}
	if err := ValidateParallel(n.Parallel); err != nil {
		return n, newError(KindConfig, "", err)
	}

	if n.HashSize < 0 {
		return n, configErrorf("hash size must be at least 1 KB, got %d", n.HashSize)
	}
	if n.HashSize == 0 {
		n.HashSize = DefaultHashSize
	}

	if n.HashAlgorithm == "" {
		n.HashAlgorithm = DefaultHashAlgorithm
	}
	n.HashAlgorithm = strings.ToLower(strings.TrimSpace(n.HashAlgorithm))
	if err := ValidateHashAlgorithm(n.HashAlgorithm); err != nil {
		return n, newError(KindConfig, "", err)
	}

	if n.Format == "" {
		n.Format = formatFromPath(n.Output)
	}
	n.Format = strings.ToLower(n.Format)
	if err := ValidateOutputFormat(n.Format); err != nil {
		return n, newError(KindConfig, "", err)
	}

	return n, nil
}

// sampleSize returns the sampled region size in bytes
func (o Options) sampleSize() int64 {
	return int64(o.HashSize) * 1024
}

// String renders the options for the debug log
func (o Options) String() string {
	parts := []string{
		fmt.Sprintf("folders: %s", strings.Join(o.Folders, ",")),
	}
	if len(o.Extensions) > 0 {
		parts = append(parts, fmt.Sprintf("extensions: %s", strings.Join(o.Extensions, ",")))
	}
	parts = append(parts,
		fmt.Sprintf("output: %s", o.Output),
		fmt.Sprintf("parallel: %d", o.Parallel),
		fmt.Sprintf("hashSize: %d", o.HashSize),
		fmt.Sprintf("hashAlgorithm: %s", o.HashAlgorithm),
		fmt.Sprintf("reverse: %t", o.Reverse),
		fmt.Sprintf("filename: %t", o.Filename),
		fmt.Sprintf("delete: %t", o.Delete),
	)
	return strings.Join(parts, " | ")
}

// normalizeExtensions lower-cases the allow-list and strips leading dots.
// A "*" anywhere disables filtering, which is represented by nil.
func normalizeExtensions(extensions []string) []string {
	var result []string
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "*" {
			return nil
		}
		ext = strings.TrimLeft(ext, ".")
		if ext == "" {
			continue
		}
		result = append(result, ext)
	}
	return result
}

// formatFromPath picks the report format from the output file extension
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
