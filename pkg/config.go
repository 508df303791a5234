package dedupr

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// DefaultConfigFile is the config file name looked up in the user config dir
const DefaultConfigFile = "dedupr.ini"

// Config represents the dedupr configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// ScanConfig represents traversal and matching configuration
type ScanConfig struct {
	Parallel   int      // Files hashed at once per folder (default: 5)
	Reverse    bool     // Scan folders and entries in reverse order
	Filename   bool     // Include the base name in duplicate keys
	Delete     bool     // Delete duplicates as they are found
	Extensions []string // Allowed extensions, empty for all
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
	Size    string // Bytes hashed from each end of a file, human size (default: "2M")
}

// OutputConfig represents report output configuration
type OutputConfig struct {
	Path   string // Report path (default: dedupr.json)
	Format string // json or yaml, derived from the path when empty
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int // 0=info, 1 or more=debug
}

// AllConfig represents all configuration options
type AllConfig struct {
	Scan    *ScanConfig
	Hash    *HashConfig
	Output  *OutputConfig
	Verbose *VerboseConfig
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults; nothing is written until Save is called.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		configPath: path,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile
	return cfg, nil
}

// NewConfig returns a config holding only the defaults, bound to path
func NewConfig(path string) (*Config, error) {
	cfg := &Config{
		configPath: path,
		ini:        ini.Empty(),
	}
	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set default config: %w", err)
	}
	return cfg, nil
}

// WriteDefaults writes a config file holding the defaults to path
func WriteDefaults(path string) error {
	cfg, err := NewConfig(path)
	if err != nil {
		return err
	}
	return cfg.Save()
}

var configDefaults = []struct {
	section string
	key     string
	value   string
}{
	{"scan", "parallel", strconv.Itoa(DefaultParallel)},
	{"scan", "reverse", "false"},
	{"scan", "filename", "false"},
	{"scan", "delete", "false"},
	{"scan", "extensions", "*"},
	{"filehash", "default", DefaultHashAlgorithm},
	{"filehash", "size", HumanReadableSize(DefaultHashSize * 1024)},
	{"output", "path", DefaultOutput},
	{"output", "format", ""},
	{"verbose", "level", "0"},
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	for _, def := range configDefaults {
		section, err := c.ini.NewSection(def.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", def.section, err)
		}
		if _, err := section.NewKey(def.key, def.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", def.section, def.key, err)
		}
	}
	return nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.configPath
}

// GetScanConfig returns the scan configuration
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{
		Parallel: DefaultParallel, // fallback default
	}

	if c.ini.HasSection("scan") {
		section := c.ini.Section("scan")
		if section.HasKey("parallel") {
			if parallel, err := section.Key("parallel").Int(); err == nil {
				scanConfig.Parallel = parallel
			}
		}
		if section.HasKey("reverse") {
			scanConfig.Reverse, _ = section.Key("reverse").Bool()
		}
		if section.HasKey("filename") {
			scanConfig.Filename, _ = section.Key("filename").Bool()
		}
		if section.HasKey("delete") {
			scanConfig.Delete, _ = section.Key("delete").Bool()
		}
		if section.HasKey("extensions") {
			scanConfig.Extensions = normalizeExtensions(section.Key("extensions").Strings(","))
		}
	}

	return scanConfig
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,                      // fallback default
		Size:    HumanReadableSize(DefaultHashSize * 1024), // fallback default
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
		if section.HasKey("size") {
			if size := section.Key("size").String(); size != "" {
				hashConfig.Size = size
			}
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Path: DefaultOutput, // fallback default
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("path") {
			if path := section.Key("path").String(); path != "" {
				outputConfig.Path = path
			}
		}
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
	}

	return verboseConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Scan:    c.GetScanConfig(),
		Hash:    c.GetHashConfig(),
		Output:  c.GetOutputConfig(),
		Verbose: c.GetVerboseConfig(),
	}
}

// Options converts the configuration into run options without folders.
// Values are validated here so a bad file is reported before a run starts.
func (c *Config) Options() (Options, error) {
	all := c.GetAllConfig()

	if err := ValidateParallel(all.Scan.Parallel); err != nil {
		return Options{}, newError(KindConfig, c.configPath, err)
	}
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return Options{}, newError(KindConfig, c.configPath, err)
	}

	sizeBytes, err := ParseHumanSize(all.Hash.Size)
	if err != nil {
		return Options{}, newError(KindConfig, c.configPath, fmt.Errorf("invalid filehash size: %w", err))
	}
	if sizeBytes < 1024 || sizeBytes%1024 != 0 {
		return Options{}, newError(KindConfig, c.configPath,
			fmt.Errorf("filehash size must be a whole number of kilobytes, at least 1K, got %s", all.Hash.Size))
	}
	hashSize := sizeBytes / 1024

	if all.Output.Format != "" {
		if err := ValidateOutputFormat(all.Output.Format); err != nil {
			return Options{}, newError(KindConfig, c.configPath, err)
		}
	}

	return Options{
		Extensions:    all.Scan.Extensions,
		Output:        all.Output.Path,
		Format:        strings.ToLower(all.Output.Format),
		Parallel:      all.Scan.Parallel,
		HashSize:      hashSize,
		HashAlgorithm: strings.ToLower(all.Hash.Default),
		Verbose:       all.Verbose.Level > 0,
		Reverse:       all.Scan.Reverse,
		Filename:      all.Scan.Filename,
		Delete:        all.Scan.Delete,
	}, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	return c.ini.SaveTo(c.configPath)
}

var overrideKeys = map[string][2]string{
	"parallel":   {"scan", "parallel"},
	"reverse":    {"scan", "reverse"},
	"filename":   {"scan", "filename"},
	"delete":     {"scan", "delete"},
	"extensions": {"scan", "extensions"},
	"default":    {"filehash", "default"},
	"size":       {"filehash", "size"},
	"output":     {"output", "path"},
	"format":     {"output", "format"},
	"level":      {"verbose", "level"},
}

// ApplyOverrides applies command-line overrides to the configuration.
// Accepts strings like "default:blake3", "size:64K", "format:yaml", "parallel:8"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		target, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s' (supported: parallel, reverse, filename, delete, extensions, default, size, output, format, level)", key)
		}
		c.ini.Section(target[0]).Key(target[1]).SetValue(value)
	}

	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	_, err := GetHashAlgorithm(algorithm)
	return err
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: %s, %s)", format, FormatJSON, FormatYAML)
	}
}

// ValidateParallel validates that the number of files hashed at once is reasonable
func ValidateParallel(parallel int) error {
	if parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got: %d", parallel)
	}
	if parallel > MaxParallel {
		return fmt.Errorf("parallel should not exceed %d, got: %d", MaxParallel, parallel)
	}
	return nil
}
