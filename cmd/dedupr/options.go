package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	dedupr "github.com/mattkeenan/dedupr/pkg"
)

// envPrefix prefixes the environment variables bound to long flags
const envPrefix = "DEDUPR_"

// usageError is a bad command line; it exits with code 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// flagValues holds the raw values bound to the command-line flags
type flagValues struct {
	extensions  []string
	output      string
	parallel    int
	size        int
	hash        string
	verbose     bool
	reverse     bool
	filename    bool
	delete      bool
	presets     map[string]*bool
	config      string
	set         []string
	writeConfig bool
	help        bool
	version     bool
}

// invocation is a fully resolved command line
type invocation struct {
	options     dedupr.Options
	config      *dedupr.Config
	writeConfig bool
	help        bool
	version     bool
}

// newFlagSet defines every flag. The -h shorthand belongs to --hash, so help
// is only reachable as --help.
func newFlagSet(values *flagValues) *pflag.FlagSet {
	fs := pflag.NewFlagSet("dedupr", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(new(strings.Builder))

	fs.StringSliceVarP(&values.extensions, "extensions", "e", nil, "Allowed file extensions, comma or space separated or repeated (-e jpg,png -e gif), default is all extensions")
	fs.StringVarP(&values.output, "output", "o", "", "Full path to the output file, .json or .yaml (default dedupr.json)")
	fs.IntVarP(&values.parallel, "parallel", "p", 0, "How many files are processed in parallel (default 5)")
	fs.IntVarP(&values.size, "size", "s", 0, "How much data (kilobytes) to hash from the start and end of each file (default 2048)")
	fs.StringVarP(&values.hash, "hash", "h", "", "Hash algorithm: "+strings.Join(dedupr.SupportedHashAlgorithms(), ", ")+" (default sha256)")
	fs.BoolVarP(&values.verbose, "verbose", "v", false, "Verbose mode with extra logging")
	fs.BoolVarP(&values.reverse, "reverse", "r", false, "Reverse the folders and files order (alphabetically descending)")
	fs.BoolVarP(&values.filename, "filename", "f", false, "Also consider file names to check if a file is a duplicate")
	fs.BoolVarP(&values.delete, "delete", "d", false, "Delete duplicate files")

	values.presets = make(map[string]*bool, len(dedupr.Presets))
	for _, preset := range dedupr.Presets {
		values.presets[preset.Name] = fs.Bool(preset.Name, false,
			fmt.Sprintf("Shortcut to --size %d --hash %s", preset.HashSize, preset.HashAlgorithm))
	}

	fs.StringVar(&values.config, "config", "", "Configuration file (default "+defaultConfigPath()+")")
	fs.StringArrayVar(&values.set, "set", nil, "Override a configuration value, as key:value (repeatable)")
	fs.BoolVar(&values.writeConfig, "write-config", false, "Write the configuration, with --set overrides, and exit")
	fs.BoolVar(&values.help, "help", false, "Show help message")
	fs.BoolVar(&values.version, "version", false, "Show version information")

	return fs
}

// splitExtensions also splits values on spaces, so a quoted list like
// -e "jpg png" works. Folders are never taken from -e.
func splitExtensions(values []string) []string {
	var extensions []string
	for _, value := range values {
		extensions = append(extensions, strings.Fields(value)...)
	}
	return extensions
}

// defaultConfigPath returns the config file in the user config directory
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dedupr", dedupr.DefaultConfigFile)
}

// envName returns the environment variable bound to a long flag
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv sets every flag not given on the command line from its
// environment variable, so flags still win over the environment
func applyEnv(fs *pflag.FlagSet, getenv func(string) string) error {
	var firstErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || flag.Name == "help" || flag.Name == "version" || firstErr != nil {
			return
		}
		value := getenv(envName(flag.Name))
		if value == "" {
			return
		}
		if err := fs.Set(flag.Name, value); err != nil {
			firstErr = usageErrorf("invalid value %q for %s: %v", value, envName(flag.Name), err)
		}
	})
	return firstErr
}

// parseInvocation resolves the command line. Precedence, lowest first:
// built-in defaults, config file, --set overrides, environment, flags.
func parseInvocation(args []string, getenv func(string) string) (*invocation, *pflag.FlagSet, error) {
	values := &flagValues{}
	fs := newFlagSet(values)

	if err := fs.Parse(args); err != nil {
		return nil, fs, &usageError{err: err}
	}
	if err := applyEnv(fs, getenv); err != nil {
		return nil, fs, err
	}

	inv := &invocation{
		help:        values.help,
		version:     values.version,
		writeConfig: values.writeConfig,
	}
	if inv.help || inv.version {
		return inv, fs, nil
	}

	cfg, err := loadConfig(values.config, !values.writeConfig)
	if err != nil {
		return nil, fs, err
	}
	if err := cfg.ApplyOverrides(values.set); err != nil {
		return nil, fs, &usageError{err: err}
	}
	inv.config = cfg
	if inv.writeConfig {
		return inv, fs, nil
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, fs, err
	}

	if fs.Changed("extensions") {
		opts.Extensions = splitExtensions(values.extensions)
	}
	if fs.Changed("output") {
		opts.Output = values.output
		opts.Format = ""
	}
	if fs.Changed("parallel") {
		opts.Parallel = values.parallel
	}
	if fs.Changed("size") {
		opts.HashSize = values.size
	}
	if fs.Changed("hash") {
		opts.HashAlgorithm = values.hash
	}
	if fs.Changed("verbose") {
		opts.Verbose = values.verbose
	}
	if fs.Changed("reverse") {
		opts.Reverse = values.reverse
	}
	if fs.Changed("filename") {
		opts.Filename = values.filename
	}
	if fs.Changed("delete") {
		opts.Delete = values.delete
	}

	// The first preset set, fastest first, replaces size and hash
	for _, preset := range dedupr.Presets {
		if *values.presets[preset.Name] {
			opts.HashSize = preset.HashSize
			opts.HashAlgorithm = preset.HashAlgorithm
			break
		}
	}

	if opts.Output == "" {
		opts.Output = dedupr.DefaultOutput
	}

	opts.Folders = fs.Args()
	if len(opts.Folders) == 0 {
		return nil, fs, usageErrorf("no folders were passed")
	}

	inv.options = opts
	return inv, fs, nil
}

// loadConfig loads the given config file, or the default one when path is
// empty. With mustExist set, an explicitly named file has to exist.
func loadConfig(path string, mustExist bool) (*dedupr.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil && mustExist {
			return nil, usageErrorf("config file %s: %v", path, err)
		}
		return dedupr.LoadConfig(path)
	}
	if path = defaultConfigPath(); path == "" {
		return dedupr.NewConfig("")
	}
	return dedupr.LoadConfig(path)
}
