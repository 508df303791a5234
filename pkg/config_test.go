package dedupr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dedupr.ini")

	// Load config (should fall back to defaults)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	hashConfig := config.GetHashConfig()
	if hashConfig.Default != "sha256" {
		t.Errorf("Expected default hash algorithm 'sha256', got '%s'", hashConfig.Default)
	}
	if hashConfig.Size != "2M" {
		t.Errorf("Expected default hash size '2M', got '%s'", hashConfig.Size)
	}

	// A missing config file is never created implicitly
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("Config file should not be created by LoadConfig")
	}

	opts, err := config.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Parallel != DefaultParallel || opts.HashSize != DefaultHashSize ||
		opts.HashAlgorithm != DefaultHashAlgorithm || opts.Output != DefaultOutput {
		t.Errorf("Unexpected default options: %+v", opts)
	}
	if opts.Extensions != nil {
		t.Errorf("Expected no extension filter by default, got %v", opts.Extensions)
	}
}

func TestWriteDefaultsAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dedupr.ini")

	if err := WriteDefaults(configPath); err != nil {
		t.Fatalf("WriteDefaults() error = %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	all := config.GetAllConfig()
	if all.Scan.Parallel != DefaultParallel {
		t.Errorf("Expected parallel %d, got %d", DefaultParallel, all.Scan.Parallel)
	}
	if all.Output.Path != DefaultOutput {
		t.Errorf("Expected output %s, got %s", DefaultOutput, all.Output.Path)
	}
}

func TestConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dedupr.ini")
	content := `[scan]
parallel = 8
reverse = true
extensions = JPG, .png

[filehash]
default = blake3
size = 64K

[output]
path = /tmp/report.yaml

[verbose]
level = 1
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	opts, err := config.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	if opts.Parallel != 8 || !opts.Reverse || opts.Filename {
		t.Errorf("Unexpected scan options: %+v", opts)
	}
	if len(opts.Extensions) != 2 || opts.Extensions[0] != "jpg" || opts.Extensions[1] != "png" {
		t.Errorf("Unexpected extensions: %v", opts.Extensions)
	}
	if opts.HashAlgorithm != "blake3" || opts.HashSize != 64 {
		t.Errorf("Unexpected hash options: %s %d", opts.HashAlgorithm, opts.HashSize)
	}
	if opts.Output != "/tmp/report.yaml" || !opts.Verbose {
		t.Errorf("Unexpected output options: %+v", opts)
	}
}

func TestConfigOverrides(t *testing.T) {
	config, err := NewConfig("")
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	err = config.ApplyOverrides([]string{
		"default:sha1",
		"size:512K",
		"format:yaml",
		"parallel:2",
		"delete:true",
	})
	if err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}

	opts, err := config.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.HashAlgorithm != "sha1" || opts.HashSize != 512 {
		t.Errorf("Unexpected hash options after override: %s %d", opts.HashAlgorithm, opts.HashSize)
	}
	if opts.Format != "yaml" || opts.Parallel != 2 || !opts.Delete {
		t.Errorf("Unexpected options after override: %+v", opts)
	}

	if err := config.ApplyOverrides([]string{"nocolon"}); err == nil {
		t.Error("Expected an error for an override without a colon")
	}
	if err := config.ApplyOverrides([]string{"unknown:1"}); err == nil {
		t.Error("Expected an error for an unknown override key")
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dedupr.ini")

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if err := config.ApplyOverrides([]string{"default:xxhash"}); err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}
	if err := config.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if got := reloaded.GetHashConfig().Default; got != "xxhash" {
		t.Errorf("Expected saved algorithm xxhash, got %s", got)
	}
}

func TestConfigOptionsValidation(t *testing.T) {
	testCases := []string{
		"default:crc32",
		"parallel:0",
		"size:100",
		"size:1500",
		"parallel:257",
		"size:lots",
		"format:xml",
	}

	for _, override := range testCases {
		config, _ := NewConfig("")
		if err := config.ApplyOverrides([]string{override}); err != nil {
			t.Fatalf("Failed to apply override %s: %v", override, err)
		}
		_, err := config.Options()
		if !IsKind(err, KindConfig) {
			t.Errorf("Override %s: expected %s, got %v", override, KindConfig, err)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("OutputFormat", func(t *testing.T) {
		testCases := []struct {
			format string
			valid  bool
		}{
			{"json", true},
			{"yaml", true},
			{"JSON", true}, // case insensitive
			{"xml", false},
			{"", false},
		}

		for _, tc := range testCases {
			err := ValidateOutputFormat(tc.format)
			if tc.valid && err != nil {
				t.Errorf("Format '%s' should be valid but got error: %v", tc.format, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("Format '%s' should be invalid but no error returned", tc.format)
			}
		}
	})

	t.Run("HashAlgorithm", func(t *testing.T) {
		for _, algorithm := range []string{"md5", "sha1", "sha256", "sha512", "blake3", "highwayhash", "xxhash", "SHA512"} {
			if err := ValidateHashAlgorithm(algorithm); err != nil {
				t.Errorf("Algorithm '%s' should be valid but got error: %v", algorithm, err)
			}
		}
		if err := ValidateHashAlgorithm("crc32"); err == nil {
			t.Error("Algorithm 'crc32' should be invalid")
		}
	})

	t.Run("Parallel", func(t *testing.T) {
		testCases := []struct {
			parallel int
			valid    bool
		}{
			{1, true},
			{5, true},
			{256, true},
			{0, false},
			{-1, false},
			{257, false},
		}

		for _, tc := range testCases {
			err := ValidateParallel(tc.parallel)
			if tc.valid && err != nil {
				t.Errorf("Parallel %d should be valid but got error: %v", tc.parallel, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("Parallel %d should be invalid but no error returned", tc.parallel)
			}
		}
	})
}

func TestPresetByName(t *testing.T) {
	preset, ok := PresetByName("SAFE")
	if !ok {
		t.Fatal("Expected the safe preset")
	}
	if preset.HashSize != 32768 || preset.HashAlgorithm != "sha512" {
		t.Errorf("Unexpected safe preset: %+v", preset)
	}
	if _, ok := PresetByName("ludicrous"); ok {
		t.Error("Unknown presets should not be found")
	}
}
