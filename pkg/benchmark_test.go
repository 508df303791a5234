package dedupr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchConfig defines the tree generated for a benchmark
type benchConfig struct {
	Folders        int   // Folders under the root
	FilesPerFolder int   // Files in each folder
	FileSize       int64 // Size of every file in bytes
	DuplicateEvery int   // Every Nth file repeats the content of the first folder
}

var smallBench = benchConfig{
	Folders:        10,
	FilesPerFolder: 50,
	FileSize:       64 * 1024,
	DuplicateEvery: 5,
}

// generateBenchTree writes the benchmark tree under root
func generateBenchTree(b *testing.B, root string, cfg benchConfig) {
	b.Helper()
	for folder := 0; folder < cfg.Folders; folder++ {
		dir := filepath.Join(root, fmt.Sprintf("folder-%03d", folder))
		if err := os.MkdirAll(dir, 0755); err != nil {
			b.Fatalf("Failed to create %s: %v", dir, err)
		}
		for file := 0; file < cfg.FilesPerFolder; file++ {
			seed := folder*cfg.FilesPerFolder + file
			if cfg.DuplicateEvery > 0 && seed%cfg.DuplicateEvery == 0 {
				seed = file
			}
			data := make([]byte, cfg.FileSize)
			for i := range data {
				data[i] = byte(seed + i)
			}
			path := filepath.Join(dir, fmt.Sprintf("file-%04d.bin", file))
			if err := os.WriteFile(path, data, 0644); err != nil {
				b.Fatalf("Failed to write %s: %v", path, err)
			}
		}
	}
}

func BenchmarkRun(b *testing.B) {
	root := b.TempDir()
	generateBenchTree(b, root, smallBench)

	for _, algorithm := range []string{"sha256", "blake3", "xxhash"} {
		b.Run(algorithm, func(b *testing.B) {
			opts := Options{Folders: []string{root}, HashAlgorithm: algorithm, HashSize: 4}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := New(opts).Run(context.Background()); err != nil {
					b.Fatalf("Run() error = %v", err)
				}
			}
		})
	}
}

func BenchmarkHashFile(b *testing.B) {
	path := filepath.Join(b.TempDir(), "big.bin")
	data := make([]byte, 8*1024*1024)
	if err := os.WriteFile(path, data, 0644); err != nil {
		b.Fatalf("Failed to write %s: %v", path, err)
	}
	fsys := NewOSFileSystem()
	entry := FileEntry{Path: path, Size: int64(len(data))}

	for _, name := range SupportedHashAlgorithms() {
		algorithm, _ := GetHashAlgorithm(name)
		b.Run(name, func(b *testing.B) {
			b.SetBytes(2 * 1024 * 1024)
			for i := 0; i < b.N; i++ {
				if result := hashFile(fsys, entry, algorithm, 1024*1024); result.Err != nil {
					b.Fatalf("hashFile() error = %v", result.Err)
				}
			}
		})
	}
}
