package dedupr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func hashContent(t *testing.T, content string, sampleSize int64) HashResult {
	t.Helper()
	fs := memfs.New()
	if err := util.WriteFile(fs, "/f.bin", []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	algorithm, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("GetHashAlgorithm() error = %v", err)
	}
	return hashFile(fs, FileEntry{Path: "/f.bin", Size: int64(len(content))}, algorithm, sampleSize)
}

func TestHashFileSmallFileIsHashedWhole(t *testing.T) {
	content := "0123456"
	result := hashContent(t, content, 4)
	if result.Err != nil {
		t.Fatalf("hashFile() error = %v", result.Err)
	}
	if result.Digest != sha256Hex(content) {
		t.Errorf("Expected digest of the whole file, got %s", result.Digest)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), result.Size)
	}
}

func TestHashFileSamplesHeadAndTail(t *testing.T) {
	content := "HEADxxxxxxxxxxTAIL"
	result := hashContent(t, content, 4)
	if result.Err != nil {
		t.Fatalf("hashFile() error = %v", result.Err)
	}
	if result.Digest != sha256Hex("HEADTAIL") {
		t.Errorf("Expected digest of head then tail, got %s", result.Digest)
	}
}

func TestHashFileSampleBoundary(t *testing.T) {
	// Exactly twice the sample size: head and tail cover the whole file
	content := "abcdefgh"
	result := hashContent(t, content, 4)
	if result.Err != nil {
		t.Fatalf("hashFile() error = %v", result.Err)
	}
	if result.Digest != sha256Hex(content) {
		t.Errorf("Expected head+tail to equal the whole file, got %s", result.Digest)
	}
}

func TestHashFileIgnoresMiddle(t *testing.T) {
	a := hashContent(t, "HEAD"+strings.Repeat("a", 100)+"TAIL", 4)
	b := hashContent(t, "HEAD"+strings.Repeat("b", 100)+"TAIL", 4)
	if a.Err != nil || b.Err != nil {
		t.Fatalf("hashFile() errors = %v, %v", a.Err, b.Err)
	}
	if a.Digest != b.Digest {
		t.Errorf("Files differing only outside the sampled regions should share a digest")
	}
}

func TestHashFileEmpty(t *testing.T) {
	result := hashContent(t, "", 4)
	if result.Err != nil {
		t.Fatalf("hashFile() error = %v", result.Err)
	}
	if result.Digest != sha256Hex("") {
		t.Errorf("Expected the empty-input digest, got %s", result.Digest)
	}
}

func TestHashFileMissing(t *testing.T) {
	fs := memfs.New()
	algorithm, _ := GetHashAlgorithm("sha256")

	result := hashFile(fs, FileEntry{Path: "/missing", Size: 10}, algorithm, 4)
	if result.Err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if !IsKind(result.Err, KindHash) {
		t.Errorf("Expected %s, got %v", KindHash, result.Err)
	}
	if result.Digest != "" {
		t.Errorf("Expected no digest on failure, got %s", result.Digest)
	}
}

func TestHashFileShrunk(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/f.bin", []byte("short"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	algorithm, _ := GetHashAlgorithm("sha256")

	// Stat said 64 bytes, the file now holds 5
	result := hashFile(fs, FileEntry{Path: "/f.bin", Size: 64}, algorithm, 4)
	if !IsKind(result.Err, KindHash) {
		t.Fatalf("Expected %s, got %v", KindHash, result.Err)
	}
	if !errors.Is(result.Err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF in the chain, got %v", result.Err)
	}
}

func TestGetHashAlgorithm(t *testing.T) {
	for _, name := range SupportedHashAlgorithms() {
		algorithm, err := GetHashAlgorithm(name)
		if err != nil {
			t.Errorf("GetHashAlgorithm(%s) error = %v", name, err)
			continue
		}
		h := algorithm.NewFunc()
		h.Write([]byte("dedupr"))
		if got := len(h.Sum(nil)); got != algorithm.Size {
			t.Errorf("%s: expected digest size %d, got %d", name, algorithm.Size, got)
		}
	}

	if _, err := GetHashAlgorithm("SHA256"); err != nil {
		t.Errorf("Algorithm names should be case-insensitive, got %v", err)
	}
	if _, err := GetHashAlgorithm("crc32"); err == nil {
		t.Error("Expected an error for an unsupported algorithm")
	}
}

func TestSupportedHashAlgorithms(t *testing.T) {
	expected := []string{"blake3", "highwayhash", "md5", "sha1", "sha256", "sha512", "xxhash"}
	got := SupportedHashAlgorithms()
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
