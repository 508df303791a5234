package dedupr

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/minio/highwayhash"
	sha256simd "github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// highwayKey is the fixed key used for highwayhash fingerprints. Fingerprints
// only need to be comparable within a run, so a constant key is fine.
var highwayKey = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0xf0, 0xe0, 0xd0, 0xc0, 0xb0, 0xa0, 0x90, 0x80, 0x70, 0x60, 0x50, 0x40, 0x30, 0x20, 0x10, 0x00,
}

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash
}

var hashAlgorithms = map[string]*HashAlgorithm{
	"md5": {
		Name:    "md5",
		Size:    md5.Size,
		NewFunc: md5.New,
	},
	"sha1": {
		Name:    "sha1",
		Size:    sha1.Size,
		NewFunc: sha1.New,
	},
	"sha256": {
		Name:    "sha256",
		Size:    sha256simd.Size,
		NewFunc: sha256simd.New,
	},
	"sha512": {
		Name:    "sha512",
		Size:    sha512.Size,
		NewFunc: sha512.New,
	},
	"blake3": {
		Name:    "blake3",
		Size:    32,
		NewFunc: func() hash.Hash { return blake3.New() },
	},
	"highwayhash": {
		Name: "highwayhash",
		Size: highwayhash.Size,
		NewFunc: func() hash.Hash {
			h, err := highwayhash.New(highwayKey)
			if err != nil {
				// Only fails on a key that is not 32 bytes long
				panic(err)
			}
			return h
		},
	},
	"xxhash": {
		Name:    "xxhash",
		Size:    8,
		NewFunc: func() hash.Hash { return xxhash.New() },
	},
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	algorithm, ok := hashAlgorithms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("hash algorithm %s not supported (supported: %s)",
			name, strings.Join(SupportedHashAlgorithms(), ", "))
	}
	return algorithm, nil
}

// SupportedHashAlgorithms returns the names of every registered algorithm, sorted
func SupportedHashAlgorithms() []string {
	names := make([]string, 0, len(hashAlgorithms))
	for name := range hashAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HashResult is the outcome of fingerprinting one file
type HashResult struct {
	Path   string
	Size   int64
	Digest string
	Err    error
}

// hashFile fingerprints one file. Files smaller than twice the sample size are
// hashed in full; larger ones from exactly sampleSize bytes at the start and
// sampleSize bytes at the end, fed into the same hash in that order.
// Failures are returned inside the result, classified as KindHash.
func hashFile(fsys FileSystem, entry FileEntry, algorithm *HashAlgorithm, sampleSize int64) HashResult {
	result := HashResult{Path: entry.Path, Size: entry.Size}

	digest, err := sampledDigest(fsys, entry, algorithm, sampleSize)
	if err != nil {
		result.Err = newError(KindHash, entry.Path, err)
		return result
	}

	result.Digest = hex.EncodeToString(digest)
	return result
}

func sampledDigest(fsys FileSystem, entry FileEntry, algorithm *HashAlgorithm, sampleSize int64) (digest []byte, err error) {
	file, err := fsys.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			digest = nil
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	hasher := algorithm.NewFunc()

	if entry.Size < 2*sampleSize {
		adviseSequential(file)
		if err := readRegion(file, hasher, 0, entry.Size); err != nil {
			return nil, err
		}
		return hasher.Sum(nil), nil
	}

	adviseRandom(file)
	if err := readRegion(file, hasher, 0, sampleSize); err != nil {
		return nil, err
	}
	if err := readRegion(file, hasher, entry.Size-sampleSize, sampleSize); err != nil {
		return nil, err
	}

	return hasher.Sum(nil), nil
}

// readRegion reads exactly length bytes at offset into the hasher.
// A file that shrank since it was stat'ed fails with io.ErrUnexpectedEOF.
func readRegion(r io.ReaderAt, w io.Writer, offset, length int64) error {
	if length == 0 {
		return nil
	}
	n, err := io.CopyN(w, io.NewSectionReader(r, offset, length), length)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return fmt.Errorf("failed to read %d bytes at offset %d (got %d): %w", length, offset, n, err)
	}
	return nil
}
