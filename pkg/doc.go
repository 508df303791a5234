// Package dedupr finds duplicate files across one or more directory trees by
// content and optionally deletes the redundant copies.
//
// Files are fingerprinted with a sampling hash: small files are hashed in
// full, larger files only from their first and last HashSize kilobytes. Two
// files are duplicates when their hash and size match (and, optionally, their
// base name). The first file seen under the folder traversal order is the
// original; every later match is recorded as a duplicate of it.
//
// # Core API
//
// The main entry point is Dedupr, which holds the state of a single run:
//
//	d := dedupr.New(dedupr.Options{
//		Folders: []string{"/photos", "/backup/photos"},
//	},
//		dedupr.WithLogger(logger),
//		dedupr.WithReportWriter(&dedupr.FileReportWriter{Path: "dedupr.json"}),
//	)
//	result, err := d.Run(ctx)
//
// Options are validated when Run starts; a bad option fails with a
// KindConfig error before any folder is read.
//
// # Ordering
//
// Entries of a folder are processed in lexicographic order (descending when
// Reverse is set). All files of a folder are hashed, in batches of at most
// Parallel files, before any of its subfolders is entered. Batches run one
// after the other, so the only ordering freedom is between files of the same
// batch that share a duplicate key.
//
// # Known limitations
//
// Sampled files whose head and tail match but whose middle differs are
// reported as duplicates. There is no per-file timeout: a hung read blocks
// its batch.
package dedupr
