package dedupr

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FileSystem is the storage a run lists, stats, reads and deletes from.
// Paths handed to it are absolute. Lstat tells symlinks apart from the
// files they point at.
type FileSystem interface {
	billy.Basic
	billy.Dir
	billy.Symlink
}

// osFileSystem is a billy filesystem that acts like the native filesystem,
// taking absolute paths as they are.
type osFileSystem struct {
	osfs.ChrootOS
}

// NewOSFileSystem returns the native filesystem
func NewOSFileSystem() FileSystem {
	return &osFileSystem{}
}

// fdFile is implemented by files backed by an OS file descriptor
type fdFile interface {
	Fd() uintptr
}
