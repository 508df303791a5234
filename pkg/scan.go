package dedupr

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// FileEntry is a file found during traversal, ready to be hashed
type FileEntry struct {
	Path string
	Size int64
}

// folderListing is the result of scanning one folder: its files (already
// filtered by extension) and its subfolders, both in processing order
type folderListing struct {
	Files      []FileEntry
	Subfolders []string
}

// dirIdentity identifies a directory across different paths to it
type dirIdentity struct {
	dev  uint64
	ino  uint64
	path string
}

// traverser lists folders for a run
type traverser struct {
	fs         FileSystem
	log        logger
	extensions map[string]bool // nil means every extension is allowed
	reverse    bool
	visited    map[dirIdentity]bool
}

func newTraverser(fsys FileSystem, log logger, extensions []string, reverse bool) *traverser {
	t := &traverser{
		fs:      fsys,
		log:     log,
		reverse: reverse,
		visited: make(map[dirIdentity]bool),
	}
	if len(extensions) > 0 {
		t.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			t.extensions[ext] = true
		}
	}
	return t
}

// scanFolder lists a folder once and splits its entries into files and
// subfolders. Entries are sorted by name, descending when reverse is set.
// A folder that cannot be listed fails with KindTraversal; an entry that
// cannot be stat'ed is reported through onEntryError and skipped.
func (t *traverser) scanFolder(folder string, onEntryError func(*Error)) (*folderListing, error) {
	infos, err := t.fs.ReadDir(folder)
	if err != nil {
		return nil, newError(KindTraversal, folder, fmt.Errorf("failed to read folder: %w", err))
	}
	t.log.Debugf("Folder %s has %d objects", folder, len(infos))

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	if t.reverse {
		reverseStrings(names)
	}

	listing := &folderListing{}
	for _, name := range names {
		path := t.fs.Join(folder, name)

		info, err := t.fs.Lstat(path)
		if err != nil {
			onEntryError(newError(KindEntryStat, path, fmt.Errorf("failed to stat entry: %w", err)))
			continue
		}

		// Linked folders are scanned as their targets, linked files are not
		// files of their own: the target is reached by its real path.
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := t.fs.Stat(path)
			if err != nil {
				onEntryError(newError(KindEntryStat, path, fmt.Errorf("failed to stat symlink target: %w", err)))
				continue
			}
			if !target.IsDir() {
				t.log.Debugf("File %s is a symlink, skip", path)
				continue
			}
			info = target
		}

		if info.IsDir() {
			listing.Subfolders = append(listing.Subfolders, path)
			continue
		}
		if !info.Mode().IsRegular() {
			t.log.Debugf("File %s is not a regular file, skip", path)
			continue
		}
		if !t.allowed(name) {
			t.log.Debugf("File %s does not have a valid extension, skip", path)
			continue
		}

		listing.Files = append(listing.Files, FileEntry{Path: path, Size: info.Size()})
	}

	return listing, nil
}

// enter marks a folder as visited and reports whether it was new to this run.
// Folders reached twice (overlapping roots, symlink loops) are only scanned once.
func (t *traverser) enter(folder string) bool {
	id := dirIdentity{path: filepath.Clean(folder)}
	if info, err := t.fs.Stat(folder); err == nil {
		if stat, ok := info.Sys().(*syscall.Stat_t); ok {
			id = dirIdentity{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}
		}
	}

	if t.visited[id] {
		return false
	}
	t.visited[id] = true
	return true
}

// allowed applies the extension allow-list to a file name
func (t *traverser) allowed(name string) bool {
	if t.extensions == nil {
		return true
	}
	return t.extensions[fileExtension(name)]
}

// fileExtension returns the lowercase extension of a file name without the dot.
// Dot files without a further extension (".bashrc") have none.
func fileExtension(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	ext := filepath.Ext(base)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// checkRoot verifies that a root folder exists and is a directory
func checkRoot(fsys FileSystem, folder string) error {
	info, err := fsys.Stat(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(KindConfig, folder, fmt.Errorf("folder does not exist"))
		}
		return newError(KindConfig, folder, fmt.Errorf("failed to stat folder: %w", err))
	}
	if !info.IsDir() {
		return newError(KindConfig, folder, fmt.Errorf("not a folder"))
	}
	return nil
}

// absFolders makes every folder absolute relative to the working directory
func absFolders(folders []string) ([]string, error) {
	result := make([]string, 0, len(folders))
	for _, folder := range folders {
		abs, err := filepath.Abs(folder)
		if err != nil {
			return nil, configErrorf("failed to resolve folder %s: %v", folder, err)
		}
		result = append(result, abs)
	}
	return result, nil
}

// batches splits files into consecutive chunks of at most size entries
func batches(files []FileEntry, size int) [][]FileEntry {
	var result [][]FileEntry
	for i := 0; i < len(files); i += size {
		end := i + size
		if end > len(files) {
			end = len(files)
		}
		result = append(result, files[i:end])
	}
	return result
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
