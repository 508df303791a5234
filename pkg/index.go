package dedupr

import (
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// FileRecord is the bookkeeping entry for one distinct duplicate key: the
// first file seen with that key and every later file that matched it.
// Hash failures are kept as records of their own with Error set.
type FileRecord struct {
	File       string   `json:"file" yaml:"file"`
	Size       int64    `json:"size" yaml:"size"`
	Hash       string   `json:"hash,omitempty" yaml:"hash,omitempty"`
	Duplicates []string `json:"duplicates" yaml:"duplicates"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`

	key string
	seq uint64
}

// registration describes what Register did with a hash result
type registration struct {
	Matched    bool
	Failed     bool
	Original   string
	Duplicates int
}

// ResultsIndex maps duplicate keys to file records for one run.
// Every mutation happens under a single lock: check key, then insert or append.
type ResultsIndex struct {
	mu       sync.Mutex
	records  *recordList
	claimed  map[string]bool
	seq      uint64
	filename bool
}

// NewResultsIndex creates an empty index. With filename set, the base name of
// a file is part of its duplicate key.
func NewResultsIndex(filename bool) *ResultsIndex {
	return &ResultsIndex{
		records:  newRecordList(16),
		claimed:  make(map[string]bool),
		filename: filename,
	}
}

// DuplicateKey derives the key two files must share to be duplicates
func (ri *ResultsIndex) DuplicateKey(result HashResult) string {
	key := result.Digest + "-" + strconv.FormatInt(result.Size, 10)
	if ri.filename {
		key += "-" + filepath.Base(result.Path)
	}
	return key
}

// Claim reserves a path for this run. It returns false when the path was
// already claimed, so a file reachable from two roots is processed once.
func (ri *ResultsIndex) Claim(path string) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	if ri.claimed[path] {
		return false
	}
	ri.claimed[path] = true
	return true
}

// Register files a hash result. A new key creates a record; a known key
// appends the path to that record's duplicates and reports a match.
// Failed results become error records keyed by path and never match.
func (ri *ResultsIndex) Register(result HashResult) registration {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	ri.claimed[result.Path] = true

	if result.Err != nil {
		ri.insert(&FileRecord{
			File:       result.Path,
			Size:       result.Size,
			Duplicates: []string{},
			Error:      result.Err.Error(),
			key:        errorKeyPrefix + result.Path,
		}, ErrorContext)
		return registration{Failed: true}
	}

	key := ri.DuplicateKey(result)
	if rec, _ := ri.records.Find(key); rec != nil {
		rec.Duplicates = append(rec.Duplicates, result.Path)
		return registration{
			Matched:    true,
			Original:   rec.File,
			Duplicates: len(rec.Duplicates),
		}
	}

	ri.insert(&FileRecord{
		File:       result.Path,
		Size:       result.Size,
		Hash:       result.Digest,
		Duplicates: []string{},
		key:        key,
	}, FileContext)
	return registration{Original: result.Path}
}

func (ri *ResultsIndex) insert(rec *FileRecord, context string) {
	ri.seq++
	rec.seq = ri.seq
	ri.records.Insert(rec, context)
}

// Records returns copies of every successful record in first-seen order
func (ri *ResultsIndex) Records() []FileRecord {
	return ri.collect(FileContext)
}

// Errors returns copies of every error record in first-seen order
func (ri *ResultsIndex) Errors() []FileRecord {
	return ri.collect(ErrorContext)
}

// Len returns the number of records, errors included
func (ri *ResultsIndex) Len() int {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return ri.records.Length()
}

func (ri *ResultsIndex) collect(context string) []FileRecord {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	var result []FileRecord
	ri.records.ForEachContext(context, func(rec *FileRecord) bool {
		cp := *rec
		cp.Duplicates = append([]string{}, rec.Duplicates...)
		result = append(result, cp)
		return true
	})

	// The skiplist iterates in key order; reports need insertion order
	sort.Slice(result, func(i, j int) bool {
		return result[i].seq < result[j].seq
	})
	return result
}
