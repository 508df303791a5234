package dedupr

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// recordList wraps the generic zerocopyskiplist, keyed by duplicate key
// (or error key), with the record kind as context
type recordList struct {
	skiplist *zcsl.ZeroCopySkiplist[FileRecord, string, string]
}

// newRecordList creates an empty record list
func newRecordList(maxLevels int) *recordList {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(rec *FileRecord) string {
		return rec.key
	}

	getItemSize := func(rec *FileRecord) int {
		size := len(rec.File) + len(rec.Hash) + len(rec.Error)
		for _, dup := range rec.Duplicates {
			size += len(dup)
		}
		return size
	}

	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &recordList{
		skiplist: zcsl.MakeZeroCopySkiplist[FileRecord, string, string](
			maxLevels,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// Insert adds a record with the given context
func (rl *recordList) Insert(rec *FileRecord, context string) bool {
	return rl.skiplist.Insert(rec, context)
}

// Find returns the record stored under key, with its context
func (rl *recordList) Find(key string) (*FileRecord, string) {
	itemPtr, context := rl.skiplist.Find(key)
	if itemPtr != nil {
		return itemPtr.Item(), context
	}
	return nil, ""
}

// ForEach iterates through all records in key order
func (rl *recordList) ForEach(callback func(*FileRecord, string) bool) {
	for current := rl.skiplist.First(); current != nil; current = current.Next() {
		if !callback(current.Item(), current.Context()) {
			break
		}
	}
}

// ForEachContext iterates through records matching a specific context
func (rl *recordList) ForEachContext(context string, callback func(*FileRecord) bool) {
	rl.ForEach(func(rec *FileRecord, recContext string) bool {
		if recContext == context {
			return callback(rec)
		}
		return true
	})
}

// Length returns the number of records
func (rl *recordList) Length() int {
	return rl.skiplist.Length()
}
