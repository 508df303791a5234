package dedupr

import (
	"fmt"
	"os"
)

// actionPolicy decides what happens to a confirmed duplicate.
// It only ever sees later matches, never the first-seen file of a key.
type actionPolicy struct {
	fs      FileSystem
	log     logger
	delete  bool
	verbose bool
}

// onDuplicate deletes the duplicate when delete mode is on, otherwise it only
// logs it. A failed delete is returned but the duplicate stays recorded.
func (p *actionPolicy) onDuplicate(result HashResult, reg registration) (deleted bool, err error) {
	if !p.delete {
		if reg.Duplicates == 1 {
			p.log.Infof("File has duplicate(s): %s - %s", reg.Original, result.Digest)
		}
		p.log.Debugf("Duplicate found: %s - %s", result.Path, result.Digest)
		return false, nil
	}

	if result.Path == reg.Original {
		return false, newError(KindDelete, result.Path, fmt.Errorf("refusing to delete the original file"))
	}

	if p.sameFile(result.Path, reg.Original) {
		e := newError(KindDelete, result.Path, fmt.Errorf("same file as the original %s", reg.Original))
		logError(p.log, p.verbose, fmt.Sprintf("Refusing to delete %s", result.Path), e)
		return false, e
	}

	if err := p.fs.Remove(result.Path); err != nil {
		e := newError(KindDelete, result.Path, fmt.Errorf("could not delete: %w", err))
		logError(p.log, p.verbose, fmt.Sprintf("Could not delete %s", result.Path), e)
		return false, e
	}

	p.log.Infof("Duplicate deleted: %s - %s", result.Path, result.Digest)
	return true, nil
}

// sameFile reports whether both paths lead to the same bytes on storage,
// through a hard link or a symlink
func (p *actionPolicy) sameFile(path, original string) bool {
	info, err := p.fs.Stat(path)
	if err != nil {
		return false
	}
	originalInfo, err := p.fs.Stat(original)
	if err != nil {
		return false
	}
	return os.SameFile(info, originalInfo)
}
