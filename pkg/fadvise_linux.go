package dedupr

import (
	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the whole file is read once, front to back.
// Advice is best effort; files without a descriptor are left alone.
func adviseSequential(file interface{}) {
	fadvise(file, unix.FADV_SEQUENTIAL)
}

// adviseRandom hints the kernel not to read ahead, as only the head and tail are sampled
func adviseRandom(file interface{}) {
	fadvise(file, unix.FADV_RANDOM)
}

func fadvise(file interface{}, advice int) {
	f, ok := file.(fdFile)
	if !ok {
		return
	}
	_ = unix.Fadvise(int(f.Fd()), 0, 0, advice)
}
