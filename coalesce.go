package sendchain

import (
	"os"
)

// collectVectors appends the unsent memory regions starting at in[pos] to vec. A region that starts
// where the previous entry ends extends that entry instead of adding a new one. Markers and empty
// buffers are passed over. It stops at the first file buffer, at the end of the chain, or before a
// region that would need a new entry once vec holds max entries. It returns the vector, the number
// of bytes it describes and the position where it stopped.
func collectVectors(in Chain, pos int, vec [][]byte, max int) ([][]byte, int64, int) {
	var size int64
	for ; pos < len(in); pos++ {
		b := in[pos]
		if b.skippable() {
			continue
		}
		if b.Kind != Memory {
			break
		}
		p := b.unsent()
		if n := len(vec); n > 0 && adjacent(vec[n-1], p) {
			vec[n-1] = vec[n-1][:len(vec[n-1])+len(p)]
		} else {
			if len(vec) >= max {
				break
			}
			vec = append(vec, p)
		}
		size += int64(len(p))
	}
	return vec, size, pos
}

// adjacent reports whether next starts at the byte right after prev in the same backing array.
func adjacent(prev, next []byte) bool {
	if len(prev) == 0 || len(next) == 0 || cap(prev)-len(prev) < len(next) {
		return false
	}
	return &prev[:len(prev)+1][len(prev)] == &next[0]
}

// fileRun is the single range of one file that an attempt hands to the zero-copy primitive.
type fileRun struct {
	file *os.File
	off  int64
	size int64
}

// mergeFileRun starts a run at in[pos] if that is a file buffer, and extends it over the following
// file buffers as long as they refer to the same *os.File and continue exactly where the run ends.
// Markers and empty memory buffers don't break the run. If limit is positive the run is cut off at
// limit bytes, possibly inside a buffer. It returns nil if in[pos] isn't a file buffer, and the
// position where the run stopped.
func mergeFileRun(in Chain, pos int, limit int64) (*fileRun, int) {
	if pos >= len(in) || in[pos].Kind != File {
		return nil, pos
	}
	first := in[pos]
	run := &fileRun{file: first.File, off: first.FilePos}
	for ; pos < len(in); pos++ {
		b := in[pos]
		if b.skippable() {
			continue
		}
		if b.Kind != File || b.File != run.file || b.FilePos != run.off+run.size {
			break
		}
		size := b.Size()
		if limit > 0 && run.size+size > limit {
			run.size = limit
			break
		}
		run.size += size
	}
	return run, pos
}
