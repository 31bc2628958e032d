// Package sendchain drains a chain of memory and file buffers onto a non-blocking socket.
// Memory is sent with vectored writes, file content with zero-copy transfers bracketed by
// the surrounding memory, and every partial send is accounted for by advancing buffer cursors.
package sendchain

import (
	"fmt"
	"os"
)

// Kind tells which variant a Buffer is.
type Kind uint8

const (
	// Memory is a byte range in addressable memory.
	Memory Kind = iota
	// File is a byte range within an open file.
	File
	// Marker carries no bytes. It is skipped by every traversal.
	Marker
)

func (k Kind) String() string {
	switch k {
	case Memory:
		return "memory"
	case File:
		return "file"
	case Marker:
		return "marker"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarkerTag says what a Marker stands for. It has no influence on transmission.
type MarkerTag uint8

const (
	// TagFlush marks a point where upstream code asked for buffered output to be flushed.
	TagFlush MarkerTag = iota + 1
	// TagEOF marks the end of a response.
	TagEOF
)

// Buffer is a single unit of output data.
type Buffer struct {
	Kind Kind

	// Data is the whole memory region. Data[Pos:] is unsent.
	Data []byte
	Pos  int

	// File, FilePos and FileLast describe the unsent range [FilePos, FileLast) of File.
	File     *os.File
	FilePos  int64
	FileLast int64

	Tag MarkerTag
}

// Mem returns a memory buffer covering b. The buffer borrows b; it doesn't copy it.
func Mem(b []byte) *Buffer {
	return &Buffer{Kind: Memory, Data: b}
}

// FileRange returns a file buffer covering [start, end) of f.
func FileRange(f *os.File, start, end int64) *Buffer {
	if end < start {
		panic(fmt.Sprintf("sendchain: invalid file range [%d, %d)", start, end))
	}
	return &Buffer{Kind: File, File: f, FilePos: start, FileLast: end}
}

// FlushMarker returns a marker that asks upstream code to flush.
func FlushMarker() *Buffer {
	return &Buffer{Kind: Marker, Tag: TagFlush}
}

// EOFMarker returns a marker for the end of a response.
func EOFMarker() *Buffer {
	return &Buffer{Kind: Marker, Tag: TagEOF}
}

// Size returns the number of unsent bytes in the buffer.
func (b *Buffer) Size() int64 {
	switch b.Kind {
	case Memory:
		return int64(len(b.Data) - b.Pos)
	case File:
		return b.FileLast - b.FilePos
	}
	return 0
}

// Consumed reports whether no bytes remain. Markers are always consumed.
func (b *Buffer) Consumed() bool {
	return b.Size() == 0
}

// unsent returns the remaining memory region.
func (b *Buffer) unsent() []byte {
	return b.Data[b.Pos:]
}

// skippable reports whether traversals pass over b without it ending a run.
func (b *Buffer) skippable() bool {
	return b.Kind == Marker || (b.Kind == Memory && b.Pos == len(b.Data))
}

// advance moves the cursor forward by n bytes. n must not exceed Size().
func (b *Buffer) advance(n int64) {
	if n < 0 || n > b.Size() {
		panic(fmt.Sprintf("sendchain: advancing %s buffer by %d with %d bytes left", b.Kind, n, b.Size()))
	}
	switch b.Kind {
	case Memory:
		b.Pos += int(n)
	case File:
		b.FilePos += n
	}
}

func (b *Buffer) String() string {
	switch b.Kind {
	case Memory:
		return fmt.Sprintf("mem[%d:%d]", b.Pos, len(b.Data))
	case File:
		name := "<nil>"
		if b.File != nil {
			name = b.File.Name()
		}
		return fmt.Sprintf("file(%s)[%d:%d]", name, b.FilePos, b.FileLast)
	}
	return fmt.Sprintf("marker(%d)", b.Tag)
}

// Chain is an ordered sequence of buffers awaiting transmission. Positions within a chain are indices;
// the unsent remainder returned by Writer.SendChain is a suffix of the chain that was passed in.
type Chain []*Buffer

// Size returns the total number of unsent bytes in the chain.
func (c Chain) Size() int64 {
	var ret int64
	for _, b := range c {
		ret += b.Size()
	}
	return ret
}

// Consumed reports whether every buffer in the chain has been sent.
func (c Chain) Consumed() bool {
	for _, b := range c {
		if !b.Consumed() {
			return false
		}
	}
	return true
}
