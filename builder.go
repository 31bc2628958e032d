package sendchain

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Pool holds a sync.Pool of byte blocks and can be used to create new Builders.
type Pool struct {
	pool sync.Pool
}

// NewPool creates a new Pool. The blockSize is the size of the []byte blocks that back memory buffers.
// Writes that follow each other within a block end up adjacent in memory and are sent as a single vector entry.
// NewPool panics if blocksize isn't positive.
func NewPool(blocksize int) *Pool {
	if blocksize <= 0 {
		panic(fmt.Sprintf("sendchain: invalid block size %d", blocksize))
	}
	return &Pool{
		pool: sync.Pool{
			New: func() any { return make([]byte, blocksize) },
		},
	}
}

// Get creates a new Builder using blocks from this pool.
func (p *Pool) Get() *Builder {
	return &Builder{
		parent: p,
		chain:  make(Chain, 0, 32),
	}
}

func (p *Pool) getBlock() []byte {
	return p.pool.Get().([]byte)[:0]
}

// Builder assembles a Chain. Memory written to it is copied into pooled blocks; files are referenced, not copied.
type Builder struct {
	parent *Pool

	// blocks are the pooled blocks in use, the last one being the one written to.
	blocks [][]byte
	chain  Chain
}

var _ io.Writer = &Builder{}
var _ io.ReaderFrom = &Builder{}

// Write copies p into the chain and returns len(p), nil. It always returns a nil error.
func (b *Builder) Write(p []byte) (int, error) {
	ret := len(p)
	for len(p) > 0 {
		target := b.freeSpace()
		n := copy(target, p)
		b.appendMemory(n)
		p = p[n:]
	}
	return ret, nil
}

// ReadFrom reads all data from r into the chain and returns the number of bytes read and the error from the reader.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	var ret int64
	for {
		target := b.freeSpace()
		n, err := r.Read(target)
		b.appendMemory(n)
		ret += int64(n)
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return ret, err
		}
	}
}

// freeSpace returns the writable part of the current block, taking a new block if it is full.
func (b *Builder) freeSpace() []byte {
	if len(b.blocks) > 0 {
		blk := b.blocks[len(b.blocks)-1]
		if len(blk) < cap(blk) {
			return blk[len(blk):cap(blk)]
		}
	}
	b.blocks = append(b.blocks, b.parent.getBlock())
	blk := b.blocks[len(b.blocks)-1]
	return blk[:cap(blk)]
}

// appendMemory adds the next n bytes of the current block to the chain as a memory buffer.
func (b *Builder) appendMemory(n int) {
	if n == 0 {
		return
	}
	i := len(b.blocks) - 1
	blk := b.blocks[i]
	b.chain = append(b.chain, Mem(blk[len(blk):len(blk)+n]))
	b.blocks[i] = blk[:len(blk)+n]
}

// AddFile appends the range [start, end) of f to the chain. The file must stay open until the chain is sent.
func (b *Builder) AddFile(f *os.File, start, end int64) {
	b.chain = append(b.chain, FileRange(f, start, end))
}

// AddBuffer appends an existing buffer to the chain.
func (b *Builder) AddBuffer(buf *Buffer) {
	b.chain = append(b.chain, buf)
}

// Flush appends a flush marker.
func (b *Builder) Flush() {
	b.chain = append(b.chain, FlushMarker())
}

// Len returns the number of unsent bytes in the chain.
func (b *Builder) Len() int64 {
	return b.chain.Size()
}

// Chain returns the chain built so far. It shares its buffers with the Builder.
func (b *Builder) Chain() Chain {
	return b.chain
}

// Reset returns the blocks to the pool and empties the chain. Chains returned earlier must not be used after this.
func (b *Builder) Reset() {
	for i, blk := range b.blocks {
		b.parent.pool.Put(blk[:cap(blk)])
		b.blocks[i] = nil
	}
	b.blocks = b.blocks[:0]
	for i := range b.chain {
		b.chain[i] = nil
	}
	b.chain = b.chain[:0]
}
