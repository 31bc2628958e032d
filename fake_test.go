package sendchain

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// step scripts one primitive call: accept at most limit bytes (negative for all of them) and return err.
type step struct {
	limit int64
	err   error
}

type call struct {
	op      string
	header  [][]byte
	offset  int64
	length  int64
	trailer [][]byte
}

// fakeTransport writes whatever it accepts to out, reading file content with ReadAt.
type fakeTransport struct {
	t              *testing.T
	headerInLength bool
	steps          []step
	postponeErr    error

	out       bytes.Buffer
	calls     []call
	postponed int
}

func (f *fakeTransport) next() step {
	if len(f.steps) == 0 {
		return step{limit: -1}
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	return s
}

func (f *fakeTransport) WriteVectored(fd int, vec [][]byte) (int64, error) {
	f.calls = append(f.calls, call{op: "writev", header: cloneVec(vec)})
	s := f.next()
	var data []byte
	for _, p := range vec {
		data = append(data, p...)
	}
	return f.accept(data, s)
}

func (f *fakeTransport) SendZeroCopy(fd int, file *os.File, off, n int64, header, trailer [][]byte) (int64, error) {
	f.calls = append(f.calls, call{op: "sendfile", header: cloneVec(header), offset: off, length: n, trailer: cloneVec(trailer)})
	s := f.next()
	var data []byte
	for _, p := range header {
		data = append(data, p...)
	}
	if f.headerInLength {
		n -= int64(len(data))
	}
	content := make([]byte, n)
	_, err := file.ReadAt(content, off)
	require.NoError(f.t, err)
	data = append(data, content...)
	for _, p := range trailer {
		data = append(data, p...)
	}
	return f.accept(data, s)
}

func (f *fakeTransport) accept(data []byte, s step) (int64, error) {
	if s.limit >= 0 && s.limit < int64(len(data)) {
		data = data[:s.limit]
	}
	f.out.Write(data)
	return int64(len(data)), s.err
}

func (f *fakeTransport) EnableContentPostponement(fd int) error {
	f.postponed++
	return f.postponeErr
}

func cloneVec(vec [][]byte) [][]byte {
	var ret [][]byte
	for _, p := range vec {
		ret = append(ret, append([]byte(nil), p...))
	}
	return ret
}

func vecLens(vec [][]byte) []int {
	var ret []int
	for _, p := range vec {
		ret = append(ret, len(p))
	}
	return ret
}

// tempFile creates a file holding size bytes of generated data.
func tempFile(t *testing.T, name string, size int) (*os.File, []byte) {
	t.Helper()
	data := genData(size)
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, data, 0o644))
	f, err := os.Open(fn)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, data
}

func genData(l int) []byte {
	ret := make([]byte, l)
	for i := 0; l > i; i++ {
		ret[i] = byte('a' + (i % 26))
	}
	return ret
}

// contents returns the unsent bytes of a chain, in order.
func contents(t *testing.T, c Chain) []byte {
	t.Helper()
	var ret []byte
	for _, b := range c {
		switch b.Kind {
		case Memory:
			ret = append(ret, b.unsent()...)
		case File:
			buf := make([]byte, b.Size())
			_, err := b.File.ReadAt(buf, b.FilePos)
			if err != io.EOF {
				require.NoError(t, err)
			}
			ret = append(ret, buf...)
		}
	}
	return ret
}
