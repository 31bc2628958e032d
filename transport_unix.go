//go:build linux || darwin || freebsd

package sendchain

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SocketTransport implements Transport with system calls on a non-blocking socket.
// sendfile(2) is bracketed by vectored writes of the header and trailer; each stage only
// runs if the previous one sent everything it was given. A SocketTransport must not be used
// from multiple goroutines at once.
type SocketTransport struct {
	// HeaderInLength says the length passed to SendZeroCopy includes the header bytes.
	HeaderInLength bool

	iovecs []unix.Iovec
}

var _ Transport = (*SocketTransport)(nil)

// NewSocketTransport returns a SocketTransport that interprets lengths the way a Writer with cfg requests them.
func NewSocketTransport(cfg Config) *SocketTransport {
	return &SocketTransport{HeaderInLength: !cfg.HeaderCountQuirk}
}

// WriteVectored implements Transport.
func (t *SocketTransport) WriteVectored(fd int, vec [][]byte) (int64, error) {
	iovecs := t.iovecs[:0]
	for _, p := range vec {
		if len(p) == 0 {
			continue
		}
		iov := unix.Iovec{Base: &p[0]}
		iov.SetLen(len(p))
		iovecs = append(iovecs, iov)
	}
	t.iovecs = iovecs
	defer func() {
		for i := range iovecs {
			// Clear the pointer to allow potential garbage collection.
			iovecs[i] = unix.Iovec{}
		}
	}()
	if len(iovecs) == 0 {
		return 0, nil
	}
	//nolint:staticcheck
	n, _, errno := unix.Syscall(syscall.SYS_WRITEV, uintptr(fd), uintptr(unsafe.Pointer(&iovecs[0])), uintptr(len(iovecs)))
	if errno != 0 {
		return 0, errno
	}
	return int64(n), nil
}

// SendZeroCopy implements Transport.
func (t *SocketTransport) SendZeroCopy(fd int, f *os.File, off, n int64, header, trailer [][]byte) (int64, error) {
	var hsize int64
	for _, p := range header {
		hsize += int64(len(p))
	}
	if t.HeaderInLength {
		n -= hsize
	}
	if n < 0 {
		return 0, errors.Wrapf(unix.EINVAL, "length doesn't cover the %d header bytes", hsize)
	}

	var sent int64
	if hsize > 0 {
		w, err := t.WriteVectored(fd, header)
		sent += w
		if err != nil || w < hsize {
			return sent, err
		}
	}

	src := int(f.Fd())
	for n > 0 {
		o := off
		w, err := unix.Sendfile(fd, src, &o, int(min(n, maxSendfileSize)))
		if w > 0 {
			sent += int64(w)
			off += int64(w)
			n -= int64(w)
		}
		if err != nil {
			return sent, err
		}
		if w == 0 {
			// The file is shorter than the requested range.
			return sent, errors.Wrapf(unix.EIO, "sendfile() reached end of %s at offset %d", f.Name(), off)
		}
		if n > 0 {
			// Short transfer; the socket buffer is full.
			return sent, nil
		}
	}

	if len(trailer) > 0 {
		w, err := t.WriteVectored(fd, trailer)
		sent += w
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// EnableContentPostponement implements Transport.
func (t *SocketTransport) EnableContentPostponement(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, postponeOption, 1); err != nil {
		return errors.Wrap(err, postponeOptionName)
	}
	return nil
}

// maxSendfileSize is the largest chunk we ask the kernel to copy at a time.
const maxSendfileSize int64 = 1 << 30
