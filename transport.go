package sendchain

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Transport provides the two transmission primitives and the postponement toggle SendChain needs.
// Implementations return syscall.EAGAIN (or EWOULDBLOCK) when the socket can't take more data,
// syscall.EINTR when interrupted, and any other error for failures. The byte count is meaningful
// alongside an error: a primitive may send some bytes and still fail.
type Transport interface {
	// WriteVectored writes vec to the socket in order.
	WriteVectored(fd int, vec [][]byte) (int64, error)
	// SendZeroCopy sends header, then n bytes of f starting at off, then trailer.
	// Whether n includes the header length depends on the platform, see Config.HeaderCountQuirk.
	SendZeroCopy(fd int, f *os.File, off, n int64, header, trailer [][]byte) (int64, error)
	// EnableContentPostponement switches the socket into a mode that only sends full segments.
	EnableContentPostponement(fd int) error
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeWouldBlock
	outcomeInterrupted
	outcomeFatal
)

func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return "ok"
	case outcomeWouldBlock:
		return "would-block"
	case outcomeInterrupted:
		return "interrupted"
	}
	return "fatal"
}

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EWOULDBLOCK):
		return outcomeWouldBlock
	case errors.Is(err, syscall.EINTR):
		return outcomeInterrupted
	}
	return outcomeFatal
}
