//go:build linux || darwin || freebsd

package sendchain

import (
	"context"
	"net"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// WriteTo drains in onto nc, which must implement syscall.Conn (like *net.TCPConn does). The Go
// runtime poller provides write readiness: whenever SendChain stops without making progress, WriteTo
// waits for the socket to become writable and tries again. c carries the connection state across
// calls and may be reused for further chains on the same connection.
//
// If ctx has a deadline it is installed as the write deadline of nc, and cancelling ctx interrupts a
// wait for writability. The write deadline of nc is cleared on return. WriteTo returns the unsent
// remainder of in, which is empty if and only if the returned error is nil.
func (w *Writer) WriteTo(ctx context.Context, nc net.Conn, c *Conn, in Chain) (Chain, error) {
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return in, errors.Errorf("sendchain: %T doesn't expose its file descriptor", nc)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return in, errors.Wrap(err, "sendchain: SyscallConn")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := nc.SetWriteDeadline(deadline); err != nil {
			return in, err
		}
	}
	defer nc.SetWriteDeadline(time.Time{})
	cancelled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		// Wake up the poller if it is waiting for the socket to drain.
		nc.SetWriteDeadline(time.Now())
		close(cancelled)
	})
	defer func() {
		if !stop() {
			<-cancelled
		}
	}()
	var sendErr error
	err = rc.Write(func(fd uintptr) bool {
		for len(in) > 0 {
			if ctx.Err() != nil {
				return true
			}
			before := c.Sent
			c.FD = int(fd)
			c.Ready = true
			in, sendErr = w.SendChain(c, in)
			if sendErr != nil {
				return true
			}
			if c.Sent == before && len(in) > 0 {
				// Nothing went out, so the socket is full. Wait for it to drain.
				return false
			}
		}
		return true
	})
	switch {
	case sendErr != nil:
		return in, sendErr
	case ctx.Err() != nil:
		return in, ctx.Err()
	case err != nil:
		return in, err
	}
	return in, nil
}
