package sendchain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrFatal is matched (with errors.Is) by every error SendChain returns. The connection can't be written to anymore.
	ErrFatal = errors.New("sendchain: fatal transmission error")
	// ErrOverreported means a Transport claimed to have sent more bytes than it was offered.
	ErrOverreported = errors.New("transport reported more bytes than requested")
)

// FatalError describes a failed primitive. Err holds the underlying error, usually a syscall.Errno.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("sendchain: %s() failed: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFatal) true for every FatalError.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}
