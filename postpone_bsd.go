//go:build darwin || freebsd

package sendchain

import "golang.org/x/sys/unix"

const (
	postponeOption     = unix.TCP_NOPUSH
	postponeOptionName = "setsockopt(TCP_NOPUSH)"
)
