package sendchain

import "golang.org/x/sys/unix"

const (
	postponeOption     = unix.TCP_CORK
	postponeOptionName = "setsockopt(TCP_CORK)"
)
