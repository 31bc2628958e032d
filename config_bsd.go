//go:build darwin || freebsd

package sendchain

// Modern BSD sendfile(2) counts only file bytes in nbytes.
const (
	platformUsesPostponement = true
	platformHeaderCountQuirk = true
)
