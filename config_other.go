//go:build !linux && !darwin && !freebsd

package sendchain

const (
	platformUsesPostponement = false
	platformHeaderCountQuirk = true
)
