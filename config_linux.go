package sendchain

// Linux sendfile(2) has no header/trailer support, so the emulated zero-copy primitive is given the file length only.
const (
	platformUsesPostponement = true
	platformHeaderCountQuirk = true
)
