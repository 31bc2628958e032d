package sendchain

import (
	"github.com/sirupsen/logrus"
)

// DefaultMaxVectors is the number of scatter-gather entries a vector list may hold, matching IOV_MAX on Linux and the BSDs.
const DefaultMaxVectors = 1024

// Config controls the platform dependent choices SendChain makes. It is passed explicitly so behaviour is fixed per Writer.
type Config struct {
	// UseContentPostponement enables TCP_CORK/TCP_NOPUSH once per connection before the first zero-copy transfer.
	UseContentPostponement bool
	// HeaderCountQuirk leaves the header bytes out of the length requested from the zero-copy primitive.
	// The header vector is still sent.
	HeaderCountQuirk bool
	// MaxVectors limits the entries in each of the header and trailer vectors. Zero means DefaultMaxVectors.
	MaxVectors int
	// MaxFileRun limits the bytes of file content requested in a single attempt. Zero means no limit.
	MaxFileRun int64
	// Logger receives debug, info and error entries. Nil means logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultConfig returns the settings appropriate for the platform the binary was built for.
func DefaultConfig() Config {
	return Config{
		UseContentPostponement: platformUsesPostponement,
		HeaderCountQuirk:       platformHeaderCountQuirk,
		MaxVectors:             DefaultMaxVectors,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxVectors <= 0 {
		c.MaxVectors = DefaultMaxVectors
	}
	if c.MaxFileRun < 0 {
		c.MaxFileRun = 0
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}
