// Package utils provides bespoke, one off helpers that don't make sense to
// be their own package
package utils

// Build metadata, stamped via -ldflags at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
