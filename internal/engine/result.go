package engine

// Result describes an archive produced by a Compressor.
type Result struct {
	// Path is the location of the newly created archive.
	Path string
	// Warnings are non-fatal problems encountered after the archive was written.
	Warnings []string
}
