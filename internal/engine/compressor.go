package engine

import "context"

// Compressor turns one directory into one archive file.
//
// Implementations must be safe to call concurrently for disjoint origin/destination pairs
// and must never overwrite an existing archive.
type Compressor interface {
	// Format returns the archive format produced by this compressor.
	Format() Format

	// Compress archives origin into dest and returns the path of the new archive.
	Compress(ctx context.Context, origin, dest string) (Result, error)
}
