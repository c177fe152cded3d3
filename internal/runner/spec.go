package runner

import (
	"fmt"

	v1 "github.com/infracollect/dirarchive/apis/v1"
)

const (
	SourceKindDir  = "dir"
	SourceKindRoot = "root"
)

// ResolvedSource holds a kind identifier and the source it was resolved from.
type ResolvedSource struct {
	Kind   string
	Source v1.Source
}

// ResolveSource determines which kind of source s describes.
// Returns an error if neither or both of Dir and Root are set.
func ResolveSource(i int, s v1.Source) (ResolvedSource, error) {
	switch {
	case s.Dir != "" && s.Root != "":
		return ResolvedSource{}, fmt.Errorf("source %d sets both dir and root", i)
	case s.Dir != "":
		return ResolvedSource{Kind: SourceKindDir, Source: s}, nil
	case s.Root != "":
		return ResolvedSource{Kind: SourceKindRoot, Source: s}, nil
	default:
		return ResolvedSource{}, fmt.Errorf("source %d has no type specified", i)
	}
}

// ResolveUploadKind returns the kind of sink an upload spec configures, or "" when there is
// nothing to upload.
func ResolveUploadKind(u *v1.UploadSpec) (string, error) {
	switch {
	case u == nil:
		return "", nil
	case u.Folder != nil && u.S3 != nil:
		return "", fmt.Errorf("upload sets both folder and s3")
	case u.Folder != nil:
		return "folder", nil
	case u.S3 != nil:
		return "s3", nil
	default:
		return "", fmt.Errorf("upload has no type specified")
	}
}
