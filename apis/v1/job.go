package v1

// ArchiveJob describes a batch archiving run loaded from a YAML or JSON job file.
type ArchiveJob struct {
	Kind     string         `yaml:"kind" json:"kind" validate:"required,eq=ArchiveJob"`
	Metadata Metadata       `yaml:"metadata" json:"metadata"`
	Spec     ArchiveJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type ArchiveJobSpec struct {
	// Destination is the directory archives are written to. Created if missing.
	Destination string `yaml:"destination" json:"destination" validate:"required"`

	// Format is one of "7z", "xz" or "zip" (default: zip).
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=7z xz zip"`

	// Workers is the number of concurrent workers (default: 1).
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty" validate:"omitempty,min=1"`

	// SevenZipPath overrides the lookup of the 7-Zip executable.
	SevenZipPath string `yaml:"sevenZipPath,omitempty" json:"sevenZipPath,omitempty"`

	// Retry configures how failed directories are attempted again.
	Retry *RetrySpec `yaml:"retry,omitempty" json:"retry,omitempty"`

	Sources []Source `yaml:"sources" json:"sources" validate:"required,min=1,dive"`

	// Upload publishes the archives produced by the run.
	Upload *UploadSpec `yaml:"upload,omitempty" json:"upload,omitempty"`
}

type RetrySpec struct {
	MaxAttempts int `yaml:"maxAttempts" json:"maxAttempts" validate:"min=1"`

	// Backoff is a duration string such as "500ms" (default: 1s).
	Backoff string `yaml:"backoff,omitempty" json:"backoff,omitempty"`
}

// Source adds directories to the queue. Exactly one of Dir or Root must be set.
type Source struct {
	// Dir is a single directory to archive.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty" validate:"required_without=Root,excluded_with=Root"`

	// Root archives every directory Depth levels below it (default depth: 1).
	Root  string `yaml:"root,omitempty" json:"root,omitempty" validate:"required_without=Dir"`
	Depth int    `yaml:"depth,omitempty" json:"depth,omitempty" validate:"omitempty,min=1"`

	// Filter is a CEL expression evaluated for every directory found under Root. The variables
	// name (base name) and path are available, e.g. `!name.startsWith(".")`.
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty" validate:"excluded_with=Dir"`
}

// UploadSpec configures where archives are published (one of the fields should be set).
type UploadSpec struct {
	Folder *FolderUploadSpec `yaml:"folder,omitempty" json:"folder,omitempty"`
	S3     *S3UploadSpec     `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// FolderUploadSpec copies archives to another directory.
type FolderUploadSpec struct {
	Path string `yaml:"path" json:"path" validate:"required"`
}

// S3UploadSpec uploads archives to S3-compatible object storage.
type S3UploadSpec struct {
	Bucket          string `yaml:"bucket" json:"bucket" validate:"required"`
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix          string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	AccessKeyID     string `yaml:"accessKeyId,omitempty" json:"accessKeyId,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty" json:"secretAccessKey,omitempty"`
	ForcePathStyle  bool   `yaml:"forcePathStyle,omitempty" json:"forcePathStyle,omitempty"`

	// PartSize is the multipart upload chunk size in bytes (S3 minimum: 5 MiB).
	PartSize int64 `yaml:"partSize,omitempty" json:"partSize,omitempty" validate:"omitempty,min=5242880"`
}
