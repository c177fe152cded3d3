package runner

import (
	"errors"
	"fmt"
	"os"

	v1 "github.com/infracollect/dirarchive/apis/v1"
)

// ExpandJob replaces ${VAR} references in the path-like fields of the job in place.
// Filters are left untouched.
func ExpandJob(job *v1.ArchiveJob, variables map[string]string) error {
	spec := &job.Spec
	fields := []*string{&spec.Destination, &spec.SevenZipPath}

	for i := range spec.Sources {
		fields = append(fields, &spec.Sources[i].Dir, &spec.Sources[i].Root)
	}

	if spec.Upload != nil {
		if folder := spec.Upload.Folder; folder != nil {
			fields = append(fields, &folder.Path)
		}
		if s3 := spec.Upload.S3; s3 != nil {
			fields = append(fields, &s3.Bucket, &s3.Region, &s3.Endpoint, &s3.Prefix, &s3.AccessKeyID, &s3.SecretAccessKey)
		}
	}

	var errs error
	for _, field := range fields {
		expanded, err := Expand(*field, variables)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		*field = expanded
	}
	return errs
}

// Expand replaces ${VAR} references in the input string using the provided variables map.
// Returns an error if any referenced variable is not in the variables map.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("environment variable %q is not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}
