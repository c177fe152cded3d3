package main

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/infracollect/dirarchive/internal/runner"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

var archiveCommand = &cli.Command{
	Name:      "archive",
	Usage:     "Archive the given directories, or every directory below --root",
	UsageText: "dirarchive archive --dest DIR [--format zip|xz|7z] [--workers N] [--root DIR...] [DIR...]",
	Flags:     archiveFlags(),
	Arguments: archiveArguments(),
	Action: func(ctx context.Context, command *cli.Command) error {
		job := jobFromFlags(command)
		if err := runner.ValidateJob(job); err != nil {
			return formatValidationError(err)
		}
		return runJob(ctx, job)
	},
}

// archiveFlags returns a fresh set of flags, as cli flags hold their parsed values.
func archiveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "dest",
			Aliases:  []string{"o"},
			Usage:    "Directory the archives are written to",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   engine.Zip.Label(),
			Usage:   fmt.Sprintf("Archive format (%v)", engine.Labels()),
			Action: func(ctx context.Context, command *cli.Command, s string) error {
				_, err := engine.ParseFormat(s)
				return err
			},
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Value:   1,
			Usage:   "Number of directories compressed concurrently",
		},
		&cli.StringSliceFlag{
			Name:  "root",
			Usage: "Archive every directory below this one (can be repeated)",
		},
		&cli.IntFlag{
			Name:  "depth",
			Value: 1,
			Usage: "How many levels below --root the archived directories are",
		},
		&cli.StringFlag{
			Name:  "filter",
			Usage: "CEL expression over name and path selecting directories below --root",
		},
		&cli.StringFlag{
			Name:  "7z-path",
			Usage: "Path to the 7-Zip executable (looked up in PATH by default)",
		},
		&cli.IntFlag{
			Name:  "retries",
			Value: 0,
			Usage: "How many times a failed directory is retried",
		},
		&cli.DurationFlag{
			Name:  "retry-backoff",
			Value: time.Second,
			Usage: "Delay between retries",
		},
	}
}

func archiveArguments() []cli.Argument {
	return []cli.Argument{
		&cli.StringArgs{
			Name:      "dirs",
			UsageText: "Directories to archive",
			Min:       0,
			Max:       -1,
		},
	}
}

func jobFromFlags(command *cli.Command) v1.ArchiveJob {
	dirSources := lo.Map(command.StringArgs("dirs"), func(dir string, _ int) v1.Source {
		return v1.Source{Dir: dir}
	})
	rootSources := lo.Map(command.StringSlice("root"), func(root string, _ int) v1.Source {
		return v1.Source{Root: root, Depth: command.Int("depth"), Filter: command.String("filter")}
	})

	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "archive"},
		Spec: v1.ArchiveJobSpec{
			Destination:  command.String("dest"),
			Format:       command.String("format"),
			Workers:      max(command.Int("workers"), 1),
			SevenZipPath: command.String("7z-path"),
			Sources:      append(dirSources, rootSources...),
		},
	}

	if retries := command.Int("retries"); retries > 0 {
		job.Spec.Retry = &v1.RetrySpec{
			MaxAttempts: retries + 1,
			Backoff:     command.Duration("retry-backoff").String(),
		}
	}

	return job
}
