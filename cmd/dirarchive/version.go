package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/infracollect/dirarchive/internal/engine/compressors"
	"github.com/urfave/cli/v3"
)

// Build information populated at init() from debug.ReadBuildInfo().
var (
	Version   = "unknown"
	GoVersion = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
	Modified  bool
)

func init() {
	parseBuildInfo()
}

func parseBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	Version = info.Main.Version
	GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information and the available archive formats",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "7z-path",
			Usage: "Check this 7-Zip executable instead of looking it up",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		fmt.Printf("version: %s\n", Version)
		fmt.Printf("go: %s\n", GoVersion)
		if Commit != "unknown" {
			if Modified {
				fmt.Printf("commit: %s (dirty)\n", Commit)
			} else {
				fmt.Printf("commit: %s\n", Commit)
			}
		}
		if BuildTime != "unknown" {
			fmt.Printf("built: %s\n", BuildTime)
		}

		fmt.Printf("formats: %s\n", strings.Join(engine.Labels(), ", "))
		if exe, err := compressors.ResolveSevenZip(command.String("7z-path")); err == nil {
			fmt.Printf("7z: %s\n", exe)
		} else {
			fmt.Println("7z: not found")
		}
		return nil
	},
}
