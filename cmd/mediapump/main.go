// Package main provides the CLI entry point for mediapump.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "mediapump",
		Usage:                  l10n.T("Decode and pace audio and video from media files"),
		Description:            l10n.T("mediapump demuxes a media file, decodes its streams and delivers frames on a shared playback clock."),
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			playCommand(),
			probeCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:        "version",
		Usage:       l10n.T("Show version information"),
		Description: l10n.T("Display the version of mediapump."),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("mediapump version %s", version))
			return nil
		},
	}
}
