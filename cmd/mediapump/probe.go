package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/mediapump/pkg/adapters/logger"
	"github.com/user/mediapump/pkg/adapters/mp4container"
	"github.com/user/mediapump/pkg/adapters/osfilesystem"
	"github.com/user/mediapump/pkg/adapters/smartcodec"
	"github.com/user/mediapump/pkg/ports"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:        "probe",
		Usage:       l10n.T("List the streams of a media file"),
		Description: l10n.T("List the streams of a media file with the decoder each would use."),
		ArgsUsage:   "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: l10n.T("Path to ffmpeg executable"),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("FILE argument is required"))
			}
			path := c.Args().First()

			log := logger.NewNoop()
			container, err := mp4container.Open(osfilesystem.New(), path, log)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer container.Close()

			engine := smartcodec.New(smartcodec.Options{FFmpegPath: c.String("ffmpeg"), Logger: log})
			printStreams(c.App.Writer, container.Streams(), engine)
			return nil
		},
	}
}

func printStreams(w io.Writer, streams []ports.StreamInfo, engine *smartcodec.Engine) {
	for _, s := range streams {
		info := engine.Describe(s)
		fmt.Fprintf(w, "#%d %-5s %-5s ", s.Index, s.Media, s.Codec)
		switch s.Media {
		case ports.MediaVideo:
			fmt.Fprintf(w, "%dx%d", s.Width, s.Height)
		case ports.MediaAudio:
			fmt.Fprintf(w, "%d Hz %d ch", s.SampleRate, s.Channels)
		}
		if s.Duration > 0 {
			fmt.Fprintf(w, " %.3fs", float64(s.Duration)*s.TimeBase())
		}
		fmt.Fprintf(w, " [%s]\n", l10n.F("decoder: %s", info.Backend))
	}
}
