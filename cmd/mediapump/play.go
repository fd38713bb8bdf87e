package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/user/mediapump/pkg/adapters/logger"
	"github.com/user/mediapump/pkg/adapters/mp4container"
	"github.com/user/mediapump/pkg/adapters/osfilesystem"
	"github.com/user/mediapump/pkg/adapters/smartcodec"
	"github.com/user/mediapump/pkg/config"
	"github.com/user/mediapump/pkg/player"
	"github.com/user/mediapump/pkg/ports"
	"github.com/user/mediapump/pkg/summarizer"
	"github.com/user/mediapump/pkg/telemetry"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:        "play",
		Usage:       l10n.T("Decode a media file and deliver paced frames"),
		Description: l10n.T("Decode the first video stream and the selected audio stream of a media file, pace the frames against the playback clock and print a summary."),
		ArgsUsage:   "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("YAML configuration file"),
				Category: l10n.T("Configuration"),
			},
			&cli.BoolFlag{
				Name:     "no-video",
				Usage:    l10n.T("Do not decode video"),
				Category: l10n.T("Decoding"),
			},
			&cli.BoolFlag{
				Name:     "no-audio",
				Usage:    l10n.T("Do not decode audio"),
				Category: l10n.T("Decoding"),
			},
			&cli.BoolFlag{
				Name:     "no-sync",
				Usage:    l10n.T("Deliver frames as fast as they are decoded"),
				Category: l10n.T("Decoding"),
			},
			&cli.IntFlag{
				Name:     "audio-stream",
				Aliases:  []string{"a"},
				Usage:    l10n.T("Position of the audio stream to play (0 = first)"),
				Category: l10n.T("Decoding"),
			},
			&cli.StringSliceFlag{
				Name:     "seek",
				Usage:    l10n.T("Seek by DELTA after AT of playback, e.g. 5s@2s (repeatable)"),
				Category: l10n.T("Playback"),
			},
			&cli.DurationFlag{
				Name:     "duration",
				Aliases:  []string{"d"},
				Usage:    l10n.T("Stop playback after this long (0 = play to the end)"),
				Category: l10n.T("Playback"),
			},
			&cli.StringFlag{
				Name:     "ffmpeg",
				Usage:    l10n.T("Path to ffmpeg executable"),
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "summary",
				Usage:    l10n.T("Write a Markdown playback summary to this file (- for stdout)"),
				Category: l10n.T("Output"),
			},
			&cli.StringFlag{
				Name:     "metrics-addr",
				Usage:    l10n.T("Serve Prometheus metrics on this address, e.g. :9090"),
				Category: l10n.T("Telemetry"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "log-timestamps",
				Usage:    l10n.T("Prefix log lines with the time of day"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
		},
		Action: runPlay,
	}
}

// loadConfig reads --config when given and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(osfilesystem.New(), path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.Bool("no-video") {
		cfg.DecodeVideo = false
	}
	if c.Bool("no-audio") {
		cfg.DecodeAudio = false
	}
	if c.Bool("no-sync") {
		cfg.Sync = false
	}
	if c.IsSet("audio-stream") {
		cfg.AudioStream = c.Int("audio-stream")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("log-timestamps") {
		cfg.LogTimestamps = true
	}
	if c.Bool("quiet") {
		cfg.LogLevel = ports.LevelQuiet.String()
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) ports.Logger {
	if cfg.Level() == ports.LevelQuiet {
		return logger.NewNoop()
	}
	log := logger.NewConsole(cfg.Level())
	if cfg.LogTimestamps {
		return log.WithTimestamps()
	}
	return log
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("FILE argument is required"))
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	seeks, err := parseSeeks(c.StringSlice("seek"))
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	metrics, shutdown, err := setupTelemetry(cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	defer shutdown()

	container, err := mp4container.Open(osfilesystem.New(), path, log)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	engine := smartcodec.New(cfg.ToCodecOptions(log))
	streams := container.Streams()

	p, err := player.New(container, engine, cfg.ToPlayerOptions(), log, metrics)
	if err != nil {
		container.Close()
		return err
	}

	log.Info("Playing %s", path)
	started := time.Now()

	var video, audio tally
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		video = consume(gctx, p.GetVideoFrame)
		return nil
	})
	g.Go(func() error {
		audio = consume(gctx, p.GetAudioFrame)
		return nil
	})
	g.Go(func() error {
		runSchedule(gctx, seeks, p.Done(), p.Seek)
		return nil
	})
	if d := c.Duration("duration"); d > 0 {
		g.Go(func() error {
			select {
			case <-time.After(d):
				p.Stop()
			case <-p.Done():
			case <-gctx.Done():
			}
			return nil
		})
	}

	err = g.Wait()
	p.Stop()
	<-p.Done()

	elapsed := time.Since(started)
	interrupted := errors.Is(err, context.Canceled) && ctx.Err() != nil
	printSummary(c.App.Writer, p, video, audio, elapsed)

	if out := c.String("summary"); out != "" {
		summary := buildSummary(path, streams, engine, cfg, c.StringSlice("seek"), p, video, audio, elapsed, interrupted)
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		))
		if werr := writer.Write(out, summary); werr != nil {
			log.Warn("Failed to write summary: %v", werr)
		} else if out != "-" {
			log.Info("Summary saved to %s", out)
		}
	}

	if interrupted {
		return nil
	}
	return err
}

func buildSummary(path string, streams []ports.StreamInfo, engine *smartcodec.Engine, cfg config.Config, seeks []string,
	p *player.Player, video, audio tally, elapsed time.Duration, interrupted bool) *summarizer.Summary {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	selectedAudio := -1
	if i := p.CurrentAudioStream(); i >= 0 {
		selectedAudio = p.AudioStreams()[i]
	}
	selectedVideo := -1

	b := summarizer.NewBuilder().WithSource(path, size)
	for _, s := range streams {
		selected := false
		switch s.Media {
		case ports.MediaVideo:
			if selectedVideo < 0 {
				selectedVideo = s.Index
				selected = true
			}
		case ports.MediaAudio:
			selected = s.Index == selectedAudio
		}
		durationMs := -1
		if s.Duration > 0 {
			durationMs = int(float64(s.Duration) * s.TimeBase() * 1000)
		}
		b.AddStream(summarizer.StreamInfo{
			Index:      s.Index,
			Media:      s.Media.String(),
			Codec:      string(s.Codec),
			Decoder:    string(engine.Describe(s).Backend),
			Width:      s.Width,
			Height:     s.Height,
			SampleRate: s.SampleRate,
			Channels:   s.Channels,
			DurationMs: durationMs,
			Selected:   selected,
		})
	}

	opts := cfg.ToPlayerOptions()
	b.WithSettings(summarizer.Settings{
		DecodeVideo:   opts.DecodeVideo,
		DecodeAudio:   opts.DecodeAudio,
		Sync:          opts.Sync,
		QueueCapacity: opts.QueueCapacity,
		LateThreshold: opts.LateThreshold,
		SampleFormat:  cfg.Audio.SampleFormat,
		Seeks:         seeks,
	})

	stats := p.Stats()
	videoEndMs := -1
	if video.LastPTS >= 0 {
		videoEndMs = int(float64(video.LastPTS) * p.VideoTimeBase() * 1000)
	}
	b.WithPlayback(summarizer.PlaybackInfo{
		Elapsed:      elapsed,
		Interrupted:  interrupted,
		VideoFrames:  video.Frames,
		VideoEndMs:   videoEndMs,
		AudioBlocks:  audio.Frames,
		AudioBytes:   audio.Bytes,
		LateDrops:    stats.LateDrops,
		SeekDrops:    stats.SeekDrops,
		Seeks:        stats.Seeks,
		DecodeErrors: stats.DecodeErrors,
	})
	return b.Build()
}

// setupTelemetry installs the Prometheus-backed providers and starts the
// metrics server when addr is set. Otherwise instruments are no-ops.
func setupTelemetry(addr string, log ports.Logger) (*telemetry.Metrics, func(), error) {
	if addr == "" {
		return telemetry.Noop(), func() {}, nil
	}

	provider, err := telemetry.InitProvider(telemetry.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, nil, fmt.Errorf("init telemetry: %w", err)
	}
	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		provider.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", provider.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %v", err)
		}
	}()
	log.Info("Serving metrics on %s/metrics", addr)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		provider.Shutdown(ctx)
	}
	return metrics, shutdown, nil
}

func printSummary(w io.Writer, p *player.Player, video, audio tally, elapsed time.Duration) {
	stats := p.Stats()

	fmt.Fprintln(w, l10n.T("Playback Summary"))
	fmt.Fprintf(w, "  %-16s %s\n", l10n.T("Elapsed"), elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  %-16s %dx%d\n", l10n.T("Video Size"), p.Width(), p.Height())
	if video.Disabled {
		fmt.Fprintf(w, "  %-16s %s\n", l10n.T("Video Frames"), l10n.T("Disabled"))
	} else {
		fmt.Fprintf(w, "  %-16s %d (%s - %s)\n", l10n.T("Video Frames"), video.Frames,
			formatPTS(video.FirstPTS, p.VideoTimeBase()), formatPTS(video.LastPTS, p.VideoTimeBase()))
	}
	if audio.Disabled {
		fmt.Fprintf(w, "  %-16s %s\n", l10n.T("Audio Blocks"), l10n.T("Disabled"))
	} else {
		fmt.Fprintf(w, "  %-16s %d (%d Hz, %d ch, %s, %d bytes)\n", l10n.T("Audio Blocks"),
			audio.Frames, p.SampleRate(), p.Channels(), p.SampleFormat(), audio.Bytes)
	}
	fmt.Fprintf(w, "  %-16s %d (%s %d, %s %d)\n", l10n.T("Late Drops"), stats.LateDrops,
		l10n.T("Video"), video.Late, l10n.T("Audio"), audio.Late)
	fmt.Fprintf(w, "  %-16s %d\n", l10n.T("Seek Drops"), stats.SeekDrops)
	fmt.Fprintf(w, "  %-16s %d\n", l10n.T("Seeks"), stats.Seeks)
	fmt.Fprintf(w, "  %-16s %d\n", l10n.T("Decode Errors"), stats.DecodeErrors)
}

// formatPTS renders a timestamp as seconds, or "-" when nothing was presented.
func formatPTS(pts int64, timeBase float64) string {
	if pts < 0 || timeBase == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3fs", float64(pts)*timeBase)
}
