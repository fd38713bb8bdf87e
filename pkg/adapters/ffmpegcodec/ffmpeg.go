// Package ffmpegcodec decodes H.264 video and AAC audio with a long-lived
// ffmpeg child process per stream.
//
// Compressed packets are written to ffmpeg's stdin as elementary streams
// (Annex B for H.264, ADTS for AAC) and raw frames are read back from stdout:
// rgb24 pictures for video, interleaved u8 or s16le PCM for audio. ffmpeg
// buffers a few packets internally, so a Decode call returns whatever frames
// have come out so far, which may be none.
package ffmpegcodec

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/user/mediapump/pkg/adapters/logger"
	"github.com/user/mediapump/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not found in PATH.
	ErrFFmpegNotFound = errors.New("ffmpegcodec: ffmpeg not found in PATH")

	// ErrUnsupportedCodec is returned by Open for codecs ffmpegcodec does not decode.
	ErrUnsupportedCodec = errors.New("ffmpegcodec: unsupported codec")

	// ErrUnknownFrameSize is returned by Open when a video stream has no dimensions.
	ErrUnknownFrameSize = errors.New("ffmpegcodec: unknown frame size")
)

var (
	pathMu           sync.Mutex
	customFFmpegPath string
)

// SetFFmpegPath makes FindFFmpeg use path instead of searching for ffmpeg.
// An empty path restores the search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.Lock()
	custom := customFFmpegPath
	pathMu.Unlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// IsAvailable reports whether ffmpeg can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// Options configures decoded output.
type Options struct {
	// Width and Height scale decoded pictures. Zero keeps the stream size.
	Width  int
	Height int

	// SampleFormat of decoded audio. Defaults to s16.
	SampleFormat ports.SampleFormat

	Logger ports.Logger
}

// Engine opens ffmpeg-backed decoders. It implements ports.CodecEngine.
type Engine struct {
	ffmpegPath string
	opts       Options
	log        ports.Logger
}

// New locates ffmpeg and returns an engine using it.
func New(opts Options) (*Engine, error) {
	path, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}
	if opts.SampleFormat == "" {
		opts.SampleFormat = ports.SampleS16
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Engine{
		ffmpegPath: path,
		opts:       opts,
		log:        log.WithComponent("ffmpeg"),
	}, nil
}

// Supports reports whether Open can handle the codec.
func Supports(codec ports.Codec) bool {
	return codec == ports.CodecH264 || codec == ports.CodecAAC
}

// Open returns a decoder for stream. The ffmpeg process starts with the
// first packet.
func (e *Engine) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	switch stream.Codec {
	case ports.CodecH264:
		return newVideoDecoder(e.ffmpegPath, stream, e.opts, e.log)
	case ports.CodecAAC:
		return newAudioDecoder(e.ffmpegPath, stream, e.opts, e.log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
}

// baseArgs are shared by every decode process. Probing is cut to the minimum
// so ffmpeg starts producing output after the first packets instead of
// buffering megabytes of input.
func baseArgs(inputFormat string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-probesize", "32",
		"-analyzeduration", "0",
		"-fflags", "nobuffer",
		"-f", inputFormat,
		"-i", "pipe:0",
	}
}

var _ ports.CodecEngine = (*Engine)(nil)
