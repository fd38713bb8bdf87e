// Package smartcodec provides a codec engine that picks a decoding backend
// per stream.
//
// The selection flow:
//   - H.264 and AAC: ffmpeg child process (ffmpegcodec)
//   - Opus: in-process libopus (opuscodec)
//   - AV1: in-process libaom (aomcodec)
//   - anything else: ErrUnsupportedCodec
package smartcodec

import (
	"errors"
	"fmt"

	"github.com/user/mediapump/pkg/adapters/aomcodec"
	"github.com/user/mediapump/pkg/adapters/ffmpegcodec"
	"github.com/user/mediapump/pkg/adapters/logger"
	"github.com/user/mediapump/pkg/adapters/opuscodec"
	"github.com/user/mediapump/pkg/ports"
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendFFmpeg represents FFmpeg-based decoding.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendOpus represents libopus decoding.
	BackendOpus Backend = "libopus"
	// BackendLibaom represents libaom for AV1 decoding.
	BackendLibaom Backend = "libaom"
	// BackendNone is reported for codecs nothing can decode.
	BackendNone Backend = "none"
)

// Info contains information about the decoder selected for a stream.
type Info struct {
	Codec   ports.Codec
	Backend Backend
}

// Options configures the smart codec engine.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string

	// Width and Height scale decoded video. Zero keeps the stream size.
	Width  int
	Height int

	// SampleFormat of decoded audio.
	SampleFormat ports.SampleFormat

	Logger ports.Logger
}

var (
	// ErrUnsupportedCodec is returned when the codec is not supported.
	ErrUnsupportedCodec = errors.New("smartcodec: unsupported codec")
	// ErrNoDecoderAvailable is returned when the backend for a codec is missing.
	ErrNoDecoderAvailable = errors.New("smartcodec: no decoder available")
)

// Engine implements ports.CodecEngine by delegating to a backend engine.
type Engine struct {
	ffmpeg    ports.CodecEngine
	ffmpegErr error
	opus      ports.CodecEngine
	aom       ports.CodecEngine
	log       ports.Logger
}

// New creates an engine. A missing ffmpeg is not an error here: Opus and AV1
// streams still open, and H.264 or AAC streams fail in Open.
func New(opts Options) *Engine {
	if opts.FFmpegPath != "" {
		ffmpegcodec.SetFFmpegPath(opts.FFmpegPath)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}

	e := &Engine{
		opus: opuscodec.New(opts.SampleFormat),
		log:  log.WithComponent("codec"),
	}
	if aomcodec.Available() {
		e.aom = aomcodec.New(log)
	}
	ff, err := ffmpegcodec.New(ffmpegcodec.Options{
		Width:        opts.Width,
		Height:       opts.Height,
		SampleFormat: opts.SampleFormat,
		Logger:       log,
	})
	if err != nil {
		e.ffmpegErr = err
	} else {
		e.ffmpeg = ff
	}
	return e
}

// NewWithEngines creates an engine over explicit backends. A nil ffmpeg
// engine behaves like a system without ffmpeg, a nil aom engine like a build
// without libaom.
func NewWithEngines(ffmpeg, opus, aom ports.CodecEngine, log ports.Logger) *Engine {
	e := &Engine{ffmpeg: ffmpeg, opus: opus, aom: aom, log: log.WithComponent("codec")}
	if ffmpeg == nil {
		e.ffmpegErr = ffmpegcodec.ErrFFmpegNotFound
	}
	return e
}

// BackendFor returns the backend that decodes codec.
func BackendFor(codec ports.Codec) Backend {
	switch {
	case ffmpegcodec.Supports(codec):
		return BackendFFmpeg
	case codec == ports.CodecOpus:
		return BackendOpus
	case codec == ports.CodecAV1:
		return BackendLibaom
	default:
		return BackendNone
	}
}

// Describe reports which backend Open would use for stream.
func (e *Engine) Describe(stream ports.StreamInfo) Info {
	return Info{Codec: stream.Codec, Backend: BackendFor(stream.Codec)}
}

// Open returns a decoder for stream from the matching backend.
func (e *Engine) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	backend := BackendFor(stream.Codec)

	var engine ports.CodecEngine
	switch backend {
	case BackendFFmpeg:
		if e.ffmpeg == nil {
			return nil, fmt.Errorf("%w: %s needs ffmpeg: %w", ErrNoDecoderAvailable, stream.Codec, e.ffmpegErr)
		}
		engine = e.ffmpeg
	case BackendOpus:
		engine = e.opus
	case BackendLibaom:
		if e.aom == nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDecoderAvailable, aomcodec.ErrUnavailable)
		}
		engine = e.aom
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}

	dec, err := engine.Open(stream)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Decoding %s stream %d with %s", stream.Codec, stream.Index, backend)
	return dec, nil
}

var _ ports.CodecEngine = (*Engine)(nil)
