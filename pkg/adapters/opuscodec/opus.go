// Package opuscodec decodes Opus audio in-process with libopus.
package opuscodec

import (
	"errors"
	"fmt"

	"layeh.com/gopus"

	"github.com/user/mediapump/pkg/ports"
)

// Opus always decodes at 48 kHz regardless of the input rate.
const (
	sampleRate = 48000
	// maxFrameSize is the number of samples per channel in the longest Opus
	// packet (120 ms).
	maxFrameSize = sampleRate * 120 / 1000
)

var (
	// ErrUnsupportedCodec is returned by Open for streams that are not Opus.
	ErrUnsupportedCodec = errors.New("opuscodec: unsupported codec")

	// ErrUnsupportedChannels is returned for streams with more than two channels.
	ErrUnsupportedChannels = errors.New("opuscodec: only mono and stereo are supported")
)

// Engine opens Opus decoders. It implements ports.CodecEngine.
type Engine struct {
	sampleFormat ports.SampleFormat
}

// New returns an engine producing PCM in format (s16 when empty).
func New(format ports.SampleFormat) *Engine {
	if format == "" {
		format = ports.SampleS16
	}
	return &Engine{sampleFormat: format}
}

// Open returns a decoder for an Opus stream.
func (e *Engine) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	if stream.Codec != ports.CodecOpus {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
	channels := stream.Channels
	if channels == 0 {
		channels = 2
	}
	if channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, channels)
	}

	d := &decoder{
		format: ports.OutputFormat{
			SampleRate:   sampleRate,
			Channels:     channels,
			SampleFormat: e.sampleFormat,
		},
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// decoder keeps libopus state across consecutive packets of one stream.
type decoder struct {
	dec    *gopus.Decoder
	format ports.OutputFormat
}

func (d *decoder) reset() error {
	dec, err := gopus.NewDecoder(sampleRate, d.format.Channels)
	if err != nil {
		return fmt.Errorf("opuscodec: create decoder: %w", err)
	}
	d.dec = dec
	return nil
}

// Decode turns one Opus packet into one frame. Opus has no decoder delay
// across packets.
func (d *decoder) Decode(pkt ports.Packet) ([]ports.RawFrame, error) {
	if len(pkt.Data) == 0 {
		return nil, fmt.Errorf("%w: opus: empty packet", ports.ErrDecode)
	}
	pcm, err := d.dec.Decode(pkt.Data, maxFrameSize, false)
	if err != nil {
		return nil, fmt.Errorf("%w: opus: %w", ports.ErrDecode, err)
	}
	if len(pcm) == 0 {
		return nil, nil
	}

	var data []byte
	if d.format.SampleFormat == ports.SampleU8 {
		data = int16sToU8(pcm)
	} else {
		data = int16sToBytes(pcm)
	}
	return []ports.RawFrame{{Data: data, PTS: pkt.PTS}}, nil
}

func (d *decoder) Drain() ([]ports.RawFrame, error) { return nil, nil }

// Flush starts over with fresh decoder state.
func (d *decoder) Flush() error { return d.reset() }

func (d *decoder) Format() ports.OutputFormat { return d.format }

func (d *decoder) Close() error {
	d.dec = nil
	return nil
}

// int16sToBytes converts a slice of int16 PCM samples to little-endian bytes.
func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

// int16sToU8 converts int16 PCM samples to unsigned 8-bit samples.
func int16sToU8(pcm []int16) []byte {
	b := make([]byte, len(pcm))
	for i, s := range pcm {
		b[i] = byte(int(s>>8) + 128)
	}
	return b
}

var _ ports.CodecEngine = (*Engine)(nil)
