package ports

import "errors"

// ErrDecode is wrapped by decoders when a single packet cannot be decoded.
// Such failures are soft: the caller skips the packet and keeps going.
var ErrDecode = errors.New("decode failed")

// SampleFormat is the layout of decoded PCM samples.
type SampleFormat string

const (
	// SampleU8 is unsigned 8-bit interleaved PCM.
	SampleU8 SampleFormat = "u8"
	// SampleS16 is signed 16-bit little-endian interleaved PCM.
	SampleS16 SampleFormat = "s16"
)

// BytesPerSample returns the size of one sample of one channel.
func (f SampleFormat) BytesPerSample() int {
	if f == SampleS16 {
		return 2
	}
	return 1
}

// RawFrame is one decoded unit produced by a Decoder.
type RawFrame struct {
	// Data is an RGB24 plane for video or interleaved PCM for audio.
	// The decoder must not reuse the slice after returning it.
	Data []byte
	PTS  int64
}

// OutputFormat describes what a Decoder produces.
type OutputFormat struct {
	// Video
	Width  int
	Height int

	// Audio
	SampleRate   int
	Channels     int
	SampleFormat SampleFormat
}

// Decoder decodes packets of a single stream.
type Decoder interface {
	// Decode feeds one packet and returns every frame that became available.
	// Zero frames is normal for decoders with internal delay. When an error
	// is returned, the frames decoded before the failure are still valid.
	Decode(pkt Packet) ([]RawFrame, error)

	// Drain signals end of input and returns the frames still held back.
	Drain() ([]RawFrame, error)

	// Flush discards all decode state. Used after the input position jumps.
	Flush() error

	// Format reports the output format of decoded frames.
	Format() OutputFormat

	// Close releases decoder resources.
	Close() error
}

// CodecEngine opens decoders for container streams.
type CodecEngine interface {
	// Open returns a decoder for the stream, or an error when no codec
	// can handle it.
	Open(stream StreamInfo) (Decoder, error)
}
