package ports

// MediaType identifies the kind of elementary stream a packet or frame belongs to.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaVideo
	MediaAudio
)

// String returns the lower-case name of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Codec names the compression format of a stream.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecAAC     Codec = "aac"
	CodecOpus    Codec = "opus"
	CodecUnknown Codec = "unknown"
)

// StreamInfo describes one elementary stream of a container.
type StreamInfo struct {
	Index int
	Media MediaType
	Codec Codec

	// TimeBase is the duration of one timestamp unit as the fraction
	// TimeBaseNum/TimeBaseDen seconds (e.g. 1/90000).
	TimeBaseNum int
	TimeBaseDen int

	// Video
	Width  int
	Height int

	// Audio
	SampleRate int
	Channels   int

	// SPS and PPS NAL units (without start codes) for H.264 streams.
	SPS [][]byte
	PPS [][]byte

	// Config is the codec-specific setup blob: the AudioSpecificConfig for
	// AAC, the OpusHead payload for Opus.
	Config []byte

	// Duration in time-base units, 0 when unknown.
	Duration int64
}

// TimeBase returns the time base in seconds per unit.
func (s StreamInfo) TimeBase() float64 {
	if s.TimeBaseDen == 0 {
		return 0
	}
	return float64(s.TimeBaseNum) / float64(s.TimeBaseDen)
}

// Packet is one compressed access unit read from a container.
type Packet struct {
	StreamIndex int
	Data        []byte
	PTS         int64 // Presentation timestamp in stream time-base units
	DTS         int64 // Decode timestamp in stream time-base units
	Duration    int64
	Keyframe    bool
}

// Container abstracts a demuxed media file.
type Container interface {
	// Streams returns the elementary streams in container order.
	Streams() []StreamInfo

	// ReadPacket returns the next packet in decode order across all streams.
	// It returns io.EOF when the input is exhausted.
	ReadPacket() (Packet, error)

	// SeekKeyframe repositions every stream so that the next packet of the
	// given stream is the nearest keyframe at or before target (in that
	// stream's time-base units).
	SeekKeyframe(stream int, target int64) error

	// Close releases the container.
	Close() error
}
