// Package pipeline defines the frame types that flow from the decode pump
// to playback consumers.
package pipeline

import "github.com/user/mediapump/pkg/ports"

// DefaultQueueCapacity is the number of decoded frames buffered per media type.
const DefaultQueueCapacity = 120

// MediaType re-exports ports.MediaType for consumers of this package.
type MediaType = ports.MediaType

const (
	MediaVideo = ports.MediaVideo
	MediaAudio = ports.MediaAudio
)

// EmptyReason tells a consumer why it received a frame without payload.
type EmptyReason int

const (
	// ReasonNone marks a frame that carries a payload.
	ReasonNone EmptyReason = iota
	// ReasonEndOfStream is returned once the pump has stopped.
	ReasonEndOfStream
	// ReasonLate is returned when the frame missed its presentation deadline.
	ReasonLate
	// ReasonSeek is returned when a seek invalidated the frame being paced.
	ReasonSeek
	// ReasonDisabled is returned when decoding of the media type is off.
	ReasonDisabled
	// ReasonCancelled is returned when the caller's context ended.
	ReasonCancelled
)

// String returns a short name used in logs and metric attributes.
func (r EmptyReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEndOfStream:
		return "eos"
	case ReasonLate:
		return "late"
	case ReasonSeek:
		return "seek"
	case ReasonDisabled:
		return "disabled"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MediaFrame is a decoded video picture or block of audio samples.
//
// A MediaFrame never changes after construction, so it can be handed between
// goroutines without locking. The zero value is an empty frame.
type MediaFrame struct {
	payload []byte
	pts     int64
	media   MediaType
	reason  EmptyReason
}

// NewMediaFrame copies data into a new frame stamped with pts.
func NewMediaFrame(media MediaType, data []byte, pts int64) MediaFrame {
	payload := make([]byte, len(data))
	copy(payload, data)
	return MediaFrame{payload: payload, pts: pts, media: media}
}

// EmptyFrame returns a frame without payload carrying the given reason.
func EmptyFrame(media MediaType, reason EmptyReason) MediaFrame {
	return MediaFrame{media: media, reason: reason}
}

// Payload returns the raw RGB24 plane or PCM samples. The slice is shared
// with every copy of the frame and must not be modified.
func (f MediaFrame) Payload() []byte { return f.payload }

// Len returns the payload size in bytes.
func (f MediaFrame) Len() int { return len(f.payload) }

// PTS returns the presentation timestamp in stream time-base units.
func (f MediaFrame) PTS() int64 { return f.pts }

// Media returns the media type of the frame.
func (f MediaFrame) Media() MediaType { return f.media }

// Empty reports whether the frame carries no payload.
func (f MediaFrame) Empty() bool { return f.payload == nil }

// Reason returns why the frame is empty, or ReasonNone.
func (f MediaFrame) Reason() EmptyReason {
	if f.payload == nil && f.reason == ReasonNone {
		return ReasonEndOfStream
	}
	return f.reason
}
