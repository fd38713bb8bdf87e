// Package codecdetect maps MP4 tracks to media types and codecs.
package codecdetect

import (
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediapump/pkg/ports"
)

// MediaOfTrack returns the media type named by the track's handler.
func MediaOfTrack(trak *mp4.TrakBox) ports.MediaType {
	if trak == nil || trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return ports.MediaUnknown
	}
	switch trak.Mdia.Hdlr.HandlerType {
	case "vide":
		return ports.MediaVideo
	case "soun":
		return ports.MediaAudio
	default:
		return ports.MediaUnknown
	}
}

// DetectTrack returns the codec of the track's first recognized sample entry.
func DetectTrack(trak *mp4.TrakBox) ports.Codec {
	media := MediaOfTrack(trak)
	if media == ports.MediaUnknown {
		return ports.CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return ports.CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if codec := FromSampleEntry(child.Type()); codec != ports.CodecUnknown {
			return codec
		}
	}
	return ports.CodecUnknown
}

// FromSampleEntry maps an MP4 sample entry four-character code to a codec.
func FromSampleEntry(fourCC string) ports.Codec {
	switch fourCC {
	case "avc1", "avc3":
		return ports.CodecH264
	case "hvc1", "hev1":
		return ports.CodecHEVC
	case "av01":
		return ports.CodecAV1
	case "mp4a":
		return ports.CodecAAC
	case "Opus":
		return ports.CodecOpus
	default:
		return ports.CodecUnknown
	}
}
