package smartcodec

import (
	"errors"
	"testing"

	"github.com/user/mediapump/pkg/adapters/aomcodec"
	"github.com/user/mediapump/pkg/adapters/ffmpegcodec"
	"github.com/user/mediapump/pkg/mocks"
	"github.com/user/mediapump/pkg/ports"
)

func TestBackendFor(t *testing.T) {
	tests := []struct {
		codec ports.Codec
		want  Backend
	}{
		{ports.CodecH264, BackendFFmpeg},
		{ports.CodecAAC, BackendFFmpeg},
		{ports.CodecOpus, BackendOpus},
		{ports.CodecAV1, BackendLibaom},
		{ports.CodecHEVC, BackendNone},
		{ports.CodecUnknown, BackendNone},
	}
	for _, tt := range tests {
		if got := BackendFor(tt.codec); got != tt.want {
			t.Errorf("BackendFor(%s) = %s, want %s", tt.codec, got, tt.want)
		}
	}
}

func TestOpen_Routes(t *testing.T) {
	ff := mocks.NewCodecEngine()
	opus := mocks.NewCodecEngine()
	aom := mocks.NewCodecEngine()
	e := NewWithEngines(ff, opus, aom, mocks.NewLogger())

	streams := []ports.StreamInfo{
		{Index: 0, Media: ports.MediaVideo, Codec: ports.CodecH264, Width: 64, Height: 48},
		{Index: 1, Media: ports.MediaAudio, Codec: ports.CodecAAC, SampleRate: 44100, Channels: 2},
		{Index: 2, Media: ports.MediaAudio, Codec: ports.CodecOpus, SampleRate: 48000, Channels: 2},
		{Index: 3, Media: ports.MediaVideo, Codec: ports.CodecAV1, Width: 64, Height: 48},
	}
	for _, s := range streams {
		if _, err := e.Open(s); err != nil {
			t.Fatalf("Open stream %d: %v", s.Index, err)
		}
	}

	if got := ff.Opened(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("ffmpeg engine opened %v, want [0 1]", got)
	}
	if got := opus.Opened(); len(got) != 1 || got[0] != 2 {
		t.Errorf("opus engine opened %v, want [2]", got)
	}
	if got := aom.Opened(); len(got) != 1 || got[0] != 3 {
		t.Errorf("aom engine opened %v, want [3]", got)
	}
}

func TestOpen_Unsupported(t *testing.T) {
	e := NewWithEngines(mocks.NewCodecEngine(), mocks.NewCodecEngine(), nil, mocks.NewLogger())

	_, err := e.Open(ports.StreamInfo{Codec: ports.CodecHEVC})
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Open(hevc) = %v, want ErrUnsupportedCodec", err)
	}

	_, err = e.Open(ports.StreamInfo{Codec: ports.CodecAV1})
	if !errors.Is(err, ErrNoDecoderAvailable) || !errors.Is(err, aomcodec.ErrUnavailable) {
		t.Errorf("Open(av1) without libaom = %v", err)
	}
}

func TestOpen_WithoutFFmpeg(t *testing.T) {
	opus := mocks.NewCodecEngine()
	e := NewWithEngines(nil, opus, nil, mocks.NewLogger())

	_, err := e.Open(ports.StreamInfo{Codec: ports.CodecH264, Width: 64, Height: 48})
	if !errors.Is(err, ErrNoDecoderAvailable) || !errors.Is(err, ffmpegcodec.ErrFFmpegNotFound) {
		t.Errorf("Open(h264) without ffmpeg = %v", err)
	}

	if _, err := e.Open(ports.StreamInfo{Index: 3, Codec: ports.CodecOpus, Channels: 2}); err != nil {
		t.Errorf("Opus should still open without ffmpeg: %v", err)
	}
}

func TestOpen_BackendError(t *testing.T) {
	ff := mocks.NewCodecEngine()
	boom := errors.New("boom")
	ff.OpenFunc = func(ports.StreamInfo) (ports.Decoder, error) { return nil, boom }
	e := NewWithEngines(ff, mocks.NewCodecEngine(), nil, mocks.NewLogger())

	if _, err := e.Open(ports.StreamInfo{Codec: ports.CodecAAC}); !errors.Is(err, boom) {
		t.Errorf("Open = %v, want the backend error", err)
	}
}

func TestNew_MissingFFmpegPath(t *testing.T) {
	e := New(Options{FFmpegPath: "/nonexistent/ffmpeg", Logger: mocks.NewLogger()})
	defer ffmpegcodec.SetFFmpegPath("")

	if _, err := e.Open(ports.StreamInfo{Codec: ports.CodecAAC, SampleRate: 44100, Channels: 2}); !errors.Is(err, ErrNoDecoderAvailable) {
		t.Errorf("Open(aac) = %v, want ErrNoDecoderAvailable", err)
	}

	info := e.Describe(ports.StreamInfo{Codec: ports.CodecOpus})
	if info.Backend != BackendOpus {
		t.Errorf("Describe(opus) backend = %s, want libopus", info.Backend)
	}
}
