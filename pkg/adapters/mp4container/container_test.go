package mp4container

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Eyevinn/mp4ff/aac"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediapump/pkg/mocks"
	"github.com/user/mediapump/pkg/ports"
)

const (
	videoTimescale = 90000
	videoDur       = 3000 // 30 fps
	videoSamples   = 10
	audioTimescale = 48000
	audioDur       = 1024
	audioSamples   = 15
)

// buildFragmented writes a fragmented MP4 with an avc1 track (keyframes at
// samples 0 and 5) and an AAC track, one fragment per track.
func buildFragmented(t *testing.T) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(videoTimescale, "video", "en")
	init.AddEmptyTrack(audioTimescale, "audio", "en")

	video := init.Moov.Traks[0]
	video.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("avc1", 64, 48, nil))
	video.Tkhd.Width = mp4.Fixed32(64 << 16)
	video.Tkhd.Height = mp4.Fixed32(48 << 16)

	audio := init.Moov.Traks[1]
	if err := audio.SetAACDescriptor(aac.AAClc, audioTimescale); err != nil {
		t.Fatalf("SetAACDescriptor: %v", err)
	}

	vfrag, err := mp4.CreateFragment(1, video.Tkhd.TrackID)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < videoSamples; i++ {
		flags := mp4.NonSyncSampleFlags
		if i%5 == 0 {
			flags = mp4.SyncSampleFlags
		}
		data := []byte{0, byte(i), 0xaa}
		vfrag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: flags, Size: uint32(len(data)), Dur: videoDur},
			DecodeTime: uint64(i * videoDur),
			Data:       data,
		})
	}

	afrag, err := mp4.CreateFragment(2, audio.Tkhd.TrackID)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < audioSamples; i++ {
		data := []byte{1, byte(i)}
		afrag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: uint32(len(data)), Dur: audioDur},
			DecodeTime: uint64(i * audioDur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := vfrag.Encode(&buf); err != nil {
		t.Fatalf("encode video fragment: %v", err)
	}
	if err := afrag.Encode(&buf); err != nil {
		t.Fatalf("encode audio fragment: %v", err)
	}
	return buf.Bytes()
}

func openFragmented(t *testing.T) *Container {
	t.Helper()
	c, err := NewFromReader(bytes.NewReader(buildFragmented(t)), mocks.NewLogger())
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	return c
}

func TestStreams(t *testing.T) {
	c := openFragmented(t)
	defer c.Close()

	streams := c.Streams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}

	v := streams[0]
	if v.Index != 0 || v.Media != ports.MediaVideo || v.Codec != ports.CodecH264 {
		t.Errorf("video stream = %+v", v)
	}
	if v.Width != 64 || v.Height != 48 {
		t.Errorf("video size = %dx%d, want 64x48", v.Width, v.Height)
	}
	if v.TimeBaseNum != 1 || v.TimeBaseDen != videoTimescale {
		t.Errorf("video time base = %d/%d, want 1/%d", v.TimeBaseNum, v.TimeBaseDen, videoTimescale)
	}

	a := streams[1]
	if a.Index != 1 || a.Media != ports.MediaAudio || a.Codec != ports.CodecAAC {
		t.Errorf("audio stream = %+v", a)
	}
	if a.SampleRate != audioTimescale || a.Channels != 2 {
		t.Errorf("audio format = %d Hz %d ch, want 48000 Hz 2 ch", a.SampleRate, a.Channels)
	}
	if len(a.Config) == 0 {
		t.Error("audio stream should carry its AudioSpecificConfig")
	}
}

func TestReadPacket_InterleavesByDecodeTime(t *testing.T) {
	c := openFragmented(t)
	defer c.Close()

	counts := map[int]int{}
	lastPTS := map[int]int64{0: -1, 1: -1}
	lastTime := -1.0

	for {
		pkt, err := c.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket: %v", err)
		}

		tb := 1.0 / videoTimescale
		if pkt.StreamIndex == 1 {
			tb = 1.0 / audioTimescale
		}
		at := float64(pkt.DTS) * tb
		if at < lastTime {
			t.Errorf("packet of stream %d at %.4fs comes after %.4fs", pkt.StreamIndex, at, lastTime)
		}
		lastTime = at

		if pkt.PTS <= lastPTS[pkt.StreamIndex] {
			t.Errorf("stream %d pts %d not increasing", pkt.StreamIndex, pkt.PTS)
		}
		lastPTS[pkt.StreamIndex] = pkt.PTS
		counts[pkt.StreamIndex]++

		if pkt.StreamIndex == 0 {
			i := int(pkt.PTS / videoDur)
			if !bytes.Equal(pkt.Data, []byte{0, byte(i), 0xaa}) {
				t.Errorf("video packet %d data = %v", i, pkt.Data)
			}
			if pkt.Keyframe != (i%5 == 0) {
				t.Errorf("video packet %d keyframe = %v", i, pkt.Keyframe)
			}
		}
	}

	if counts[0] != videoSamples || counts[1] != audioSamples {
		t.Errorf("packet counts = %v, want %d video and %d audio", counts, videoSamples, audioSamples)
	}

	if _, err := c.ReadPacket(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadPacket after end = %v, want io.EOF", err)
	}
}

func TestSeekKeyframe(t *testing.T) {
	tests := []struct {
		name    string
		target  int64
		wantPTS int64
	}{
		{"before second keyframe", 4*videoDur + 100, 0},
		{"on second keyframe", 5 * videoDur, 5 * videoDur},
		{"after second keyframe", 8 * videoDur, 5 * videoDur},
		{"before start", -500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openFragmented(t)
			defer c.Close()

			// Move past the region first so the seek has to go backward.
			for i := 0; i < 20; i++ {
				if _, err := c.ReadPacket(); err != nil {
					t.Fatalf("ReadPacket: %v", err)
				}
			}

			if err := c.SeekKeyframe(0, tt.target); err != nil {
				t.Fatalf("SeekKeyframe: %v", err)
			}
			pkt, err := c.ReadPacket()
			if err != nil {
				t.Fatalf("ReadPacket after seek: %v", err)
			}
			if pkt.StreamIndex != 0 || pkt.PTS != tt.wantPTS || !pkt.Keyframe {
				t.Errorf("first packet after seek = stream %d pts %d keyframe %v, want video keyframe at %d",
					pkt.StreamIndex, pkt.PTS, pkt.Keyframe, tt.wantPTS)
			}

			// Audio resumes at or after the keyframe time.
			keyTime := float64(tt.wantPTS) / videoTimescale
			for {
				pkt, err := c.ReadPacket()
				if err != nil {
					t.Fatalf("no audio after seek: %v", err)
				}
				if pkt.StreamIndex == 1 {
					if at := float64(pkt.DTS) / audioTimescale; at < keyTime {
						t.Errorf("audio resumed at %.4fs, before keyframe at %.4fs", at, keyTime)
					}
					break
				}
			}
		})
	}
}

func TestSeekKeyframe_OutOfRange(t *testing.T) {
	c := openFragmented(t)
	defer c.Close()

	if err := c.SeekKeyframe(5, 0); !errors.Is(err, ErrStreamOutOfRange) {
		t.Errorf("SeekKeyframe(5) = %v, want ErrStreamOutOfRange", err)
	}
}

func TestOpen_ThroughFileSystem(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("clip.mp4", buildFragmented(t))

	c, err := Open(fs, "clip.mp4", mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(c.Streams()) != 2 {
		t.Errorf("expected 2 streams, got %d", len(c.Streams()))
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, err := Open(fs, "missing.mp4", mocks.NewLogger()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNewFromReader_Garbage(t *testing.T) {
	if _, err := NewFromReader(bytes.NewReader([]byte("not an mp4 file")), mocks.NewLogger()); err == nil {
		t.Error("expected an error for invalid input")
	}
}
