package summarizer

import (
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Source: SourceInfo{
			Path: "/media/clip.mp4",
			Size: 1024 * 1024,
			Streams: []StreamInfo{
				{Index: 0, Media: "video", Codec: "h264", Decoder: "ffmpeg", Width: 64, Height: 48, DurationMs: 2000, Selected: true},
				{Index: 1, Media: "audio", Codec: "aac", Decoder: "ffmpeg", SampleRate: 48000, Channels: 2, DurationMs: 2000, Selected: true},
				{Index: 2, Media: "audio", Codec: "opus", Decoder: "libopus", SampleRate: 48000, Channels: 2, DurationMs: -1},
			},
		},
		Settings: Settings{
			DecodeVideo:   true,
			DecodeAudio:   true,
			Sync:          true,
			QueueCapacity: 120,
			LateThreshold: 100 * time.Millisecond,
			SampleFormat:  "s16",
			Seeks:         []string{"5s@2s"},
		},
		Playback: PlaybackInfo{
			Elapsed:      2500 * time.Millisecond,
			VideoFrames:  20,
			VideoEndMs:   1900,
			AudioBlocks:  94,
			AudioBytes:   1536,
			LateDrops:    3,
			Seeks:        1,
			DecodeErrors: 0,
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Playback Summary",
		"2024-01-15T10:30:00Z",
		"/media/clip.mp4",
		"1.00 MB",
		"| 0 * | video | h264 | 64x48 | 2000 ms | ffmpeg |",
		"| 2 | audio | opus | 48000 Hz, 2 ch | - | libopus |",
		"| Video Frames | 20 |",
		"| Last Video Frame | 1900 ms |",
		"| Audio Blocks | 94 (1.50 KB) |",
		"| Late Drops | 3 |",
		"| Late Threshold | 100 ms |",
		"| Scheduled Seeks | 5s@2s |",
		"| Sync | On |",
		"Generated by mediapump",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "Interrupted") {
		t.Error("output should not mention interruption")
	}
}

func TestMarkdownFormatter_DisabledMedia(t *testing.T) {
	s := sampleSummary()
	s.Settings.DecodeVideo = false
	s.Playback.Interrupted = true

	result := NewMarkdownFormatter().Format(s)

	if strings.Contains(result, "Video Frames") {
		t.Error("video rows should be omitted when video is off")
	}
	if !strings.Contains(result, "| Video | Off |") {
		t.Error("expected video setting to read Off")
	}
	if !strings.Contains(result, "| Interrupted | Yes |") {
		t.Error("expected interruption row")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Playback Summary": "再生サマリー",
			"Video Frames":     "映像フレーム数",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	if !strings.Contains(result, "再生サマリー") {
		t.Error("expected translated 'Playback Summary'")
	}
	if !strings.Contains(result, "映像フレーム数") {
		t.Error("expected translated 'Video Frames'")
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "mediapump v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
