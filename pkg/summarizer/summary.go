// Package summarizer provides summary generation for playback sessions.
package summarizer

import "time"

// Summary contains all data collected during a playback session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input file and its streams
	Source SourceInfo

	// Playback settings
	Settings Settings

	// Counters collected while playing
	Playback PlaybackInfo
}

// SourceInfo describes the played file.
type SourceInfo struct {
	Path    string
	Size    int64
	Streams []StreamInfo
}

// StreamInfo describes one stream of the source.
type StreamInfo struct {
	Index   int
	Media   string
	Codec   string
	Decoder string

	// Video
	Width  int
	Height int

	// Audio
	SampleRate int
	Channels   int

	DurationMs int
	Selected   bool
}

// Settings contains the playback configuration.
type Settings struct {
	DecodeVideo   bool
	DecodeAudio   bool
	Sync          bool
	QueueCapacity int
	LateThreshold time.Duration
	SampleFormat  string
	Seeks         []string
}

// PlaybackInfo contains what consumers received.
type PlaybackInfo struct {
	Elapsed      time.Duration
	Interrupted  bool
	VideoFrames  int
	VideoEndMs   int // presentation time of the last video frame, -1 if none
	AudioBlocks  int
	AudioBytes   int64
	LateDrops    uint64
	SeekDrops    uint64
	Seeks        uint64
	DecodeErrors uint64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		Playback:    PlaybackInfo{VideoEndMs: -1},
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets the input path and size.
func (b *Builder) WithSource(path string, size int64) *Builder {
	b.summary.Source.Path = path
	b.summary.Source.Size = size
	return b
}

// AddStream appends a stream description.
func (b *Builder) AddStream(stream StreamInfo) *Builder {
	b.summary.Source.Streams = append(b.summary.Source.Streams, stream)
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithPlayback sets playback counters.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
