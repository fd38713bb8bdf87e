// Package mp4container demuxes progressive and fragmented MP4 files.
//
// All sample tables are indexed when the file is opened. ReadPacket then
// interleaves the tracks by decode time, and SeekKeyframe moves every track
// to the sync sample at or before a target.
package mp4container

import (
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediapump/pkg/adapters/codecdetect"
	"github.com/user/mediapump/pkg/ports"
)

var (
	// ErrNoTracks is returned when a file has no audio or video track.
	ErrNoTracks = errors.New("mp4container: no audio or video track")

	// ErrStreamOutOfRange is returned by SeekKeyframe for an unknown stream.
	ErrStreamOutOfRange = errors.New("mp4container: stream out of range")

	// ErrNoKeyframe is returned by SeekKeyframe when a stream has no samples.
	ErrNoKeyframe = errors.New("mp4container: no keyframe")
)

// sample locates one access unit. Fragmented files carry the payload in
// data; progressive files are read from the file at offset.
type sample struct {
	offset   int64
	size     uint32
	data     []byte
	dts      int64
	pts      int64
	dur      int64
	keyframe bool
}

type track struct {
	info    ports.StreamInfo
	samples []sample // decode order
	next    int
}

// seconds converts t in the track's time base to seconds.
func (t *track) seconds(v int64) float64 {
	return float64(v) * t.info.TimeBase()
}

func (t *track) done() bool { return t.next >= len(t.samples) }

// Container is a ports.Container over an MP4 file.
type Container struct {
	r      io.ReadSeeker
	closer io.Closer
	tracks []*track
	log    ports.Logger
}

// Open opens path through fs and indexes it.
func Open(fs ports.FileSystem, path string, logger ports.Logger) (*Container, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	c, err := NewFromReader(f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

// NewFromReader indexes the MP4 file read from r. The reader must stay
// valid until the container is closed.
func NewFromReader(r io.ReadSeeker, logger ports.Logger) (*Container, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	c := &Container{r: r, log: logger.WithComponent("mp4")}
	if mp4File.IsFragmented() {
		err = c.indexFragmented(mp4File)
	} else {
		err = c.indexProgressive(mp4File)
	}
	if err != nil {
		return nil, err
	}

	hasMedia := false
	for _, t := range c.tracks {
		if t.info.Media != ports.MediaUnknown {
			hasMedia = true
		}
		c.log.Debug("Track %d: %s %s, %d samples", t.info.Index, t.info.Media, t.info.Codec, len(t.samples))
	}
	if !hasMedia {
		return nil, ErrNoTracks
	}
	return c, nil
}

// Streams returns one StreamInfo per track in file order.
func (c *Container) Streams() []ports.StreamInfo {
	streams := make([]ports.StreamInfo, len(c.tracks))
	for i, t := range c.tracks {
		streams[i] = t.info
	}
	return streams
}

// ReadPacket returns the pending sample with the earliest decode time
// across all tracks. Ties go to the lower stream index.
func (c *Container) ReadPacket() (ports.Packet, error) {
	var best *track
	var bestTime float64
	for _, t := range c.tracks {
		if t.done() {
			continue
		}
		ts := t.seconds(t.samples[t.next].dts)
		if best == nil || ts < bestTime {
			best, bestTime = t, ts
		}
	}
	if best == nil {
		return ports.Packet{}, io.EOF
	}

	s := best.samples[best.next]
	best.next++

	data, err := c.sampleData(s)
	if err != nil {
		return ports.Packet{}, fmt.Errorf("read sample %d of stream %d: %w", best.next-1, best.info.Index, err)
	}
	return ports.Packet{
		StreamIndex: best.info.Index,
		Data:        data,
		PTS:         s.pts,
		DTS:         s.dts,
		Duration:    s.dur,
		Keyframe:    s.keyframe,
	}, nil
}

func (c *Container) sampleData(s sample) ([]byte, error) {
	if s.data != nil {
		return s.data, nil
	}
	if _, err := c.r.Seek(s.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, s.size)
	if _, err := io.ReadFull(c.r, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

// SeekKeyframe positions stream at its last keyframe whose presentation
// time is at or before target, or at its first keyframe when there is none.
// Every other track resumes at its first sample decoded at or after that
// keyframe.
func (c *Container) SeekKeyframe(stream int, target int64) error {
	if stream < 0 || stream >= len(c.tracks) {
		return fmt.Errorf("%w: %d", ErrStreamOutOfRange, stream)
	}
	t := c.tracks[stream]

	idx := -1
	for i, s := range t.samples {
		if !s.keyframe {
			continue
		}
		if s.pts <= target || idx < 0 {
			idx = i
		}
		if s.pts > target {
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: stream %d", ErrNoKeyframe, stream)
	}
	t.next = idx
	at := t.seconds(t.samples[idx].dts)

	for _, other := range c.tracks {
		if other == t {
			continue
		}
		other.next = len(other.samples)
		for i, s := range other.samples {
			if other.seconds(s.dts) >= at {
				other.next = i
				break
			}
		}
	}

	c.log.Debug("Seeked stream %d to sample %d (pts %d) for target %d", stream, idx, t.samples[idx].pts, target)
	return nil
}

// Close closes the underlying file when the container opened it.
func (c *Container) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// streamInfo describes trak as stream index.
func streamInfo(index int, trak *mp4.TrakBox) ports.StreamInfo {
	info := ports.StreamInfo{
		Index:       index,
		Media:       codecdetect.MediaOfTrack(trak),
		Codec:       codecdetect.DetectTrack(trak),
		TimeBaseNum: 1,
		TimeBaseDen: 1000,
	}
	if trak.Mdia == nil {
		return info
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		info.TimeBaseDen = int(trak.Mdia.Mdhd.Timescale)
		info.Duration = int64(trak.Mdia.Mdhd.Duration)
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return info
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch entry := child.(type) {
		case *mp4.VisualSampleEntryBox:
			info.Width = int(entry.Width)
			info.Height = int(entry.Height)
			if entry.AvcC != nil {
				info.SPS = entry.AvcC.SPSnalus
				info.PPS = entry.AvcC.PPSnalus
			}
		case *mp4.AudioSampleEntryBox:
			info.SampleRate = int(entry.SampleRate)
			info.Channels = int(entry.ChannelCount)
			info.Config = audioConfig(entry)
		}
	}
	return info
}

// audioConfig returns the AudioSpecificConfig of an mp4a sample entry.
func audioConfig(entry *mp4.AudioSampleEntryBox) []byte {
	if entry.Esds == nil || entry.Esds.DecConfigDescriptor == nil {
		return nil
	}
	if info := entry.Esds.DecConfigDescriptor.DecSpecificInfo; info != nil {
		return info.DecConfig
	}
	return nil
}

var _ ports.Container = (*Container)(nil)
