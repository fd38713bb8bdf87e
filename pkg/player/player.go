// Package player turns a demuxed container into paced video and audio frames.
//
// A single pump goroutine (Run) reads packets, decodes them and fills one
// bounded queue per media type. A renderer pulls from the video queue with
// GetVideoFrame and an audio sink pulls from the audio queue with
// GetAudioFrame; when sync is on, each frame is held until its deadline on
// the shared playback clock, and frames that are too late are dropped.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/user/mediapump/pkg/framequeue"
	"github.com/user/mediapump/pkg/pipeline"
	"github.com/user/mediapump/pkg/ports"
	"github.com/user/mediapump/pkg/telemetry"
	"github.com/user/mediapump/pkg/timeline"
)

var (
	// ErrOpenFailure is returned by New when a codec could not be opened.
	ErrOpenFailure = errors.New("player: open failed")
	// ErrStreamNotFound is returned when the container has no video stream,
	// or when an audio stream selection is out of range.
	ErrStreamNotFound = errors.New("player: stream not found")
	// ErrAlreadyStarted is returned by Run when called twice or after Stop.
	ErrAlreadyStarted = errors.New("player: already started")
)

// Values reported by SampleRate and Channels when there is no audio stream.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
)

// Options configures a Player.
type Options struct {
	// DecodeVideo and DecodeAudio turn decoding of each media type on or off.
	// Packets of a disabled type are discarded undecoded.
	DecodeVideo bool
	DecodeAudio bool

	// Sync paces frames against the playback clock. When false, frames are
	// returned as soon as they are decoded.
	Sync bool

	// AudioStream is the position of the audio stream to play among the
	// container's audio streams. Out-of-range values select the first one.
	AudioStream int

	// QueueCapacity is the number of frames buffered per media type.
	QueueCapacity int

	// LateThreshold is how far behind its deadline a frame may be and still
	// be presented.
	LateThreshold time.Duration
}

// DefaultOptions returns options that decode and pace both media types.
func DefaultOptions() Options {
	return Options{
		DecodeVideo:   true,
		DecodeAudio:   true,
		Sync:          true,
		QueueCapacity: pipeline.DefaultQueueCapacity,
		LateThreshold: timeline.DefaultLateThreshold,
	}
}

// Stats is a snapshot of playback counters.
type Stats struct {
	State        State
	VideoQueued  int
	AudioQueued  int
	VideoDecoded uint64
	AudioDecoded uint64
	LateDrops    uint64
	SeekDrops    uint64
	DecodeErrors uint64
	Seeks        uint64
	LastVideoPTS int64
}

type counters struct {
	videoDecoded atomic.Uint64
	audioDecoded atomic.Uint64
	lateDrops    atomic.Uint64
	seekDrops    atomic.Uint64
	decodeErrors atomic.Uint64
	seeks        atomic.Uint64
}

// Player owns a container and its decoders from New until it stops.
type Player struct {
	container ports.Container
	engine    ports.CodecEngine
	opts      Options
	log       ports.Logger
	pumpLog   ports.Logger
	seekLog   ports.Logger
	metrics   *telemetry.Metrics
	depthReg  metric.Registration

	video    ports.StreamInfo
	videoDec ports.Decoder

	// audioStreams is fixed at construction. audio and audioDec are owned by
	// the pump goroutine; audioSel and audioFormat mirror them for readers.
	audioStreams []ports.StreamInfo
	audio        ports.StreamInfo
	audioDec     ports.Decoder
	audioSel     atomic.Int32
	audioFormat  atomic.Pointer[ports.OutputFormat]

	vq  *framequeue.Queue[pipeline.MediaFrame]
	aq  *framequeue.Queue[pipeline.MediaFrame]
	vtl *timeline.Timeline
	atl *timeline.Timeline

	seekReq   atomic.Int64 // pending relative seek in nanoseconds, 0 = none
	switchReq atomic.Int32 // pending audio stream position + 1, 0 = none
	state     atomic.Int32

	gateMu sync.Mutex
	gate   chan struct{} // closed while no seek is in progress

	// Seek and Stop cancel putCancel, which also ends audioPut. An audio
	// switch cancels only audioCancel, so a blocked video put keeps waiting.
	putMu       sync.Mutex
	putCtx      context.Context
	putCancel   context.CancelFunc
	audioPut    context.Context
	audioCancel context.CancelFunc

	life    context.Context
	kill    context.CancelFunc
	started atomic.Bool
	done    chan struct{}

	lastVideoPTS atomic.Int64
	stats        counters
}

// New opens decoders for the first video stream and the selected audio
// stream of container. The player takes ownership of the container when New
// succeeds; on failure the caller still owns it.
func New(container ports.Container, engine ports.CodecEngine, opts Options, logger ports.Logger, metrics *telemetry.Metrics) (*Player, error) {
	if metrics == nil {
		metrics = telemetry.Noop()
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = pipeline.DefaultQueueCapacity
	}
	if opts.LateThreshold <= 0 {
		opts.LateThreshold = timeline.DefaultLateThreshold
	}

	p := &Player{
		container: container,
		engine:    engine,
		opts:      opts,
		log:       logger.WithComponent("player"),
		pumpLog:   logger.WithComponent("pump"),
		seekLog:   logger.WithComponent("seek"),
		metrics:   metrics,
		done:      make(chan struct{}),
	}

	haveVideo := false
	for _, s := range container.Streams() {
		switch s.Media {
		case ports.MediaVideo:
			if !haveVideo {
				p.video = s
				haveVideo = true
			}
		case ports.MediaAudio:
			p.audioStreams = append(p.audioStreams, s)
		}
	}
	if !haveVideo {
		return nil, ErrStreamNotFound
	}

	videoDec, err := engine.Open(p.video)
	if err != nil {
		return nil, fmt.Errorf("%w: video stream %d: %w", ErrOpenFailure, p.video.Index, err)
	}
	p.videoDec = videoDec

	p.audioSel.Store(-1)
	if len(p.audioStreams) > 0 {
		sel := opts.AudioStream
		if sel < 0 || sel >= len(p.audioStreams) {
			sel = 0
		}
		p.audio = p.audioStreams[sel]
		audioDec, err := engine.Open(p.audio)
		if err != nil {
			videoDec.Close()
			return nil, fmt.Errorf("%w: audio stream %d: %w", ErrOpenFailure, p.audio.Index, err)
		}
		p.audioDec = audioDec
		p.audioSel.Store(int32(sel))
		format := audioDec.Format()
		p.audioFormat.Store(&format)
	}

	p.vq = framequeue.New[pipeline.MediaFrame](opts.QueueCapacity)
	p.aq = framequeue.New[pipeline.MediaFrame](opts.QueueCapacity)

	p.vtl = timeline.New(0)
	p.vtl.SetTimeBase(p.video.TimeBaseNum, p.video.TimeBaseDen)
	p.vtl.SetLateThreshold(opts.LateThreshold)
	p.atl = timeline.New(0)
	p.atl.SetTimeBase(p.audio.TimeBaseNum, p.audio.TimeBaseDen)
	p.atl.SetLateThreshold(opts.LateThreshold)

	p.gate = make(chan struct{})
	close(p.gate)
	p.life, p.kill = context.WithCancel(context.Background())

	if reg, err := metrics.RegisterQueueDepth(func() (int, int) {
		return p.vq.Len(), p.aq.Len()
	}); err == nil {
		p.depthReg = reg
	} else {
		p.log.Warn("Queue depth gauge unavailable: %v", err)
	}

	p.log.Info("Opened %s video stream %d (%dx%d)", p.video.Codec, p.video.Index, p.Width(), p.Height())
	if p.audioDec != nil {
		p.log.Info("Opened %s audio stream %d (%d Hz, %d channels)", p.audio.Codec, p.audio.Index, p.SampleRate(), p.Channels())
	}
	return p, nil
}

// Run starts the playback clock and pumps packets until the input ends,
// Stop is called or ctx is cancelled. It returns nil in the first two cases.
func (p *Player) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.life, cancel)
	defer stop()

	p.vtl.SetStartNow()
	p.atl.SetStart(p.vtl.Start())
	p.state.Store(int32(StateRunning))
	p.log.Info("Playback started")

	err := p.pump(ctx)
	p.finish()
	return err
}

// Stop ends playback. Blocked consumers return empty frames and the pump
// exits. Calling Stop more than once is safe.
func (p *Player) Stop() {
	p.kill()
	p.cancelPut()
	if p.started.CompareAndSwap(false, true) {
		p.finish()
	}
}

// Done returns a channel that is closed once the pump has stopped and
// released the container.
func (p *Player) Done() <-chan struct{} { return p.done }

// State returns the pump state.
func (p *Player) State() State { return State(p.state.Load()) }

// Seek requests a jump by d relative to the last decoded video frame. The
// pump applies it between packets; a later request replaces one that has
// not been applied yet. Seek(0) does nothing.
func (p *Player) Seek(d time.Duration) {
	if d == 0 {
		return
	}
	p.seekReq.Store(int64(d))
	p.cancelPut()
}

// GetVideoFrame returns the next video frame, or an empty frame whose Reason
// tells why none is available.
func (p *Player) GetVideoFrame(ctx context.Context) pipeline.MediaFrame {
	return p.nextFrame(ctx, pipeline.MediaVideo, p.opts.DecodeVideo, p.vq, p.vtl)
}

// GetAudioFrame returns the next block of audio samples, or an empty frame
// whose Reason tells why none is available.
func (p *Player) GetAudioFrame(ctx context.Context) pipeline.MediaFrame {
	return p.nextFrame(ctx, pipeline.MediaAudio, p.opts.DecodeAudio && len(p.audioStreams) > 0, p.aq, p.atl)
}

func (p *Player) nextFrame(ctx context.Context, media pipeline.MediaType, enabled bool, q *framequeue.Queue[pipeline.MediaFrame], tl *timeline.Timeline) pipeline.MediaFrame {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.life, cancel)
	defer stop()

	if err := p.waitSeek(ctx); err != nil {
		return p.interrupted(media, err)
	}
	if !enabled {
		return pipeline.EmptyFrame(media, pipeline.ReasonDisabled)
	}

	frame, epoch, err := q.GetEpoch(ctx)
	if err != nil {
		return p.interrupted(media, err)
	}

	if p.opts.Sync {
		for {
			waited, err := tl.Wait(ctx, frame.PTS())
			if err == nil {
				p.metrics.Paced(ctx, media.String(), waited)
				break
			}
			switch {
			case errors.Is(err, timeline.ErrLateFrame):
				p.stats.lateDrops.Add(1)
				p.metrics.FrameDropped(ctx, media.String(), pipeline.ReasonLate.String(), 1)
				return pipeline.EmptyFrame(media, pipeline.ReasonLate)
			case errors.Is(err, timeline.ErrRebased):
				if q.Epoch() != epoch {
					return pipeline.EmptyFrame(media, pipeline.ReasonSeek)
				}
			default:
				return p.interrupted(media, err)
			}
		}
	}

	if q.Epoch() != epoch {
		return pipeline.EmptyFrame(media, pipeline.ReasonSeek)
	}
	if p.life.Err() != nil {
		return pipeline.EmptyFrame(media, pipeline.ReasonEndOfStream)
	}
	return frame
}

func (p *Player) interrupted(media pipeline.MediaType, err error) pipeline.MediaFrame {
	if p.life.Err() != nil || errors.Is(err, framequeue.ErrClosed) {
		return pipeline.EmptyFrame(media, pipeline.ReasonEndOfStream)
	}
	return pipeline.EmptyFrame(media, pipeline.ReasonCancelled)
}

// Width returns the width of decoded video frames.
func (p *Player) Width() int {
	if w := p.videoDec.Format().Width; w > 0 {
		return w
	}
	return p.video.Width
}

// Height returns the height of decoded video frames.
func (p *Player) Height() int {
	if h := p.videoDec.Format().Height; h > 0 {
		return h
	}
	return p.video.Height
}

// AspectRatio returns width divided by height, or 0 when the height is unknown.
func (p *Player) AspectRatio() float64 {
	h := p.Height()
	if h == 0 {
		return 0
	}
	return float64(p.Width()) / float64(h)
}

// SampleRate returns the sample rate of decoded audio.
func (p *Player) SampleRate() int {
	f := p.audioFormat.Load()
	if f == nil {
		return DefaultSampleRate
	}
	return f.SampleRate
}

// Channels returns the channel count of decoded audio.
func (p *Player) Channels() int {
	f := p.audioFormat.Load()
	if f == nil {
		return DefaultChannels
	}
	return f.Channels
}

// SampleFormat returns the PCM layout of decoded audio.
func (p *Player) SampleFormat() ports.SampleFormat {
	f := p.audioFormat.Load()
	if f == nil {
		return ports.SampleU8
	}
	return f.SampleFormat
}

// VideoTimeBase returns the video stream's seconds per timestamp unit.
func (p *Player) VideoTimeBase() float64 { return p.video.TimeBase() }

// Stats returns a snapshot of the playback counters.
func (p *Player) Stats() Stats {
	return Stats{
		State:        p.State(),
		VideoQueued:  p.vq.Len(),
		AudioQueued:  p.aq.Len(),
		VideoDecoded: p.stats.videoDecoded.Load(),
		AudioDecoded: p.stats.audioDecoded.Load(),
		LateDrops:    p.stats.lateDrops.Load(),
		SeekDrops:    p.stats.seekDrops.Load(),
		DecodeErrors: p.stats.decodeErrors.Load(),
		Seeks:        p.stats.seeks.Load(),
		LastVideoPTS: p.lastVideoPTS.Load(),
	}
}

// cancelPut aborts a put the pump is blocked in, so it notices a pending
// request or a stop without waiting for a consumer.
func (p *Player) cancelPut() {
	p.putMu.Lock()
	if p.putCancel != nil {
		p.putCancel()
	}
	p.putMu.Unlock()
}

// cancelAudioPut aborts a blocked audio put only.
func (p *Player) cancelAudioPut() {
	p.putMu.Lock()
	if p.audioCancel != nil {
		p.audioCancel()
	}
	p.putMu.Unlock()
}

// putScope holds the contexts the pump's queue puts run under.
type putScope struct {
	video context.Context
	audio context.Context
}

// putContexts returns the contexts for the next packet, replacing those
// that were cancelled.
func (p *Player) putContexts(ctx context.Context) putScope {
	p.putMu.Lock()
	defer p.putMu.Unlock()
	if p.putCtx == nil || p.putCtx.Err() != nil {
		p.putCtx, p.putCancel = context.WithCancel(ctx)
		p.audioPut = nil
	}
	if p.audioPut == nil || p.audioPut.Err() != nil {
		p.audioPut, p.audioCancel = context.WithCancel(p.putCtx)
	}
	return putScope{video: p.putCtx, audio: p.audioPut}
}

func (p *Player) finish() {
	p.state.Store(int32(StateStopped))
	p.cancelPut()
	p.vq.Close()
	p.aq.Close()

	if err := p.videoDec.Close(); err != nil {
		p.log.Warn("Failed to close video decoder: %v", err)
	}
	if p.audioDec != nil {
		if err := p.audioDec.Close(); err != nil {
			p.log.Warn("Failed to close audio decoder: %v", err)
		}
	}
	if err := p.container.Close(); err != nil {
		p.log.Warn("Failed to close container: %v", err)
	}
	if p.depthReg != nil {
		p.depthReg.Unregister()
	}

	close(p.done)
	p.log.Info("Playback stopped")
}
