package player

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/mediapump/pkg/pipeline"
	"github.com/user/mediapump/pkg/telemetry"
)

// seek moves playback by delta relative to the last decoded video frame.
//
// Consumers are held at the seek gate until it returns. By the time it runs,
// the packet being decoded when the request arrived has been abandoned.
func (p *Player) seek(ctx context.Context, delta time.Duration) {
	ctx, span := telemetry.StartSpan(ctx, "mediapump.seek",
		trace.WithAttributes(attribute.Int64("mediapump.seek.delta_ms", delta.Milliseconds())))
	defer span.End()

	p.state.Store(int32(StateSeeking))
	release := p.closeGate()
	defer func() {
		p.state.Store(int32(StateRunning))
		release()
	}()

	from := p.lastVideoPTS.Load()
	target := p.seekTarget(delta)
	span.SetAttributes(attribute.Int64("mediapump.seek.target", target))
	p.seekLog.Info("Seeking %s from pts %d to pts %d", delta, from, target)

	if err := p.container.SeekKeyframe(p.video.Index, target); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seek failed")
		p.seekLog.Warn("Seek to pts %d failed, continuing from current position: %v", target, err)
	}

	if err := p.videoDec.Flush(); err != nil {
		p.seekLog.Warn("Failed to flush video decoder: %v", err)
	}
	if p.audioDec != nil {
		if err := p.audioDec.Flush(); err != nil {
			p.seekLog.Warn("Failed to flush audio decoder: %v", err)
		}
	}

	// Queues are cleared before the timelines move, so a consumer woken from
	// pacing by the change already sees the new epoch.
	dropped := p.vq.Clear()
	p.metrics.FrameDropped(ctx, pipeline.MediaVideo.String(), pipeline.ReasonSeek.String(), dropped)
	n := p.aq.Clear()
	p.metrics.FrameDropped(ctx, pipeline.MediaAudio.String(), pipeline.ReasonSeek.String(), n)
	dropped += n
	p.stats.seekDrops.Add(uint64(dropped))

	if target == 0 {
		p.vtl.Rebase(time.Now())
		p.atl.Rebase(p.vtl.Start())
	} else {
		p.vtl.AddOffset(-delta)
		p.atl.AddOffset(-delta)
	}

	p.stats.seeks.Add(1)
	p.metrics.Seek(ctx)
	p.seekLog.Debug("Seek done, %d buffered frames discarded", dropped)
}

// seekTarget converts delta into video time-base units added to the last
// decoded video timestamp, clamped at the start of the stream.
func (p *Player) seekTarget(delta time.Duration) int64 {
	last := p.lastVideoPTS.Load()
	tb := p.video.TimeBase()
	target := last
	if tb > 0 {
		target += int64(delta.Seconds() / tb)
	}
	if target < 0 {
		target = 0
	}
	return target
}

// closeGate makes consumers block in waitSeek until the returned function
// is called.
func (p *Player) closeGate() func() {
	gate := make(chan struct{})
	p.gateMu.Lock()
	p.gate = gate
	p.gateMu.Unlock()
	return func() { close(gate) }
}

func (p *Player) waitSeek(ctx context.Context) error {
	p.gateMu.Lock()
	gate := p.gate
	p.gateMu.Unlock()

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
