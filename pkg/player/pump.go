package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/user/mediapump/pkg/pipeline"
	"github.com/user/mediapump/pkg/ports"
)

// State is the lifecycle state of the decode pump.
type State int32

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota
	// StateRunning means the pump is reading and decoding packets.
	StateRunning
	// StateSeeking means a seek is being applied. Consumers wait it out.
	StateSeeking
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSeeking:
		return "seeking"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// pump is the decode loop. It runs on the goroutine that called Run and is
// the only code that touches the container, the decoders and the timelines
// after construction.
func (p *Player) pump(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return p.stopCause(ctx)
		}

		p.applyPending(ctx)
		// A request made after applyPending cancelled the previous contexts,
		// not these, so it is picked up here before reading on.
		puts := p.putContexts(ctx)
		if p.seekReq.Load() != 0 || p.switchReq.Load() != 0 {
			continue
		}

		pkt, err := p.container.ReadPacket()
		if errors.Is(err, io.EOF) {
			p.pumpLog.Info("End of input")
			p.drain(puts)
			if p.seekReq.Load() != 0 || p.switchReq.Load() != 0 {
				continue
			}
			return nil
		}
		if err != nil {
			p.pumpLog.Error("Failed to read packet: %v", err)
			return fmt.Errorf("read packet: %w", err)
		}

		p.handlePacket(puts, pkt)
	}
}

// stopCause maps a cancelled pump context to Run's result: Stop is a normal
// end, a cancelled caller context is reported.
func (p *Player) stopCause(ctx context.Context) error {
	if p.life.Err() != nil {
		return nil
	}
	return ctx.Err()
}

// applyPending runs requests that arrived since the previous packet. A
// request made while one is being applied stays pending for the next turn.
func (p *Player) applyPending(ctx context.Context) {
	if d := p.seekReq.Swap(0); d != 0 {
		p.seek(ctx, time.Duration(d))
	}
	if n := p.switchReq.Swap(0); n != 0 {
		p.switchAudio(int(n - 1))
	}
}

func (p *Player) handlePacket(puts putScope, pkt ports.Packet) {
	switch {
	case pkt.StreamIndex == p.video.Index:
		if !p.opts.DecodeVideo {
			return
		}
		frames, err := p.videoDec.Decode(pkt)
		if err != nil {
			p.decodeFailed(puts.video, pipeline.MediaVideo, pkt, err)
		}
		p.deliver(puts.video, pipeline.MediaVideo, frames)

	case p.audioDec != nil && pkt.StreamIndex == p.audio.Index:
		if !p.opts.DecodeAudio {
			return
		}
		// Frames decoded before a failure are kept and the rest of the
		// packet is skipped.
		frames, err := p.audioDec.Decode(pkt)
		if err != nil {
			p.decodeFailed(puts.audio, pipeline.MediaAudio, pkt, err)
		}
		p.deliver(puts.audio, pipeline.MediaAudio, frames)

	default:
		p.pumpLog.Debug("Skipping packet of stream %d", pkt.StreamIndex)
	}
}

func (p *Player) decodeFailed(ctx context.Context, media pipeline.MediaType, pkt ports.Packet, err error) {
	p.stats.decodeErrors.Add(1)
	p.metrics.DecodeError(ctx, media.String())
	p.pumpLog.Warn("Failed to decode %s packet at pts %d: %v", media, pkt.PTS, err)
}

// deliver puts frames into the queue of media, blocking while it is full.
// It returns false when a put was abandoned; the remaining frames are stale
// or the pump is stopping, so they are dropped.
func (p *Player) deliver(ctx context.Context, media pipeline.MediaType, frames []ports.RawFrame) bool {
	q := p.vq
	if media == pipeline.MediaAudio {
		q = p.aq
	}

	for i, raw := range frames {
		frame := pipeline.NewMediaFrame(media, raw.Data, raw.PTS)
		if err := q.Put(ctx, frame); err != nil {
			p.pumpLog.Debug("Dropped %d %s frames: %v", len(frames)-i, media, err)
			return false
		}

		p.metrics.FrameDecoded(ctx, media.String())
		if media == pipeline.MediaVideo {
			p.stats.videoDecoded.Add(1)
			p.lastVideoPTS.Store(raw.PTS)
		} else {
			p.stats.audioDecoded.Add(1)
		}
	}
	return true
}

// drain collects the frames the decoders still hold once the input ends.
func (p *Player) drain(puts putScope) {
	if p.opts.DecodeVideo {
		frames, err := p.videoDec.Drain()
		if err != nil {
			p.pumpLog.Warn("Failed to drain video decoder: %v", err)
		}
		if !p.deliver(puts.video, pipeline.MediaVideo, frames) {
			return
		}
	}
	if p.opts.DecodeAudio && p.audioDec != nil {
		frames, err := p.audioDec.Drain()
		if err != nil {
			p.pumpLog.Warn("Failed to drain audio decoder: %v", err)
		}
		p.deliver(puts.audio, pipeline.MediaAudio, frames)
	}
}
