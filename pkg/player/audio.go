package player

import (
	"fmt"

	"github.com/user/mediapump/pkg/pipeline"
)

// AudioStreams returns the container indexes of the audio streams, in the
// order SelectAudioStream counts them.
func (p *Player) AudioStreams() []int {
	out := make([]int, len(p.audioStreams))
	for i, s := range p.audioStreams {
		out[i] = s.Index
	}
	return out
}

// CurrentAudioStream returns the position of the playing audio stream, or
// -1 when the container has none.
func (p *Player) CurrentAudioStream() int {
	return int(p.audioSel.Load())
}

// SelectAudioStream switches playback to the audio stream at position i of
// AudioStreams. The pump reopens the decoder before the next packet and
// discards buffered audio; video is not interrupted.
func (p *Player) SelectAudioStream(i int) error {
	if i < 0 || i >= len(p.audioStreams) {
		return fmt.Errorf("%w: audio stream %d of %d", ErrStreamNotFound, i, len(p.audioStreams))
	}
	p.switchReq.Store(int32(i + 1))
	p.cancelAudioPut()
	return nil
}

// NextAudioStream selects the following audio stream, wrapping to the first.
func (p *Player) NextAudioStream() error {
	n := len(p.audioStreams)
	if n == 0 {
		return ErrStreamNotFound
	}
	return p.SelectAudioStream((p.requestedAudioStream() + 1) % n)
}

// PreviousAudioStream selects the preceding audio stream, wrapping to the last.
func (p *Player) PreviousAudioStream() error {
	n := len(p.audioStreams)
	if n == 0 {
		return ErrStreamNotFound
	}
	return p.SelectAudioStream((p.requestedAudioStream() + n - 1) % n)
}

// requestedAudioStream is the pending selection if there is one, otherwise
// the current stream.
func (p *Player) requestedAudioStream() int {
	if n := p.switchReq.Load(); n != 0 {
		return int(n - 1)
	}
	return p.CurrentAudioStream()
}

// switchAudio runs on the pump goroutine. The audio timeline is rebound to
// the video clock so both streams keep sharing one origin and offset.
func (p *Player) switchAudio(i int) {
	if i == p.CurrentAudioStream() {
		return
	}
	info := p.audioStreams[i]

	dec, err := p.engine.Open(info)
	if err != nil {
		p.log.Warn("Failed to open audio stream %d, keeping stream %d: %v", info.Index, p.audio.Index, err)
		return
	}
	if p.audioDec != nil {
		if err := p.audioDec.Close(); err != nil {
			p.log.Warn("Failed to close audio decoder: %v", err)
		}
	}

	p.audio = info
	p.audioDec = dec
	format := dec.Format()
	p.audioFormat.Store(&format)

	n := p.aq.Clear()
	p.metrics.FrameDropped(p.life, pipeline.MediaAudio.String(), "switch", n)

	offset := p.vtl.Offset()
	p.atl.SetTimeBase(info.TimeBaseNum, info.TimeBaseDen)
	p.atl.Rebase(p.vtl.Start())
	p.atl.AddOffset(offset)
	p.audioSel.Store(int32(i))

	p.log.Info("Switched to %s audio stream %d", info.Codec, info.Index)
}
