package ffmpegcodec

import (
	"fmt"

	"github.com/user/mediapump/pkg/ports"
)

// maxPendingPTS bounds the timestamps kept for pictures ffmpeg has not
// produced. Packets ffmpeg discards as undecodable would otherwise pile up.
const maxPendingPTS = 64

// videoDecoder decodes one H.264 stream to rgb24.
type videoDecoder struct {
	ffmpegPath string
	stream     ports.StreamInfo
	format     ports.OutputFormat
	paramSets  []byte
	log        ports.Logger

	proc      *process
	pending   ptsQueue
	needKey   bool
	lastPTS   int64
	frameSize int
}

func newVideoDecoder(ffmpegPath string, stream ports.StreamInfo, opts Options, log ports.Logger) (*videoDecoder, error) {
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("%w: video stream %d", ErrUnknownFrameSize, stream.Index)
	}
	format := ports.OutputFormat{Width: stream.Width, Height: stream.Height}
	if opts.Width > 0 && opts.Height > 0 {
		format.Width, format.Height = opts.Width, opts.Height
	}
	return &videoDecoder{
		ffmpegPath: ffmpegPath,
		stream:     stream,
		format:     format,
		paramSets:  parameterSets(stream.SPS, stream.PPS),
		log:        log,
		needKey:    true,
		frameSize:  stream.Width * stream.Height * 3,
	}, nil
}

func (d *videoDecoder) args() []string {
	args := baseArgs("h264")
	return append(args,
		"-vsync", "passthrough",
		"-vf", fmt.Sprintf("scale=%d:%d", d.stream.Width, d.stream.Height),
		"-pix_fmt", "rgb24",
		"-f", "rawvideo",
		"pipe:1",
	)
}

func (d *videoDecoder) Decode(pkt ports.Packet) ([]ports.RawFrame, error) {
	// After a (re)start ffmpeg drops everything up to the first keyframe;
	// skipping those packets here keeps the pending timestamps aligned.
	if d.needKey {
		if !pkt.Keyframe {
			return nil, nil
		}
		d.needKey = false
	}

	if d.proc == nil {
		proc, err := startProcess(d.ffmpegPath, d.args())
		if err != nil {
			d.needKey = true
			return nil, err
		}
		d.proc = proc
		d.log.Debug("Started ffmpeg for %s stream %d", d.stream.Codec, d.stream.Index)
	}

	data := pkt.Data
	if !isAnnexB(data) {
		data = avccToAnnexB(data)
	}
	if pkt.Keyframe && len(d.paramSets) > 0 {
		data = append(append(make([]byte, 0, len(d.paramSets)+len(data)), d.paramSets...), data...)
	}

	d.pending.push(pkt.PTS)
	for d.pending.len() > maxPendingPTS {
		d.pending.pop()
	}
	if err := d.proc.write(data); err != nil {
		d.stop()
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	return d.collect(), nil
}

// collect turns every complete picture buffered so far into a frame.
func (d *videoDecoder) collect() []ports.RawFrame {
	var frames []ports.RawFrame
	for {
		pix := d.proc.take(d.frameSize)
		if pix == nil {
			return frames
		}
		pts, ok := d.pending.pop()
		if !ok {
			pts = d.lastPTS + 1
		}
		d.lastPTS = pts
		if d.format.Width != d.stream.Width || d.format.Height != d.stream.Height {
			pix = scaleRGB(pix, d.stream.Width, d.stream.Height, d.format.Width, d.format.Height)
		}
		frames = append(frames, ports.RawFrame{Data: pix, PTS: pts})
	}
}

func (d *videoDecoder) Drain() ([]ports.RawFrame, error) {
	if d.proc == nil {
		return nil, nil
	}
	err := d.proc.finish()
	frames := d.collect()
	if n := len(d.proc.rest()); n > 0 {
		d.log.Debug("Discarded %d bytes of partial picture", n)
	}
	d.proc = nil
	d.pending.reset()
	d.needKey = true
	return frames, err
}

func (d *videoDecoder) Flush() error {
	d.stop()
	return nil
}

func (d *videoDecoder) stop() {
	if d.proc != nil {
		d.proc.kill()
		d.proc = nil
	}
	d.pending.reset()
	d.needKey = true
}

func (d *videoDecoder) Format() ports.OutputFormat { return d.format }

func (d *videoDecoder) Close() error {
	d.stop()
	return nil
}
