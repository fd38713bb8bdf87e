package ffmpegcodec

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/Eyevinn/mp4ff/aac"

	"github.com/user/mediapump/pkg/ports"
)

// samplesPerFrame is the number of samples per channel in one audio frame
// handed to the player. It matches the AAC-LC frame length.
const samplesPerFrame = 1024

// audioDecoder decodes one AAC stream to interleaved PCM.
type audioDecoder struct {
	ffmpegPath string
	stream     ports.StreamInfo
	format     ports.OutputFormat
	objectType byte
	log        ports.Logger

	proc     *process
	basePTS  int64
	haveBase bool
	emitted  int64 // samples per channel produced since basePTS
}

func newAudioDecoder(ffmpegPath string, stream ports.StreamInfo, opts Options, log ports.Logger) (*audioDecoder, error) {
	d := &audioDecoder{
		ffmpegPath: ffmpegPath,
		stream:     stream,
		objectType: aac.AAClc,
		log:        log,
		format: ports.OutputFormat{
			SampleRate:   stream.SampleRate,
			Channels:     stream.Channels,
			SampleFormat: opts.SampleFormat,
		},
	}

	if len(stream.Config) > 0 {
		asc, err := aac.DecodeAudioSpecificConfig(bytes.NewReader(stream.Config))
		if err != nil {
			return nil, fmt.Errorf("audio stream %d: decode AudioSpecificConfig: %w", stream.Index, err)
		}
		// HE-AAC signals its core as AAC-LC in ADTS; the SBR layer is implicit.
		if asc.ObjectType >= 1 && asc.ObjectType <= 4 {
			d.objectType = asc.ObjectType
		}
		if d.format.SampleRate == 0 {
			d.format.SampleRate = asc.SamplingFrequency
		}
		if d.format.Channels == 0 {
			d.format.Channels = int(asc.ChannelConfiguration)
		}
	}

	if d.format.SampleRate <= 0 || d.format.Channels <= 0 {
		return nil, fmt.Errorf("audio stream %d: unknown sample rate or channel count", stream.Index)
	}
	return d, nil
}

func (d *audioDecoder) args() []string {
	outFormat := "s16le"
	if d.format.SampleFormat == ports.SampleU8 {
		outFormat = "u8"
	}
	args := baseArgs("aac")
	return append(args,
		"-ac", strconv.Itoa(d.format.Channels),
		"-ar", strconv.Itoa(d.format.SampleRate),
		"-f", outFormat,
		"pipe:1",
	)
}

// frameBytes is the size of one samplesPerFrame block.
func (d *audioDecoder) frameBytes() int {
	return samplesPerFrame * d.sampleBytes()
}

// sampleBytes is the size of one sample across all channels.
func (d *audioDecoder) sampleBytes() int {
	return d.format.Channels * d.format.SampleFormat.BytesPerSample()
}

// adts prefixes an AAC access unit with the ADTS header ffmpeg's aac
// demuxer expects.
func (d *audioDecoder) adts(payload []byte) ([]byte, error) {
	hdr, err := aac.NewADTSHeader(d.format.SampleRate, byte(d.format.Channels), d.objectType, uint16(len(payload)))
	if err != nil {
		return nil, err
	}
	head := hdr.Encode()
	out := make([]byte, 0, len(head)+len(payload))
	out = append(out, head...)
	return append(out, payload...), nil
}

func (d *audioDecoder) Decode(pkt ports.Packet) ([]ports.RawFrame, error) {
	data, err := d.adts(pkt.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}

	if d.proc == nil {
		proc, err := startProcess(d.ffmpegPath, d.args())
		if err != nil {
			return nil, err
		}
		d.proc = proc
		d.log.Debug("Started ffmpeg for %s stream %d", d.stream.Codec, d.stream.Index)
	}
	if !d.haveBase {
		d.basePTS = pkt.PTS
		d.haveBase = true
		d.emitted = 0
	}

	if err := d.proc.write(data); err != nil {
		d.stop()
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	return d.collect(), nil
}

func (d *audioDecoder) collect() []ports.RawFrame {
	var frames []ports.RawFrame
	for {
		pcm := d.proc.take(d.frameBytes())
		if pcm == nil {
			return frames
		}
		frames = append(frames, d.frame(pcm))
	}
}

// frame stamps pcm with the timestamp of its first sample.
func (d *audioDecoder) frame(pcm []byte) ports.RawFrame {
	f := ports.RawFrame{Data: pcm, PTS: d.basePTS + d.samplesToUnits(d.emitted)}
	d.emitted += int64(len(pcm) / d.sampleBytes())
	return f
}

// samplesToUnits converts a sample count to stream time-base units.
func (d *audioDecoder) samplesToUnits(n int64) int64 {
	num, den := int64(d.stream.TimeBaseNum), int64(d.stream.TimeBaseDen)
	if num <= 0 || den <= 0 {
		return n
	}
	return n * den / (num * int64(d.format.SampleRate))
}

func (d *audioDecoder) Drain() ([]ports.RawFrame, error) {
	if d.proc == nil {
		return nil, nil
	}
	err := d.proc.finish()
	frames := d.collect()

	tail := d.proc.rest()
	if whole := len(tail) - len(tail)%d.sampleBytes(); whole > 0 {
		frames = append(frames, d.frame(tail[:whole]))
	}

	d.proc = nil
	d.haveBase = false
	return frames, err
}

func (d *audioDecoder) Flush() error {
	d.stop()
	return nil
}

func (d *audioDecoder) stop() {
	if d.proc != nil {
		d.proc.kill()
		d.proc = nil
	}
	d.haveBase = false
}

func (d *audioDecoder) Format() ports.OutputFormat { return d.format }

func (d *audioDecoder) Close() error {
	d.stop()
	return nil
}
