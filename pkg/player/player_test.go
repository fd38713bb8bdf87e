package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/user/mediapump/pkg/mocks"
	"github.com/user/mediapump/pkg/pipeline"
	"github.com/user/mediapump/pkg/ports"
)

func videoStream() ports.StreamInfo {
	return ports.StreamInfo{
		Index:       0,
		Media:       ports.MediaVideo,
		Codec:       ports.CodecH264,
		TimeBaseNum: 1,
		TimeBaseDen: 1000,
		Width:       320,
		Height:      240,
	}
}

func audioStream(index int) ports.StreamInfo {
	return ports.StreamInfo{
		Index:       index,
		Media:       ports.MediaAudio,
		Codec:       ports.CodecAAC,
		TimeBaseNum: 1,
		TimeBaseDen: 48000,
		SampleRate:  48000,
		Channels:    2,
	}
}

// videoPackets returns n video packets step milliseconds apart with a
// keyframe every gop packets.
func videoPackets(n int, step int64, gop int) []ports.Packet {
	pkts := make([]ports.Packet, n)
	for i := range pkts {
		pts := int64(i) * step
		pkts[i] = ports.Packet{
			StreamIndex: 0,
			Data:        []byte(fmt.Sprintf("v%d", pts)),
			PTS:         pts,
			DTS:         pts,
			Keyframe:    i%gop == 0,
		}
	}
	return pkts
}

func syncOff() Options {
	opts := DefaultOptions()
	opts.Sync = false
	return opts
}

func newPlayer(t *testing.T, c *mocks.Container, engine *mocks.CodecEngine, opts Options) (*Player, *mocks.Logger) {
	t.Helper()
	log := mocks.NewLogger()
	p, err := New(c, engine, opts, log, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, log
}

// runPlayer starts the pump and stops it when the test ends.
func runPlayer(t *testing.T, p *Player) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()
	t.Cleanup(func() {
		p.Stop()
		<-p.Done()
	})
	return errCh
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNew_NoVideoStream(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{audioStream(0)}, nil)
	_, err := New(c, mocks.NewCodecEngine(), DefaultOptions(), mocks.NewLogger(), nil)
	if !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestNew_CodecOpenFailure(t *testing.T) {
	cause := errors.New("no decoder for h264")
	engine := mocks.NewCodecEngine()
	engine.OpenFunc = func(s ports.StreamInfo) (ports.Decoder, error) {
		return nil, cause
	}

	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	_, err := New(c, engine, DefaultOptions(), mocks.NewLogger(), nil)
	if !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected the cause to be wrapped, got %v", err)
	}
}

func TestNew_AudioOpenFailureClosesVideoDecoder(t *testing.T) {
	videoDec := mocks.NewDecoder(ports.OutputFormat{Width: 320, Height: 240})
	engine := mocks.NewCodecEngine()
	engine.OpenFunc = func(s ports.StreamInfo) (ports.Decoder, error) {
		if s.Media == ports.MediaAudio {
			return nil, errors.New("unsupported")
		}
		return videoDec, nil
	}

	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1)}, nil)
	_, err := New(c, engine, DefaultOptions(), mocks.NewLogger(), nil)
	if !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}
	if !videoDec.Closed() {
		t.Error("video decoder should be closed when audio fails to open")
	}
}

func TestPlayer_FormatWithoutAudio(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), DefaultOptions())
	defer p.Stop()

	if p.Width() != 320 || p.Height() != 240 {
		t.Errorf("size = %dx%d, want 320x240", p.Width(), p.Height())
	}
	if p.SampleRate() != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", p.SampleRate(), DefaultSampleRate)
	}
	if p.Channels() != DefaultChannels {
		t.Errorf("channels = %d, want %d", p.Channels(), DefaultChannels)
	}
	if got := p.AspectRatio(); got < 1.333 || got > 1.334 {
		t.Errorf("aspect ratio = %v, want 4:3", got)
	}
	if p.CurrentAudioStream() != -1 {
		t.Errorf("expected no audio stream, got %d", p.CurrentAudioStream())
	}
	if f := p.GetAudioFrame(context.Background()); f.Reason() != pipeline.ReasonDisabled {
		t.Errorf("expected disabled audio, got %v", f.Reason())
	}
}

func TestPlayer_DeliversFramesInOrder(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(20, 40, 5))
	engine := mocks.NewCodecEngine()
	opts := syncOff()
	opts.QueueCapacity = 4
	p, _ := newPlayer(t, c, engine, opts)
	errCh := runPlayer(t, p)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		f := p.GetVideoFrame(ctx)
		if f.Empty() {
			t.Fatalf("frame %d: unexpected empty frame (%v)", i, f.Reason())
		}
		if want := int64(i) * 40; f.PTS() != want {
			t.Fatalf("frame %d: pts = %d, want %d", i, f.PTS(), want)
		}
		if string(f.Payload()) != fmt.Sprintf("v%d", i*40) {
			t.Errorf("frame %d: payload %q", i, f.Payload())
		}
	}

	if f := p.GetVideoFrame(ctx); f.Reason() != pipeline.ReasonEndOfStream {
		t.Errorf("expected end of stream, got %v", f.Reason())
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return at end of input")
	}

	<-p.Done()
	if p.State() != StateStopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
	if !c.Closed() {
		t.Error("container not closed")
	}
	if !engine.Decoder(0).Closed() {
		t.Error("video decoder not closed")
	}
	if got := p.Stats().VideoDecoded; got != 20 {
		t.Errorf("video decoded = %d, want 20", got)
	}
}

func TestPlayer_DecodeDisabled(t *testing.T) {
	pkts := []ports.Packet{
		{StreamIndex: 0, PTS: 0, Keyframe: true, Data: []byte{1}},
		{StreamIndex: 1, PTS: 0, Data: []byte{2}},
		{StreamIndex: 1, PTS: 1024, Data: []byte{3}},
	}
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1)}, pkts)
	engine := mocks.NewCodecEngine()
	opts := syncOff()
	opts.DecodeAudio = false
	p, _ := newPlayer(t, c, engine, opts)
	runPlayer(t, p)

	if f := p.GetAudioFrame(context.Background()); f.Reason() != pipeline.ReasonDisabled {
		t.Errorf("expected disabled audio frame, got %v", f.Reason())
	}
	<-p.Done()
	if n := engine.Decoder(1).Decoded(); n != 0 {
		t.Errorf("audio decoder saw %d packets, want 0", n)
	}
}

func TestPlayer_SkipsUnselectedAudioStreams(t *testing.T) {
	pkts := []ports.Packet{
		{StreamIndex: 0, PTS: 0, Keyframe: true},
		{StreamIndex: 1, PTS: 0, Data: []byte("a1")},
		{StreamIndex: 2, PTS: 0, Data: []byte("a2")},
		{StreamIndex: 1, PTS: 1024, Data: []byte("a1")},
		{StreamIndex: 2, PTS: 1024, Data: []byte("a2")},
	}
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), audioStream(2)}, pkts)
	engine := mocks.NewCodecEngine()
	opts := syncOff()
	opts.AudioStream = 1
	p, _ := newPlayer(t, c, engine, opts)
	runPlayer(t, p)
	<-p.Done()

	if engine.Decoder(1) != nil {
		t.Error("unselected audio stream should not be opened")
	}
	if n := engine.Decoder(2).Decoded(); n != 2 {
		t.Errorf("selected audio decoder saw %d packets, want 2", n)
	}
	for i := 0; i < 2; i++ {
		f := p.GetAudioFrame(context.Background())
		if string(f.Payload()) != "a2" {
			t.Errorf("audio frame %d: payload %q, want a2", i, f.Payload())
		}
	}
}

func TestPlayer_AudioDecodeErrorContinues(t *testing.T) {
	audioDec := mocks.NewDecoder(ports.OutputFormat{SampleRate: 48000, Channels: 2, SampleFormat: ports.SampleS16})
	audioDec.DecodeFunc = func(pkt ports.Packet) ([]ports.RawFrame, error) {
		if pkt.PTS == 2048 {
			// Half of the packet decoded before the corrupt part.
			return []ports.RawFrame{{Data: []byte("partial"), PTS: pkt.PTS}}, fmt.Errorf("%w: corrupt frame", ports.ErrDecode)
		}
		return []ports.RawFrame{{Data: pkt.Data, PTS: pkt.PTS}}, nil
	}
	engine := mocks.NewCodecEngine()
	engine.OpenFunc = func(s ports.StreamInfo) (ports.Decoder, error) {
		if s.Media == ports.MediaAudio {
			return audioDec, nil
		}
		return mocks.NewDecoder(ports.OutputFormat{Width: s.Width, Height: s.Height}), nil
	}

	var pkts []ports.Packet
	for i := int64(0); i < 5; i++ {
		pkts = append(pkts,
			ports.Packet{StreamIndex: 0, PTS: i * 40, Keyframe: true},
			ports.Packet{StreamIndex: 1, PTS: i * 1024, Data: []byte("pcm")},
		)
	}
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1)}, pkts)
	p, log := newPlayer(t, c, engine, syncOff())
	runPlayer(t, p)

	var got []string
	for {
		f := p.GetAudioFrame(context.Background())
		if f.Empty() {
			break
		}
		got = append(got, string(f.Payload()))
	}

	want := []string{"pcm", "pcm", "partial", "pcm", "pcm"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("audio frames = %v, want %v", got, want)
	}
	if n := p.Stats().DecodeErrors; n != 1 {
		t.Errorf("decode errors = %d, want 1", n)
	}

	warnings := log.Entries(ports.LevelWarn)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "audio packet at pts 2048") {
		t.Errorf("expected one decode warning, got %+v", warnings)
	}
}

func TestPlayer_DrainAtEndOfInput(t *testing.T) {
	videoDec := mocks.NewDecoder(ports.OutputFormat{Width: 320, Height: 240})
	videoDec.DrainFunc = func() ([]ports.RawFrame, error) {
		return []ports.RawFrame{{Data: []byte("d1"), PTS: 120}, {Data: []byte("d2"), PTS: 160}}, nil
	}
	engine := mocks.NewCodecEngine()
	engine.OpenFunc = func(s ports.StreamInfo) (ports.Decoder, error) { return videoDec, nil }

	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(3, 40, 1))
	p, _ := newPlayer(t, c, engine, syncOff())
	runPlayer(t, p)

	var pts []int64
	for {
		f := p.GetVideoFrame(context.Background())
		if f.Empty() {
			break
		}
		pts = append(pts, f.PTS())
	}

	want := []int64{0, 40, 80, 120, 160}
	if fmt.Sprint(pts) != fmt.Sprint(want) {
		t.Errorf("pts = %v, want %v", pts, want)
	}
}

func TestPlayer_ReadErrorStopsPump(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	readErr := errors.New("truncated file")
	c.ReadPacketFunc = func() (ports.Packet, error) { return ports.Packet{}, readErr }
	p, log := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())

	err := p.Run(context.Background())
	if !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
	if p.State() != StateStopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
	if len(log.Entries(ports.LevelError)) == 0 {
		t.Error("expected the read error to be logged")
	}
}

func TestPlayer_RunTwice(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestPlayer_StopBeforeRun(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(5, 40, 1))
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())

	p.Stop()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Stop")
	}
	if !c.Closed() {
		t.Error("container not closed")
	}
	if err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestPlayer_StopUnblocksProducerAndConsumers(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1)}, videoPackets(100, 40, 5))
	engine := mocks.NewCodecEngine()
	opts := syncOff()
	opts.QueueCapacity = 2
	p, _ := newPlayer(t, c, engine, opts)
	errCh := runPlayer(t, p)

	// No audio packets: this consumer blocks until Stop.
	audio := make(chan pipeline.MediaFrame, 1)
	go func() { audio <- p.GetAudioFrame(context.Background()) }()

	waitFor(t, "full video queue", func() bool { return p.Stats().VideoQueued == 2 })
	p.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run after Stop: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
	select {
	case f := <-audio:
		if f.Reason() != pipeline.ReasonEndOfStream {
			t.Errorf("audio consumer got %v, want eos", f.Reason())
		}
	case <-time.After(time.Second):
		t.Fatal("audio consumer did not return after Stop")
	}

	if f := p.GetVideoFrame(context.Background()); f.Reason() != pipeline.ReasonEndOfStream {
		t.Errorf("video after stop: %v, want eos", f.Reason())
	}
	if !engine.Decoder(0).Closed() || !engine.Decoder(1).Closed() {
		t.Error("decoders not closed")
	}
}

func TestPlayer_ContextCancelEndsRun(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(100, 40, 5))
	opts := syncOff()
	opts.QueueCapacity = 1
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPlayer_ConsumerContextCancel(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if f := p.GetVideoFrame(ctx); f.Reason() != pipeline.ReasonCancelled {
		t.Errorf("expected cancelled, got %v", f.Reason())
	}
}

func TestPlayer_LateFrameDropped(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(2, 1, 1))
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), DefaultOptions())
	runPlayer(t, p)

	waitFor(t, "decoded frames", func() bool { return p.Stats().VideoDecoded == 2 })
	time.Sleep(300 * time.Millisecond)

	if f := p.GetVideoFrame(context.Background()); f.Reason() != pipeline.ReasonLate {
		t.Errorf("expected late frame, got %v", f.Reason())
	}
	if n := p.Stats().LateDrops; n != 1 {
		t.Errorf("late drops = %d, want 1", n)
	}
}

func TestPlayer_PacesFrames(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, videoPackets(3, 60, 1))
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), DefaultOptions())

	start := time.Now()
	runPlayer(t, p)

	for i := 0; i < 3; i++ {
		f := p.GetVideoFrame(context.Background())
		if f.Empty() {
			t.Fatalf("frame %d: unexpected empty frame (%v)", i, f.Reason())
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three frames 60ms apart were delivered in %v", elapsed)
	}
}

func TestPlayer_SelectAudioStreamRange(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), audioStream(3), audioStream(4)}, nil)
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())
	defer p.Stop()

	if got := fmt.Sprint(p.AudioStreams()); got != "[1 3 4]" {
		t.Errorf("audio streams = %s, want [1 3 4]", got)
	}
	if err := p.SelectAudioStream(3); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}

	steps := []struct {
		next bool
		want int
	}{
		{true, 1},
		{true, 2},
		{true, 0},
		{false, 2},
		{false, 1},
	}
	for i, s := range steps {
		var err error
		if s.next {
			err = p.NextAudioStream()
		} else {
			err = p.PreviousAudioStream()
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := p.requestedAudioStream(); got != s.want {
			t.Errorf("step %d: requested %d, want %d", i, got, s.want)
		}
	}
}

func TestPlayer_NextAudioStreamWithoutAudio(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream()}, nil)
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), syncOff())
	defer p.Stop()

	if err := p.NextAudioStream(); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestPlayer_SwitchAudioClearsOnlyAudio(t *testing.T) {
	second := audioStream(2)
	second.SampleRate = 44100
	second.TimeBaseDen = 44100
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), second}, nil)
	engine := mocks.NewCodecEngine()
	p, _ := newPlayer(t, c, engine, syncOff())
	defer p.Stop()

	p.vtl.SetStartNow()
	p.atl.SetStart(p.vtl.Start())
	p.vtl.AddOffset(2 * time.Second)
	p.atl.AddOffset(2 * time.Second)

	p.vq.TryPut(pipeline.NewMediaFrame(pipeline.MediaVideo, []byte{1}, 0))
	p.aq.TryPut(pipeline.NewMediaFrame(pipeline.MediaAudio, []byte{2}, 0))

	p.switchAudio(1)

	if p.vq.Len() != 1 {
		t.Errorf("video queue len = %d, want 1", p.vq.Len())
	}
	if p.aq.Len() != 0 {
		t.Errorf("audio queue len = %d, want 0", p.aq.Len())
	}
	if p.CurrentAudioStream() != 1 {
		t.Errorf("current audio stream = %d, want 1", p.CurrentAudioStream())
	}
	if p.SampleRate() != 44100 {
		t.Errorf("sample rate = %d, want 44100", p.SampleRate())
	}
	if !engine.Decoder(1).Closed() {
		t.Error("previous audio decoder not closed")
	}
	if !p.atl.Start().Equal(p.vtl.Start()) {
		t.Error("audio timeline not bound to the video origin")
	}
	diff := p.atl.Offset() - p.vtl.Offset()
	if diff > time.Millisecond || diff < -time.Millisecond {
		t.Errorf("audio offset %v differs from video offset %v", p.atl.Offset(), p.vtl.Offset())
	}
}

func TestPlayer_SwitchAudioWhileRunning(t *testing.T) {
	pkts := []ports.Packet{{StreamIndex: 0, PTS: 0, Keyframe: true}}
	for i := int64(0); i < 3; i++ {
		pkts = append(pkts,
			ports.Packet{StreamIndex: 1, PTS: i * 1024, Data: []byte("first")},
			ports.Packet{StreamIndex: 2, PTS: i * 1024, Data: []byte("second")},
		)
	}
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), audioStream(2)}, pkts)
	engine := mocks.NewCodecEngine()
	p, _ := newPlayer(t, c, engine, syncOff())

	if err := p.SelectAudioStream(1); err != nil {
		t.Fatalf("SelectAudioStream: %v", err)
	}
	runPlayer(t, p)
	<-p.Done()

	if n := engine.Decoder(1).Decoded(); n != 0 {
		t.Errorf("first audio stream decoded %d packets after switch", n)
	}
	if n := engine.Decoder(2).Decoded(); n != 3 {
		t.Errorf("second audio stream decoded %d packets, want 3", n)
	}
}

func TestPlayer_SwitchAudioKeepsBlockedVideoFrame(t *testing.T) {
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), audioStream(2)}, videoPackets(6, 1000, 1))
	opts := syncOff()
	opts.QueueCapacity = 2
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), opts)
	runPlayer(t, p)

	waitFor(t, "full video queue", func() bool { return p.Stats().VideoQueued == 2 })
	if err := p.SelectAudioStream(1); err != nil {
		t.Fatalf("SelectAudioStream: %v", err)
	}

	ctx := context.Background()
	var got []int64
	for {
		f := p.GetVideoFrame(ctx)
		if f.Empty() {
			if f.Reason() != pipeline.ReasonEndOfStream {
				t.Fatalf("unexpected empty frame: %v", f.Reason())
			}
			break
		}
		got = append(got, f.PTS())
	}

	want := []int64{0, 1000, 2000, 3000, 4000, 5000}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("video pts = %v, want %v", got, want)
	}
	if p.CurrentAudioStream() != 1 {
		t.Errorf("current audio stream = %d, want 1", p.CurrentAudioStream())
	}
}

func TestPlayer_SwitchAudioAbandonsBlockedAudioPut(t *testing.T) {
	pkts := []ports.Packet{{StreamIndex: 0, PTS: 0, Keyframe: true}}
	for i := int64(0); i < 4; i++ {
		pkts = append(pkts, ports.Packet{StreamIndex: 1, PTS: i * 1024, Data: []byte("first")})
	}
	for i := int64(0); i < 2; i++ {
		pkts = append(pkts, ports.Packet{StreamIndex: 2, PTS: i * 1024, Data: []byte("second")})
	}
	c := mocks.NewContainer([]ports.StreamInfo{videoStream(), audioStream(1), audioStream(2)}, pkts)
	opts := syncOff()
	opts.QueueCapacity = 2
	p, _ := newPlayer(t, c, mocks.NewCodecEngine(), opts)
	runPlayer(t, p)

	waitFor(t, "full audio queue", func() bool { return p.Stats().AudioQueued == 2 })
	if err := p.SelectAudioStream(1); err != nil {
		t.Fatalf("SelectAudioStream: %v", err)
	}
	waitFor(t, "audio switch", func() bool { return p.CurrentAudioStream() == 1 })

	ctx := context.Background()
	n := 0
	for {
		f := p.GetAudioFrame(ctx)
		if f.Empty() {
			break
		}
		if string(f.Payload()) != "second" {
			t.Errorf("audio frame %d from the previous stream: %q", n, f.Payload())
		}
		n++
	}
	if n != 2 {
		t.Errorf("got %d audio frames after the switch, want 2", n)
	}
}
