package mocks

import (
	"sync"

	"github.com/user/mediapump/pkg/ports"
)

// CodecEngine is a mock implementation of ports.CodecEngine.
// By default it opens a Decoder that echoes packets back as frames.
type CodecEngine struct {
	mu sync.Mutex

	OpenFunc func(stream ports.StreamInfo) (ports.Decoder, error)

	// Decoders holds the default decoders opened so far, keyed by stream index.
	Decoders  map[int]*Decoder
	OpenCalls []int
}

// NewCodecEngine creates a new mock CodecEngine.
func NewCodecEngine() *CodecEngine {
	return &CodecEngine{Decoders: make(map[int]*Decoder)}
}

func (m *CodecEngine) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	m.mu.Lock()
	m.OpenCalls = append(m.OpenCalls, stream.Index)
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(stream)
	}

	dec := NewDecoder(ports.OutputFormat{
		Width:        stream.Width,
		Height:       stream.Height,
		SampleRate:   stream.SampleRate,
		Channels:     stream.Channels,
		SampleFormat: ports.SampleS16,
	})
	m.mu.Lock()
	if m.Decoders == nil {
		m.Decoders = make(map[int]*Decoder)
	}
	m.Decoders[stream.Index] = dec
	m.mu.Unlock()
	return dec, nil
}

// Decoder returns the default decoder opened for a stream, or nil.
func (m *CodecEngine) Decoder(stream int) *Decoder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Decoders[stream]
}

// Opened returns a copy of the stream indexes passed to Open.
func (m *CodecEngine) Opened() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.OpenCalls...)
}

var _ ports.CodecEngine = (*CodecEngine)(nil)

// Decoder is a mock implementation of ports.Decoder.
// Without hooks, each packet decodes to one frame holding the packet data.
type Decoder struct {
	mu     sync.Mutex
	format ports.OutputFormat

	DecodeFunc func(pkt ports.Packet) ([]ports.RawFrame, error)
	DrainFunc  func() ([]ports.RawFrame, error)
	FlushFunc  func() error

	// Recorded calls for verification
	DecodeCalls []ports.Packet
	FlushCalls  int
	DrainCalls  int
	CloseCalled bool
}

// NewDecoder creates a mock decoder reporting the given format.
func NewDecoder(format ports.OutputFormat) *Decoder {
	return &Decoder{format: format}
}

func (m *Decoder) Decode(pkt ports.Packet) ([]ports.RawFrame, error) {
	m.mu.Lock()
	m.DecodeCalls = append(m.DecodeCalls, pkt)
	m.mu.Unlock()

	if m.DecodeFunc != nil {
		return m.DecodeFunc(pkt)
	}
	data := pkt.Data
	if data == nil {
		data = []byte{}
	}
	return []ports.RawFrame{{Data: data, PTS: pkt.PTS}}, nil
}

func (m *Decoder) Drain() ([]ports.RawFrame, error) {
	m.mu.Lock()
	m.DrainCalls++
	m.mu.Unlock()
	if m.DrainFunc != nil {
		return m.DrainFunc()
	}
	return nil, nil
}

func (m *Decoder) Flush() error {
	m.mu.Lock()
	m.FlushCalls++
	m.mu.Unlock()
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	return nil
}

func (m *Decoder) Format() ports.OutputFormat {
	return m.format
}

func (m *Decoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// Flushes returns how many times Flush was called.
func (m *Decoder) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FlushCalls
}

// Decoded returns how many packets were passed to Decode.
func (m *Decoder) Decoded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DecodeCalls)
}

// Closed reports whether Close was called.
func (m *Decoder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalled
}

var _ ports.Decoder = (*Decoder)(nil)
