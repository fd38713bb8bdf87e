// Package mocks provides mock implementations for testing.
package mocks

import (
	"fmt"
	"io"
	"sync"

	"github.com/user/mediapump/pkg/ports"
)

// Container is an in-memory implementation of ports.Container.
// Packets are returned in slice order.
type Container struct {
	mu      sync.Mutex
	streams []ports.StreamInfo
	packets []ports.Packet
	pos     int

	ReadPacketFunc   func() (ports.Packet, error)
	SeekKeyframeFunc func(stream int, target int64) error
	CloseFunc        func() error

	// Recorded calls for verification
	SeekCalls   []SeekCall
	CloseCalled bool
}

// SeekCall records a call to SeekKeyframe.
type SeekCall struct {
	Stream int
	Target int64
}

// NewContainer creates a mock container over the given streams and packets.
func NewContainer(streams []ports.StreamInfo, packets []ports.Packet) *Container {
	return &Container{streams: streams, packets: packets}
}

func (m *Container) Streams() []ports.StreamInfo {
	return m.streams
}

func (m *Container) ReadPacket() (ports.Packet, error) {
	if m.ReadPacketFunc != nil {
		return m.ReadPacketFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.packets) {
		return ports.Packet{}, io.EOF
	}
	pkt := m.packets[m.pos]
	m.pos++
	return pkt, nil
}

// SeekKeyframe records the call and repositions the container with
// Reposition unless SeekKeyframeFunc is set.
func (m *Container) SeekKeyframe(stream int, target int64) error {
	m.mu.Lock()
	m.SeekCalls = append(m.SeekCalls, SeekCall{Stream: stream, Target: target})
	m.mu.Unlock()

	if m.SeekKeyframeFunc != nil {
		return m.SeekKeyframeFunc(stream, target)
	}
	return m.Reposition(stream, target)
}

// Reposition moves to the last keyframe of stream whose PTS is at or before
// target, or to the first keyframe of the stream when none precedes it.
func (m *Container) Reposition(stream int, target int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := -1
	for i, p := range m.packets {
		if p.StreamIndex != stream || !p.Keyframe {
			continue
		}
		if p.PTS <= target || found < 0 {
			found = i
		}
		if p.PTS > target {
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("mock container: no keyframe in stream %d", stream)
	}
	m.pos = found
	return nil
}

func (m *Container) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Position returns the index of the next packet to be read.
func (m *Container) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// Seeks returns a copy of the recorded SeekKeyframe calls.
func (m *Container) Seeks() []SeekCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeekCall(nil), m.SeekCalls...)
}

// Closed reports whether Close was called.
func (m *Container) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalled
}

var _ ports.Container = (*Container)(nil)
