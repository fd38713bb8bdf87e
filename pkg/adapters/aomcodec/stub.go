//go:build noaom

// Package aomcodec decodes AV1 video in-process with libaom.
//
// This build leaves libaom out; Open returns ErrUnavailable.
package aomcodec

import "github.com/user/mediapump/pkg/ports"

// Available reports whether libaom is linked into the binary.
func Available() bool { return false }

func newDecoder(ports.StreamInfo, ports.Logger) (ports.Decoder, error) {
	return nil, ErrUnavailable
}
