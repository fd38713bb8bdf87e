package aomcodec

import (
	"errors"
	"fmt"

	"github.com/user/mediapump/pkg/adapters/logger"
	"github.com/user/mediapump/pkg/ports"
)

var (
	// ErrUnsupportedCodec is returned by Open for streams that are not AV1.
	ErrUnsupportedCodec = errors.New("aomcodec: unsupported codec")
	// ErrUnavailable is returned when the binary was built without libaom.
	ErrUnavailable = errors.New("aomcodec: built without libaom")
)

// Engine opens AV1 decoders. It implements ports.CodecEngine.
type Engine struct {
	log ports.Logger
}

// New returns an engine. A nil logger discards output.
func New(log ports.Logger) *Engine {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Engine{log: log.WithComponent("aom")}
}

// Open returns a decoder for an AV1 stream.
func (e *Engine) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	if stream.Codec != ports.CodecAV1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
	d, err := newDecoder(stream, e.log)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var _ ports.CodecEngine = (*Engine)(nil)
