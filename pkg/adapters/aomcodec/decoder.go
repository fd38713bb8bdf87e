//go:build !noaom

// Package aomcodec decodes AV1 video in-process with libaom.
//
// Build with -tags noaom to leave libaom out; Open then returns
// ErrUnavailable.
package aomcodec

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}

static int is_i420(aom_image_t *img) {
    return img->fmt == AOM_IMG_FMT_I420;
}
*/
import "C"

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/user/mediapump/pkg/ports"
)

// Available reports whether libaom is linked into the binary.
func Available() bool { return true }

// decoder keeps one libaom context per stream. AV1 shows at most one frame
// per temporal unit, so output frames take the PTS of the packet that
// produced them.
type decoder struct {
	codec *C.aom_codec_ctx_t
	// format is read from consumer goroutines while the pump decodes.
	format  atomic.Pointer[ports.OutputFormat]
	log     ports.Logger
	lastPTS int64
}

func newDecoder(stream ports.StreamInfo, log ports.Logger) (*decoder, error) {
	d := &decoder{log: log}
	d.format.Store(&ports.OutputFormat{Width: stream.Width, Height: stream.Height})
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *decoder) init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("aomcodec: failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("aomcodec: failed to initialize decoder: %d", res)
	}
	return nil
}

func (d *decoder) destroy() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
}

func (d *decoder) Decode(pkt ports.Packet) ([]ports.RawFrame, error) {
	if d.codec == nil {
		return nil, fmt.Errorf("aomcodec: decoder closed")
	}
	if len(pkt.Data) == 0 {
		return nil, fmt.Errorf("%w: empty AV1 packet", ports.ErrDecode)
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: aom_codec_decode returned %d", ports.ErrDecode, res)
	}
	d.lastPTS = pkt.PTS
	return d.collect(pkt.PTS)
}

// collect converts every frame libaom has ready.
func (d *decoder) collect(pts int64) ([]ports.RawFrame, error) {
	var frames []ports.RawFrame
	var iter C.aom_codec_iter_t
	for {
		img := C.aom_codec_get_frame(d.codec, &iter)
		if img == nil {
			return frames, nil
		}
		if C.is_i420(img) == 0 {
			return frames, fmt.Errorf("%w: only 8-bit 4:2:0 AV1 is supported", ports.ErrDecode)
		}
		frames = append(frames, ports.RawFrame{Data: d.toRGB(img), PTS: pts})
	}
}

// toRGB converts an I420 image to packed RGB24 with BT.601 limited-range
// coefficients.
func (d *decoder) toRGB(img *C.aom_image_t) []byte {
	width := int(C.get_width(img))
	height := int(C.get_height(img))
	d.setSize(width, height)

	yStride := int(C.get_stride(img, 0))
	uStride := int(C.get_stride(img, 1))
	vStride := int(C.get_stride(img, 2))
	chromaH := (height + 1) / 2

	yPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(img, 0))), yStride*height)
	uPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(img, 1))), uStride*chromaH)
	vPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(img, 2))), vStride*chromaH)

	return yuv420ToRGB(yPlane, uPlane, vPlane, yStride, uStride, vStride, width, height)
}

func (d *decoder) Drain() ([]ports.RawFrame, error) {
	if d.codec == nil {
		return nil, nil
	}
	if res := C.aom_codec_decode(d.codec, nil, 0, nil); res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("aomcodec: flush returned %d", res)
	}
	return d.collect(d.lastPTS)
}

// Flush recreates the context; libaom has no call to drop queued frames.
func (d *decoder) Flush() error {
	d.destroy()
	return d.init()
}

// setSize publishes a new frame size when it differs from the current one.
func (d *decoder) setSize(width, height int) {
	cur := d.format.Load()
	if width == cur.Width && height == cur.Height {
		return
	}
	d.log.Debug("AV1 frame size changed to %dx%d", width, height)
	next := *cur
	next.Width, next.Height = width, height
	d.format.Store(&next)
}

func (d *decoder) Format() ports.OutputFormat { return *d.format.Load() }

func (d *decoder) Close() error {
	d.destroy()
	return nil
}
