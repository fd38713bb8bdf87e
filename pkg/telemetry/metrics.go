// Package telemetry holds the OpenTelemetry instruments recorded by the
// decode pump and the playback facade.
//
// Tests should build a Metrics with NewMetrics over an sdkmetric provider
// backed by a ManualReader. Production code gets the global provider through
// InitProvider, which also serves the values to Prometheus.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope for every mediapump instrument.
const meterName = "github.com/user/mediapump"

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	meter metric.Meter

	// FramesDecoded counts frames pushed into a queue. Attribute: media.
	FramesDecoded metric.Int64Counter

	// FramesDropped counts frames that never reached a consumer.
	// Attributes: media, reason ("late", "seek", "switch").
	FramesDropped metric.Int64Counter

	// DecodeErrors counts packets the decoder rejected. Attribute: media.
	DecodeErrors metric.Int64Counter

	// Seeks counts completed seek operations.
	Seeks metric.Int64Counter

	// PaceWait tracks how long consumers slept before presenting a frame.
	PaceWait metric.Float64Histogram

	// QueueDepth reports buffered frames per queue. Observed through a
	// callback registered with RegisterQueueDepth.
	QueueDepth metric.Int64ObservableGauge
}

// waitBuckets are histogram boundaries in seconds, spread around typical
// frame intervals.
var waitBuckets = []float64{
	0.001, 0.005, 0.01, 0.02, 0.04, 0.08, 0.16, 0.32, 0.64, 1.28,
}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.FramesDecoded, err = m.Int64Counter("mediapump.frames.decoded",
		metric.WithDescription("Decoded frames delivered to a frame queue."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("mediapump.frames.dropped",
		metric.WithDescription("Frames discarded before presentation, by media and reason."),
	); err != nil {
		return nil, err
	}
	if met.DecodeErrors, err = m.Int64Counter("mediapump.decode.errors",
		metric.WithDescription("Packets that failed to decode."),
	); err != nil {
		return nil, err
	}
	if met.Seeks, err = m.Int64Counter("mediapump.seeks",
		metric.WithDescription("Completed seek operations."),
	); err != nil {
		return nil, err
	}
	if met.PaceWait, err = m.Float64Histogram("mediapump.pace.wait",
		metric.WithDescription("Time a consumer waited for a frame deadline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(waitBuckets...),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64ObservableGauge("mediapump.queue.depth",
		metric.WithDescription("Frames buffered in a frame queue."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		// The noop provider never fails.
		panic(err)
	}
	return met
}

// RegisterQueueDepth observes the depth reported by depth for each media
// type on every collection. Unregister the returned registration when the
// queues go away.
func (m *Metrics) RegisterQueueDepth(depth func() (video, audio int)) (metric.Registration, error) {
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		v, a := depth()
		o.ObserveInt64(m.QueueDepth, int64(v), metric.WithAttributes(MediaAttr("video")))
		o.ObserveInt64(m.QueueDepth, int64(a), metric.WithAttributes(MediaAttr("audio")))
		return nil
	}, m.QueueDepth)
}

// FrameDecoded records one frame delivered to the queue of media.
func (m *Metrics) FrameDecoded(ctx context.Context, media string) {
	m.FramesDecoded.Add(ctx, 1, metric.WithAttributes(MediaAttr(media)))
}

// FrameDropped records n frames of media dropped for reason.
func (m *Metrics) FrameDropped(ctx context.Context, media, reason string, n int) {
	if n <= 0 {
		return
	}
	m.FramesDropped.Add(ctx, int64(n), metric.WithAttributes(
		MediaAttr(media),
		attribute.String("reason", reason),
	))
}

// DecodeError records a rejected packet of media.
func (m *Metrics) DecodeError(ctx context.Context, media string) {
	m.DecodeErrors.Add(ctx, 1, metric.WithAttributes(MediaAttr(media)))
}

// Seek records a completed seek.
func (m *Metrics) Seek(ctx context.Context) {
	m.Seeks.Add(ctx, 1)
}

// Paced records the time a consumer slept before presenting a frame.
func (m *Metrics) Paced(ctx context.Context, media string, d time.Duration) {
	m.PaceWait.Record(ctx, d.Seconds(), metric.WithAttributes(MediaAttr(media)))
}

// MediaAttr returns the "media" attribute.
func MediaAttr(media string) attribute.KeyValue {
	return attribute.String("media", media)
}
