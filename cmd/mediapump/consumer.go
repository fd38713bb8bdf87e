package main

import (
	"context"

	"github.com/user/mediapump/pkg/pipeline"
)

// tally counts what a headless consumer received.
type tally struct {
	Frames   int
	Bytes    int64
	Late     int
	FirstPTS int64
	LastPTS  int64
	Disabled bool
}

// consume pulls frames from next until the stream ends, the media type turns
// out to be disabled, or ctx is cancelled.
func consume(ctx context.Context, next func(context.Context) pipeline.MediaFrame) tally {
	t := tally{FirstPTS: -1, LastPTS: -1}
	for {
		f := next(ctx)
		switch f.Reason() {
		case pipeline.ReasonNone:
			if t.Frames == 0 {
				t.FirstPTS = f.PTS()
			}
			t.Frames++
			t.Bytes += int64(f.Len())
			t.LastPTS = f.PTS()
		case pipeline.ReasonLate:
			t.Late++
		case pipeline.ReasonSeek:
			// stale frame, keep pulling
		case pipeline.ReasonDisabled:
			t.Disabled = true
			return t
		default:
			return t
		}
	}
}
