package ffmpegcodec

import (
	"bytes"
	"sort"
)

var startCode = []byte{0, 0, 0, 1}

// avccToAnnexB converts AVCC format (length-prefixed NALUs) to Annex B format (start code prefixed)
func avccToAnnexB(data []byte) []byte {
	result := make([]byte, 0, len(data)+16)
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}

		result = append(result, startCode...)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}

// isAnnexB reports whether data already starts with a four-byte start code.
// The three-byte form is not accepted because it is also a valid AVCC length
// prefix.
func isAnnexB(data []byte) bool {
	return bytes.HasPrefix(data, startCode)
}

// parameterSets joins SPS and PPS NAL units into an Annex B prefix for keyframes.
func parameterSets(sps, pps [][]byte) []byte {
	var out []byte
	for _, nalu := range sps {
		out = append(out, startCode...)
		out = append(out, nalu...)
	}
	for _, nalu := range pps {
		out = append(out, startCode...)
		out = append(out, nalu...)
	}
	return out
}

// ptsQueue holds the timestamps of packets ffmpeg has not produced a picture
// for yet. Pictures come out in presentation order, so each one takes the
// smallest pending timestamp.
type ptsQueue struct {
	pts []int64
}

func (q *ptsQueue) push(pts int64) {
	i := sort.Search(len(q.pts), func(i int) bool { return q.pts[i] > pts })
	q.pts = append(q.pts, 0)
	copy(q.pts[i+1:], q.pts[i:])
	q.pts[i] = pts
}

func (q *ptsQueue) pop() (int64, bool) {
	if len(q.pts) == 0 {
		return 0, false
	}
	pts := q.pts[0]
	q.pts = q.pts[1:]
	return pts, true
}

func (q *ptsQueue) len() int { return len(q.pts) }

func (q *ptsQueue) reset() { q.pts = nil }
