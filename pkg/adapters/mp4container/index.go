package mp4container

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediapump/pkg/ports"
)

func (c *Container) indexProgressive(mp4File *mp4.File) error {
	if mp4File.Moov == nil {
		return fmt.Errorf("no moov box found")
	}

	for _, trak := range mp4File.Moov.Traks {
		t := &track{info: streamInfo(len(c.tracks), trak)}
		if trak.Mdia != nil && trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil {
			samples, err := progressiveSamples(trak.Mdia.Minf.Stbl, t.info.Media)
			if err != nil {
				return fmt.Errorf("track %d: %w", trak.Tkhd.TrackID, err)
			}
			t.samples = samples
		}
		c.tracks = append(c.tracks, t)
	}
	return nil
}

// progressiveSamples walks the sample table once, resolving every sample's
// file offset from its chunk.
func progressiveSamples(stbl *mp4.StblBox, media ports.MediaType) ([]sample, error) {
	if stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsc or stsz box")
	}
	if stbl.Stco == nil && stbl.Co64 == nil {
		return nil, fmt.Errorf("no stco or co64 box")
	}

	// Without stss every sample is a sync sample.
	var syncSamples map[uint32]bool
	if stbl.Stss != nil {
		syncSamples = make(map[uint32]bool, len(stbl.Stss.SampleNumber))
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	samples := make([]sample, 0, count)
	currentChunk := -1
	var offset uint64

	for nr := uint32(1); nr <= count; nr++ {
		chunkNr, _, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return nil, fmt.Errorf("get chunk nr: %w", err)
		}
		if chunkNr != currentChunk {
			offset, err = chunkOffset(stbl, chunkNr)
			if err != nil {
				return nil, err
			}
			currentChunk = chunkNr
		}
		size := stbl.Stsz.GetSampleSize(int(nr))

		var decodeTime uint64
		var dur uint32
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(nr)
		}
		pts := int64(decodeTime)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}

		samples = append(samples, sample{
			offset:   int64(offset),
			size:     size,
			dts:      int64(decodeTime),
			pts:      pts,
			dur:      int64(dur),
			keyframe: media != ports.MediaVideo || syncSamples == nil || syncSamples[nr],
		})
		offset += uint64(size)
	}
	return samples, nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	if stbl.Stco != nil {
		off, err := stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("get chunk offset: %w", err)
		}
		return off, nil
	}
	if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
		return 0, fmt.Errorf("chunk nr %d out of range", chunkNr)
	}
	return stbl.Co64.ChunkOffset[chunkNr-1], nil
}

func (c *Container) indexFragmented(mp4File *mp4.File) error {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return fmt.Errorf("no init segment found")
	}
	moov := mp4File.Init.Moov

	for _, trak := range moov.Traks {
		t := &track{info: streamInfo(len(c.tracks), trak)}
		trackID := trak.Tkhd.TrackID

		trex := &mp4.TrexBox{TrackID: trackID}
		if moov.Mvex != nil {
			for _, candidate := range moov.Mvex.Trexs {
				if candidate.TrackID == trackID {
					trex = candidate
					break
				}
			}
		}

		for _, seg := range mp4File.Segments {
			for _, frag := range seg.Fragments {
				if frag.Moof == nil {
					continue
				}
				full, err := frag.GetFullSamples(trex)
				if err != nil {
					return fmt.Errorf("track %d: get samples: %w", trackID, err)
				}
				for _, fs := range full {
					dts := int64(fs.DecodeTime)
					t.samples = append(t.samples, sample{
						size:     fs.Size,
						data:     fs.Data,
						dts:      dts,
						pts:      dts + int64(fs.CompositionTimeOffset),
						dur:      int64(fs.Dur),
						keyframe: t.info.Media != ports.MediaVideo || fs.Flags&mp4.NonSyncSampleFlags == 0,
					})
				}
			}
		}
		c.tracks = append(c.tracks, t)
	}
	return nil
}
