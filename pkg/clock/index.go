package clock

import "github.com/fieldbridge/driver/pkg/telem"

// GenerateIndexData writes a linearly spaced timestamp series, spanning
// [start, end], into every index channel in indexKeys found in frame. When
// inclusive is true the series has nSamples points spanning start..end
// inclusive (step = (end-start)/(nSamples-1)); otherwise it has nSamples
// points spanning [start, end) (step = (end-start)/nSamples).
func GenerateIndexData(frame *telem.Frame, indexKeys []uint32, start, end TimeStamp, nSamples int, inclusive bool) {
	if nSamples <= 0 {
		return
	}

	span := end.Sub(start)
	var step float64
	if inclusive {
		if nSamples == 1 {
			step = 0
		} else {
			step = float64(span) / float64(nSamples-1)
		}
	} else {
		step = float64(span) / float64(nSamples)
	}

	for _, key := range indexKeys {
		series := frame.Get(key)
		if series == nil {
			continue
		}
		series.Clear()
		for i := 0; i < nSamples; i++ {
			ts := int64(start) + int64(float64(i)*step)
			_ = series.AppendInt64(ts)
		}
	}
}
