// Splits one trace into minute sized windows the collector will accept.
// The collector accumulates data until a size or time threshold fires, so
// minute aligned windows keep its behavior predictable and stay well under
// the per packet sample ceiling.
package chunker

import (
	"math"
	"time"

	"trace-relay/pkg/packet"
)

// Chunk is one window of a trace: its own start time and a slice of the
// original sample array.
type Chunk struct {
	Index   int
	Start   time.Time
	Samples []int32
}

// Planner yields the windows of one trace in order. A planner is a single
// pass iterator; plan the trace again to re-iterate.
type Planner struct {
	start   time.Time
	rate    float64
	samples []int32
	window  int
	offset  int
	index   int
}

func NewPlanner(start time.Time, rate float64, samples []int32) *Planner {
	window := int(math.Round(rate * 60))
	if window < 1 {
		window = 1
	}
	if window > packet.MaxSamples {
		window = packet.MaxSamples
	}
	return &Planner{
		start:   start,
		rate:    rate,
		samples: samples,
		window:  window,
	}
}

// Next returns the next window, and false once the trace is exhausted.
// The final window is clipped to the remaining sample count.
func (p *Planner) Next() (Chunk, bool) {
	if p.offset >= len(p.samples) {
		return Chunk{}, false
	}
	n := p.window
	if remaining := len(p.samples) - p.offset; remaining < n {
		n = remaining
	}
	elapsed := time.Duration(float64(p.offset) / p.rate * float64(time.Second))
	chunk := Chunk{
		Index:   p.index,
		Start:   p.start.Add(elapsed),
		Samples: p.samples[p.offset : p.offset+n],
	}
	p.offset += n
	p.index++
	return chunk, true
}
