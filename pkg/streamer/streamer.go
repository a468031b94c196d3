// Pushes one trace to the collector chunk by chunk over its own connection.
package streamer

import (
	"fmt"
	"time"

	"trace-relay/pkg/chunker"
	"trace-relay/pkg/collector"
	"trace-relay/pkg/metrics"
	"trace-relay/pkg/packet"
	"trace-relay/pkg/trace"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// SentChunk identifies one window confirmed written to the collector socket.
type SentChunk struct {
	Index   int
	Start   time.Time
	Samples int
}

// Report describes how much of a trace made it onto the wire. After a mid
// stream failure Sent holds only the confirmed chunks, so a retry layer can
// resume instead of re-sending from scratch.
type Report struct {
	Sent      []SentChunk
	BytesSent int64
	Sequence  int32
}

// SendTrace opens the client, streams every chunk of the trace as a data
// packet and finishes with a forceout so the collector flushes immediately.
// The tag is validated before any network activity. The sequence number
// starts at 0 and increments once per transmitted packet; the tag packet is
// sent during open, before sequence tracking begins, and consumes no slot.
//
// The connection is closed on every exit path. Chunks already written stay
// written: a send failure aborts the rest and is returned next to the
// partial report.
func SendTrace(client *collector.Client, tr *trace.Trace, tag string, limiter ratelimit.Limiter) (Report, error) {
	report := Report{}
	if len(tag) > packet.MaxTagSize {
		return report, fmt.Errorf("%w: %q", collector.ErrInvalidTag, tag)
	}

	if err := client.Open(tag); err != nil {
		return report, err
	}
	defer client.Close()

	seedname := tr.SeedName()
	mantissa, divisor := packet.EncodeRate(tr.Rate)

	planner := chunker.NewPlanner(tr.Start, tr.Rate, tr.Samples)
	for {
		chunk, ok := planner.Next()
		if !ok {
			break
		}
		year, doy, secs, usecs := packet.TimeValues(chunk.Start)
		buf, err := packet.EncodeData(packet.Header{
			SeedName:      seedname,
			Year:          year,
			Doy:           doy,
			RateMantissa:  mantissa,
			RateDivisor:   divisor,
			Activity:      tr.Activity,
			IOClock:       tr.IOClock,
			Quality:       tr.Quality,
			TimingQuality: tr.TimingQuality,
			Secs:          secs,
			Usecs:         usecs,
			Sequence:      report.Sequence,
		}, chunk.Samples)
		if err != nil {
			return report, err
		}

		limiter.Take()
		if err := client.Send(buf); err != nil {
			metrics.SendFailures.Inc()
			logrus.WithFields(logrus.Fields{
				"SeedName": seedname,
				"Chunk":    chunk.Index,
			}).Errorf("Send failed mid stream: %v", err)
			return report, err
		}
		report.Sent = append(report.Sent, SentChunk{
			Index:   chunk.Index,
			Start:   chunk.Start,
			Samples: len(chunk.Samples),
		})
		report.BytesSent += int64(len(buf))
		report.Sequence++
		metrics.PacketsSent.Inc()
		metrics.BytesSent.Add(float64(len(buf)))
	}

	year, doy, secs, usecs := packet.TimeValues(time.Now())
	buf, err := packet.EncodeForceout(packet.Header{
		SeedName: seedname,
		Year:     year,
		Doy:      doy,
		Secs:     secs,
		Usecs:    usecs,
		Sequence: report.Sequence,
	})
	if err != nil {
		return report, err
	}
	limiter.Take()
	if err := client.Send(buf); err != nil {
		metrics.SendFailures.Inc()
		return report, err
	}
	report.BytesSent += int64(len(buf))
	report.Sequence++
	metrics.PacketsSent.Inc()
	metrics.BytesSent.Add(float64(len(buf)))

	return report, nil
}
