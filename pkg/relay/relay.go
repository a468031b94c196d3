// Assembles the relay pipeline: journal queue to collector sessions.
package relay

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"trace-relay/pkg/collector"
	"trace-relay/pkg/config"
	"trace-relay/pkg/database"
	"trace-relay/pkg/metrics"
	"trace-relay/pkg/queuereader"
	"trace-relay/pkg/streamer"
	"trace-relay/pkg/trace"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"gorm.io/gorm"
)

type relayConfig struct {
	db      *gorm.DB
	host    string
	port    int
	limiter ratelimit.Limiter
	input   chan database.TraceFile
}

// sessionTag builds the tag the collector logs this session under: station
// code plus day of year of the first sample, always within the 10 character
// protocol limit.
func sessionTag(tr *trace.Trace) string {
	return fmt.Sprintf("%s%03d", strings.TrimSpace(tr.Station), tr.Start.UTC().YearDay())
}

func worker(ctx context.Context, conf *relayConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case file := <-conf.input:
			l := logrus.WithFields(logrus.Fields{
				"Path": file.Path,
			})
			l.Infof("Started relaying trace")

			file.Finished = true
			tr, err := trace.Load(file.Path)
			if err != nil {
				l.Errorf("Trace relay failed: %v", err)
				file.Success = false
			} else {
				// One connection per trace; the collector drops state when
				// the socket closes, so sessions are never shared.
				client := collector.NewClient(conf.host, conf.port)
				report, err := streamer.SendTrace(client, tr, sessionTag(tr), conf.limiter)
				file.PacketsSent = int(report.Sequence)
				file.BytesSent = report.BytesSent
				if err != nil {
					l.WithFields(logrus.Fields{
						"ChunksSent": len(report.Sent),
					}).Errorf("Trace relay failed: %v", err)
					file.Success = false
				} else {
					file.Success = true
					metrics.TracesRelayed.Inc()
					l.Infof("Trace finished relaying, %d packets, %d bytes", report.Sequence, report.BytesSent)
				}
			}

			if err := conf.db.Save(&file).Error; err != nil {
				l.Errorf("Error updating Finished in journal %v", err)
			}
		}
	}
}

func Relay(ctx context.Context, db *gorm.DB, conf config.Config) {
	maxprocs := runtime.GOMAXPROCS(0)
	queue := make(chan database.TraceFile, 10)

	limiter := ratelimit.NewUnlimited()
	if conf.PacketsPerSec > 0 {
		limiter = ratelimit.New(conf.PacketsPerSec)
	}

	queuereader.CreateQueueReader(ctx, db, queue)
	rconf := relayConfig{
		db:      db,
		host:    conf.CollectorIP,
		port:    conf.CollectorPort,
		limiter: limiter,
		input:   queue,
	}
	for i := 0; i < maxprocs; i++ {
		go worker(ctx, &rconf)
	}
}
