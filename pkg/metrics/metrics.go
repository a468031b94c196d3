// Prometheus counters for the relay, served on a plain /metrics endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	PacketsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_packets_sent_total",
		Help: "Total packets written to the collector socket.",
	})
	BytesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_bytes_sent_total",
		Help: "Total bytes written to the collector socket.",
	})
	SendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_send_failures_total",
		Help: "Packet writes that failed and killed their connection.",
	})
	TracesRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_traces_relayed_total",
		Help: "Traces fully streamed, forceout included.",
	})
)

func init() {
	prometheus.MustRegister(PacketsSent, BytesSent, SendFailures, TracesRelayed)
}

// Serve exposes /metrics until the context is canceled.
func Serve(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("Metrics server error: %v", err)
		}
	}()
}
