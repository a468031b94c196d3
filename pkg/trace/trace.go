// Trace spool documents: one named channel of integer samples waiting to be
// relayed to the collector.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"trace-relay/pkg/packet"
)

// Trace is one channel worth of time ordered samples plus the SEED identity
// and quality flags the wire header carries through unchanged.
type Trace struct {
	Network  string    `json:"network"`
	Station  string    `json:"station"`
	Channel  string    `json:"channel"`
	Location string    `json:"location"`
	Rate     float64   `json:"sampling_rate"`
	Start    time.Time `json:"starttime"`
	Samples  []int32   `json:"samples"`

	Activity      uint8 `json:"activity"`
	IOClock       uint8 `json:"io_clock"`
	Quality       uint8 `json:"quality"`
	TimingQuality uint8 `json:"timing_quality"`
}

// SeedName is the fixed 12 character identity the collector files this
// channel under.
func (t *Trace) SeedName() string {
	return packet.SeedName(t.Network, t.Station, t.Channel, t.Location)
}

// Load reads and validates one trace document from the spool directory.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening trace file: %v", err)
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("error parsing trace file '%s': %v", path, err)
	}
	if t.Rate <= 0 {
		return nil, fmt.Errorf("trace file '%s': sampling rate must be positive", path)
	}
	if len(t.Samples) == 0 {
		return nil, fmt.Errorf("trace file '%s': no samples", path)
	}
	if t.Start.IsZero() {
		return nil, fmt.Errorf("trace file '%s': missing starttime", path)
	}
	return &t, nil
}
