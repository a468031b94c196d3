package packet_test

import (
	"errors"
	"math"
	"testing"
	"time"
	"trace-relay/pkg/packet"
)

func TestEncodeRate(t *testing.T) {
	type args struct {
		rate float64
	}
	tests := []struct {
		name         string
		args         args
		wantMantissa int16
		wantDivisor  int16
	}{
		{"test-broadband", args{100.0}, 10000, -100},
		{"test-strongmotion", args{200.0}, 20000, -100},
		{"test-one-hz", args{1.0}, 100, -100},
		{"test-just-above-boundary", args{0.99995}, 100, -100},
		{"test-one-minute", args{1.0 / 60.0}, -60, 1},
		{"test-fractional", args{0.5}, 5000, -10000},
		{"test-boundary", args{0.9999}, 9999, -10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mantissa, divisor := packet.EncodeRate(tt.args.rate)
			if mantissa != tt.wantMantissa || divisor != tt.wantDivisor {
				t.Errorf("EncodeRate() = (%d, %d), want (%d, %d)",
					mantissa, divisor, tt.wantMantissa, tt.wantDivisor)
			}
		})
	}
}

func TestRateRoundTrip(t *testing.T) {
	// Above 0.9999 the encoding keeps 2 decimal digits, below it 4.
	for _, rate := range []float64{1.0, 40.0, 50.0, 100.0, 200.0, 250.125} {
		mantissa, divisor := packet.EncodeRate(rate)
		want := math.Round(rate*100) / 100
		if got := packet.DecodeRate(mantissa, divisor); got != want {
			t.Errorf("DecodeRate(EncodeRate(%v)) = %v, want %v", rate, got, want)
		}
	}
	for _, rate := range []float64{0.5, 0.1, 0.9999} {
		mantissa, divisor := packet.EncodeRate(rate)
		want := math.Round(rate*10000) / 10000
		if got := packet.DecodeRate(mantissa, divisor); got != want {
			t.Errorf("DecodeRate(EncodeRate(%v)) = %v, want %v", rate, got, want)
		}
	}
	mantissa, divisor := packet.EncodeRate(1.0 / 60.0)
	if got := packet.DecodeRate(mantissa, divisor); math.Abs(got-1.0/60.0) > 1e-8 {
		t.Errorf("DecodeRate(EncodeRate(1/60)) = %v, want 1/60", got)
	}
}

func TestSeedName(t *testing.T) {
	type args struct {
		network  string
		station  string
		channel  string
		location string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{"test-full-codes", args{"CI", "PASC", "BHZ", "00"}, "CIPASC BHZ00"},
		{"test-short-station", args{"NT", "TUC", "LFZ", "R0"}, "NTTUC  LFZR0"},
		{"test-empty-location", args{"US", "AAM", "BHZ", ""}, "USAAM  BHZ  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packet.SeedName(tt.args.network, tt.args.station, tt.args.channel, tt.args.location)
			if got != tt.want {
				t.Errorf("SeedName() = %q, want %q", got, tt.want)
			}
			if len(got) != packet.SeedNameSize {
				t.Errorf("SeedName() length = %d, want %d", len(got), packet.SeedNameSize)
			}
		})
	}
}

func TestTimeValues(t *testing.T) {
	at := time.Date(2022, time.March, 11, 1, 2, 3, 456789000, time.UTC)
	year, doy, secs, usecs := packet.TimeValues(at)
	if year != 2022 {
		t.Errorf("year = %d, want 2022", year)
	}
	if doy != 70 {
		t.Errorf("doy = %d, want 70", doy)
	}
	if want := int32(1*3600 + 2*60 + 3); secs != want {
		t.Errorf("secs = %d, want %d", secs, want)
	}
	if usecs != 456789 {
		t.Errorf("usecs = %d, want 456789", usecs)
	}
}

func TestEncodeTag(t *testing.T) {
	buf, err := packet.EncodeTag("PASC070")
	if err != nil {
		t.Fatalf("EncodeTag() error = %v", err)
	}
	if len(buf) != packet.HeaderSize {
		t.Fatalf("EncodeTag() length = %d, want %d", len(buf), packet.HeaderSize)
	}
	pkt, err := packet.DecodePacket(buf)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if pkt.Nsamp != packet.TagFlag {
		t.Errorf("tag packet nsamp = %d, want %d", pkt.Nsamp, packet.TagFlag)
	}
	if pkt.Header.SeedName != "PASC070     " {
		t.Errorf("tag packet tag = %q, want %q", pkt.Header.SeedName, "PASC070     ")
	}
	if pkt.Header.Sequence != 0 || pkt.Header.Secs != 0 || pkt.Header.Year != 0 {
		t.Errorf("tag packet trailing fields not zero: %+v", pkt.Header)
	}
}

func TestEncodeData(t *testing.T) {
	header := packet.Header{
		SeedName:      packet.SeedName("CI", "PASC", "BHZ", "00"),
		Year:          2022,
		Doy:           70,
		RateMantissa:  10000,
		RateDivisor:   -100,
		Activity:      1,
		IOClock:       2,
		Quality:       3,
		TimingQuality: 90,
		Secs:          3723,
		Usecs:         456789,
		Sequence:      7,
	}
	samples := []int32{-12345, 0, 12345, 1 << 30}

	buf, err := packet.EncodeData(header, samples)
	if err != nil {
		t.Fatalf("EncodeData() error = %v", err)
	}
	if want := packet.HeaderSize + 4*len(samples); len(buf) != want {
		t.Fatalf("EncodeData() length = %d, want %d", len(buf), want)
	}

	pkt, err := packet.DecodePacket(buf)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if pkt.Nsamp != int16(len(samples)) {
		t.Errorf("nsamp = %d, want %d", pkt.Nsamp, len(samples))
	}
	if pkt.Header != header {
		t.Errorf("header = %+v, want %+v", pkt.Header, header)
	}
	for i, s := range samples {
		if pkt.Samples[i] != s {
			t.Errorf("sample %d = %d, want %d", i, pkt.Samples[i], s)
		}
	}
}

func TestEncodeDataLimits(t *testing.T) {
	header := packet.Header{SeedName: packet.SeedName("CI", "PASC", "BHZ", "00")}

	if _, err := packet.EncodeData(header, make([]int32, packet.MaxSamples)); err != nil {
		t.Errorf("EncodeData(32767 samples) error = %v, want nil", err)
	}
	_, err := packet.EncodeData(header, make([]int32, packet.MaxSamples+1))
	if !errors.Is(err, packet.ErrPayloadTooLarge) {
		t.Errorf("EncodeData(32768 samples) error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestEncodeForceout(t *testing.T) {
	buf, err := packet.EncodeForceout(packet.Header{
		SeedName:     packet.SeedName("CI", "PASC", "BHZ", "00"),
		Year:         2022,
		Doy:          70,
		RateMantissa: 10000,
		RateDivisor:  -100,
		Sequence:     3,
	})
	if err != nil {
		t.Fatalf("EncodeForceout() error = %v", err)
	}
	if len(buf) != packet.HeaderSize {
		t.Fatalf("EncodeForceout() length = %d, want %d", len(buf), packet.HeaderSize)
	}
	pkt, err := packet.DecodePacket(buf)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if pkt.Nsamp != packet.ForceoutFlag {
		t.Errorf("forceout nsamp = %d, want %d", pkt.Nsamp, packet.ForceoutFlag)
	}
	if pkt.Header.RateMantissa != 0 || pkt.Header.RateDivisor != 0 {
		t.Errorf("forceout rate fields = (%d, %d), want zero",
			pkt.Header.RateMantissa, pkt.Header.RateDivisor)
	}
	if pkt.Header.Sequence != 3 {
		t.Errorf("forceout sequence = %d, want 3", pkt.Header.Sequence)
	}
}

func TestDecodePacketBadHead(t *testing.T) {
	buf, err := packet.EncodeTag("PASC")
	if err != nil {
		t.Fatal(err)
	}
	buf[0] = 0xde
	buf[1] = 0xad
	if _, err := packet.DecodePacket(buf); err == nil {
		t.Error("DecodePacket() with bad head expected error, got nil")
	}
}
