// Fixed-layout wire packets for the legacy waveform collector.
// The collector tells packet kinds apart by the signed sample count:
// positive for data, -1 for the session tag, -2 for a forceout.
package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/zhuangsirui/binpacker"
)

const (
	// PacketHead leads every packet sent to the collector.
	PacketHead uint16 = 0xa1b2

	TagFlag      int16 = -1
	ForceoutFlag int16 = -2

	// The collector reads the sample count as a signed short, so a single
	// data packet carries at most 32767 samples.
	MaxSamples = 32767

	// MaxTagSize is the longest session tag the collector accepts.
	MaxTagSize = 10

	SeedNameSize = 12

	// Every packet starts with the same 40 byte fixed block; data packets
	// append 4*nsamp bytes of samples after it.
	HeaderSize = 40
)

var ErrPayloadTooLarge = errors.New("collector input limited to 32767 samples per packet")

// Header is the common fixed prefix of forceout and data packets.
type Header struct {
	SeedName      string
	Year          int16
	Doy           int16
	RateMantissa  int16
	RateDivisor   int16
	Activity      uint8
	IOClock       uint8
	Quality       uint8
	TimingQuality uint8
	Secs          int32
	Usecs         int32
	Sequence      int32
}

// Packet is a decoded wire packet, used by the debug collector and tests.
// For tag packets the seedname field holds the session tag.
type Packet struct {
	Nsamp   int16
	Header  Header
	Samples []int32
}

// SeedName builds the fixed 12 character channel identity NNSSSSSCCCLL.
// The station code is padded to 5 characters, the whole name is left
// justified and space padded into 12 bytes.
func SeedName(network, station, channel, location string) string {
	name := fmt.Sprintf("%-2s%-5s%-3s%-2s", network, station, channel, location)
	if len(name) > SeedNameSize {
		name = name[:SeedNameSize]
	}
	return name
}

// EncodeRate converts a sample rate in Hz into the legacy mantissa/divisor
// pair. The branch order and the 0.9999/1e-8 boundary constants are fixed by
// the collector's parser, first matching rule wins.
func EncodeRate(rate float64) (mantissa, divisor int16) {
	if rate > 0.9999 {
		return int16(math.Round(rate * 100)), -100
	}
	if rate*60.0-1.0 < 1e-8 { // one minute data
		return -60, 1
	}
	return int16(math.Round(rate * 10000)), -10000
}

// DecodeRate reconstructs a sample rate from the wire pair. A negative
// divisor divides the mantissa; the positive divisor only appears in the one
// minute case, where the negative mantissa counts seconds per sample.
func DecodeRate(mantissa, divisor int16) float64 {
	if divisor < 0 {
		return float64(mantissa) / float64(-divisor)
	}
	if mantissa < 0 {
		return float64(divisor) / float64(-mantissa)
	}
	return float64(mantissa) * float64(divisor)
}

// TimeValues splits a sample time into the header fields the collector
// expects: year, day of year, whole seconds since midnight and microseconds.
// The collector speaks UTC only.
func TimeValues(t time.Time) (year, doy int16, secs, usecs int32) {
	t = t.UTC()
	year = int16(t.Year())
	doy = int16(t.YearDay())
	secs = int32(t.Hour()*3600 + t.Minute()*60 + t.Second())
	usecs = int32(t.Nanosecond() / 1000)
	return year, doy, secs, usecs
}

func pad(s string, size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

// EncodeTag builds the 40 byte session tag packet sent once at connection
// open. The collector uses it to tell a new client apart from one whose
// connection dropped. The tag sits space padded in the seedname slot and the
// six trailing int32 fields are zero.
func EncodeTag(tag string) ([]byte, error) {
	buffer := new(bytes.Buffer)
	packer := binpacker.NewPacker(binary.BigEndian, buffer)
	packer.PushUint16(PacketHead)
	packer.PushInt16(TagFlag)
	packer.PushBytes(pad(tag, SeedNameSize))
	for i := 0; i < 6; i++ {
		packer.PushInt32(0)
	}
	return buffer.Bytes(), packer.Error()
}

func packHeader(packer *binpacker.Packer, nsamp int16, h Header) {
	packer.PushUint16(PacketHead)
	packer.PushInt16(nsamp)
	packer.PushBytes(pad(h.SeedName, SeedNameSize))
	packer.PushInt16(h.Year)
	packer.PushInt16(h.Doy)
	packer.PushInt16(h.RateMantissa)
	packer.PushInt16(h.RateDivisor)
	packer.PushByte(h.Activity)
	packer.PushByte(h.IOClock)
	packer.PushByte(h.Quality)
	packer.PushByte(h.TimingQuality)
	packer.PushInt32(h.Secs)
	packer.PushInt32(h.Usecs)
	packer.PushInt32(h.Sequence)
}

// EncodeForceout builds the packet telling the collector to flush buffered
// data now instead of waiting for its own size or time threshold. The rate
// fields are always zero on the wire.
func EncodeForceout(h Header) ([]byte, error) {
	h.RateMantissa = 0
	h.RateDivisor = 0
	buffer := new(bytes.Buffer)
	packer := binpacker.NewPacker(binary.BigEndian, buffer)
	packHeader(packer, ForceoutFlag, h)
	return buffer.Bytes(), packer.Error()
}

// EncodeData builds a data packet carrying the samples as big endian int32s.
func EncodeData(h Header, samples []int32) ([]byte, error) {
	if len(samples) > MaxSamples {
		return nil, fmt.Errorf("%w: got %d", ErrPayloadTooLarge, len(samples))
	}
	buffer := new(bytes.Buffer)
	packer := binpacker.NewPacker(binary.BigEndian, buffer)
	packHeader(packer, int16(len(samples)), h)
	for _, s := range samples {
		packer.PushInt32(s)
	}
	return buffer.Bytes(), packer.Error()
}

// DecodePacket parses one full packet buffer back into a Packet.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet

	buffer := bytes.NewBuffer(data)
	unpacker := binpacker.NewUnpacker(binary.BigEndian, buffer)
	var head uint16
	unpacker.FetchUint16(&head)
	unpacker.FetchInt16(&p.Nsamp)
	var seedname []byte
	unpacker.FetchBytes(uint64(SeedNameSize), &seedname)
	p.Header.SeedName = string(seedname)
	unpacker.FetchInt16(&p.Header.Year)
	unpacker.FetchInt16(&p.Header.Doy)
	unpacker.FetchInt16(&p.Header.RateMantissa)
	unpacker.FetchInt16(&p.Header.RateDivisor)
	unpacker.FetchByte(&p.Header.Activity)
	unpacker.FetchByte(&p.Header.IOClock)
	unpacker.FetchByte(&p.Header.Quality)
	unpacker.FetchByte(&p.Header.TimingQuality)
	unpacker.FetchInt32(&p.Header.Secs)
	unpacker.FetchInt32(&p.Header.Usecs)
	unpacker.FetchInt32(&p.Header.Sequence)
	if p.Nsamp > 0 {
		p.Samples = make([]int32, p.Nsamp)
		for i := range p.Samples {
			unpacker.FetchInt32(&p.Samples[i])
		}
	}
	if err := unpacker.Error(); err != nil {
		return p, err
	}
	if head != PacketHead {
		return p, fmt.Errorf("bad packet head 0x%04x", head)
	}
	return p, nil
}

// ReadPacket reads exactly one packet off a stream. There is no framing
// beyond the fixed header, the payload length is inferred from the signed
// sample count.
func ReadPacket(r io.Reader) (Packet, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Packet{}, err
	}
	nsamp := int16(binary.BigEndian.Uint16(buf[2:4]))
	if nsamp > 0 {
		payload := make([]byte, int(nsamp)*4)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Packet{}, err
		}
		buf = append(buf, payload...)
	}
	return DecodePacket(buf)
}
