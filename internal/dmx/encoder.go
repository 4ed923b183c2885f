package dmx

import (
	"fmt"
	"io"

	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

const (
	// channels at index skipScanLimit and beyond are never elided
	skipScanLimit = 505
	// skip+1 must fit in one byte on the start packet
	maxSkip = 254
	// the encoder stops once the cursor reaches this index
	frameEnd   = 511
	tailStart  = 504
	dataWidth  = 7
	chunkWidth = 6
)

// PacketObserver is notified after each packet is written.
type PacketObserver func(t PacketType)

// Encoder serializes frames into packets and writes them to a transport.
// It is the only writer of the transport it wraps.
type Encoder struct {
	w        io.Writer
	observer PacketObserver
	logger   *logging.Logger
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:      w,
		logger: logging.WithComponent("encoder"),
	}
}

// SetObserver installs fn to be called for every packet sent.
func (e *Encoder) SetObserver(fn PacketObserver) {
	e.observer = fn
}

// Transmit encodes the frame and writes every packet as soon as it is built.
// The first write error aborts the frame.
func (e *Encoder) Transmit(frame *Frame) error {
	channels := frame.Snapshot()

	return Encode(channels, func(p Packet) error {
		data := p.ToBytes()

		n, err := e.w.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write %s packet: %w", p.Type, err)
		}

		if n != len(data) {
			return fmt.Errorf("failed to write %s packet: %w", p.Type, io.ErrShortWrite)
		}

		e.logger.Debug("sent packet", "type", p.Type.String(), "data", data)

		if e.observer != nil {
			e.observer(p.Type)
		}

		return nil
	})
}

// Packets returns the packet sequence for channels without writing anything.
func Packets(channels [UniverseSize]byte) []Packet {
	var packets []Packet

	_ = Encode(channels, func(p Packet) error {
		packets = append(packets, p)

		return nil
	})

	return packets
}

// Encode walks channels and calls emit once per packet, in wire order.
//
// The first packet is always a start packet. Runs of zero channels are
// skipped through start and data-skip packets. The final channels past index
// 504 go out as one seven-wide data packet when exactly seven remain and as
// single packets otherwise. The last channel is only carried when the cursor
// lands exactly on index 505.
func Encode(channels [UniverseSize]byte, emit func(Packet) error) error {
	cnt := 0

	for cnt < frameEnd {
		zeros := zerosAfter(channels, cnt)

		var (
			p    Packet
			next int
		)

		switch {
		case cnt == 0:
			p = StartPacket(zeros, channels[zeros:zeros+chunkWidth])
			next = zeros + chunkWidth
		case cnt > tailStart && UniverseSize-cnt == dataWidth:
			p = DataPacket(channels[cnt : cnt+dataWidth])
			next = cnt + dataWidth
		case cnt > tailStart:
			p = SinglePacket(channels[cnt])
			next = cnt + 1
		case zeros > 0:
			p = DataSkipPacket(zeros, channels[cnt+zeros:cnt+zeros+chunkWidth])
			next = cnt + zeros + chunkWidth
		default:
			p = DataPacket(channels[cnt : cnt+dataWidth])
			next = cnt + dataWidth
		}

		if err := emit(p); err != nil {
			return err
		}

		cnt = next
	}

	return nil
}

// zerosAfter counts consecutive zero channels from start, never looking at
// index skipScanLimit or beyond, capped at maxSkip.
func zerosAfter(channels [UniverseSize]byte, start int) int {
	n := 0

	for i := start; i < skipScanLimit; i++ {
		if channels[i] != 0 {
			break
		}

		n++
	}

	if n > maxSkip {
		return maxSkip
	}

	return n
}
