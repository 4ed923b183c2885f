package dmx

import (
	"errors"
	"fmt"
)

// ErrMalformedPacket is returned by Decoder for packets that do not follow
// the packet grammar.
var ErrMalformedPacket = errors.New("malformed packet")

// Decoder rebuilds channel values from a packet stream, the way the
// interface does on the receiving side.
type Decoder struct {
	channels [UniverseSize]byte
	cursor   int
	started  bool
}

// NewDecoder returns a decoder waiting for a start packet.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed applies one packet. A start packet clears the channels and resets the
// cursor.
func (d *Decoder) Feed(data []byte) error {
	if len(data) != PacketSize {
		return fmt.Errorf("%w: length %d, want %d", ErrMalformedPacket, len(data), PacketSize)
	}

	t := PacketType(data[0])

	switch t {
	case PacketStart:
		if data[1] == 0 {
			return fmt.Errorf("%w: start packet with zero skip byte", ErrMalformedPacket)
		}

		d.channels = [UniverseSize]byte{}
		d.cursor = 0
		d.started = true

		return d.put(int(data[1])-1, data[2:2+chunkWidth])
	}

	if !d.started {
		return fmt.Errorf("%w: %s packet before start", ErrMalformedPacket, t)
	}

	switch t {
	case PacketData:
		return d.put(0, data[1:1+dataWidth])
	case PacketDataSkip:
		return d.put(int(data[1]), data[2:2+chunkWidth])
	case PacketSingle:
		return d.put(0, data[1:2])
	default:
		return fmt.Errorf("%w: %s", ErrMalformedPacket, t)
	}
}

func (d *Decoder) put(skip int, values []byte) error {
	start := d.cursor + skip
	if start+len(values) > UniverseSize {
		return fmt.Errorf("%w: %d values at channel %d overrun the universe",
			ErrMalformedPacket, len(values), start+1)
	}

	copy(d.channels[start:], values)
	d.cursor = start + len(values)

	return nil
}

// Channels returns the decoded channel values.
func (d *Decoder) Channels() [UniverseSize]byte {
	return d.channels
}

// Cursor returns the number of channels accounted for since the last start
// packet, skipped channels included.
func (d *Decoder) Cursor() int {
	return d.cursor
}

// Decode is a convenience over Decoder for a complete packet stream.
func Decode(packets []Packet) ([UniverseSize]byte, int, error) {
	d := NewDecoder()

	for i, p := range packets {
		if err := d.Feed(p.ToBytes()); err != nil {
			return d.Channels(), d.Cursor(), fmt.Errorf("packet %d: %w", i, err)
		}
	}

	return d.Channels(), d.Cursor(), nil
}
