package dmx

import "fmt"

// PacketSize is the length of every packet on the wire.
const PacketSize = 8

// PacketType is the leading byte of a packet.
type PacketType byte

// Packet types understood by the interface.
const (
	PacketData     PacketType = 0x02
	PacketSingle   PacketType = 0x03
	PacketStart    PacketType = 0x04
	PacketDataSkip PacketType = 0x05
)

func (t PacketType) String() string {
	switch t {
	case PacketData:
		return "data"
	case PacketSingle:
		return "single"
	case PacketStart:
		return "start"
	case PacketDataSkip:
		return "data-skip"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(t))
	}
}

// Packet is a typed packet with up to seven parameter bytes.
type Packet struct {
	Params []byte
	Type   PacketType
}

// NewPacket creates a packet of the given type.
func NewPacket(t PacketType, params ...byte) Packet {
	return Packet{
		Type:   t,
		Params: params,
	}
}

// ToBytes renders the packet, zero-padded to PacketSize.
func (p Packet) ToBytes() []byte {
	result := make([]byte, PacketSize)
	result[0] = byte(p.Type)
	copy(result[1:], p.Params)

	return result
}

// StartPacket opens a frame. skip leading zero channels are elided and sent
// as skip+1, followed by six channel values.
func StartPacket(skip int, values []byte) Packet {
	params := []byte{byte(skip + 1)}
	params = append(params, values...)

	return NewPacket(PacketStart, params...)
}

// DataPacket carries consecutive channel values from the current cursor.
func DataPacket(values []byte) Packet {
	return NewPacket(PacketData, values...)
}

// DataSkipPacket advances the cursor by skip zero channels, then carries six
// channel values.
func DataSkipPacket(skip int, values []byte) Packet {
	params := []byte{byte(skip)}
	params = append(params, values...)

	return NewPacket(PacketDataSkip, params...)
}

// SinglePacket carries one channel value.
func SinglePacket(value byte) Packet {
	return NewPacket(PacketSingle, value)
}
