// Package wire implements the on-the-wire framing for ARQ packets: a
// fixed 3-byte header (type + big-endian sequence number) followed by an
// opaque payload.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eenblam/arqnet/serial"
)

// PacketType is the first byte of every packet on the wire.
type PacketType byte

const (
	// DATA carries an application payload at sequence Seq.
	DATA PacketType = 0x00
	// ACKN acknowledges receipt of DATA up to sequence Seq. Its payload
	// is always empty.
	ACKN PacketType = 0x01
)

func (t PacketType) String() string {
	switch t {
	case DATA:
		return "data"
	case ACKN:
		return "ackn"
	default:
		return fmt.Sprintf("0x%02x", byte(t))
	}
}

// HeaderSize is the number of bytes of framing before the payload.
const HeaderSize = 3

// MaxDatagramSize is the largest datagram this protocol will accept.
// The transport layer reads each inbound datagram into a buffer of this
// size, so a larger datagram is not rejected: it is cut off at
// MaxDatagramSize bytes before it reaches Decode.
const MaxDatagramSize = 1024

// ErrMalformedPacket is returned by Decode when fewer than HeaderSize
// bytes are available.
var ErrMalformedPacket = errors.New("wire: packet too small for header")

// Packet is a decoded ARQ packet. Type is not validated against the
// known DATA/ACKN values here; that's the ARQ receiver's job (see
// spec.md §4.B: "Type values other than DATA/ACKN are accepted at decode
// but rejected by the ARQ receiver").
type Packet struct {
	Type    PacketType
	Seq     serial.Seq
	Payload []byte
}

// Encode writes type, seq and payload into a fresh byte slice.
func Encode(t PacketType, seq serial.Seq, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = byte(t)
	binary.BigEndian.PutUint16(buf[1:3], uint16(seq))
	copy(buf[HeaderSize:], payload)
	return buf
}

// Decode parses a raw datagram into a Packet. It fails only if the input
// is shorter than the header; an unrecognized Type is returned as-is.
func Decode(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("%w (size=%d)", ErrMalformedPacket, len(data))
	}
	return Packet{
		Type:    PacketType(data[0]),
		Seq:     serial.Seq(binary.BigEndian.Uint16(data[1:3])),
		Payload: data[HeaderSize:],
	}, nil
}
