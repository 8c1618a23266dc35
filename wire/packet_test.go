package wire

import (
	"testing"

	"github.com/eenblam/arqnet/serial"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		typ     PacketType
		seq     serial.Seq
		payload []byte
	}{
		{"data with payload", DATA, 1, []byte("hello")},
		{"ackn empty payload", ACKN, 0xffff, nil},
		{"zero seq", DATA, 0, []byte{0x00}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			encoded := Encode(c.typ, c.seq, c.payload)
			require.Len(t, encoded, HeaderSize+len(c.payload))

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, c.typ, decoded.Type)
			require.Equal(t, c.seq, decoded.Seq)
			require.Equal(t, len(c.payload), len(decoded.Payload))
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for size := 0; size < HeaderSize; size++ {
		_, err := Decode(make([]byte, size))
		require.ErrorIs(t, err, ErrMalformedPacket)
	}
}

func TestDecodeUnknownTypeIsAccepted(t *testing.T) {
	// Decode doesn't reject unknown types; the ARQ receiver does.
	encoded := Encode(PacketType(0xff), 0, nil)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, PacketType(0xff), decoded.Type)
}
