package lossy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnDropsSomeDatagrams(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer server.Close()

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer client.Close()

	lossy := New(server, 0.5, 42)

	const n = 200
	for i := 0; i < n; i++ {
		_, err := client.WriteTo([]byte{byte(i)}, server.LocalAddr())
		require.NoError(t, err)
	}

	require.NoError(t, lossy.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 16)
	received := 0
	for {
		_, _, err := lossy.ReadFrom(buf)
		if err != nil {
			break
		}
		received++
	}
	require.Greater(t, received, 0)
	require.Less(t, received, n)
}
