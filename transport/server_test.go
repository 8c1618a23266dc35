package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func listenLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// echoHandler pulls exactly once and pushes the same bytes back.
func echoHandler(push func([]byte), pull func() ([]byte, error), _ string) error {
	data, err := pull()
	if err != nil {
		return err
	}
	push(data)
	return nil
}

func TestServerEchoRoundTrip(t *testing.T) {
	serverConn := listenLoopback(t)
	srv := NewServer(serverConn, echoHandler, 8, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	clientConn := listenLoopback(t)
	_, err := clientConn.WriteTo([]byte("ping"), serverConn.LocalAddr())
	require.NoError(t, err)

	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, _, err := clientConn.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
}

// TestServerIsolation checks that a peer whose handler never drains its
// queue does not prevent other peers from being served: the dispatch
// loop keeps demuxing to a second peer while the first is stuck.
func TestServerIsolation(t *testing.T) {
	const maxPending = 1

	serverConn := listenLoopback(t)
	slow := listenLoopback(t)
	fast := listenLoopback(t)

	slowAddr := slow.LocalAddr().String()
	stall := make(chan struct{})
	defer close(stall)

	handler := func(push func([]byte), pull func() ([]byte, error), peer string) error {
		if peer == slowAddr {
			<-stall
			return nil
		}
		data, err := pull()
		if err != nil {
			return err
		}
		push(data)
		return nil
	}

	srv := NewServer(serverConn, handler, maxPending, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	// Flood the slow peer well past its queue capacity; the dispatch
	// loop must not block doing so.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_, _ = slow.WriteTo([]byte{byte(i)}, serverConn.LocalAddr())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch loop appears to have blocked on the slow peer's queue")
	}

	// The fast peer must still be served promptly.
	_, err := fast.WriteTo([]byte("hello"), serverConn.LocalAddr())
	require.NoError(t, err)
	require.NoError(t, fast.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 64)
	n, _, err := fast.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}
