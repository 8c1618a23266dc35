package transport

import (
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eenblam/arqnet/wire"
)

// Handler is the function an application supplies to drive one peer
// session. It receives push/pull primitives bound to that peer, plus a
// human-readable rendering of the peer's address.
type Handler func(push func([]byte), pull func() ([]byte, error), peer string) error

// Client exchanges packets with a single, pre-determined peer over a
// shared conn.
type Client struct {
	conn              net.PacketConn
	peer              net.Addr
	disconnectTimeout time.Duration
	log               *logrus.Entry
}

// NewClient builds a Client bound to peer. disconnectTimeout is the idle
// window: if no packet arrives from peer within that window, Pull
// reports ErrDisconnected.
func NewClient(conn net.PacketConn, peer net.Addr, disconnectTimeout time.Duration, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		conn:              conn,
		peer:              peer,
		disconnectTimeout: disconnectTimeout,
		log:               log.WithField("peer", peer.String()),
	}
}

// Run invokes handler with push/pull bound to this client's peer. A
// Disconnected error returned by handler (typically surfaced from a
// timed-out Pull) is swallowed and Run returns nil; any other error
// propagates.
func (c *Client) Run(handler Handler) error {
	err := handler(c.push, c.pull, c.peer.String())
	if errors.Is(err, ErrDisconnected) {
		return nil
	}
	return err
}

func (c *Client) push(data []byte) {
	if _, err := c.conn.WriteTo(data, c.peer); err != nil {
		c.log.WithError(err).Warn("client: error sending packet")
	}
}

// pull blocks until a datagram from c.peer arrives, silently discarding
// any datagram from a different source. It reports ErrDisconnected if
// the read times out before a matching packet arrives.
func (c *Client) pull() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.disconnectTimeout)); err != nil {
		return nil, err
	}
	data, err := RecvFromPeer(c.conn, c.peer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrDisconnected
		}
		return nil, err
	}
	return data, nil
}

// RecvFromPeer reads datagrams from conn, silently discarding any whose
// source address doesn't match peer, until a matching one arrives or the
// read itself fails (e.g. because conn's read deadline elapsed).
func RecvFromPeer(conn net.PacketConn, peer net.Addr) ([]byte, error) {
	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return nil, err
		}
		if addr.String() != peer.String() {
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}
