// Package lossy implements the fault-injection wrapper spec.md §1
// reserves as an external collaborator: a net.PacketConn that simulates
// a lossy link by randomly dropping inbound datagrams before the caller
// ever sees them. It has no place in the protocol itself — it exists
// purely so tests (and manual experiments) can exercise the ARQ layer's
// retransmission behavior without a real flaky network.
package lossy

import (
	"math/rand"
	"net"
)

// Conn wraps a net.PacketConn, dropping each inbound datagram with
// independent probability lossRate before ReadFrom returns it.
type Conn struct {
	net.PacketConn
	lossRate float64
	rng      *rand.Rand
}

// New wraps conn with a link that drops each inbound datagram with
// probability lossRate (0.0 <= lossRate < 1.0). seed makes drop
// decisions reproducible across test runs.
func New(conn net.PacketConn, lossRate float64, seed int64) *Conn {
	if lossRate < 0 || lossRate >= 1 {
		panic("lossy: lossRate must be in [0.0, 1.0)")
	}
	return &Conn{
		PacketConn: conn,
		lossRate:   lossRate,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// ReadFrom reads datagrams from the wrapped conn, silently discarding
// (and re-reading) any that the simulated loss rate selects for drop.
// A real timeout set on the wrapped conn still applies across retries,
// so a sufficiently unlucky run correctly surfaces as a timeout rather
// than blocking forever.
func (c *Conn) ReadFrom(p []byte) (int, net.Addr, error) {
	for {
		n, addr, err := c.PacketConn.ReadFrom(p)
		if err != nil {
			return n, addr, err
		}
		if c.rng.Float64() < c.lossRate {
			continue
		}
		return n, addr, nil
	}
}
