// Package arq implements stop-and-wait ARQ: the sliding-window-of-one
// reliability protocol that turns a peer's push/pull datagram channel
// into an ordered, reliable byte-message stream.
package arq

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eenblam/arqnet/scope"
	"github.com/eenblam/arqnet/serial"
	"github.com/eenblam/arqnet/transport"
	"github.com/eenblam/arqnet/wire"
)

// Push sends a raw packet to the peer. Fire-and-forget: errors are not
// reported back to the caller (the retransmission timer is what papers
// over transient send failures).
type Push func([]byte)

// Pull blocks until a raw packet arrives from the peer, or returns
// transport.ErrDisconnected if the peer has gone idle.
type Pull func() ([]byte, error)

// Config tunes the stop-and-wait state machine.
type Config struct {
	// RetransmitDelay is how long the sender waits for an ACK before
	// resending the in-flight DATA packet. Should be >= RTT: too small
	// causes avoidable duplicate transmissions, too large causes poor
	// throughput after a loss.
	RetransmitDelay time.Duration
}

// DefaultConfig matches spec.md §6's default retransmit_delay.
func DefaultConfig() Config {
	return Config{RetransmitDelay: 10 * time.Millisecond}
}

// Run drives one ARQ channel to completion: it ferries payloads from oq
// to the peer (retransmitting until acknowledged) while decoding and
// acknowledging inbound DATA packets into iq, in strict sequence order.
//
// Run returns nil when pull reports the peer has disconnected, or when
// ctx is cancelled (e.g. on server shutdown) — both are graceful window
// closes; any other pull error propagates to the caller. Pending
// payloads in oq at that point are discarded, matching spec.md §4.E's
// termination semantics.
func Run(ctx context.Context, push Push, pull Pull, peer string, iq, oq chan []byte, cfg Config, log *logrus.Entry) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("peer", peer)

	ackq := make(chan serial.Seq, 1)

	sender := scope.Concurrently(ctx, func(ctx context.Context) error {
		send(ctx, push, oq, ackq, cfg.RetransmitDelay, log)
		return nil
	})
	defer sender.Stop()

	err := recv(ctx, push, pull, iq, ackq, log)
	if errors.Is(err, transport.ErrDisconnected) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// recv is the receiver half: one pull() per loop iteration, dispatched
// by packet type against the expected sequence number i.
func recv(ctx context.Context, push Push, pull Pull, iq chan []byte, ackq chan<- serial.Seq, log *logrus.Entry) error {
	i := serial.Seq(1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := pull()
		if err != nil {
			return err
		}
		if len(data) < wire.HeaderSize {
			log.Warnf("packet too small (size=%d).", len(data))
			continue
		}
		// Length already checked above; Decode cannot fail here.
		pkt, _ := wire.Decode(data)

		switch pkt.Type {
		case wire.DATA:
			j := pkt.Seq
			switch {
			case j == i:
				// Never block here: a stalled application must not
				// prevent us from still processing inbound ACKs, or the
				// sender half would deadlock waiting on ackq forever.
				select {
				case iq <- pkt.Payload:
					push(wire.Encode(wire.ACKN, i, nil))
					i = serial.Next(i)
				default:
					log.Warnf("dropping data packet #%d (blocked)", j)
				}
			case serial.Distance(i, j) <= 1:
				// Most likely our previous ACK for this sequence was
				// lost; re-ACK it to unstick the peer's sender.
				log.Warnf("dropping data packet #%d (repeat)", j)
				push(wire.Encode(wire.ACKN, j, nil))
			default:
				log.Warnf("dropping data packet #%d (out of sequence)", j)
			}
		case wire.ACKN:
			select {
			case ackq <- pkt.Seq:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			log.Warnf("dropping packet (invalid type 0x%02x).", byte(pkt.Type))
		}
	}
}

// send is the sender half: one message taken from oq per loop
// iteration, retransmitted on a timer until its ACK arrives.
func send(ctx context.Context, push Push, oq <-chan []byte, ackq <-chan serial.Seq, retransmitDelay time.Duration, log *logrus.Entry) {
	i := serial.Seq(1)
	for {
		var payload []byte
		select {
		case <-ctx.Done():
			return
		case payload = <-oq:
		}

		head := wire.Encode(wire.DATA, i, payload)
		push(head)

		timer := time.NewTimer(retransmitDelay)
		for acked := false; !acked; {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				push(head)
				timer.Reset(retransmitDelay)
			case j := <-ackq:
				if serial.Distance(i, j) == 0 {
					acked = true
				} else {
					log.Warnf("dropping ackn packet #%d (out of sequence)", j)
				}
			}
		}
		timer.Stop()
		i = serial.Next(i)
	}
}
