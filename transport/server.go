package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eenblam/arqnet/wire"
)

// session is one peer's slot in the server's session table: its inbound
// datagram queue and the cancellation handle for its handler goroutine.
type session struct {
	peer   net.Addr
	queue  chan []byte
	cancel context.CancelFunc
}

// Server demultiplexes inbound datagrams from many peers over one
// shared conn, running an independent handler goroutine per peer.
//
// The session table is a sync.Map rather than the lock-free map the
// Python original relies on: Go's goroutines are preempted by the
// runtime scheduler, so mutations that aren't already atomic need
// either a mutex or a concurrent map, exactly as spec.md §9 anticipates
// for a preemptive-threads target.
type Server struct {
	conn              net.PacketConn
	handler           Handler
	maxPendingPackets int
	disconnectTimeout time.Duration
	log               *logrus.Entry

	sessions sync.Map // peer.String() -> *session
	wg       sync.WaitGroup
}

// NewServer builds a Server. maxPendingPackets bounds each session's
// inbound queue; once full, further datagrams for that peer are dropped
// rather than blocking the dispatch loop.
func NewServer(conn net.PacketConn, handler Handler, maxPendingPackets int, disconnectTimeout time.Duration, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		conn:              conn,
		handler:           handler,
		maxPendingPackets: maxPendingPackets,
		disconnectTimeout: disconnectTimeout,
		log:               log,
	}
}

// Serve runs the dispatch loop until ctx is cancelled or the underlying
// conn returns a non-timeout error. On every exit path, every live
// session's handler goroutine is cancelled and joined before Serve
// returns.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// Force the blocked ReadFrom below to return so the loop can
			// observe ctx.Done(). The conn itself is owned by the
			// caller and is never closed here.
			_ = s.conn.SetReadDeadline(time.Unix(0, 1))
		case <-done:
		}
	}()

	defer s.shutdown()

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, peer, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		s.dispatch(ctx, peer, data)
	}
}

// dispatch looks up (or creates) peer's session and enqueues data into
// it without blocking. This non-blocking enqueue is the central
// invariant of the multiplexer: blocking on one peer's queue here would
// let that peer deny service to every other session.
func (s *Server) dispatch(ctx context.Context, peer net.Addr, data []byte) {
	key := peer.String()

	var sess *session
	if val, ok := s.sessions.Load(key); ok {
		sess = val.(*session)
	} else {
		newSess := &session{
			peer:  peer,
			queue: make(chan []byte, s.maxPendingPackets),
		}
		sessCtx, cancel := context.WithCancel(ctx)
		newSess.cancel = cancel

		val, loaded := s.sessions.LoadOrStore(key, newSess)
		sess = val.(*session)
		if loaded {
			// A concurrent insertion raced us; discard our unused session.
			cancel()
		} else {
			s.wg.Add(1)
			go s.runSession(sessCtx, sess)
		}
	}

	select {
	case sess.queue <- data:
	default:
		s.log.WithField("peer", key).Warn("dropping packet (session queue full)")
	}
}

// runSession is the per-peer handler goroutine: it builds push/pull
// bound to sess's queue, runs the application handler, and guarantees
// the session is removed from the table on every exit path.
func (s *Server) runSession(ctx context.Context, sess *session) {
	defer s.wg.Done()
	key := sess.peer.String()
	defer s.sessions.Delete(key)
	defer sess.cancel()

	log := s.log.WithField("peer", key)

	push := func(data []byte) {
		if _, err := s.conn.WriteTo(data, sess.peer); err != nil {
			log.WithError(err).Warn("server: error sending packet")
		}
	}
	pull := func() ([]byte, error) {
		select {
		case data := <-sess.queue:
			return data, nil
		case <-time.After(s.disconnectTimeout):
			return nil, ErrDisconnected
		case <-ctx.Done():
			// Server shutdown: end this session the same way an idle timeout would, so the
			// handler always sees a clean Disconnected rather than a
			// context-cancellation error it wasn't written to expect.
			return nil, ErrDisconnected
		}
	}

	if err := s.handler(push, pull, key); err != nil {
		log.WithError(err).Warn("server: session handler returned an error")
	} else {
		log.Debug("server: session ended")
	}
}

// shutdown cancels every live session and waits for its handler
// goroutine to finish removing itself from the table.
func (s *Server) shutdown() {
	s.sessions.Range(func(_, val interface{}) bool {
		val.(*session).cancel()
		return true
	})
	s.wg.Wait()
}
