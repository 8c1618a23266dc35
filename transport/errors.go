package transport

import "errors"

// ErrDisconnected is returned by a Pull function when no packet has
// arrived from the peer within the configured idle timeout. It is the
// only error a handler (e.g. arq.Run) is expected to recover from; every
// other pull error is a real transport failure and propagates.
var ErrDisconnected = errors.New("transport: peer disconnected")
