// Package serial implements wrap-around arithmetic on 16-bit sequence
// numbers, the building block the ARQ sender/receiver use to decide
// whether an incoming packet is the one they're waiting for.
package serial

// Seq is a sequence number in the range [0, 0xffff].
type Seq uint16

// Distance computes the forward cyclic distance from j to i.
//
// This is a fast approximation: (i - j) & 0x7fff. It breaks down if the
// two sequence numbers are more than 0x4000 apart, at which point it can
// report a small distance for what is actually a large gap. Callers must
// never let legitimate sequence gaps exceed that bound; stop-and-wait
// (window size 1) never does.
func Distance(i, j Seq) uint16 {
	return uint16(i-j) & 0x7fff
}

// Next advances seq by one, wrapping at 0xffff back to 0.
func Next(seq Seq) Seq {
	return Seq(uint16(seq+1) & 0xffff)
}
