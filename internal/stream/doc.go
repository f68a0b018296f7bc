// Package stream implements the server side of the progress pipeline: an
// adaptive flush gate, a frame emitter, and a structured logger multiplexed
// onto the same channel.
//
// Each streaming operation owns exactly one [Emitter] (wrapping one
// [FlushController]) and one [Logger]. Instances are created per operation
// and discarded when the operation's channel closes; nothing is shared
// across concurrent operations.
//
// Writes are batched by the transport; the [FlushController] guarantees a
// write surfaces within a bounded latency even at low message volume, by
// forcing a flush after EveryN frames or after Interval of wall-clock time,
// whichever comes first. Counters reset only on a successful flush, so a
// transport failure stays visible and re-triggers on the next check.
package stream
