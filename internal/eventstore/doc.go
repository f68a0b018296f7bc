// Package eventstore reconstructs a faithful, bounded-memory, filterable
// history of everything the server said on a progress channel.
//
// [Store.Ingest] classifies each raw frame into one of five categories
// (api, sse, error, state, steer), assigns it an ID and timestamp, and
// appends it to a fixed-capacity ring. Insertion beyond capacity evicts the
// oldest entry first; order is never changed and a newer event is never
// dropped in favor of an older one.
//
// An error frame is data, not an exception: it is stored like any other
// frame and ingestion continues, so the client can render a visible failure
// state while still accepting subsequent frames.
package eventstore
