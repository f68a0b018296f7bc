// Package protocol defines the wire contract for the DJ progress channel.
//
// A channel carries a single linear sequence of [Frame] values from one
// server-side operation to one client. The envelope is always
//
//	{ "type": "progress", "data": { "message": "Analyzing vibe", "stage": "analyze" } }
//
// encoded as one server-sent event per frame. The channel is unidirectional
// and one-shot: once closed it is not resumed, and a new operation opens a
// new channel.
//
// The frame types and their payloads:
//
//   - ack: operation accepted, work starting
//   - thinking: model reasoning in progress
//   - progress: a discrete step completed or started
//   - vibe_update: steering parameters changed
//   - suggestions: candidate results available
//   - queue_update: one track appended to the build queue
//   - log: a structured log entry forwarded by the stream logger
//   - error: a recoverable or fatal problem in the underlying operation
//   - done: terminal success
package protocol
