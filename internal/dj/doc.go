// Package dj hosts the event producers that feed the progress pipeline.
//
// The real playlist-generation and music-search logic is an external
// concern; producers here are opaque to the pipeline and only promise a
// single linear frame sequence per operation. [Run] owns the pipeline
// lifecycle around a producer: one emitter, one flush controller, one
// logger, all discarded when the operation's channel closes.
package dj
