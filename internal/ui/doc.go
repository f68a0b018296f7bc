// Package ui implements the debug console, an interactive terminal interface
// using bubbletea's Elm architecture.
//
// The console attaches to one operation's progress stream and shows two
// things side by side: the derived live progress (messages, steering changes,
// queue preview, terminal state) and the classified event history behind it
// (api/sse/error/state/steer, bounded capacity, filterable).
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Frames cross from the stream reader goroutine to the program loop over a
// channel, so the event store is only ever touched from one goroutine.
//
// Keys: 1-5 filter by category, a shows all, c clears the history, q quits.
package ui
