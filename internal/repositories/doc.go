// Package repositories persists completed streaming sessions for postmortem
// debugging.
//
// A session row records one operation (prompt, mode, outcome); frame rows
// store the delivered sequence with a strictly increasing seq column, so a
// replay reads back in exact emission order. Playlists themselves are not
// persisted here; this archive exists for the pipeline, not the catalog.
package repositories
