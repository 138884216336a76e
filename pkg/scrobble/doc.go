// Package scrobble defines the data model shared by every component of
// the aggregation engine: accounts, tracks, ranked entries, listening
// snapshots and the classified error type.
//
// The three supported backends (Last.fm, Libre.fm and ListenBrainz)
// expose very different wire formats; everything in this package is the
// normalized form those formats are translated into. Values here are
// treated as immutable once constructed.
package scrobble
