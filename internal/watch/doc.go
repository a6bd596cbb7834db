// Package watch triggers a callback after the game writes its save.
//
// The game rewrites the marker file each time it saves, usually several
// times in a burst. A [Watcher] waits for a quiet period after the last
// write before calling back, so one save produces one backup.
package watch
