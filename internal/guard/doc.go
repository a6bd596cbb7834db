// Package guard reports whether the game is running.
//
// Restoring or snapshotting a save while the game holds it open produces a
// torn copy, so mutating commands check a [Guard] first. The check is
// advisory: the game can start between the check and the copy.
//
// Two strategies exist. [MutexGuard] opens the game's single-instance mutex
// and only works on Windows. [ProcessGuard] scans the process table and
// works everywhere, including games run through Wine or Proton. [Default]
// combines them with [Fallback], so the first strategy the platform supports
// decides.
package guard
