// Package update replaces the running gfsave executable with a newer
// GitHub release.
//
// A release advertises its build through a version.json asset:
//
//	{"version": "1.4.0", "url": "https://.../gfsave.exe", "sha256": "..."}
//
// [Updater.Check] compares the release tag with the running version,
// [Updater.Download] fetches and verifies the executable, and
// [Updater.Apply] swaps it in, keeping the previous executable next to it
// with an ".old" suffix. Development builds never see an update.
package update
