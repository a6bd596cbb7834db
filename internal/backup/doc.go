// Package backup manages the backup catalog of a single game save.
//
// Each backup is a verbatim copy of the live save directory, stored in a
// folder named after the save's identity (see package save). There are two
// roots, one per [Kind], and they deduplicate independently:
//
//	game_save_my_bak/              manual backups
//	└── 2024-03-01_12-30-45/
//	    ├── ProfileBrief.ssp
//	    └── {save files...}
//	game_save_auto_bak/            automatic backups
//	└── 2024-03-01_12-30-45/
//
// A folder in a root is a backup when it holds the marker file and its name
// parses as an identity. Hand-copied folders with other names and hidden
// staging folders (".<identity>.partial") are not listed, so Delete and
// retention never touch them.
//
// Notes and the last backup path live in the configuration, not in the
// backup folders, so a [Manager] reloads its config.Store at the start of
// every operation and saves it at the end of every mutation.
//
// # Creating Backups
//
// Use [Manager.Create] to snapshot the live save:
//
//	mgr := backup.NewManager(store, backup.WithLogger(logger))
//	id, ok, err := mgr.Create("before the cathedral boss", backup.KindManual)
//	if err == nil && !ok {
//	    // this save state is already backed up
//	}
//
// A snapshot is copied into a hidden staging folder and renamed into place,
// so a folder named after an identity is always complete. After every
// successful create the oldest backups of each kind beyond max_history
// are deleted.
//
// # Restoring Backups
//
// [Manager.Restore] first makes sure the live save is itself backed up (an
// automatic backup is taken if its identity is in neither root), stages the
// backup next to the live save, verifies the staged tree's digest, and only
// then swaps it in. A failure between removing the live save and renaming
// the staged copy leaves the staged copy on disk next to the save path.
//
// # Error Handling
//
//   - [ErrNotFound]: the live save, its marker file or a backup is missing
//   - [ErrIO]: marks copy, remove, read and write failures
//   - [ErrSnapshotMismatch]: a staged restore did not match its backup
//
// A create that finds its identity already backed up is not an error; it
// reports ok=false.
package backup
