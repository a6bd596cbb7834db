// Package paths resolves the directories gfsave reads and writes.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. The configuration file lives at
// <ConfigHome>/gfsave/config.json and update downloads are staged below
// <CacheHome>/gfsave/.
//
// # Game Data
//
// [GameDataDir] locates the game's own data directory, the parent of the
// live save folder and of the default backup roots. On Windows this is
// below %USERPROFILE%\AppData\LocalLow; elsewhere the game runs under
// Steam Proton and the same tree lives inside the compatibility prefix for
// app id 3419290.
package paths
