package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is the directory name used below the XDG base directories.
const AppName = "gfsave"

// Game install facts used to locate the save data.
const (
	// SteamAppID is the Steam application id of GodForsaken.
	SteamAppID = "3419290"

	gameCompany = "InsightStudio"
	gameProduct = "GodForsakenRelease"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or an empty string when it cannot
// be determined. Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func DataHome() string {
	return xdg.DataHome
}

// CacheHome returns the XDG cache home directory.
// On Linux: ~/.cache
// On macOS: ~/Library/Caches
// On Windows: %LOCALAPPDATA%\cache
func CacheHome() string {
	return xdg.CacheHome
}

// ConfigFile returns the default configuration file path.
// Returns: <ConfigHome>/gfsave/config.json
func ConfigFile() string {
	return filepath.Join(ConfigHome(), AppName, "config.json")
}

// DownloadDir returns the directory self-update downloads are staged in.
// Returns: <CacheHome>/gfsave/downloads/
func DownloadDir() string {
	return filepath.Join(CacheHome(), AppName, "downloads")
}

// GameDataDir returns the directory the game keeps its save folders in.
//
//   - windows: %USERPROFILE%\AppData\LocalLow\InsightStudio\GodForsakenRelease
//   - others:  the same directory inside the Steam Proton prefix,
//     <DataHome>/Steam/steamapps/compatdata/3419290/pfx/drive_c/users/steamuser/...
//
// Returns an empty string when the home directory cannot be determined.
func GameDataDir() string {
	return gameDataDir(runtime.GOOS, Home(), DataHome())
}

func gameDataDir(goos, home, dataHome string) string {
	if goos == "windows" {
		if home == "" {
			return ""
		}
		return filepath.Join(home, "AppData", "LocalLow", gameCompany, gameProduct)
	}

	if dataHome == "" {
		return ""
	}
	prefix := filepath.Join(dataHome, "Steam", "steamapps", "compatdata", SteamAppID, "pfx")
	return filepath.Join(prefix, "drive_c", "users", "steamuser", "AppData", "LocalLow", gameCompany, gameProduct)
}
