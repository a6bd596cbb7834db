package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/semver"

	"github.com/thoreinstein/gfsave/internal/paths"
	"github.com/thoreinstein/gfsave/pkg/fileutil"
)

const (
	// DefaultOwner is the GitHub owner of the release feed.
	DefaultOwner = "abevol"
	// DefaultRepo is the GitHub repository of the release feed.
	DefaultRepo = "godforsaken-save-manager"
	// DefaultAPIBase is the GitHub API root.
	DefaultAPIBase = "https://api.github.com"

	// VersionAsset is the release asset describing the build.
	VersionAsset = "version.json"

	// OldSuffix is appended to the replaced executable.
	OldSuffix = ".old"

	checkTimeout    = 10 * time.Second
	downloadTimeout = 60 * time.Second

	// maxMetadataSize bounds API and version.json responses.
	maxMetadataSize = 1 << 20
)

var (
	// ErrNoVersionInfo indicates a newer release without a usable
	// version.json asset.
	ErrNoVersionInfo = errors.New("release has no version info")

	// ErrChecksumMismatch indicates a download whose SHA-256 differs from
	// the advertised one.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidVersion indicates a version string that is not semver.
	ErrInvalidVersion = errors.New("invalid version")
)

// Release is the subset of a GitHub release that the updater reads.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info is the content of the version.json asset.
type Info struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	SHA256  string `json:"sha256"`
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Current    string
	Latest     string
	Available  bool
	ReleaseURL string
	// Info is set when Available is true.
	Info *Info
}

// Updater checks, downloads and applies updates.
type Updater struct {
	current string
	owner   string
	repo    string
	apiBase string
	client  *http.Client
	exePath string
	tempDir string
	logger  *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithRepository sets the GitHub repository of the release feed.
func WithRepository(owner, repo string) Option {
	return func(u *Updater) {
		u.owner, u.repo = owner, repo
	}
}

// WithAPIBase sets the GitHub API root, for tests and mirrors.
func WithAPIBase(base string) Option {
	return func(u *Updater) {
		u.apiBase = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		if c != nil {
			u.client = c
		}
	}
}

// WithExecutable sets the executable Apply replaces. By default it is the
// running executable.
func WithExecutable(path string) Option {
	return func(u *Updater) {
		u.exePath = path
	}
}

// WithTempDir sets where downloads are written. By default it is the
// gfsave download cache.
func WithTempDir(dir string) Option {
	return func(u *Updater) {
		u.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New creates an Updater for the running version current.
func New(current string, opts ...Option) *Updater {
	u := &Updater{
		current: current,
		owner:   DefaultOwner,
		repo:    DefaultRepo,
		apiBase: DefaultAPIBase,
		client:  &http.Client{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// IsDevelopment reports whether v is a development build, which never
// updates.
func IsDevelopment(v string) bool {
	_, err := canonical(v)
	return err != nil
}

// canonical turns "1.2" or "v1.2.0" into the semver form "v1.2.0".
func canonical(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.Wrap(ErrInvalidVersion, "empty")
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", errors.Wrapf(ErrInvalidVersion, "%q", v)
	}
	return semver.Canonical(v), nil
}

// Check looks up the latest release. When it is newer than the running
// version, the release's version.json is fetched and returned in Info.
func (u *Updater) Check(ctx context.Context) (*CheckResult, error) {
	result := &CheckResult{Current: u.current}
	current, err := canonical(u.current)
	if err != nil {
		u.logger.Debug("development build, skipping update check", "version", u.current)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var release Release
	url := u.apiBase + "/repos/" + u.owner + "/" + u.repo + "/releases/latest"
	if err := u.getJSON(ctx, url, &release); err != nil {
		return nil, errors.Wrap(err, "fetching latest release")
	}

	result.Latest = strings.TrimPrefix(release.TagName, "v")
	result.ReleaseURL = release.HTMLURL
	latest, err := canonical(release.TagName)
	if err != nil {
		return nil, errors.Wrap(err, "release tag")
	}
	if semver.Compare(latest, current) <= 0 {
		u.logger.Info("up to date", "current", u.current, "latest", result.Latest)
		return result, nil
	}

	u.logger.Info("new version found", "current", u.current, "latest", result.Latest)
	var asset *Asset
	for i := range release.Assets {
		if release.Assets[i].Name == VersionAsset {
			asset = &release.Assets[i]
			break
		}
	}
	if asset == nil {
		return nil, errors.Wrapf(ErrNoVersionInfo, "release %s", release.TagName)
	}

	var info Info
	if err := u.getJSON(ctx, asset.BrowserDownloadURL, &info); err != nil {
		return nil, errors.Wrapf(err, "fetching %s", VersionAsset)
	}
	if info.URL == "" || !validSHA256(info.SHA256) {
		return nil, errors.Wrapf(ErrNoVersionInfo, "%s in release %s is incomplete", VersionAsset, release.TagName)
	}
	if info.Version == "" {
		info.Version = result.Latest
	}

	result.Available = true
	result.Info = &info
	return result, nil
}

func validSHA256(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == sha256.Size
}

func (u *Updater) getJSON(ctx context.Context, url string, v any) error {
	resp, err := u.get(ctx, url, "application/vnd.github+json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding %s", url)
	}
	return nil
}

// get issues a GET and fails on any status other than 200.
func (u *Updater) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", url)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", paths.AppName+"/"+u.current)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("GET %s: %s", url, resp.Status)
	}
	return resp, nil
}

// Download fetches the executable described by info into the download
// directory and verifies its SHA-256. A mismatching file is removed.
func (u *Updater) Download(ctx context.Context, info *Info) (string, error) {
	if info == nil || info.URL == "" {
		return "", ErrNoVersionInfo
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	dir := u.tempDir
	if dir == "" {
		dir = paths.DownloadDir()
	}
	if err := paths.EnsureDir(dir, paths.DefaultDirPerm); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}

	resp, err := u.get(ctx, info.URL, "application/octet-stream")
	if err != nil {
		return "", errors.Wrap(err, "downloading update")
	}
	defer resp.Body.Close()

	f, err := os.CreateTemp(dir, "new-*-"+downloadName(resp.Request.URL.Path))
	if err != nil {
		return "", errors.Wrap(err, "creating download file")
	}
	target := f.Name()

	u.logger.Info("downloading update", "url", info.URL, "to", target)
	hasher := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(f, hasher), resp.Body)
	closeErr := f.Close()
	if err := errors.CombineErrors(copyErr, closeErr); err != nil {
		os.Remove(target)
		return "", errors.Wrap(err, "writing download")
	}

	got := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(got, info.SHA256) {
		os.Remove(target)
		return "", errors.Wrapf(ErrChecksumMismatch, "expected %s, got %s", strings.ToLower(info.SHA256), got)
	}
	if err := os.Chmod(target, 0o755); err != nil {
		os.Remove(target)
		return "", errors.Wrap(err, "marking download executable")
	}

	u.logger.Info("download verified", "sha256", got)
	return target, nil
}

// Apply replaces the executable with the file at newPath. The previous
// executable is renamed to "<exe>.old", whose path is returned; a failed
// write puts it back.
func (u *Updater) Apply(newPath string) (string, error) {
	exe, err := u.executable()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(newPath)
	if err != nil {
		return "", errors.Wrap(err, "reading downloaded executable")
	}

	old := exe + OldSuffix
	if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "removing %s", old)
	}
	// Renaming works on Windows even while the executable runs.
	if err := os.Rename(exe, old); err != nil {
		return "", errors.Wrapf(err, "moving %s aside", exe)
	}

	if err := fileutil.AtomicWriteFile(exe, data, 0o755); err != nil {
		if rbErr := os.Rename(old, exe); rbErr != nil {
			return "", errors.CombineErrors(
				errors.Wrap(err, "writing new executable"),
				errors.Wrap(rbErr, "restoring previous executable"))
		}
		return "", errors.Wrap(err, "writing new executable (rolled back)")
	}

	if err := os.Remove(newPath); err != nil {
		u.logger.Debug("could not remove download", "path", newPath, "error", err)
	}
	u.logger.Info("update applied", "exe", exe, "previous", old)
	return old, nil
}

func (u *Updater) executable() (string, error) {
	if u.exePath != "" {
		return u.exePath, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "locating executable")
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", errors.Wrap(err, "resolving executable")
	}
	return exe, nil
}

// fallbackDownloadName names downloads whose URL has no usable file name.
const fallbackDownloadName = "gfsave-update"

// downloadName returns the last element of a download URL path, usable as
// part of a temp file pattern.
func downloadName(urlPath string) string {
	name := path.Base(urlPath)
	if name == "." || name == "/" || name == ".." || strings.ContainsAny(name, `/\`) {
		return fallbackDownloadName
	}
	return name
}
