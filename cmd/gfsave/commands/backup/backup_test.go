package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
	"github.com/thoreinstein/gfsave/internal/cli/prompt"
	"github.com/thoreinstein/gfsave/internal/config"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/guard"
	"github.com/thoreinstein/gfsave/internal/logging"
	"github.com/thoreinstein/gfsave/internal/save"
)

type fakeGuard struct {
	running bool
}

func (g *fakeGuard) Running(context.Context) (bool, error) {
	return g.running, nil
}

type fixture struct {
	ctx   context.Context
	s     *cli.Session
	cfg   config.Config
	guard *fakeGuard
	out   bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	f := &fixture{
		ctx:   logging.NewContext(context.Background(), logging.ForTest(t)),
		cfg:   config.Default(filepath.Join(dir, "data")),
		guard: &fakeGuard{},
	}
	f.s = cli.NewSession(f.ctx, filepath.Join(dir, "config.json"), cli.WithGuard(f.guard))
	f.answer("")
	require.NoError(t, f.s.Store.Save(&f.cfg))
	return f
}

// answer scripts the input of the next prompts.
func (f *fixture) answer(input string) {
	f.s.Prompt = prompt.NewWithIO(strings.NewReader(input), &bytes.Buffer{})
}

func at(minutes int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local).Add(time.Duration(minutes) * time.Minute)
}

func writeSave(t *testing.T, dir string, mod time.Time, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slot0.sav"), []byte(content), 0o644))
	marker := filepath.Join(dir, save.MarkerFile)
	require.NoError(t, os.WriteFile(marker, []byte("brief"), 0o644))
	require.NoError(t, os.Chtimes(marker, mod, mod))
}

func (f *fixture) writeLive(t *testing.T, minutes int, content string) save.Identity {
	t.Helper()
	writeSave(t, f.cfg.GameSavePath, at(minutes), content)
	return save.NewIdentity(at(minutes))
}

func (f *fixture) writeBackup(t *testing.T, kind backup.Kind, minutes int, content string) save.Identity {
	t.Helper()
	root := f.cfg.BackupRootPath
	if kind == backup.KindAutomatic {
		root = f.cfg.AutoBackupRootPath
	}
	id := save.NewIdentity(at(minutes))
	writeSave(t, filepath.Join(root, id.String()), at(minutes), content)
	return id
}

func liveContent(t *testing.T, f *fixture) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.GameSavePath, "slot0.sav"))
	require.NoError(t, err)
	return string(data)
}

func TestRunCreate(t *testing.T) {
	f := newFixture(t)
	id := f.writeLive(t, 0, "first")

	require.NoError(t, runCreate(f.ctx, f.s, &f.out, createOptions{note: "before the bridge"}))
	assert.Contains(t, f.out.String(), "Backed up")
	assert.Contains(t, f.out.String(), id.String())

	f.out.Reset()
	require.NoError(t, runCreate(f.ctx, f.s, &f.out, createOptions{}))
	assert.Contains(t, f.out.String(), "already backed up")

	entries, err := f.s.Manager.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, backup.KindManual, entries[0].Kind)
	assert.Equal(t, "before the bridge", entries[0].Note)
}

func TestRunCreate_Auto(t *testing.T) {
	f := newFixture(t)
	f.writeLive(t, 0, "first")

	require.NoError(t, runCreate(f.ctx, f.s, &f.out, createOptions{auto: true}))

	entries, err := f.s.Manager.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, backup.KindAutomatic, entries[0].Kind)
	assert.Equal(t, backup.AutoBackupNote, entries[0].Note)
}

func TestRunCreate_AutoRejectsNote(t *testing.T) {
	f := newFixture(t)
	f.writeLive(t, 0, "first")

	err := runCreate(f.ctx, f.s, &f.out, createOptions{auto: true, note: "boss"})
	var exitErr *gferrors.ExitError
	require.True(t, errors.As(err, &exitErr), "error = %v", err)
	assert.Equal(t, gferrors.ExitUser, exitErr.Code)
	assert.True(t, errors.Is(err, errNoteWithAuto))

	entries, err := f.s.Manager.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateCmd_NoteAndAutoExclusive(t *testing.T) {
	t.Cleanup(func() {
		_ = createCmd.Flags().Set("note", "")
		_ = createCmd.Flags().Set("auto", "false")
		createCmd.Flags().Lookup("note").Changed = false
		createCmd.Flags().Lookup("auto").Changed = false
	})
	require.NoError(t, createCmd.ParseFlags([]string{"--auto", "--note", "boss"}))
	err := createCmd.ValidateFlagGroups()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestRunCreate_GameRunning(t *testing.T) {
	f := newFixture(t)
	f.writeLive(t, 0, "first")
	f.guard.running = true

	err := runCreate(f.ctx, f.s, &f.out, createOptions{})
	assert.True(t, errors.Is(err, guard.ErrGameRunning), "error = %v", err)

	entries, err := f.s.Manager.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, runCreate(f.ctx, f.s, &f.out, createOptions{force: true}))
	assert.Contains(t, f.out.String(), "Backed up")
}

func TestRunCreate_NoSave(t *testing.T) {
	f := newFixture(t)
	err := runCreate(f.ctx, f.s, &f.out, createOptions{})
	assert.True(t, errors.Is(err, backup.ErrNotFound), "error = %v", err)
}

func TestRunList(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, runList(f.ctx, f.s, &f.out, listOptions{}))
	assert.Contains(t, f.out.String(), "No backups available")

	live := f.writeLive(t, 20, "live")
	f.writeBackup(t, backup.KindManual, 0, "m")
	f.writeBackup(t, backup.KindAutomatic, 20, "a")

	f.out.Reset()
	require.NoError(t, runList(f.ctx, f.s, &f.out, listOptions{}))
	out := f.out.String()
	assert.Contains(t, out, "IDENTITY")
	assert.Contains(t, out, live.String()+" (live)")
	assert.Contains(t, out, "manual")

	f.out.Reset()
	require.NoError(t, runList(f.ctx, f.s, &f.out, listOptions{kind: "auto", json: true}))
	var entries []backup.Entry
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, live, entries[0].Identity)
}

func TestRunList_EmptyJSON(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, runList(f.ctx, f.s, &f.out, listOptions{json: true}))
	assert.Equal(t, "[]\n", f.out.String())
}

func TestRunList_InvalidKind(t *testing.T) {
	f := newFixture(t)
	err := runList(f.ctx, f.s, &f.out, listOptions{kind: "weekly"})
	assert.True(t, errors.Is(err, backup.ErrInvalidKind), "error = %v", err)
}

func TestRunRestore(t *testing.T) {
	f := newFixture(t)
	old := f.writeBackup(t, backup.KindManual, 0, "old")
	live := f.writeLive(t, 5, "new")

	require.NoError(t, runRestore(f.ctx, f.s, &f.out, old.String(), restoreOptions{}))

	out := f.out.String()
	assert.Contains(t, out, "Backed up the live save "+live.String())
	assert.Contains(t, out, "Restored")
	assert.Equal(t, "old", liveContent(t, f))

	safety, err := f.s.Manager.Find("auto:" + live.String())
	require.NoError(t, err)
	assert.Equal(t, backup.KindAutomatic, safety.Kind)
}

func TestRunRestore_ConfirmThreshold(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		assumeYes bool
		wantErr   error
		want      string
	}{
		{name: "declined", input: "n\n", wantErr: gferrors.ErrCancelled, want: "new"},
		{name: "no answer", input: "", wantErr: gferrors.ErrCancelled, want: "new"},
		{name: "accepted", input: "y\n", want: "old"},
		{name: "assume yes", assumeYes: true, want: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			old := f.writeBackup(t, backup.KindManual, 0, "old")
			f.writeLive(t, 120, "new")
			f.answer(tt.input)

			err := runRestore(f.ctx, f.s, &f.out, old.String(), restoreOptions{assumeYes: tt.assumeYes})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, liveContent(t, f))
		})
	}
}

func TestRunRestore_Picker(t *testing.T) {
	f := newFixture(t)
	f.writeBackup(t, backup.KindManual, 10, "newer")
	f.writeBackup(t, backup.KindManual, 0, "older")
	f.writeLive(t, 10, "newer")

	// Entries are listed newest first; pick the second.
	f.answer("2\n")
	require.NoError(t, runRestore(f.ctx, f.s, &f.out, "", restoreOptions{}))
	assert.Equal(t, "older", liveContent(t, f))
}

func TestRunRestore_GameRunning(t *testing.T) {
	f := newFixture(t)
	old := f.writeBackup(t, backup.KindManual, 0, "old")
	f.writeLive(t, 5, "new")
	f.guard.running = true

	err := runRestore(f.ctx, f.s, &f.out, old.String(), restoreOptions{})
	assert.True(t, errors.Is(err, guard.ErrGameRunning), "error = %v", err)
	assert.Equal(t, "new", liveContent(t, f))
}

func TestRunRestore_NoBackups(t *testing.T) {
	f := newFixture(t)
	f.writeLive(t, 0, "live")

	err := runRestore(f.ctx, f.s, &f.out, "", restoreOptions{})
	assert.True(t, errors.Is(err, backup.ErrNotFound), "error = %v", err)
}

func TestRunDelete(t *testing.T) {
	f := newFixture(t)
	id := f.writeBackup(t, backup.KindAutomatic, 0, "a")

	f.answer("n\n")
	err := runDelete(f.ctx, f.s, &f.out, id.String(), false)
	assert.True(t, errors.Is(err, gferrors.ErrCancelled), "error = %v", err)
	assert.DirExists(t, filepath.Join(f.cfg.AutoBackupRootPath, id.String()))

	f.answer("y\n")
	require.NoError(t, runDelete(f.ctx, f.s, &f.out, id.String(), false))
	assert.NoDirExists(t, filepath.Join(f.cfg.AutoBackupRootPath, id.String()))
	assert.Contains(t, f.out.String(), "Deleted "+id.String())
}

func TestRunDelete_Unknown(t *testing.T) {
	f := newFixture(t)
	err := runDelete(f.ctx, f.s, &f.out, "2001-01-01_00-00-00", true)
	assert.True(t, errors.Is(err, backup.ErrNotFound), "error = %v", err)
}

func TestRunNote(t *testing.T) {
	f := newFixture(t)
	id := f.writeBackup(t, backup.KindManual, 0, "m")

	require.NoError(t, runNote(f.ctx, f.s, &f.out, id.String(), "", false))
	assert.Contains(t, f.out.String(), "has no note")

	f.out.Reset()
	require.NoError(t, runNote(f.ctx, f.s, &f.out, id.String(), "  boss down ", false))
	assert.Contains(t, f.out.String(), "Noted")

	f.out.Reset()
	require.NoError(t, runNote(f.ctx, f.s, &f.out, "latest", "", false))
	assert.Equal(t, "boss down\n", f.out.String())

	require.NoError(t, runNote(f.ctx, f.s, &f.out, id.String(), "ignored", true))
	e, err := f.s.Manager.Find(id.String())
	require.NoError(t, err)
	assert.Empty(t, e.Note)
}

func TestRunPrune(t *testing.T) {
	f := newFixture(t)
	for i := range 4 {
		f.writeBackup(t, backup.KindAutomatic, i, "a")
	}
	f.writeBackup(t, backup.KindManual, 0, "m")

	require.NoError(t, runPrune(f.ctx, f.s, &f.out, pruneOptions{keep: 1, kind: "auto"}))
	assert.Contains(t, f.out.String(), "removed 3 backup(s)")

	entries, err := f.s.Manager.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	f.out.Reset()
	require.NoError(t, runPrune(f.ctx, f.s, &f.out, pruneOptions{keep: -1}))
	assert.Contains(t, f.out.String(), "No backups to prune")
}

func TestRunPrune_RetentionDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxHistory = 0
	require.NoError(t, f.s.Store.Save(&f.cfg))
	f.writeBackup(t, backup.KindAutomatic, 0, "a")

	require.NoError(t, runPrune(f.ctx, f.s, &f.out, pruneOptions{keep: -1}))
	assert.Contains(t, f.out.String(), "keeping all backups")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer note here", 10, "a longe..."},
		{"multi\nline  note", 20, "multi line note"},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.max), tt.in)
	}
}
