package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/save"
)

func TestList_Ordering(t *testing.T) {
	f := newFixture(t)

	writeSave(t, filepath.Join(f.manualRoot(), save.NewIdentity(at(10)).String()), at(10), "m10")
	writeSave(t, filepath.Join(f.manualRoot(), save.NewIdentity(at(30)).String()), at(30), "m30")
	writeSave(t, filepath.Join(f.autoRoot(), save.NewIdentity(at(20)).String()), at(20), "a20")
	writeSave(t, filepath.Join(f.autoRoot(), save.NewIdentity(at(30)).String()), at(30), "a30")

	entries, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, entries, 4)

	type view struct {
		id   save.Identity
		kind Kind
	}
	var got []view
	for _, e := range entries {
		got = append(got, view{e.Identity, e.Kind})
	}
	assert.Equal(t, []view{
		{save.NewIdentity(at(30)), KindManual},
		{save.NewIdentity(at(30)), KindAutomatic},
		{save.NewIdentity(at(20)), KindAutomatic},
		{save.NewIdentity(at(10)), KindManual},
	}, got)
}

func TestList_SkipsNonBackups(t *testing.T) {
	f := newFixture(t)
	id := save.NewIdentity(at(0))
	writeSave(t, filepath.Join(f.manualRoot(), id.String()), at(0), "real")

	// Stray folder without a marker.
	require.NoError(t, os.MkdirAll(filepath.Join(f.manualRoot(), "2024-01-01_00-00-00"), 0o755))
	// Leftover staging folder from an interrupted copy.
	writeSave(t, filepath.Join(f.manualRoot(), ".2024-02-02_00-00-00.partial"), at(5), "partial")
	// Regular file in the root.
	require.NoError(t, os.WriteFile(filepath.Join(f.manualRoot(), "readme.txt"), nil, 0o644))
	// Folder with a marker but a name that is not an identity.
	writeSave(t, filepath.Join(f.manualRoot(), "copied by hand"), at(7), "hand")

	entries, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].Identity)
}

func TestList_MissingRoots(t *testing.T) {
	f := newFixture(t)
	entries, err := f.mgr.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_AttachesNotes(t *testing.T) {
	f := newFixture(t)
	id := save.NewIdentity(at(0))
	writeSave(t, filepath.Join(f.autoRoot(), id.String()), at(0), "x")

	cfg := f.config(t)
	cfg.Notes[id.String()] = "after the bridge"
	require.NoError(t, f.store.Save(cfg))

	entries, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "after the bridge", entries[0].Note)
	assert.Equal(t, KindAutomatic, entries[0].Kind)
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	older := save.NewIdentity(at(0))
	newer := save.NewIdentity(at(10))
	writeSave(t, filepath.Join(f.manualRoot(), older.String()), at(0), "m")
	writeSave(t, filepath.Join(f.autoRoot(), older.String()), at(0), "a")
	writeSave(t, filepath.Join(f.autoRoot(), newer.String()), at(10), "a2")

	cfg := f.config(t)
	cfg.LastBackup = filepath.Join(f.autoRoot(), older.String())
	require.NoError(t, f.store.Save(cfg))

	tests := []struct {
		name     string
		ref      string
		wantID   save.Identity
		wantKind Kind
		wantErr  error
	}{
		{name: "identity prefers manual", ref: older.String(), wantID: older, wantKind: KindManual},
		{name: "kind prefix", ref: "auto:" + older.String(), wantID: older, wantKind: KindAutomatic},
		{name: "automatic only identity", ref: newer.String(), wantID: newer, wantKind: KindAutomatic},
		{name: "path", ref: filepath.Join(f.autoRoot(), older.String()), wantID: older, wantKind: KindAutomatic},
		{name: "latest", ref: RefLatest, wantID: newer, wantKind: KindAutomatic},
		{name: "last", ref: RefLast, wantID: older, wantKind: KindAutomatic},
		{name: "unknown identity", ref: "2001-01-01_00-00-00", wantErr: ErrNotFound},
		{name: "empty", ref: " ", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := f.mgr.Find(tt.ref)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, e.Identity)
			assert.Equal(t, tt.wantKind, e.Kind)
		})
	}
}

func TestFind_LastUnset(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Find(RefLast)
	assert.True(t, errors.Is(err, ErrNotFound), "error = %v", err)
}

func TestPrune(t *testing.T) {
	f := newFixture(t)
	for i := range 4 {
		writeSave(t, filepath.Join(f.autoRoot(), save.NewIdentity(at(i)).String()), at(i), "a")
	}
	writeSave(t, filepath.Join(f.manualRoot(), save.NewIdentity(at(0)).String()), at(0), "m")

	removed, err := f.mgr.Prune(KindAutomatic, 1)
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, save.NewIdentity(at(2)), removed[0].Identity)
	assert.Equal(t, save.NewIdentity(at(0)), removed[2].Identity)

	entries, err := f.mgr.List()
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(entries, KindAutomatic))
	assert.Equal(t, 1, countKind(entries, KindManual))

	_, err = f.mgr.Prune(KindManual, -1)
	assert.True(t, errors.Is(err, ErrInvalidKeep))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"manual", KindManual, false},
		{"Automatic", KindAutomatic, false},
		{"auto", KindAutomatic, false},
		{"weekly", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Kind {
	t.Helper()
	k, err := ParseKind(s)
	require.NoError(t, err)
	return k
}

// mockStore is a config.Store driven by testify expectations.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load() (*config.Config, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.Config)
	return cfg, args.Error(1)
}

func (m *mockStore) Save(cfg *config.Config) error {
	return m.Called(cfg).Error(0)
}

func TestManager_StoreErrorsAreIO(t *testing.T) {
	store := &mockStore{}
	store.On("Load").Return(nil, errors.New("permission denied"))
	mgr := NewManager(store)

	_, err := mgr.List()
	assert.True(t, errors.Is(err, ErrIO), "error = %v", err)

	_, _, err = mgr.Create("", KindManual)
	assert.True(t, errors.Is(err, ErrIO), "error = %v", err)

	assert.Equal(t, 0.0, mgr.ElapsedMinutes(t.TempDir()))
	store.AssertExpectations(t)
}

func TestManager_SaveErrorIsIO(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := config.Default(dataDir)
	writeSave(t, cfg.GameSavePath, at(0), "a")

	store := &mockStore{}
	store.On("Load").Return(&cfg, nil)
	store.On("Save", mock.Anything).Return(errors.New("disk full"))
	mgr := NewManager(store)

	id, ok, err := mgr.Create("n", KindManual)
	assert.True(t, errors.Is(err, ErrIO), "error = %v", err)
	assert.True(t, ok, "the snapshot itself was written")
	assert.Equal(t, save.NewIdentity(at(0)), id)
	store.AssertCalled(t, "Save", mock.Anything)
}
