package filestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootrtc/core"
	"bootrtc/host/hostrtc"
)

func TestMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prefs.toml"))

	ns, err := s.Open(core.PrefsNamespace, true)
	require.NoError(t, err)
	assert.False(t, ns.HasKey(core.EpochKey))
	assert.Equal(t, uint64(42), ns.GetUint(core.EpochKey, 42))
	require.NoError(t, ns.Close())

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "read-only open must not create the file")
}

func TestPutPersistsAsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "prefs.toml")
	s := New(path)

	ns, err := s.Open(core.PrefsNamespace, false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint(core.EpochKey, 1700000000))
	require.NoError(t, ns.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[rtc]")
	assert.Contains(t, string(raw), "epoch = 1700000000")

	reopened := New(path)
	ns, err = reopened.Open(core.PrefsNamespace, true)
	require.NoError(t, err)
	defer ns.Close()
	assert.True(t, ns.HasKey(core.EpochKey))
	assert.Equal(t, uint64(1700000000), ns.GetUint(core.EpochKey, 0))
}

func TestNamespacesIsolated(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prefs.toml"))

	ns, err := s.Open("rtc", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("epoch", 1))
	require.NoError(t, ns.Close())

	other, err := s.Open("other", false)
	require.NoError(t, err)
	assert.False(t, other.HasKey("epoch"))
	require.NoError(t, other.PutUint("epoch", 2))
	require.NoError(t, other.Close())

	ns, err = s.Open("rtc", true)
	require.NoError(t, err)
	defer ns.Close()
	assert.Equal(t, uint64(1), ns.GetUint("epoch", 0))
}

func TestReadOnlyAndClosed(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prefs.toml"))

	ns, err := s.Open("rtc", true)
	require.NoError(t, err)
	assert.ErrorIs(t, ns.PutUint("epoch", 1), ErrReadOnly)
	require.NoError(t, ns.Close())
	assert.ErrorIs(t, ns.Close(), ErrClosed)
	assert.ErrorIs(t, ns.PutUint("epoch", 1), ErrClosed)
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rtc\nepoch = "), 0o644))

	_, err := New(path).Open("rtc", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse preferences")
}

func TestBootClockAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	fake := clockwork.NewFakeClockAt(time.Unix(1000, 0))

	bc := core.NewBootClock(hostrtc.NewSystemClock(fake), New(path), nil)
	require.True(t, bc.Initialize())
	assert.Equal(t, core.DeltaUnknown, bc.BootDelta())

	fake.Advance(500 * time.Second)

	bc = core.NewBootClock(hostrtc.NewSystemClock(fake), New(path), nil)
	require.True(t, bc.Initialize())
	assert.Equal(t, core.Delta(500), bc.BootDelta())

	ns, err := New(path).Open(core.PrefsNamespace, true)
	require.NoError(t, err)
	defer ns.Close()
	assert.Equal(t, uint64(1500), ns.GetUint(core.EpochKey, 0))
}
