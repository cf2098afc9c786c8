package fleet

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFleet() Fleet {
	return Fleet{Buoys: []Buoy{
		{
			ID:          "7",
			Pin:         11,
			ReleaseAt:   Timestamp{time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)},
			ReleaseMode: "surface",
			SleepHours:  6,
		},
		{
			ID:           "8",
			Pin:          13,
			ReleaseAt:    Timestamp{time.Date(2026, 3, 8, 12, 0, 0, 0, time.Local)},
			ReleaseMode:  "bottom",
			SleepHours:   6,
			SleepMinutes: 30,
		},
	}}
}

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	s := NewStoreFS(fsys, "fleet.yaml")
	require.NoError(t, s.Save(testFleet()))
	return s, fsys
}

func TestRoundTrip(t *testing.T) {
	s, fsys := newTestStore(t)

	f, err := s.Load()
	require.NoError(t, err)
	require.Len(t, f.Buoys, 2)

	b, ok := f.Get("7")
	require.True(t, ok)
	assert.Equal(t, 11, b.Pin)
	assert.Equal(t, "surface", b.ReleaseMode)
	assert.True(t, b.ReleaseAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)))
	assert.False(t, b.Released)

	raw, err := afero.ReadFile(fsys, "fleet.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2026/03/01 12:00:00")
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStoreFS(afero.NewMemMapFs(), "nope.yaml")
	_, err := s.Load()
	assert.Error(t, err)
}

func TestLoadSeesExternalEdits(t *testing.T) {
	s, fsys := newTestStore(t)

	// правка файла руками видна со следующего Load
	require.NoError(t, afero.WriteFile(fsys, "fleet.yaml",
		[]byte("buoys:\n  - id: \"9\"\n    pin: 15\n    release_at: 2026/04/01 00:00:00\n"), 0o644))

	f, err := s.Load()
	require.NoError(t, err)
	require.Len(t, f.Buoys, 1)
	_, ok := f.Get("9")
	assert.True(t, ok)
}

func TestMarkReleased(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.MarkReleased("7"))
	f, err := s.Load()
	require.NoError(t, err)
	b, _ := f.Get("7")
	assert.True(t, b.Released)

	// другие мутации не трогают released
	require.NoError(t, s.SetReleaseFlag("7", 1))
	f, err = s.Load()
	require.NoError(t, err)
	b, _ = f.Get("7")
	assert.True(t, b.Released)
	assert.Equal(t, 1, b.ReleaseFlag)
}

func TestMarkReleasedUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.MarkReleased("99"))
}

func TestConcurrentWritersNoLostUpdate(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.MarkReleased("7")
	}()
	go func() {
		defer wg.Done()
		_ = s.SetReleaseFlag("8", 1)
	}()
	wg.Wait()

	f, err := s.Load()
	require.NoError(t, err)
	b7, _ := f.Get("7")
	b8, _ := f.Get("8")
	assert.True(t, b7.Released)
	assert.Equal(t, 1, b8.ReleaseFlag)
}

func TestTimestampParseError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "fleet.yaml",
		[]byte("buoys:\n  - id: \"1\"\n    pin: 3\n    release_at: not-a-date\n"), 0o644))
	s := NewStoreFS(fsys, "fleet.yaml")
	_, err := s.Load()
	assert.Error(t, err)
}
