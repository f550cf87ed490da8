package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegetools/recgame/pkg/rec"
)

func sampleHeader() *rec.Header {
	return &rec.Header{
		Version:     rec.VersionDE,
		GameVersion: "VER 9.4",
		SaveVersion: 13.34,
		Players: []rec.Player{
			{Number: 0, Name: "Gaia"},
			{Number: 1, Name: "TheViper", CivilizationID: 16},
		},
		Map:   rec.Map{Width: 120, Height: 120},
		Lobby: rec.Lobby{Seed: 12345, Population: 200},
	}
}

func TestNewRecord(t *testing.T) {
	r, err := NewRecord("games/1.aoe2record", sampleHeader(), 1800000, 54321)
	require.NoError(t, err)
	assert.Equal(t, "DE", r.GameVersion)
	assert.Equal(t, 2, r.NumPlayers)
	assert.Equal(t, uint32(120), r.MapWidth)
	assert.Equal(t, uint32(1800000), r.DurationMs)
	assert.False(t, r.IndexedAt.IsZero())

	hdr, err := r.DecodedHeader()
	require.NoError(t, err)
	assert.Equal(t, rec.VersionDE, hdr.Version)
	assert.Equal(t, "TheViper", hdr.Players[1].Name)
	assert.Equal(t, int32(12345), hdr.Lobby.Seed)
}

// backendUnderTest runs the shared backend contract against an
// implementation.
func backendUnderTest(t *testing.T, b Backend) {
	t.Helper()
	require.NoError(t, b.Init())
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	_, err := b.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	r1, err := NewRecord("a.aoe2record", sampleHeader(), 100, 10)
	require.NoError(t, err)
	require.NoError(t, b.Put(r1))

	r2, err := NewRecord("b.aoe2record", sampleHeader(), 200, 20)
	require.NoError(t, err)
	require.NoError(t, b.Put(r2))

	got, err := b.Get("a.aoe2record")
	require.NoError(t, err)
	assert.Equal(t, uint32(100), got.DurationMs)

	// Re-indexing the same path replaces the row instead of duplicating.
	r1b, err := NewRecord("a.aoe2record", sampleHeader(), 150, 15)
	require.NoError(t, err)
	require.NoError(t, b.Put(r1b))

	got, err = b.Get("a.aoe2record")
	require.NoError(t, err)
	assert.Equal(t, uint32(150), got.DurationMs)

	all, err := b.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.aoe2record", all[0].Path)
	assert.Equal(t, "b.aoe2record", all[1].Path)

	require.NoError(t, b.Delete("a.aoe2record"))
	require.NoError(t, b.Delete("a.aoe2record")) // idempotent
	_, err = b.Get("a.aoe2record")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend(t *testing.T) {
	backendUnderTest(t, NewMemoryBackend())
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	backendUnderTest(t, b)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	b, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	r, err := NewRecord("x.mgz", sampleHeader(), 42, 4)
	require.NoError(t, err)
	require.NoError(t, b.Put(r))
	require.NoError(t, b.Close())

	b2, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, b2.Init())
	defer b2.Close()

	got, err := b2.Get("x.mgz")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got.DurationMs)
	hdr, err := got.DecodedHeader()
	require.NoError(t, err)
	assert.Equal(t, uint32(200), hdr.Lobby.Population)
}
