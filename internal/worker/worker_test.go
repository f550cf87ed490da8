package worker

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegetools/recgame/internal/catalog"
	"github.com/siegetools/recgame/internal/logging"
	"github.com/siegetools/recgame/internal/monitor"
	"github.com/siegetools/recgame/pkg/mgz"
)

func newTestManager(t *testing.T, backend catalog.Backend, mon *monitor.Manager) *Manager {
	t.Helper()
	viper.Set("worker.count", 2)
	t.Cleanup(func() { viper.Set("worker.count", 4) })
	return NewManager(Dependencies{
		LogManager: logging.NewManager(),
		Backend:    backend,
		Monitor:    mon,
	})
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"unsupported", &mgz.UnsupportedFormatError{GameVersion: "VER 9.3"}, "unsupported"},
		{"corrupt header", &mgz.CorruptHeaderError{Offset: 10, Err: fmt.Errorf("bad")}, "corrupt_header"},
		{"corrupt body", &mgz.CorruptBodyError{Offset: 4, Reason: "tag"}, "corrupt_body"},
		{"truncated", fmt.Errorf("reading sync: %w", mgz.ErrEndOfData), "truncated"},
		{"wrapped corrupt header", fmt.Errorf("file x: %w", &mgz.CorruptHeaderError{Err: fmt.Errorf("bad")}), "corrupt_header"},
		{"other", fmt.Errorf("open: no such file"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, outcome(tc.err))
		})
	}
}

func TestRunIsolatesBadFiles(t *testing.T) {
	dir := t.TempDir()

	tiny := filepath.Join(dir, "tiny.mgz")
	require.NoError(t, os.WriteFile(tiny, []byte{1, 2}, 0o644))

	// declared header length larger than the file
	overrun := filepath.Join(dir, "overrun.mgz")
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(9999)))
	buf.Write(make([]byte, 16))
	require.NoError(t, os.WriteFile(overrun, buf.Bytes(), 0o644))

	missing := filepath.Join(dir, "missing.mgz")

	backend := catalog.NewMemoryBackend()
	require.NoError(t, backend.Init())

	var metrics bytes.Buffer
	mon := monitor.NewManager(zerolog.Nop(), "")
	mon.BackupWriter = gzip.NewWriter(&metrics)

	m := newTestManager(t, backend, mon)
	results := m.Run(context.Background(), []string{tiny, overrun, missing})

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Err, r.Path)
		assert.Nil(t, r.Record, r.Path)
	}

	rows, err := backend.List()
	require.NoError(t, err)
	assert.Empty(t, rows)

	// three parse points plus the batch point went to the backup writer
	require.NoError(t, mon.BackupWriter.Close())
	assert.NotZero(t, metrics.Len())
}

func TestRunEmpty(t *testing.T) {
	backend := catalog.NewMemoryBackend()
	require.NoError(t, backend.Init())

	m := newTestManager(t, backend, nil)
	assert.Empty(t, m.Run(context.Background(), nil))
}

func TestRunCancelledContext(t *testing.T) {
	backend := catalog.NewMemoryBackend()
	require.NoError(t, backend.Init())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newTestManager(t, backend, nil)
	results := m.Run(ctx, []string{"a.mgz", "b.mgz", "c.mgz"})
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}
