package mgz

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegetools/recgame/pkg/rec"
)

// growingFile is a ReadSeeker over a buffer that can be appended to between
// reads, standing in for a recording that is still being written.
type growingFile struct {
	data []byte
	pos  int64
}

func (g *growingFile) Read(p []byte) (int, error) {
	if g.pos >= int64(len(g.data)) {
		return 0, io.EOF
	}
	n := copy(p, g.data[g.pos:])
	g.pos += int64(n)
	return n, nil
}

func (g *growingFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		g.pos = offset
	case io.SeekCurrent:
		g.pos += offset
	case io.SeekEnd:
		g.pos = int64(len(g.data)) + offset
	default:
		return 0, fmt.Errorf("bad whence %d", whence)
	}
	return g.pos, nil
}

func (g *growingFile) grow(b []byte) { g.data = append(g.data, b...) }

func TestReadMeta(t *testing.T) {
	t.Run("de reads only log version", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(5)
		writeSyncOp(w, 100, false, nil)
		c := NewBytesCursor(w.bytes())

		logVersion, err := ReadMeta(c, rec.VersionDE)
		require.NoError(t, err)
		assert.Equal(t, uint32(5), logVersion)
		assert.Equal(t, int64(4), c.Offset())
	})

	t.Run("userpatch consumes start block", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(3)
		w.pad(28)
		c := NewBytesCursor(w.bytes())

		logVersion, err := ReadMeta(c, rec.VersionUserPatch)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), logVersion)
		assert.Equal(t, int64(32), c.Offset())
	})

	t.Run("truncated start block restores cursor", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(3)
		w.pad(10)
		c := NewBytesCursor(w.bytes())

		_, err := ReadMeta(c, rec.VersionHD)
		require.ErrorIs(t, err, ErrEndOfData)
		assert.Equal(t, int64(0), c.Offset())
	})
}

func TestReadBareMeta(t *testing.T) {
	t.Run("de stream", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(5)
		writeSyncOp(w, 100, false, nil)
		c := NewBytesCursor(w.bytes())

		logVersion, version, err := ReadBareMeta(c)
		require.NoError(t, err)
		assert.Equal(t, uint32(5), logVersion)
		assert.Equal(t, rec.VersionDE, version)

		op, err := ReadOperation(c)
		require.NoError(t, err)
		assert.Equal(t, rec.OpSync, op.Type)
	})

	t.Run("legacy stream consumes start block", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(3)
		w.pad(28)
		writeSyncOp(w, 100, false, nil)
		c := NewBytesCursor(w.bytes())

		logVersion, version, err := ReadBareMeta(c)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), logVersion)
		assert.Equal(t, rec.VersionUserPatch, version)
		assert.Equal(t, int64(32), c.Offset())
	})

	t.Run("truncated start block restores cursor", func(t *testing.T) {
		w := &fixtureWriter{}
		w.u32(3)
		w.pad(10)
		c := NewBytesCursor(w.bytes())

		_, _, err := ReadBareMeta(c)
		require.ErrorIs(t, err, ErrEndOfData)
		assert.Equal(t, int64(0), c.Offset())
	})
}

func TestReadOperation(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *fixtureWriter)
		check func(t *testing.T, op *rec.Operation)
	}{
		{
			name: "sync with checksum",
			build: func(w *fixtureWriter) {
				writeSyncOp(w, 100, true, []byte{1, 2})
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, rec.OpSync, op.Type)
				require.NotNil(t, op.Sync)
				assert.Equal(t, uint32(100), op.Sync.IncrementMs)
				require.NotNil(t, op.Sync.Checksum)
				assert.Equal(t, uint32(0xdeadbeef), *op.Sync.Checksum)
				assert.Equal(t, []byte{1, 2}, op.Sync.Data)
			},
		},
		{
			name: "sync without checksum",
			build: func(w *fixtureWriter) {
				writeSyncOp(w, 35, false, nil)
			},
			check: func(t *testing.T, op *rec.Operation) {
				require.NotNil(t, op.Sync)
				assert.Equal(t, uint32(35), op.Sync.IncrementMs)
				assert.Nil(t, op.Sync.Checksum)
				assert.Empty(t, op.Sync.Data)
			},
		},
		{
			name: "viewlock",
			build: func(w *fixtureWriter) {
				writeViewlockOp(w, 54.5, 60.25, 2)
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, rec.OpViewlock, op.Type)
				require.NotNil(t, op.Viewlock)
				assert.Equal(t, float32(54.5), op.Viewlock.X)
				assert.Equal(t, float32(60.25), op.Viewlock.Y)
				assert.Equal(t, uint32(2), op.Viewlock.PlayerID)
			},
		},
		{
			name: "chat keeps raw bytes",
			build: func(w *fixtureWriter) {
				writeChatOp(w, `{"player":1,"message":"gg"}`)
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, rec.OpChat, op.Type)
				assert.Equal(t, []byte(`{"player":1,"message":"gg"}`), op.Chat)
			},
		},
		{
			name: "action",
			build: func(w *fixtureWriter) {
				writeActionOp(w, []byte{byte(rec.ActionResign), 1, 1, 0})
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, rec.OpAction, op.Type)
				require.NotNil(t, op.Action)
				assert.Equal(t, rec.ActionResign, op.Action.Code)
				resign, ok := op.Action.Payload.(*rec.Resign)
				require.True(t, ok)
				assert.Equal(t, uint8(1), resign.PlayerID)
			},
		},
		{
			name: "save is skipped",
			build: func(w *fixtureWriter) {
				w.u32(uint32(rec.OpSave))
				w.u32(6)
				w.raw([]byte("chunk!"))
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, rec.OpSave, op.Type)
				assert.Nil(t, op.Raw)
			},
		},
		{
			name: "unknown structural tag skipped by declared length",
			build: func(w *fixtureWriter) {
				w.u32(7)
				w.u32(3)
				w.raw([]byte{0xaa, 0xbb, 0xcc})
			},
			check: func(t *testing.T, op *rec.Operation) {
				assert.Equal(t, uint32(7), op.Tag)
				assert.Equal(t, "UNKNOWN", op.Type.String())
				assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, op.Raw)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fixtureWriter{}
			tt.build(w)
			w.u32(uint32(rec.OpSync)) // trailing data, must not be consumed
			c := NewBytesCursor(w.bytes())

			op, err := ReadOperation(c)
			require.NoError(t, err)
			tt.check(t, op)
			assert.Equal(t, int64(len(w.bytes()))-4, c.Offset())
		})
	}
}

func TestReadOperationCorrupt(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *fixtureWriter)
	}{
		{
			name: "zero tag",
			build: func(w *fixtureWriter) {
				w.u32(0)
				w.pad(16)
			},
		},
		{
			name: "tag out of structural range",
			build: func(w *fixtureWriter) {
				w.u32(5000)
				w.pad(16)
			},
		},
		{
			name: "action with zero length",
			build: func(w *fixtureWriter) {
				w.u32(uint32(rec.OpAction))
				w.u32(0)
			},
		},
		{
			name: "chat length above sanity cap",
			build: func(w *fixtureWriter) {
				w.u32(uint32(rec.OpChat))
				w.u32(maxOperationSize + 1)
			},
		},
		{
			name: "sync blob length above sanity cap",
			build: func(w *fixtureWriter) {
				w.u32(uint32(rec.OpSync))
				w.u32(100)
				w.u32(1)
				w.u32(maxOperationSize + 1)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fixtureWriter{}
			tt.build(w)
			c := NewBytesCursor(w.bytes())

			_, err := ReadOperation(c)
			var cbe *CorruptBodyError
			require.ErrorAs(t, err, &cbe)
			assert.Equal(t, int64(0), cbe.Offset)
			assert.NotErrorIs(t, err, ErrEndOfData)
		})
	}
}

// The central liveness property: an operation truncated by the present end
// of data fails with ErrEndOfData, restores the cursor to the operation's
// first byte, and the identical call succeeds after the missing bytes
// arrive.
func TestReadOperationRetryAfterGrowth(t *testing.T) {
	complete := &fixtureWriter{}
	writeSyncOp(complete, 100, false, nil)
	writeChatOp(complete, "gg")
	action := &fixtureWriter{}
	writeActionOp(action, []byte{byte(rec.ActionResign), 1, 1, 0})
	full := append(append([]byte{}, complete.bytes()...), action.bytes()...)

	// Cut mid-action: the tag and half the declared payload are present.
	cut := len(complete.bytes()) + 6
	g := &growingFile{data: append([]byte{}, full[:cut]...)}
	c, err := NewCursor(g)
	require.NoError(t, err)

	op, err := ReadOperation(c)
	require.NoError(t, err)
	assert.Equal(t, rec.OpSync, op.Type)

	op, err = ReadOperation(c)
	require.NoError(t, err)
	assert.Equal(t, rec.OpChat, op.Type)

	truncatedAt := c.Offset()
	for i := 0; i < 3; i++ {
		_, err = ReadOperation(c)
		require.ErrorIs(t, err, ErrEndOfData)
		assert.Equal(t, truncatedAt, c.Offset())
	}

	g.grow(full[cut:])
	op, err = ReadOperation(c)
	require.NoError(t, err)
	assert.Equal(t, rec.OpAction, op.Type)
	require.NotNil(t, op.Action)
	assert.Equal(t, rec.ActionResign, op.Action.Code)

	_, err = ReadOperation(c)
	require.ErrorIs(t, err, ErrEndOfData)
}

func TestBodyWalkAccumulatesTime(t *testing.T) {
	w := &fixtureWriter{}
	w.u32(5)
	for i := 0; i < 10; i++ {
		writeSyncOp(w, 35, i%2 == 0, nil)
	}
	writeChatOp(w, "nice wall")
	writeViewlockOp(w, 1, 2, 1)

	c := NewBytesCursor(w.bytes())
	_, err := ReadMeta(c, rec.VersionDE)
	require.NoError(t, err)

	var elapsed uint32
	var ops int
	for {
		op, err := ReadOperation(c)
		if err != nil {
			require.ErrorIs(t, err, ErrEndOfData)
			break
		}
		ops++
		if op.Sync != nil {
			elapsed += op.Sync.IncrementMs
		}
	}
	assert.Equal(t, 12, ops)
	assert.Equal(t, uint32(350), elapsed)
}
