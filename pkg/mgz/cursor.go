// Package mgz decodes recorded-game containers: a compressed match-setup
// header followed by a body stream of sync, chat, and action operations.
// Three format revisions are supported, selected by version markers in the
// header prefix. All multi-byte fields are little-endian.
package mgz

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Cursor is a seekable, bounds-checked reader over a byte source. Every read
// either fully consumes the requested bytes or fails with ErrEndOfData and
// leaves the position where it was; reads never return short or clamp length.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	r   io.ReadSeeker
	off int64
}

// NewCursor wraps r at its current position. The position is tracked by the
// Cursor from here on; the caller must not seek r independently.
func NewCursor(r io.ReadSeeker) (*Cursor, error) {
	off, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("determining cursor position: %w", err)
	}
	return &Cursor{r: r, off: off}, nil
}

// NewBytesCursor returns a Cursor over an in-memory buffer.
func NewBytesCursor(data []byte) *Cursor {
	return &Cursor{r: bytes.NewReader(data)}
}

// Offset returns the current absolute offset in the underlying source.
func (c *Cursor) Offset() int64 { return c.off }

// Remaining returns the number of bytes between the current position and the
// present end of the source. For a still-growing file the value is a lower
// bound that increases between calls.
func (c *Cursor) Remaining() (int64, error) {
	end, err := c.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := c.r.Seek(c.off, io.SeekStart); err != nil {
		return 0, err
	}
	return end - c.off, nil
}

// SeekTo moves the cursor to an absolute offset. This is the only way the
// position ever moves backwards.
func (c *Cursor) SeekTo(off int64) error {
	if _, err := c.r.Seek(off, io.SeekStart); err != nil {
		return err
	}
	c.off = off
	return nil
}

// Bytes reads exactly n bytes. On ErrEndOfData the position is unchanged.
// The request is checked against the remaining length before anything is
// allocated, so a corrupt declared length cannot drive a huge allocation.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	rem, err := c.Remaining()
	if err != nil {
		return nil, err
	}
	if int64(n) > rem {
		return nil, fmt.Errorf("read of %d bytes at offset %d: %w", n, c.off, ErrEndOfData)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if _, serr := c.r.Seek(c.off, io.SeekStart); serr != nil {
			return nil, serr
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read of %d bytes at offset %d: %w", n, c.off, ErrEndOfData)
		}
		return nil, err
	}
	c.off += int64(n)
	return buf, nil
}

// Skip advances past n bytes without retaining them.
func (c *Cursor) Skip(n int) error {
	_, err := c.Bytes(n)
	return err
}

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n int) ([]byte, error) {
	buf, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	if err := c.SeekTo(c.off - int64(n)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Cursor) U8() (uint8, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

func (c *Cursor) U16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

func (c *Cursor) U32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

func (c *Cursor) U64() (uint64, error) {
	b, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	return math.Float32frombits(v), err
}

func (c *Cursor) F64() (float64, error) {
	v, err := c.U64()
	return math.Float64frombits(v), err
}

// PrefixedBytes reads a u32 length prefix followed by that many bytes.
func (c *Cursor) PrefixedBytes() ([]byte, error) {
	start := c.off
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	b, err := c.Bytes(int(n))
	if err != nil {
		if serr := c.SeekTo(start); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	return b, nil
}

// CString reads a null-terminated string, scanning at most max bytes. The
// terminator is consumed but not returned. Exceeding max without finding a
// terminator is an error distinct from ErrEndOfData.
func (c *Cursor) CString(max int) (string, error) {
	start := c.off
	var out []byte
	for len(out) <= max {
		b, err := c.U8()
		if err != nil {
			if serr := c.SeekTo(start); serr != nil {
				return "", serr
			}
			return "", err
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
	if err := c.SeekTo(start); err != nil {
		return "", err
	}
	return "", fmt.Errorf("unterminated string at offset %d (scanned %d bytes)", start, max)
}

// Find searches forward from the current position for the first occurrence
// of pattern and returns its distance from the current position, leaving the
// position unchanged. Returns -1 when the pattern is not present.
func (c *Cursor) Find(pattern []byte) (int64, error) {
	rest, err := c.RemainingBytes()
	if err != nil {
		return 0, err
	}
	idx := bytes.Index(rest, pattern)
	if idx < 0 {
		return -1, nil
	}
	return int64(idx), nil
}

// RemainingBytes reads everything from the current position to the present
// end of the source and seeks back, leaving the position unchanged.
func (c *Cursor) RemainingBytes() ([]byte, error) {
	rest, err := io.ReadAll(c.r)
	if err != nil {
		return nil, err
	}
	if _, err := c.r.Seek(c.off, io.SeekStart); err != nil {
		return nil, err
	}
	return rest, nil
}
