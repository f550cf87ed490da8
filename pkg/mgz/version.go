package mgz

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/siegetools/recgame/pkg/rec"
)

const (
	// chapterAddressThreshold distinguishes the 8-byte container prefix
	// (length + chapter address) from the 4-byte one: a second word below
	// this value is a chapter address, anything larger is already part of
	// the compressed stream.
	chapterAddressThreshold = 100_000_000

	// maxHeaderSize bounds the declared header length. A larger value can
	// never be a legitimate header.
	maxHeaderSize = 64 << 20
)

// versionBlock is the first record of the inflated header: a 7-character
// game version string and the save version number.
type versionBlock struct {
	game string
	save float64
}

// classify maps the version markers to a supported revision. The log version
// is the first word of the body; pass zero when the body is unavailable
// (pre-split header blob) and classification falls back to the save version.
func classify(game string, save float64, log uint32) (rec.GameVersion, error) {
	switch game {
	case "VER 9.4":
		if log == 5 || save >= 12.97 {
			return rec.VersionDE, nil
		}
		if save >= 12.36 {
			return rec.VersionHD, nil
		}
	case "VER 9.E", "VER 9.F":
		return rec.VersionUserPatch, nil
	}
	return "", &UnsupportedFormatError{GameVersion: game, SaveVersion: save}
}

// readVersionBlock decodes the game and save version fields at the start of
// the inflated header. Newer DE builds store the save version as a scaled
// integer behind a -1.0 float marker.
func readVersionBlock(h *Cursor) (versionBlock, error) {
	var vb versionBlock
	raw, err := h.Bytes(8)
	if err != nil {
		return vb, err
	}
	vb.game = cleanString(raw[:7])
	save, err := h.F32()
	if err != nil {
		return vb, err
	}
	if save == -1 {
		scaled, err := h.U32()
		if err != nil {
			return vb, err
		}
		if scaled == 37 {
			vb.save = 37.0
		} else {
			vb.save = float64(scaled) / (1 << 16)
		}
	} else {
		vb.save = roundSave(float64(save))
	}
	return vb, nil
}

func roundSave(v float64) float64 {
	return math.Round(v*100) / 100
}

// inflateHeader locates the compressed header block, inflates it with raw
// deflate, and leaves the cursor at the start of the body. It also peeks the
// body's log version word without consuming it (ReadMeta owns the body
// preamble). A pre-split blob whose content already inflated is accepted
// as-is when it carries a plausible version block.
func inflateHeader(c *Cursor) (inflated []byte, logVersion uint32, err error) {
	start := c.Offset()
	headerLen, err := c.U32()
	if err != nil {
		return nil, 0, corruptHeader(start, fmt.Errorf("reading header length: %w", err))
	}
	if headerLen < 8 || headerLen > maxHeaderSize {
		return nil, 0, corruptHeader(start, fmt.Errorf("implausible header length %d", headerLen))
	}

	prefix := uint32(4)
	next, err := c.Peek(4)
	if err == nil && le32(next) < chapterAddressThreshold {
		prefix = 8
		if err := c.Skip(4); err != nil {
			return nil, 0, corruptHeader(c.Offset(), err)
		}
	}

	// Pre-split header blobs keep the container prefix verbatim, so the
	// length word still declares the original compressed size while the
	// content is the already-inflated bytes, ending where the blob ends.
	// Detect them by content and consume the whole blob.
	if peeked, err := c.Peek(12); err == nil && looksInflated(peeked) {
		blob, err := c.RemainingBytes()
		if err != nil {
			return nil, 0, corruptHeader(c.Offset(), err)
		}
		return blob, 0, nil
	}

	block, err := c.Bytes(int(headerLen - prefix))
	if err != nil {
		return nil, 0, corruptHeader(c.Offset(), fmt.Errorf("header block shorter than declared length %d: %w", headerLen, err))
	}

	inflated, inflateErr := inflate(block)
	if inflateErr != nil {
		return nil, 0, corruptHeader(start, fmt.Errorf("inflating header block: %w", inflateErr))
	}

	if peeked, err := c.Peek(4); err == nil {
		logVersion = le32(peeked)
	}
	return inflated, logVersion, nil
}

// inflate decompresses a raw deflate stream (no zlib wrapper).
func inflate(block []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(block))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// looksInflated reports whether data starts with a version block: seven
// printable ASCII bytes and a NUL terminator.
func looksInflated(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	for _, b := range data[:7] {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return data[7] == 0
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// unretryable strips the ErrEndOfData sentinel while keeping its message:
// header truncation is fatal, and the retry semantics of the sentinel must
// not leak through to errors.Is checks.
func unretryable(err error) error {
	if errors.Is(err, ErrEndOfData) {
		return errors.New(err.Error())
	}
	return err
}
