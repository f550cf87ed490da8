package mgz

import (
	"github.com/siegetools/recgame/pkg/rec"
)

const (
	// maxOperationSize bounds any declared operation length. A sync blob,
	// chat line, action, or savegame chunk larger than this cannot be
	// legitimate and is reported as corruption rather than waited on.
	maxOperationSize = 16 << 20

	// maxStructuralTag is the exclusive upper bound for tags treated as
	// skippable structural operations. Tags at or above it are declared
	// lengths misread as tags, which means the stream has lost framing.
	maxStructuralTag = 1000
)

// ReadMeta consumes the body preamble and returns the log version. It must
// be called exactly once per stream, after DecodeHeader (or with the cursor
// at the start of a pre-split body blob), before the first ReadOperation.
// On ErrEndOfData the cursor is unchanged and the call may be retried.
func ReadMeta(c *Cursor, version rec.GameVersion) (uint32, error) {
	start := c.Offset()
	logVersion, err := c.U32()
	if err != nil {
		return 0, err
	}
	if version != rec.VersionDE {
		if err := c.Skip(28); err != nil {
			if serr := c.SeekTo(start); serr != nil {
				return 0, serr
			}
			return 0, err
		}
	}
	return logVersion, nil
}

// ReadBareMeta consumes the preamble of a stand-alone body blob, for which
// no decoded header is available to name the revision. DE streams carry log
// version 5 and nothing else before the first operation; earlier revisions
// follow the log-version word with 28 bytes of padding. On ErrEndOfData the
// cursor is unchanged and the call may be retried.
func ReadBareMeta(c *Cursor) (uint32, rec.GameVersion, error) {
	peeked, err := c.Peek(4)
	if err != nil {
		return 0, "", err
	}
	version := rec.VersionUserPatch
	if le32(peeked) == 5 {
		version = rec.VersionDE
	}
	logVersion, err := ReadMeta(c, version)
	return logVersion, version, err
}

// ReadOperation decodes the next operation from the body stream. Exactly one
// of three outcomes:
//   - a complete operation, cursor advanced past it;
//   - ErrEndOfData, cursor restored to the operation's first byte — when the
//     source is still growing the identical call can be retried after more
//     bytes arrive;
//   - *CorruptBodyError, fatal: the tag or a declared length is internally
//     inconsistent and the stream cannot be resynchronized.
func ReadOperation(c *Cursor) (*rec.Operation, error) {
	start := c.Offset()
	op, err := readOperation(c, start)
	if err != nil {
		if serr := c.SeekTo(start); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	return op, nil
}

func readOperation(c *Cursor, start int64) (*rec.Operation, error) {
	tag, err := c.U32()
	if err != nil {
		return nil, err
	}
	op := &rec.Operation{Type: rec.OpType(tag), Tag: tag}
	switch op.Type {
	case rec.OpAction:
		op.Action, err = readAction(c, start)
	case rec.OpSync:
		op.Sync, err = readSync(c, start)
	case rec.OpViewlock:
		op.Viewlock, err = readViewlock(c)
	case rec.OpChat:
		op.Chat, err = readDeclaredBlob(c, start, "chat")
	case rec.OpSave:
		_, err = readDeclaredBlob(c, start, "save")
	default:
		if tag == 0 || tag >= maxStructuralTag {
			return nil, &CorruptBodyError{Offset: start, Reason: "implausible operation tag"}
		}
		// Unrecognized structural operation: skip by declared length,
		// surfacing the bytes so callers can account for them.
		op.Type = 0
		op.Raw, err = readDeclaredBlob(c, start, "structural operation")
	}
	if err != nil {
		return nil, err
	}
	return op, nil
}

func readAction(c *Cursor, start int64) (*rec.ActionRecord, error) {
	length, err := c.U32()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, &CorruptBodyError{Offset: start, Reason: "action with zero length"}
	}
	if length > maxOperationSize {
		return nil, &CorruptBodyError{Offset: start, Reason: "action length exceeds sanity cap"}
	}
	payload, err := c.Bytes(int(length))
	if err != nil {
		return nil, err
	}
	if err := c.Skip(4); err != nil { // footer word
		return nil, err
	}
	return DecodeAction(payload), nil
}

func readSync(c *Cursor, start int64) (*rec.Sync, error) {
	s := &rec.Sync{}
	var err error
	if s.IncrementMs, err = c.U32(); err != nil {
		return nil, err
	}
	flag, err := c.U32()
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		sum, err := c.U32()
		if err != nil {
			return nil, err
		}
		s.Checksum = &sum
	}
	if s.Data, err = readDeclaredBlob(c, start, "sync data"); err != nil {
		return nil, err
	}
	return s, nil
}

func readViewlock(c *Cursor) (*rec.Viewlock, error) {
	v := &rec.Viewlock{}
	var err error
	if v.X, err = c.F32(); err != nil {
		return nil, err
	}
	if v.Y, err = c.F32(); err != nil {
		return nil, err
	}
	if v.PlayerID, err = c.U32(); err != nil {
		return nil, err
	}
	return v, nil
}

// readDeclaredBlob reads a u32 length and that many bytes, enforcing the
// sanity cap. A length within the cap but beyond the present end of data is
// a truncation, not corruption: the bytes may simply not have been written
// yet.
func readDeclaredBlob(c *Cursor, start int64, what string) ([]byte, error) {
	length, err := c.U32()
	if err != nil {
		return nil, err
	}
	if length > maxOperationSize {
		return nil, &CorruptBodyError{Offset: start, Reason: what + " length exceeds sanity cap"}
	}
	return c.Bytes(int(length))
}
