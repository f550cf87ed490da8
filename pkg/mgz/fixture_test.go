package mgz

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siegetools/recgame/pkg/rec"
)

// fixtureWriter builds binary fixtures field by field, mirroring the wire
// layout the decoders consume.
type fixtureWriter struct {
	buf bytes.Buffer
}

func (w *fixtureWriter) raw(b []byte)  { w.buf.Write(b) }
func (w *fixtureWriter) pad(n int)     { w.buf.Write(make([]byte, n)) }
func (w *fixtureWriter) u8(v uint8)    { w.buf.WriteByte(v) }
func (w *fixtureWriter) i8(v int8)     { w.buf.WriteByte(byte(v)) }
func (w *fixtureWriter) bytes() []byte { return w.buf.Bytes() }

func (w *fixtureWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *fixtureWriter) i16(v int16) { w.u16(uint16(v)) }

func (w *fixtureWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *fixtureWriter) i32(v int32) { w.u32(uint32(v)) }

func (w *fixtureWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *fixtureWriter) f32(v float32) { w.u32(math.Float32bits(v)) }
func (w *fixtureWriter) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *fixtureWriter) aocString(s string) {
	w.i16(int16(len(s)))
	w.buf.WriteString(s)
}

func (w *fixtureWriter) deString(s string) {
	w.raw(deStringMagic)
	w.i16(int16(len(s)))
	w.buf.WriteString(s)
}

func (w *fixtureWriter) intString(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

// stringBlockEnd writes an empty crc-terminated string list.
func (w *fixtureWriter) stringBlockEnd() { w.u32(1) }

// deflateRaw compresses data as a raw deflate stream.
func deflateRaw(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	fw, err := flate.NewWriter(&out, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	return out.Bytes()
}

// deFixtureOptions tweak the canonical DE fixture.
type deFixtureOptions struct {
	seed       int32
	population uint32
	chat       []string
	names      []string
}

func defaultDEFixture() deFixtureOptions {
	return deFixtureOptions{
		seed:       12345,
		population: 200,
		chat:       []string{"gg"},
		names:      []string{"Gaia", "TheViper"},
	}
}

// deSave is the save version of the canonical DE fixture. It predates most
// of the field gates, keeping the fixture layout small.
const deSave = 13.34

// buildDEHeaderBytes produces the inflated header of a minimal DE recording.
func buildDEHeaderBytes(t *testing.T, opt deFixtureOptions) []byte {
	t.Helper()
	numPlayers := len(opt.names)
	w := &fixtureWriter{}

	// Version block.
	w.raw([]byte("VER 9.4\x00"))
	w.f32(deSave)

	writeDEBlock(w, numPlayers)
	writeMetadata(w, numPlayers)
	writeMap(w, numPlayers)
	for i, name := range opt.names {
		writePlayer(w, numPlayers, name, i)
	}
	writeScenario(w)
	writeLobby(w, opt)
	return w.bytes()
}

// writeDEBlock emits the DE extension block as laid out at the fixture's
// save version: no build/timestamp fields, eight player entries, no empty
// slot records.
func writeDEBlock(w *fixtureWriter, numPlayers int) {
	w.pad(12)
	w.u32(2) // dlc count
	w.u32(2)
	w.u32(3)
	w.pad(4)
	w.u32(1) // difficulty
	w.pad(4)
	w.u32(9) // rms map
	w.pad(4)
	w.u32(1) // victory type
	w.u32(0) // starting resources
	w.u32(4) // starting age (wire bias +2)
	w.u32(6) // ending age
	w.pad(12)
	w.f32(1.7)                // speed
	w.u32(0)                  // treaty length
	w.u32(200)                // population limit
	w.u32(uint32(numPlayers)) // player count
	w.pad(14)
	flags := make([]byte, 13)
	flags[3] = 1 // lock teams
	flags[5] = 1 // multiplayer
	flags[7] = 1 // record game
	flags[8] = 1 // animals
	w.raw(flags)
	w.pad(12)
	for i := 0; i < 8; i++ {
		writeDEPlayerEntry(w, i, i < numPlayers)
	}
	w.pad(12)
	w.pad(4)
	w.u8(1)  // rated
	w.u8(0)  // allow specs
	w.u32(0) // visibility
	w.u8(0)  // hidden civs
	w.pad(1)
	w.u32(3) // spec delay
	w.pad(1)
	w.stringBlockEnd()
	w.pad(8)
	for i := 0; i < 20; i++ {
		w.stringBlockEnd()
	}
	w.u32(0)                              // consumed as the pre-25.22 fixed block's first word
	w.pad(236)                            // fixed block
	w.u64(0)                              // mod entry count
	w.raw(bytes.Repeat([]byte{0xab}, 16)) // guid
	w.deString("AUTOMATCH")
	w.deString("")
	w.pad(33)
	w.deString("")
	w.pad(8)
}

func writeDEPlayerEntry(w *fixtureWriter, slot int, occupied bool) {
	name := ""
	if occupied {
		name = "Slot"
	}
	w.pad(4)
	w.i32(int32(slot)) // color
	w.pad(2)
	w.i8(int8(slot % 4)) // team
	w.pad(9)
	w.u32(uint32(20 + slot)) // civilization
	w.deString("Franks")
	w.pad(1)
	w.deString("") // ai name
	w.deString(name)
	w.u32(2)            // type
	w.u32(uint32(slot)) // profile
	w.pad(4)
	w.i32(int32(slot)) // number
	w.pad(8)           // pre-25.22 block
	w.u8(0)            // prefer random
	w.pad(1)
}

func writeMetadata(w *fixtureWriter, numPlayers int) {
	w.u32(0) // no embedded ai
	w.pad(24)
	w.f32(1.7)
	w.pad(17)
	w.i16(1) // perspective owner
	w.i8(int8(numPlayers))
	w.pad(1)
	w.i8(0) // cheats
	w.pad(60)
}

func writeMap(w *fixtureWriter, numPlayers int) {
	const dim = 4
	tiles := dim * dim
	w.pad(8) // de preamble
	w.u32(dim)
	w.u32(dim)
	w.u32(1) // zones
	w.pad(2048 + tiles*2)
	w.u32(0) // zone floats
	w.pad(4)
	w.i8(0) // all visible
	w.pad(1)
	w.raw(bytes.Repeat([]byte{0x07}, tiles*9))
	w.u32(0) // data count
	w.pad(4)
	w.u32(0) // x2
	w.u32(0) // y2
	w.u32(0) // restore time
}

func writePlayer(w *fixtureWriter, numPlayers int, name string, slot int) {
	w.i8(2) // type
	w.pad(1 + numPlayers)
	for i := 0; i < 9; i++ { // diplomacy
		w.i32(int32(i % 4))
	}
	w.pad(5)
	w.i16(int16(len(name) + 1))
	w.raw([]byte(name))
	w.pad(2)
	w.u32(1) // resource count
	w.pad(1)
	w.f32(100) // resource entry
	w.pad(1)
	w.f32(float32(10 + slot)) // start x
	w.f32(float32(20 + slot)) // start y
	w.pad(9)
	w.i8(int8(15 + slot)) // civilization
	w.pad(3)
	w.i8(int8(slot)) // color
	w.pad(1)
}

func writeScenario(w *fixtureWriter) {
	w.f32(1.4) // scenario version
	w.pad(4)
	w.pad(16*256 + 16*4)
	w.pad(16 * 20)
	w.pad(1)
	w.f32(0) // elapsed time
	w.pad(64)
	w.aocString("arabia.rms")
	w.pad(24)
	w.aocString("glhf")
	for i := 0; i < 9; i++ {
		w.aocString("")
	}
	w.pad(78)
	for i := 0; i < 16; i++ {
		w.aocString("")
	}
	w.pad(196)
	w.pad(16 * 28)
	w.pad(12672)
	w.pad(196)
	w.pad(88)
	w.u32(9)    // map id
	w.u32(3)    // difficulty
	w.pad(40)   // settings body, located by anchor
	w.f64(2.4)  // settings version anchor
	w.pad(1)    // trigger preamble
	w.u32(0)    // trigger count
	w.pad(1032) // trigger tail
}

func writeLobby(w *fixtureWriter, opt deFixtureOptions) {
	w.pad(5)
	w.pad(8)
	w.u32(0) // reveal map
	w.pad(4)
	w.u32(4) // map size
	w.u32(opt.population)
	w.u8(12) // game type
	w.u8(1)  // lock teams
	w.pad(5)
	w.pad(4) // >= 13.13
	w.u32(uint32(len(opt.chat)))
	for _, msg := range opt.chat {
		w.intString(msg)
	}
	w.i32(opt.seed)
}

// buildContainer wraps inflated header bytes and a body into a full
// container: length prefix, optional chapter address, raw deflate header.
func buildContainer(t *testing.T, inflated, body []byte, chapterAddress bool) []byte {
	t.Helper()
	compressed := deflateRaw(t, inflated)
	prefix := 4
	if chapterAddress {
		prefix = 8
	}
	w := &fixtureWriter{}
	w.u32(uint32(prefix + len(compressed)))
	if chapterAddress {
		w.u32(42) // below the chapter-address threshold
	}
	w.raw(compressed)
	w.raw(body)
	return w.bytes()
}

// buildDEBody produces a body stream for the DE fixture: the log-version
// word followed by the given operations.
func buildDEBody(ops func(w *fixtureWriter)) []byte {
	w := &fixtureWriter{}
	w.u32(5) // log version
	if ops != nil {
		ops(w)
	}
	return w.bytes()
}

func writeSyncOp(w *fixtureWriter, incrementMs uint32, withChecksum bool, data []byte) {
	w.u32(uint32(rec.OpSync))
	w.u32(incrementMs)
	if withChecksum {
		w.u32(0)
		w.u32(0xdeadbeef)
	} else {
		w.u32(1)
	}
	w.u32(uint32(len(data)))
	w.raw(data)
}

func writeChatOp(w *fixtureWriter, msg string) {
	w.u32(uint32(rec.OpChat))
	w.intString(msg)
}

func writeViewlockOp(w *fixtureWriter, x, y float32, player uint32) {
	w.u32(uint32(rec.OpViewlock))
	w.f32(x)
	w.f32(y)
	w.u32(player)
}

func writeActionOp(w *fixtureWriter, payload []byte) {
	w.u32(uint32(rec.OpAction))
	w.u32(uint32(len(payload)))
	w.raw(payload)
	w.u32(0) // footer
}
