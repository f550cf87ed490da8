package mgz

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/siegetools/recgame/pkg/rec"
)

// maxMapDimension bounds the declared map width/height. Larger values can
// never be legitimate and would otherwise drive huge allocations.
const maxMapDimension = 1 << 13

// DecodeHeader decodes the match-setup header from a byte source positioned
// at the start of a container, or at the start of a pre-split header blob as
// produced by the extraction tool. On success the source is left positioned
// at the start of the body. The returned Header is complete or the error is
// fatal for the file; there is no partial decode.
func DecodeHeader(r io.ReadSeeker) (*rec.Header, error) {
	c, err := NewCursor(r)
	if err != nil {
		return nil, err
	}
	inflated, logVersion, err := inflateHeader(c)
	if err != nil {
		return nil, err
	}
	return decodeInflated(NewBytesCursor(inflated), logVersion)
}

// decodeInflated walks the inflated header bytes and materializes the Header
// record. Offsets in errors are relative to the inflated buffer.
func decodeInflated(h *Cursor, logVersion uint32) (*rec.Header, error) {
	vb, err := readVersionBlock(h)
	if err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("reading version block: %w", err))
	}
	version, err := classify(vb.game, vb.save, logVersion)
	if err != nil {
		return nil, err
	}

	hdr := &rec.Header{
		Version:     version,
		GameVersion: vb.game,
		SaveVersion: vb.save,
		LogVersion:  logVersion,
	}
	lay := layoutFor(version, vb.save)

	if version == rec.VersionDE {
		if hdr.DE, err = decodeDE(h, vb.save); err != nil {
			return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding de block: %w", err))
		}
	}
	if version == rec.VersionHD {
		if hdr.HD, err = decodeHD(h, vb.save); err != nil {
			return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding hd block: %w", err))
		}
	}

	numPlayers, err := decodeMetadata(h, vb.save, &hdr.Metadata)
	if err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding metadata: %w", err))
	}
	if err = decodeMap(h, version, vb.save, lay, &hdr.Map); err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding map: %w", err))
	}
	if hdr.Players, hdr.Mod, err = decodePlayers(h, version, numPlayers, lay); err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding players: %w", err))
	}
	if err = decodeScenario(h, version, vb.save, &hdr.Scenario); err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding scenario: %w", err))
	}
	if err = decodeLobby(h, version, vb.save, lay, &hdr.Lobby); err != nil {
		return nil, corruptHeader(h.Offset(), fmt.Errorf("decoding lobby: %w", err))
	}
	return hdr, nil
}

// decodeMetadata reads the recording metadata record and returns the player
// count (including the environment slot) that bounds the player loop.
func decodeMetadata(h *Cursor, save float64, out *rec.Metadata) (int, error) {
	ai, err := h.U32()
	if err != nil {
		return 0, err
	}
	if ai > 0 {
		// Embedded AI scripts are not decoded; their section ends at a
		// 4 KiB run of zero bytes.
		marker := make([]byte, 4096)
		idx, err := h.Find(marker)
		if err != nil {
			return 0, err
		}
		if idx < 0 {
			return 0, fmt.Errorf("ai section end marker not found")
		}
		if err := h.Skip(int(idx) + len(marker)); err != nil {
			return 0, err
		}
	}

	if err := h.Skip(24); err != nil {
		return 0, err
	}
	speed, err := h.F32()
	if err != nil {
		return 0, err
	}
	if err := h.Skip(17); err != nil {
		return 0, err
	}
	owner, err := h.I16()
	if err != nil {
		return 0, err
	}
	numPlayers, err := h.I8()
	if err != nil {
		return 0, err
	}
	if err := h.Skip(1); err != nil {
		return 0, err
	}
	cheats, err := h.I8()
	if err != nil {
		return 0, err
	}
	if numPlayers <= 0 {
		return 0, fmt.Errorf("implausible player count %d", numPlayers)
	}

	if save < 61.5 {
		err = h.Skip(60)
	} else {
		err = h.Skip(24 + int(numPlayers)*4)
	}
	if err != nil {
		return 0, err
	}

	out.Speed = speed
	out.PerspectiveOwner = int(owner)
	out.CheatsEnabled = cheats == 1
	out.NumPlayers = int(numPlayers)
	return int(numPlayers), nil
}

// decodeMap reads the map record. Tile contents stay opaque; only the block
// is sized and captured.
func decodeMap(h *Cursor, version rec.GameVersion, save float64, lay layout, out *rec.Map) error {
	if version == rec.VersionDE {
		if err := h.Skip(8); err != nil {
			return err
		}
	}
	sizeX, err := h.U32()
	if err != nil {
		return err
	}
	sizeY, err := h.U32()
	if err != nil {
		return err
	}
	if sizeX == 0 || sizeY == 0 || sizeX > maxMapDimension || sizeY > maxMapDimension {
		return fmt.Errorf("implausible map dimensions %dx%d", sizeX, sizeY)
	}
	zones, err := h.U32()
	if err != nil {
		return err
	}
	tiles := int(sizeX) * int(sizeY)
	for i := uint32(0); i < zones; i++ {
		if err := h.Skip(lay.zonePadBase + tiles*lay.zonePadPerTile); err != nil {
			return err
		}
		floats, err := h.U32()
		if err != nil {
			return err
		}
		if err := h.Skip(int(floats)*4 + 4); err != nil {
			return err
		}
	}
	allVisible, err := h.I8()
	if err != nil {
		return err
	}
	if err := h.Skip(1); err != nil {
		return err
	}
	tileData, err := h.Bytes(tiles * lay.tileBytes)
	if err != nil {
		return err
	}

	numData, err := h.U32()
	if err != nil {
		return err
	}
	if err := h.Skip(4 + int(numData)*4); err != nil {
		return err
	}
	for i := uint32(0); i < numData; i++ {
		obstructions, err := h.U32()
		if err != nil {
			return err
		}
		if err := h.Skip(int(obstructions) * 8); err != nil {
			return err
		}
	}
	x2, err := h.U32()
	if err != nil {
		return err
	}
	y2, err := h.U32()
	if err != nil {
		return err
	}
	visibility := int(x2) * int(y2) * 4
	if save >= 61.5 {
		visibility *= 2
	}
	if err := h.Skip(visibility); err != nil {
		return err
	}
	restore, err := h.U32()
	if err != nil {
		return err
	}

	out.Width = sizeX
	out.Height = sizeY
	out.AllVisible = allVisible == 1
	out.RestoreTime = restore
	out.Tiles = tileData
	return nil
}

// decodePlayers reads exactly numPlayers sequential player records. The
// count comes from the metadata record; under- or over-reading by one record
// corrupts everything that follows, so the loop is bounded strictly. For
// UserPatch files the mod version is read from the environment slot's
// resource table.
func decodePlayers(h *Cursor, version rec.GameVersion, numPlayers int, lay layout) ([]rec.Player, string, error) {
	players := make([]rec.Player, 0, numPlayers)
	var mod string
	for i := 0; i < numPlayers; i++ {
		p, resources, err := decodePlayer(h, numPlayers, lay)
		if err != nil {
			return nil, "", fmt.Errorf("player %d: %w", i, err)
		}
		p.Number = i
		players = append(players, p)
		if i == 0 && version == rec.VersionUserPatch {
			mod = userPatchMod(resources)
		}
	}
	return players, mod, nil
}

func decodePlayer(h *Cursor, numPlayers int, lay layout) (rec.Player, []float32, error) {
	var p rec.Player
	typ, err := h.I8()
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(1 + numPlayers); err != nil {
		return p, nil, err
	}
	diploCount := lay.diplomacyCount
	if diploCount < 0 {
		diploCount = numPlayers
	}
	p.Diplomacy = make([]int32, diploCount)
	for i := range p.Diplomacy {
		if p.Diplomacy[i], err = h.I32(); err != nil {
			return p, nil, err
		}
	}
	if err := h.Skip(5); err != nil {
		return p, nil, err
	}
	nameLen, err := h.I16()
	if err != nil {
		return p, nil, err
	}
	if nameLen < 1 {
		return p, nil, fmt.Errorf("implausible name length %d", nameLen)
	}
	name, err := h.Bytes(int(nameLen) - 1)
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(2); err != nil {
		return p, nil, err
	}
	resourceCount, err := h.U32()
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(1); err != nil {
		return p, nil, err
	}
	resourceBlock, err := h.Bytes(int(resourceCount) * lay.resourceBytes)
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(1); err != nil {
		return p, nil, err
	}
	if p.Position.X, err = h.F32(); err != nil {
		return p, nil, err
	}
	if p.Position.Y, err = h.F32(); err != nil {
		return p, nil, err
	}
	if err := h.Skip(9); err != nil {
		return p, nil, err
	}
	civ, err := h.I8()
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(3); err != nil {
		return p, nil, err
	}
	color, err := h.I8()
	if err != nil {
		return p, nil, err
	}
	if err := h.Skip(1); err != nil {
		return p, nil, err
	}

	p.Type = int(typ)
	p.Name = cleanString(name)
	p.CivilizationID = int(civ)
	p.ColorID = int(color)

	var resources []float32
	if lay.resourceBytes == 4 {
		resources = make([]float32, resourceCount)
		for i := range resources {
			resources[i] = math.Float32frombits(binary.LittleEndian.Uint32(resourceBlock[i*4:]))
		}
	}
	return p, resources, nil
}

// userPatchMod derives the mod version string stored in resource slot 198.
func userPatchMod(resources []float32) string {
	if len(resources) <= 198 {
		return ""
	}
	number := int(resources[198])
	if number <= 0 {
		return ""
	}
	digits := strconv.Itoa(number % 1000)
	parts := make([]string, len(digits))
	for i, d := range digits {
		parts[i] = string(d)
	}
	return fmt.Sprintf("%d.%s", number/1000, strings.Join(parts, "."))
}

// decodeScenario reads the scenario section. Most of it is fixed padding
// whose widths shifted across revisions; the settings sub-record that
// follows has no length field and is located by its version anchor.
func decodeScenario(h *Cursor, version rec.GameVersion, save float64, out *rec.Scenario) error {
	if _, err := h.F32(); err != nil { // scenario version
		return err
	}
	if err := h.Skip(4); err != nil {
		return err
	}
	if save >= 61.5 {
		if err := h.Skip(4); err != nil {
			return err
		}
		if save < 66.6 {
			if err := h.Skip(4); err != nil {
				return err
			}
		}
	}
	if err := h.Skip(16*256 + 16*4); err != nil { // player names and ids
		return err
	}
	if save >= 66.6 {
		for i := 0; i < 16; i++ {
			if err := h.Skip(8); err != nil {
				return err
			}
			if _, err := deString(h); err != nil {
				return err
			}
			if _, err := deString(h); err != nil {
				return err
			}
			if err := h.Skip(4); err != nil {
				return err
			}
		}
	}
	if save >= 61.5 && save < 66.6 {
		if err := h.Skip(64); err != nil {
			return err
		}
	}
	if save < 66.6 {
		per := 16
		if save >= 13.34 {
			per = 20
		}
		if err := h.Skip(16 * per); err != nil {
			return err
		}
	}
	if err := h.Skip(1); err != nil {
		return err
	}
	if _, err := h.F32(); err != nil { // elapsed time
		return err
	}
	if version == rec.VersionDE {
		if err := h.Skip(64); err != nil {
			return err
		}
	}
	if save >= 66.6 {
		if err := h.Skip(68); err != nil {
			return err
		}
	}
	filename, err := aocString(h)
	if err != nil {
		return err
	}
	if err := h.Skip(24); err != nil { // message ids
		return err
	}
	instructions, err := aocString(h)
	if err != nil {
		return err
	}
	for i := 0; i < 9; i++ {
		if _, err := aocString(h); err != nil {
			return err
		}
	}
	if err := h.Skip(78); err != nil {
		return err
	}
	for i := 0; i < 16; i++ {
		if _, err := aocString(h); err != nil {
			return err
		}
	}
	if err := h.Skip(196); err != nil {
		return err
	}
	per := 24
	if version == rec.VersionDE || version == rec.VersionHD {
		per = 28
	}
	if err := h.Skip(16 * per); err != nil {
		return err
	}
	if err := h.Skip(12672); err != nil {
		return err
	}
	if version == rec.VersionDE {
		if err := h.Skip(196); err != nil {
			return err
		}
	} else {
		if err := h.Skip(16 * 332); err != nil {
			return err
		}
	}
	if version == rec.VersionHD {
		if err := h.Skip(644); err != nil {
			return err
		}
	}
	if err := h.Skip(88); err != nil {
		return err
	}
	if version == rec.VersionHD {
		if err := h.Skip(16); err != nil {
			return err
		}
	}
	mapID, err := h.U32()
	if err != nil {
		return err
	}
	difficulty, err := h.U32()
	if err != nil {
		return err
	}

	if err := skipToSettingsEnd(h, version, save); err != nil {
		return err
	}
	if version == rec.VersionDE {
		if err := skipTriggers(h); err != nil {
			return err
		}
	}

	out.MapID = mapID
	out.Difficulty = difficulty
	out.Filename = filename
	out.Instructions = instructions
	return nil
}

// skipToSettingsEnd advances past the unversioned settings sub-record by
// locating its trailing version anchor.
func skipToSettingsEnd(h *Cursor, version rec.GameVersion, save float64) error {
	var anchor []byte
	var trailer int
	if version == rec.VersionDE {
		anchor = make([]byte, 8)
		binary.LittleEndian.PutUint64(anchor, math.Float64bits(settingsVersion(save)))
		trailer = 8
	} else {
		anchor = []byte{0x9a, 0x99, 0x99, 0x99, 0x99, 0x99, 0xf9, 0x3f}
		trailer = 13
	}
	idx, err := h.Find(anchor)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("settings anchor not found")
	}
	return h.Skip(int(idx) + trailer)
}

// skipTriggers walks the DE trigger list without decoding trigger logic.
func skipTriggers(h *Cursor) error {
	if err := h.Skip(1); err != nil {
		return err
	}
	triggers, err := h.U32()
	if err != nil {
		return err
	}
	if triggers > 1<<16 {
		return fmt.Errorf("implausible trigger count %d", triggers)
	}
	for i := uint32(0); i < triggers; i++ {
		if err := h.Skip(26); err != nil {
			return err
		}
		for j := 0; j < 3; j++ { // description, name, short description
			if _, err := intString(h); err != nil {
				return err
			}
		}
		effects, err := h.U32()
		if err != nil {
			return err
		}
		for j := uint32(0); j < effects; j++ {
			if err := h.Skip(216); err != nil {
				return err
			}
			for k := 0; k < 2; k++ { // text, sound
				if _, err := intString(h); err != nil {
					return err
				}
			}
		}
		if err := h.Skip(int(effects) * 4); err != nil {
			return err
		}
		conditions, err := h.U32()
		if err != nil {
			return err
		}
		if err := h.Skip(int(conditions) * 125); err != nil {
			return err
		}
	}
	if err := h.Skip(int(triggers) * 4); err != nil {
		return err
	}
	return h.Skip(1032)
}

// decodeLobby reads the lobby record at the end of the header.
func decodeLobby(h *Cursor, version rec.GameVersion, save float64, lay layout, out *rec.Lobby) error {
	if version == rec.VersionDE {
		if err := h.Skip(5); err != nil {
			return err
		}
		for _, gate := range []struct {
			save float64
			n    int
		}{{20.06, 9}, {26.16, 5}, {37, 8}, {64.3, 16}, {66.3, 1}} {
			if save >= gate.save {
				if err := h.Skip(gate.n); err != nil {
					return err
				}
			}
		}
	}
	if err := h.Skip(8); err != nil {
		return err
	}
	extension := version == rec.VersionDE || version == rec.VersionHD
	if !extension {
		if err := h.Skip(1); err != nil {
			return err
		}
	}
	reveal, err := h.U32()
	if err != nil {
		return err
	}
	if err := h.Skip(4); err != nil {
		return err
	}
	mapSize, err := h.U32()
	if err != nil {
		return err
	}
	population, err := h.U32()
	if err != nil {
		return err
	}
	gameType, err := h.U8()
	if err != nil {
		return err
	}
	lockTeams, err := h.U8()
	if err != nil {
		return err
	}
	if extension {
		if err := h.Skip(5); err != nil {
			return err
		}
		if save >= 13.13 {
			if err := h.Skip(4); err != nil {
				return err
			}
		}
		if save >= 25.22 {
			if err := h.Skip(1); err != nil {
				return err
			}
		}
	}
	chatCount, err := h.U32()
	if err != nil {
		return err
	}
	if chatCount > 1<<16 {
		return fmt.Errorf("implausible chat count %d", chatCount)
	}
	var chat []string
	for i := uint32(0); i < chatCount; i++ {
		msg, err := h.PrefixedBytes()
		if err != nil {
			return err
		}
		if s := cleanString(msg); s != "" {
			chat = append(chat, s)
		}
	}
	if version == rec.VersionDE {
		if out.Seed, err = h.I32(); err != nil {
			return err
		}
	}

	out.RevealMapID = reveal
	out.MapSize = mapSize
	out.Population = population * lay.populationMultiplier
	out.GameTypeID = gameType
	out.LockTeams = lockTeams == 1
	out.Chat = chat
	return nil
}
