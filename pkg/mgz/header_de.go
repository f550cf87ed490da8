package mgz

import (
	"fmt"

	"github.com/siegetools/recgame/pkg/rec"
)

// decodeDE reads the Definitive Edition extension block that precedes the
// shared header sections. The block grew field by field across builds, so
// nearly every read is gated on the save version; gates are ordered exactly
// as the fields appear on the wire.
func decodeDE(h *Cursor, save float64) (*rec.DEBlock, error) {
	de := &rec.DEBlock{}
	var err error

	if save >= 25.22 {
		if de.Build, err = h.U32(); err != nil {
			return nil, err
		}
	}
	if save >= 26.16 {
		if de.Timestamp, err = h.U32(); err != nil {
			return nil, err
		}
	}
	if err = h.Skip(12); err != nil {
		return nil, err
	}
	dlcCount, err := h.U32()
	if err != nil {
		return nil, err
	}
	if dlcCount > 1024 {
		return nil, fmt.Errorf("implausible dlc count %d", dlcCount)
	}
	de.DLCIDs = make([]uint32, dlcCount)
	for i := range de.DLCIDs {
		if de.DLCIDs[i], err = h.U32(); err != nil {
			return nil, err
		}
	}
	if err = h.Skip(4); err != nil {
		return nil, err
	}
	if save >= 61.5 {
		if de.MapDimension, err = h.U32(); err != nil {
			return nil, err
		}
	} else {
		if de.DifficultyID, err = h.U32(); err != nil {
			return nil, err
		}
	}
	if err = h.Skip(4); err != nil {
		return nil, err
	}
	if de.RMSMapID, err = h.U32(); err != nil {
		return nil, err
	}
	if err = h.Skip(4); err != nil {
		return nil, err
	}
	if de.VictoryTypeID, err = h.U32(); err != nil {
		return nil, err
	}
	if de.StartingResourcesID, err = h.U32(); err != nil {
		return nil, err
	}
	startingAge, err := h.U32()
	if err != nil {
		return nil, err
	}
	endingAge, err := h.U32()
	if err != nil {
		return nil, err
	}
	// Ages are stored with a +2 bias.
	if startingAge > 0 {
		de.StartingAgeID = startingAge - 2
	}
	if endingAge > 0 {
		de.EndingAgeID = endingAge - 2
	}
	if err = h.Skip(12); err != nil {
		return nil, err
	}
	if de.Speed, err = h.F32(); err != nil {
		return nil, err
	}
	if de.TreatyLength, err = h.U32(); err != nil {
		return nil, err
	}
	if de.PopulationLimit, err = h.U32(); err != nil {
		return nil, err
	}
	if de.NumPlayers, err = h.U32(); err != nil {
		return nil, err
	}
	if de.NumPlayers > 8 {
		return nil, fmt.Errorf("implausible player count %d", de.NumPlayers)
	}
	if err = h.Skip(14); err != nil {
		return nil, err
	}
	if save >= 61.5 {
		d, err := h.U8()
		if err != nil {
			return nil, err
		}
		de.DifficultyID = uint32(d)
	}

	flags, err := h.Bytes(13)
	if err != nil {
		return nil, err
	}
	// flags[2] is unused padding between the technology and team flags.
	de.TeamTogether = flags[0] == 0
	de.AllTechnologies = flags[1] == 1
	de.LockTeams = flags[3] == 1
	de.LockSpeed = flags[4] == 1
	de.Multiplayer = flags[5] == 1
	de.Cheats = flags[6] == 1
	de.RecordGame = flags[7] == 1
	de.AnimalsEnabled = flags[8] == 1
	de.PredatorsEnabled = flags[9] == 1
	de.TurboEnabled = flags[10] == 1
	de.SharedExploration = flags[11] == 1
	de.TeamPositions = flags[12] == 1

	if err = h.Skip(12); err != nil {
		return nil, err
	}
	if save >= 25.06 {
		if err = h.Skip(1); err != nil {
			return nil, err
		}
	}
	if save > 50 {
		if err = h.Skip(1); err != nil {
			return nil, err
		}
	}

	entries := 8
	if save >= 37 && save < 66.3 {
		entries = int(de.NumPlayers)
	}
	de.Players = make([]rec.DEPlayer, 0, entries)
	for i := 0; i < entries; i++ {
		p, err := decodeDEPlayer(h, save)
		if err != nil {
			return nil, fmt.Errorf("de player %d: %w", i, err)
		}
		de.Players = append(de.Players, p)
	}
	if err = h.Skip(12); err != nil {
		return nil, err
	}
	if save >= 37 && save < 66.3 {
		for i := entries; i < 8; i++ {
			if err = skipEmptyDESlot(h, save); err != nil {
				return nil, fmt.Errorf("de empty slot %d: %w", i, err)
			}
		}
	}

	if err = h.Skip(4); err != nil {
		return nil, err
	}
	rated, err := h.U8()
	if err != nil {
		return nil, err
	}
	allowSpecs, err := h.U8()
	if err != nil {
		return nil, err
	}
	de.Rated = rated == 1
	de.AllowSpecs = allowSpecs == 1
	if de.VisibilityID, err = h.U32(); err != nil {
		return nil, err
	}
	hiddenCivs, err := h.U8()
	if err != nil {
		return nil, err
	}
	de.HiddenCivs = hiddenCivs == 1
	if err = h.Skip(1); err != nil {
		return nil, err
	}
	if de.SpecDelay, err = h.U32(); err != nil {
		return nil, err
	}
	if err = h.Skip(1); err != nil {
		return nil, err
	}

	if _, err = stringBlock(h); err != nil {
		return nil, err
	}
	if err = h.Skip(8); err != nil {
		return nil, err
	}
	for i := 0; i < 20; i++ {
		if _, err = stringBlock(h); err != nil {
			return nil, err
		}
	}

	listLen, err := h.U32()
	if err != nil {
		return nil, err
	}
	if save >= 25.22 {
		if err = h.Skip(int(listLen) * 4); err != nil {
			return nil, err
		}
	} else {
		if err = h.Skip(236); err != nil {
			return nil, err
		}
	}
	modEntries, err := h.U64()
	if err != nil {
		return nil, err
	}
	if modEntries > 1024 {
		return nil, fmt.Errorf("implausible mod entry count %d", modEntries)
	}
	for i := uint64(0); i < modEntries; i++ {
		if err = h.Skip(4); err != nil {
			return nil, err
		}
		if _, err = deString(h); err != nil {
			return nil, err
		}
		if err = h.Skip(4); err != nil {
			return nil, err
		}
	}
	if save >= 25.02 {
		if err = h.Skip(8); err != nil {
			return nil, err
		}
	}
	if de.GUID, err = h.Bytes(16); err != nil {
		return nil, err
	}
	if de.Lobby, err = deString(h); err != nil {
		return nil, err
	}
	if save >= 25.22 {
		if err = h.Skip(8); err != nil {
			return nil, err
		}
	}
	if de.Mod, err = deString(h); err != nil {
		return nil, err
	}

	if err = h.Skip(33); err != nil {
		return nil, err
	}
	for _, gate := range []struct {
		save float64
		n    int
	}{{20.06, 1}, {20.16, 8}, {25.06, 21}, {25.22, 4}, {26.16, 8}, {37, 3}} {
		if save >= gate.save {
			if err = h.Skip(gate.n); err != nil {
				return nil, err
			}
		}
	}
	if save > 50 {
		if err = h.Skip(8); err != nil {
			return nil, err
		}
	}
	if save >= 61.5 {
		if err = h.Skip(1); err != nil {
			return nil, err
		}
	}
	if save >= 63 {
		if err = h.Skip(5); err != nil {
			return nil, err
		}
	}
	if save >= 66.3 {
		n, err := h.U32()
		if err != nil {
			return nil, err
		}
		if err = h.Skip(12 + int(n)*4); err != nil {
			return nil, err
		}
	}
	if _, err = deString(h); err != nil {
		return nil, err
	}
	if save >= 67.2 {
		for i := 0; i < 2; i++ {
			if _, err = deString(h); err != nil {
				return nil, err
			}
		}
	}
	if err = h.Skip(8); err != nil {
		return nil, err
	}
	if save >= 37 {
		if err = h.Skip(8); err != nil {
			return nil, err
		}
	}
	return de, nil
}

func decodeDEPlayer(h *Cursor, save float64) (rec.DEPlayer, error) {
	var p rec.DEPlayer
	if err := h.Skip(4); err != nil {
		return p, err
	}
	color, err := h.I32()
	if err != nil {
		return p, err
	}
	if err := h.Skip(2); err != nil {
		return p, err
	}
	team, err := h.I8()
	if err != nil {
		return p, err
	}
	if err := h.Skip(9); err != nil {
		return p, err
	}
	civ, err := h.U32()
	if err != nil {
		return p, err
	}
	if save >= 61.5 {
		customCivs, err := h.U32()
		if err != nil {
			return p, err
		}
		if save >= 63.0 && customCivs > 0 {
			if customCivs > 1024 {
				return p, fmt.Errorf("implausible custom civ count %d", customCivs)
			}
			p.CustomCivIDs = make([]uint32, customCivs)
			for i := range p.CustomCivIDs {
				if p.CustomCivIDs[i], err = h.U32(); err != nil {
					return p, err
				}
			}
		}
	}
	if _, err := deString(h); err != nil { // civilization name
		return p, err
	}
	if err := h.Skip(1); err != nil {
		return p, err
	}
	if p.AIName, err = deString(h); err != nil {
		return p, err
	}
	if save >= 66.3 {
		if p.CensoredName, err = deString(h); err != nil {
			return p, err
		}
	}
	if p.Name, err = deString(h); err != nil {
		return p, err
	}
	if save < 66.3 {
		p.CensoredName = p.Name
	}
	if p.Type, err = h.U32(); err != nil {
		return p, err
	}
	if p.ProfileID, err = h.U32(); err != nil {
		return p, err
	}
	if err := h.Skip(4); err != nil {
		return p, err
	}
	number, err := h.I32()
	if err != nil {
		return p, err
	}
	if save < 25.22 {
		if err := h.Skip(8); err != nil {
			return p, err
		}
	}
	preferRandom, err := h.U8()
	if err != nil {
		return p, err
	}
	if err := h.Skip(1); err != nil {
		return p, err
	}
	if save >= 25.06 {
		if err := h.Skip(8); err != nil {
			return p, err
		}
	}
	if save >= 64.3 {
		if err := h.Skip(4); err != nil {
			return p, err
		}
	}
	if save >= 67.2 {
		if _, err := deString(h); err != nil {
			return p, err
		}
	}
	p.Number = int(number)
	p.ColorID = int(color)
	p.TeamID = int(team)
	p.CivilizationID = int(civ)
	p.PreferRandom = preferRandom == 1
	return p, nil
}

// skipEmptyDESlot advances past an unoccupied player slot, which carries a
// reduced record.
func skipEmptyDESlot(h *Cursor, save float64) error {
	if save >= 61.5 {
		if err := h.Skip(4); err != nil {
			return err
		}
	}
	if err := h.Skip(12); err != nil {
		return err
	}
	if _, err := deString(h); err != nil {
		return err
	}
	if err := h.Skip(1); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if _, err := deString(h); err != nil {
			return err
		}
	}
	if err := h.Skip(38); err != nil {
		return err
	}
	if save >= 64.3 {
		return h.Skip(4)
	}
	return nil
}
