package mgz

import (
	"fmt"

	"github.com/siegetools/recgame/pkg/rec"
)

// decodeHD reads the HD Edition extension block. The block always carries
// eight player slots; unoccupied slots have an empty name and are dropped.
func decodeHD(h *Cursor, save float64) (*rec.HDBlock, error) {
	hd := &rec.HDBlock{}
	var err error

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
	hd.DLCIDs = make([]uint32, dlcCount)
	for i := range hd.DLCIDs {
		if hd.DLCIDs[i], err = h.U32(); err != nil {
			return nil, err
		}
	}
	if err = h.Skip(4); err != nil {
		return nil, err
	}
	if hd.DifficultyID, err = h.U32(); err != nil {
		return nil, err
	}
	if hd.MapID, err = h.U32(); err != nil {
		return nil, err
	}
	if err = h.Skip(80); err != nil {
		return nil, err
	}

	for i := 0; i < 8; i++ {
		p, err := decodeHDPlayer(h)
		if err != nil {
			return nil, fmt.Errorf("hd player %d: %w", i, err)
		}
		if p.Name != "" {
			hd.Players = append(hd.Players, p)
		}
	}

	if err = h.Skip(26); err != nil {
		return nil, err
	}
	for i := 0; i < 3; i++ {
		if _, err = hdString(h); err != nil {
			return nil, err
		}
		if err = h.Skip(8); err != nil {
			return nil, err
		}
	}
	if hd.GUID, err = h.Bytes(16); err != nil {
		return nil, err
	}
	if hd.Lobby, err = hdString(h); err != nil {
		return nil, err
	}
	if hd.Mod, err = hdString(h); err != nil {
		return nil, err
	}
	if err = h.Skip(8); err != nil {
		return nil, err
	}
	if _, err = hdString(h); err != nil {
		return nil, err
	}
	if err = h.Skip(4); err != nil {
		return nil, err
	}
	return hd, nil
}

func decodeHDPlayer(h *Cursor) (rec.HDPlayer, error) {
	var p rec.HDPlayer
	if err := h.Skip(4); err != nil {
		return p, err
	}
	color, err := h.I32()
	if err != nil {
		return p, err
	}
	if err := h.Skip(12); err != nil {
		return p, err
	}
	civ, err := h.U32()
	if err != nil {
		return p, err
	}
	if _, err := hdString(h); err != nil { // civilization name
		return p, err
	}
	if err := h.Skip(1); err != nil {
		return p, err
	}
	if _, err := hdString(h); err != nil { // ai name
		return p, err
	}
	if p.Name, err = hdString(h); err != nil {
		return p, err
	}
	if err := h.Skip(4); err != nil {
		return p, err
	}
	if p.SteamID, err = h.U64(); err != nil {
		return p, err
	}
	number, err := h.I32()
	if err != nil {
		return p, err
	}
	if err := h.Skip(8); err != nil {
		return p, err
	}
	p.Number = int(number)
	p.ColorID = int(color)
	p.CivilizationID = int(civ)
	return p, nil
}
