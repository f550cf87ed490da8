// Package summary derives a match overview from a decoded header and a full
// walk of the body stream.
package summary

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/siegetools/recgame/pkg/mgz"
	"github.com/siegetools/recgame/pkg/rec"
)

// PlayerSummary is the per-player slice of a match overview.
type PlayerSummary struct {
	Number         int     `json:"number"`
	Name           string  `json:"name"`
	CivilizationID int     `json:"civilization_id"`
	ColorID        int     `json:"color_id"`
	X              float32 `json:"x"`
	Y              float32 `json:"y"`
}

// Summary is a match overview: identity fields from the header, totals from
// the body walk, and the start-position geometry.
type Summary struct {
	Version     rec.GameVersion `json:"version"`
	GameVersion string          `json:"game_version"`
	SaveVersion float64         `json:"save_version"`

	DurationMs   uint32            `json:"duration_ms"`
	Operations   uint64            `json:"operations"`
	OpCounts     map[string]uint64 `json:"op_counts"`
	ActionCounts map[string]uint64 `json:"action_counts,omitempty"`
	ChatMessages int               `json:"chat_messages"`

	Players []PlayerSummary `json:"players"`

	// StartLayout is the WKT line through the non-environment start
	// positions, in tile coordinates.
	StartLayout string `json:"start_layout,omitempty"`
	// StartSpread is the largest pairwise distance between start
	// positions, in tiles.
	StartSpread float64 `json:"start_spread"`
	// StartInBounds reports whether every start position lies on the map.
	StartInBounds bool `json:"start_in_bounds"`
}

// Build walks the body at c to completion and combines the totals with hdr.
// The walk stops cleanly at end of data; corruption mid-stream is an error.
func Build(hdr *rec.Header, c *mgz.Cursor) (*Summary, error) {
	s := &Summary{
		Version:      hdr.Version,
		GameVersion:  hdr.GameVersion,
		SaveVersion:  hdr.SaveVersion,
		OpCounts:     make(map[string]uint64),
		ActionCounts: make(map[string]uint64),
	}

	if _, err := mgz.ReadMeta(c, hdr.Version); err != nil {
		if errors.Is(err, mgz.ErrEndOfData) {
			// A header-only input has no body to total.
			fillPlayers(s, hdr)
			return s, nil
		}
		return nil, fmt.Errorf("reading body meta: %w", err)
	}
	for {
		op, err := mgz.ReadOperation(c)
		if errors.Is(err, mgz.ErrEndOfData) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.Operations++
		s.OpCounts[op.Type.String()]++
		switch {
		case op.Sync != nil:
			s.DurationMs += op.Sync.IncrementMs
		case op.Chat != nil:
			s.ChatMessages++
		case op.Action != nil:
			s.ActionCounts[op.Action.Payload.Kind()]++
		}
	}

	fillPlayers(s, hdr)
	return s, nil
}

// fillPlayers copies the player slice and computes the start-position
// geometry. The environment slot (index 0) carries no start position worth
// reporting and is excluded.
func fillPlayers(s *Summary, hdr *rec.Header) {
	var coords []float64
	for i, p := range hdr.Players {
		s.Players = append(s.Players, PlayerSummary{
			Number:         p.Number,
			Name:           p.Name,
			CivilizationID: p.CivilizationID,
			ColorID:        p.ColorID,
			X:              p.Position.X,
			Y:              p.Position.Y,
		})
		if i == 0 {
			continue
		}
		coords = append(coords, float64(p.Position.X), float64(p.Position.Y))
	}
	if len(coords) < 4 {
		s.StartInBounds = len(coords) == 0 || inBounds(coords, hdr.Map)
		return
	}

	seq := geom.NewSequence(coords, geom.DimXY)
	s.StartSpread = maxPairwiseDistance(seq)
	s.StartInBounds = inBounds(coords, hdr.Map)

	ls, err := geom.NewLineString(seq)
	if err != nil {
		// Coincident start positions cannot form a valid line; the
		// spread and bounds fields still hold.
		return
	}
	s.StartLayout = ls.AsText()
}

func maxPairwiseDistance(seq geom.Sequence) float64 {
	var max float64
	n := seq.Length()
	for i := 0; i < n; i++ {
		a := seq.GetXY(i)
		for j := i + 1; j < n; j++ {
			b := seq.GetXY(j)
			if d := math.Hypot(a.X-b.X, a.Y-b.Y); d > max {
				max = d
			}
		}
	}
	return max
}

func inBounds(coords []float64, m rec.Map) bool {
	for i := 0; i < len(coords); i += 2 {
		x, y := coords[i], coords[i+1]
		if x < 0 || y < 0 || x > float64(m.Width) || y > float64(m.Height) {
			return false
		}
	}
	return true
}
