package mgz

import "github.com/siegetools/recgame/pkg/rec"

// layout collects the field widths that differ between revisions, so the
// decode routines stay generic and the per-version quirks live in one table.
type layout struct {
	// tileBytes is the width of one map tile record.
	tileBytes int
	// zonePad is the fixed zone preamble before the per-zone float list.
	zonePadBase int
	// zonePadPerTile is the additional per-tile zone padding.
	zonePadPerTile int
	// diplomacyCount is the number of i32 diplomacy entries per player; -1
	// means one entry per player slot.
	diplomacyCount int
	// resourceBytes is the width of one player resource entry.
	resourceBytes int
	// populationMultiplier scales the stored lobby population cap.
	populationMultiplier uint32
}

// layoutFor selects the layout descriptor for a revision and save version.
func layoutFor(version rec.GameVersion, save float64) layout {
	lay := layout{
		tileBytes:            4,
		zonePadBase:          1275,
		zonePadPerTile:       1,
		diplomacyCount:       9,
		resourceBytes:        4,
		populationMultiplier: 25,
	}
	switch version {
	case rec.VersionDE:
		lay.tileBytes = 9
		if save >= 62.0 {
			lay.tileBytes = 10
		}
		lay.zonePadBase = 2048
		lay.zonePadPerTile = 2
		lay.populationMultiplier = 1
	case rec.VersionHD:
		lay.zonePadBase = 2048
		lay.zonePadPerTile = 2
		lay.populationMultiplier = 1
	}
	if save >= 61.5 {
		lay.diplomacyCount = -1
	}
	if save >= 63 {
		lay.resourceBytes = 8
	}
	return lay
}

// settingsVersion returns the f64 settings anchor written into the scenario
// section by each DE save generation.
func settingsVersion(save float64) float64 {
	switch {
	case save >= 66.3:
		return 4.5
	case save >= 64.3:
		return 4.1
	case save >= 63:
		return 3.9
	case save >= 61.5:
		return 3.6
	case save >= 37:
		return 3.5
	case save >= 26.21:
		return 3.2
	case save >= 26.16:
		return 3.0
	case save >= 25.22:
		return 2.6
	case save >= 25.06:
		return 2.5
	case save >= 13.34:
		return 2.4
	default:
		return 2.2
	}
}
