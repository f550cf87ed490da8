// Package rec defines the decoded data model for recorded games: the one-shot
// match-setup header and the operations yielded by the body stream.
package rec

// GameVersion identifies the format revision that produced a container.
type GameVersion string

const (
	// VersionUserPatch is the UserPatch 1.5 revision of the legacy engine.
	VersionUserPatch GameVersion = "USERPATCH15"
	// VersionHD is the HD Edition revision.
	VersionHD GameVersion = "HD"
	// VersionDE is the Definitive Edition revision.
	VersionDE GameVersion = "DE"
)

// Header is the decoded match-setup record. It is built once per file and is
// immutable after construction; it holds no reference to the body.
type Header struct {
	Version     GameVersion `json:"version"`
	GameVersion string      `json:"game_version"`
	SaveVersion float64     `json:"save_version"`
	LogVersion  uint32      `json:"log_version,omitempty"`
	Players     []Player    `json:"players"`
	Map         Map         `json:"map"`
	Scenario    Scenario    `json:"scenario"`
	Lobby       Lobby       `json:"lobby"`
	Metadata    Metadata    `json:"metadata"`
	DE          *DEBlock    `json:"de,omitempty"`
	HD          *HDBlock    `json:"hd,omitempty"`
	Mod         string      `json:"mod,omitempty"`
}

// Position is a pair of floating map coordinates.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Player is one slot in the match. Slice order equals slot order as it
// appears in the header, independent of team or color.
type Player struct {
	Number         int      `json:"number"`
	Type           int      `json:"type"`
	Name           string   `json:"name"`
	CivilizationID int      `json:"civilization_id"`
	ColorID        int      `json:"color_id"`
	Position       Position `json:"position"`
	Diplomacy      []int32  `json:"diplomacy"`
}

// Map holds the board dimensions and the raw tile block. Tiles are opaque
// bytes; individual tile decoding is out of scope.
type Map struct {
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	AllVisible  bool   `json:"all_visible"`
	RestoreTime uint32 `json:"restore_time"`
	Tiles       []byte `json:"tiles,omitempty"`
}

// Scenario describes the scenario section of the header.
type Scenario struct {
	MapID        uint32 `json:"map_id"`
	Difficulty   uint32 `json:"difficulty"`
	Filename     string `json:"scenario_filename"`
	Instructions string `json:"instructions,omitempty"`
}

// Lobby holds lobby settings and the chat fragment embedded in the header,
// distinct from in-body chat operations.
type Lobby struct {
	Seed        int32    `json:"seed"`
	RevealMapID uint32   `json:"reveal_map_id"`
	MapSize     uint32   `json:"map_size"`
	Population  uint32   `json:"population"`
	GameTypeID  uint8    `json:"game_type_id"`
	LockTeams   bool     `json:"lock_teams"`
	Chat        []string `json:"chat,omitempty"`
}

// Metadata holds recording metadata.
type Metadata struct {
	Speed            float32 `json:"speed"`
	PerspectiveOwner int     `json:"perspective_owner"`
	CheatsEnabled    bool    `json:"cheats_enabled"`
	NumPlayers       int     `json:"num_players"`
}

// DEPlayer is the Definitive Edition extension record for one player slot.
// Entries correspond 1:1 by slot index to Header.Players and are decoded from
// a separate sub-block; they are correlated by position, never merged.
type DEPlayer struct {
	Number         int      `json:"number"`
	Name           string   `json:"name"`
	CensoredName   string   `json:"censored_name"`
	AIName         string   `json:"ai_name,omitempty"`
	ColorID        int      `json:"color_id"`
	TeamID         int      `json:"team_id"`
	CivilizationID int      `json:"civilization_id"`
	CustomCivIDs   []uint32 `json:"custom_civ_ids,omitempty"`
	Type           uint32   `json:"type"`
	ProfileID      uint32   `json:"profile_id"`
	PreferRandom   bool     `json:"prefer_random"`
}

// DEBlock is the Definitive Edition extension record, present only for that
// revision.
type DEBlock struct {
	Build               uint32     `json:"build,omitempty"`
	Timestamp           uint32     `json:"timestamp,omitempty"`
	DLCIDs              []uint32   `json:"dlc_ids"`
	MapDimension        uint32     `json:"map_dimension,omitempty"`
	DifficultyID        uint32     `json:"difficulty_id"`
	RMSMapID            uint32     `json:"rms_map_id"`
	VictoryTypeID       uint32     `json:"victory_type_id"`
	StartingResourcesID uint32     `json:"starting_resources_id"`
	StartingAgeID       uint32     `json:"starting_age_id"`
	EndingAgeID         uint32     `json:"ending_age_id"`
	Speed               float32    `json:"speed"`
	TreatyLength        uint32     `json:"treaty_length"`
	PopulationLimit     uint32     `json:"population_limit"`
	NumPlayers          uint32     `json:"num_players"`
	TeamTogether        bool       `json:"team_together"`
	AllTechnologies     bool       `json:"all_technologies"`
	LockTeams           bool       `json:"lock_teams"`
	LockSpeed           bool       `json:"lock_speed"`
	Multiplayer         bool       `json:"multiplayer"`
	Cheats              bool       `json:"cheats"`
	RecordGame          bool       `json:"record_game"`
	AnimalsEnabled      bool       `json:"animals_enabled"`
	PredatorsEnabled    bool       `json:"predators_enabled"`
	TurboEnabled        bool       `json:"turbo_enabled"`
	SharedExploration   bool       `json:"shared_exploration"`
	TeamPositions       bool       `json:"team_positions"`
	Players             []DEPlayer `json:"players"`
	Rated               bool       `json:"rated"`
	AllowSpecs          bool       `json:"allow_specs"`
	VisibilityID        uint32     `json:"visibility_id"`
	HiddenCivs          bool       `json:"hidden_civs"`
	SpecDelay           uint32     `json:"spec_delay"`
	GUID                []byte     `json:"guid"`
	Lobby               string     `json:"lobby"`
	Mod                 string     `json:"mod"`
}

// HDPlayer is the HD Edition extension record for one occupied player slot.
type HDPlayer struct {
	Number         int    `json:"number"`
	Name           string `json:"name"`
	ColorID        int    `json:"color_id"`
	CivilizationID int    `json:"civilization_id"`
	SteamID        uint64 `json:"steam_id"`
}

// HDBlock is the HD Edition extension record, present only for that revision.
type HDBlock struct {
	DLCIDs       []uint32   `json:"dlc_ids"`
	DifficultyID uint32     `json:"difficulty_id"`
	MapID        uint32     `json:"map_id"`
	Players      []HDPlayer `json:"players"`
	GUID         []byte     `json:"guid"`
	Lobby        string     `json:"lobby"`
	Mod          string     `json:"mod"`
}
