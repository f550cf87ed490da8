package rec

// ActionCode identifies a player-issued command type within an ACTION
// operation. The codes are fixed by the game engine; new engine releases add
// codes without retiring old ones.
type ActionCode uint8

const (
	ActionOrder        ActionCode = 0x00
	ActionStop         ActionCode = 0x01
	ActionMove         ActionCode = 0x03
	ActionResign       ActionCode = 0x0b
	ActionStance       ActionCode = 0x12
	ActionGuard        ActionCode = 0x13
	ActionFollow       ActionCode = 0x14
	ActionPatrol       ActionCode = 0x15
	ActionFormation    ActionCode = 0x17
	ActionResearch     ActionCode = 0x65
	ActionBuild        ActionCode = 0x66
	ActionGame         ActionCode = 0x67
	ActionWall         ActionCode = 0x69
	ActionDelete       ActionCode = 0x6a
	ActionAttackGround ActionCode = 0x6b
	ActionQueue        ActionCode = 0x77
	ActionSell         ActionCode = 0x7a
	ActionBuy          ActionCode = 0x7b
	ActionDEQueue      ActionCode = 0x81
)

// Action is the decoded payload of an ACTION operation. Implementations are
// the concrete action variants below; Kind returns a stable lowercase name
// used as the serialized discriminator.
type Action interface {
	Kind() string
}

// Opaque carries an action the decoder does not understand: the raw payload
// bytes after the code byte. It is a valid decode result, not an error, so
// unknown engine actions never break stream progress.
type Opaque struct {
	Data []byte `json:"data"`
}

func (*Opaque) Kind() string { return "opaque" }

// Resign is a player leaving the game.
type Resign struct {
	PlayerID     uint8 `json:"player_id"`
	PlayerNumber uint8 `json:"player_number"`
	Disconnected bool  `json:"disconnected"`
}

func (*Resign) Kind() string { return "resign" }

// Research queues a technology in a building.
type Research struct {
	BuildingID   uint32 `json:"building_id"`
	PlayerID     uint16 `json:"player_id"`
	TechnologyID uint16 `json:"technology_id"`
}

func (*Research) Kind() string { return "research" }

// Build places a building foundation.
type Build struct {
	PlayerID   uint16   `json:"player_id"`
	Position   Position `json:"position"`
	BuildingID uint32   `json:"building_id"`
	UnitIDs    []uint32 `json:"unit_ids"`
}

func (*Build) Kind() string { return "build" }

// Order tasks selected units against a target or location.
type Order struct {
	PlayerID uint8    `json:"player_id"`
	TargetID uint32   `json:"target_id"`
	Position Position `json:"position"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*Order) Kind() string { return "order" }

// Stop halts the selected units.
type Stop struct {
	UnitIDs []uint32 `json:"unit_ids"`
}

func (*Stop) Kind() string { return "stop" }

// Move sends selected units to a location.
type Move struct {
	PlayerID uint8    `json:"player_id"`
	TargetID uint32   `json:"target_id"`
	Position Position `json:"position"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*Move) Kind() string { return "move" }

// Stance changes the combat stance of selected units.
type Stance struct {
	StanceID uint8    `json:"stance_id"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*Stance) Kind() string { return "stance" }

// Formation arranges selected units into a formation.
type Formation struct {
	PlayerID    uint8    `json:"player_id"`
	FormationID uint32   `json:"formation_id"`
	UnitIDs     []uint32 `json:"unit_ids"`
}

func (*Formation) Kind() string { return "formation" }

// Patrol sets a patrol path for selected units.
type Patrol struct {
	Waypoints []Position `json:"waypoints"`
	UnitIDs   []uint32   `json:"unit_ids"`
}

func (*Patrol) Kind() string { return "patrol" }

// Guard tasks selected units to guard a target.
type Guard struct {
	TargetID uint32   `json:"target_id"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*Guard) Kind() string { return "guard" }

// Follow tasks selected units to follow a target.
type Follow struct {
	TargetID uint32   `json:"target_id"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*Follow) Kind() string { return "follow" }

// Wall builds a wall segment between two tiles.
type Wall struct {
	PlayerID   uint8    `json:"player_id"`
	Start      Position `json:"start"`
	End        Position `json:"end"`
	BuildingID uint32   `json:"building_id"`
	UnitIDs    []uint32 `json:"unit_ids"`
}

func (*Wall) Kind() string { return "wall" }

// Delete removes an object owned by the player.
type Delete struct {
	ObjectID uint32 `json:"object_id"`
	PlayerID uint8  `json:"player_id"`
}

func (*Delete) Kind() string { return "delete" }

// AttackGround orders an area attack at a location.
type AttackGround struct {
	Position Position `json:"position"`
	UnitIDs  []uint32 `json:"unit_ids"`
}

func (*AttackGround) Kind() string { return "attack_ground" }

// Queue trains units in a building.
type Queue struct {
	BuildingID uint32 `json:"building_id"`
	UnitTypeID uint16 `json:"unit_type_id"`
	Amount     uint16 `json:"amount"`
}

func (*Queue) Kind() string { return "queue" }

// Sell trades a resource at the market.
type Sell struct {
	PlayerID   uint8  `json:"player_id"`
	ResourceID uint8  `json:"resource_id"`
	Amount     uint8  `json:"amount"`
	MarketID   uint32 `json:"market_id"`
}

func (*Sell) Kind() string { return "sell" }

// Buy trades for a resource at the market.
type Buy struct {
	PlayerID   uint8  `json:"player_id"`
	ResourceID uint8  `json:"resource_id"`
	Amount     uint8  `json:"amount"`
	MarketID   uint32 `json:"market_id"`
}

func (*Buy) Kind() string { return "buy" }

// Game is a meta command (speed change, diplomacy, cheat entry).
type Game struct {
	CommandID uint8 `json:"command_id"`
	PlayerID  uint8 `json:"player_id"`
	Value     int32 `json:"value"`
}

func (*Game) Kind() string { return "game" }

// DEQueue is the Definitive Edition train command.
type DEQueue struct {
	PlayerID    uint8    `json:"player_id"`
	BuildingIDs []uint32 `json:"building_ids"`
	UnitTypeID  uint16   `json:"unit_type_id"`
	Amount      uint8    `json:"amount"`
}

func (*DEQueue) Kind() string { return "de_queue" }
