package rec

// OpType is the operation-type tag read at the start of each body operation.
type OpType uint32

const (
	OpAction   OpType = 1
	OpSync     OpType = 2
	OpViewlock OpType = 3
	OpChat     OpType = 4
	OpSave     OpType = 6
)

// String returns the operation name for known tags, "UNKNOWN" otherwise.
func (t OpType) String() string {
	switch t {
	case OpAction:
		return "ACTION"
	case OpSync:
		return "SYNC"
	case OpViewlock:
		return "VIEWLOCK"
	case OpChat:
		return "CHAT"
	case OpSave:
		return "SAVE"
	}
	return "UNKNOWN"
}

// Operation is one decoded unit from the body stream. Exactly one of the
// payload fields matching Type is set; unrecognized structural tags carry
// their skipped bytes in Raw. Operations are ephemeral values with no
// identity beyond their position in the stream.
type Operation struct {
	Type     OpType        `json:"type"`
	Tag      uint32        `json:"tag"`
	Sync     *Sync         `json:"sync,omitempty"`
	Viewlock *Viewlock     `json:"viewlock,omitempty"`
	Chat     []byte        `json:"chat,omitempty"`
	Action   *ActionRecord `json:"action,omitempty"`
	Raw      []byte        `json:"raw,omitempty"`
}

// Sync is a periodic time tick. Text encoding of the data blob is opaque.
type Sync struct {
	IncrementMs uint32  `json:"increment_ms"`
	Checksum    *uint32 `json:"checksum,omitempty"`
	Data        []byte  `json:"data,omitempty"`
}

// Viewlock records the recording perspective's camera position.
type Viewlock struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	PlayerID uint32  `json:"player_id"`
}

// ActionRecord pairs an action-type code with its decoded payload. Payload is
// never nil; unrecognized codes decode to *Opaque.
type ActionRecord struct {
	Code    ActionCode `json:"code"`
	Payload Action     `json:"payload"`
}
