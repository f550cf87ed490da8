package mgz

import (
	"github.com/siegetools/recgame/pkg/rec"
)

// actionDecoder decodes one action payload (the bytes after the code byte).
type actionDecoder func(*Cursor) (rec.Action, error)

// actionDecoders dispatches on the action code. A missing entry, or any
// decode error against a known code, yields an opaque action: action
// payloads carry no framing of their own, so a payload the table does not
// understand is surfaced raw rather than guessed at.
var actionDecoders = map[rec.ActionCode]actionDecoder{
	rec.ActionOrder:        decodeOrder,
	rec.ActionStop:         decodeStop,
	rec.ActionMove:         decodeMove,
	rec.ActionResign:       decodeResign,
	rec.ActionStance:       decodeStance,
	rec.ActionGuard:        decodeGuard,
	rec.ActionFollow:       decodeFollow,
	rec.ActionPatrol:       decodePatrol,
	rec.ActionFormation:    decodeFormation,
	rec.ActionResearch:     decodeResearch,
	rec.ActionBuild:        decodeBuild,
	rec.ActionGame:         decodeGame,
	rec.ActionWall:         decodeWall,
	rec.ActionDelete:       decodeDelete,
	rec.ActionAttackGround: decodeAttackGround,
	rec.ActionQueue:        decodeQueue,
	rec.ActionSell:         decodeSell,
	rec.ActionBuy:          decodeBuy,
	rec.ActionDEQueue:      decodeDEQueue,
}

// DecodeAction decodes an ACTION payload. The first byte is the action code;
// the rest is code-specific. DecodeAction never fails: anything it cannot
// interpret becomes an Opaque payload.
func DecodeAction(payload []byte) *rec.ActionRecord {
	if len(payload) == 0 {
		return &rec.ActionRecord{Payload: &rec.Opaque{}}
	}
	code := rec.ActionCode(payload[0])
	rest := payload[1:]
	record := &rec.ActionRecord{Code: code}
	if dec, ok := actionDecoders[code]; ok {
		if action, err := dec(NewBytesCursor(rest)); err == nil {
			record.Payload = action
			return record
		}
	}
	record.Payload = &rec.Opaque{Data: rest}
	return record
}

// unitIDList reads count trailing u32 unit ids. The sentinel count 0xff
// means "same selection as the previous action" and carries no ids.
func unitIDList(c *Cursor, count uint8) ([]uint32, error) {
	if count == 0xff {
		return nil, nil
	}
	ids := make([]uint32, count)
	for i := range ids {
		var err error
		if ids[i], err = c.U32(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func decodeOrder(c *Cursor) (rec.Action, error) {
	a := &rec.Order{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	if a.TargetID, err = c.U32(); err != nil {
		return nil, err
	}
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(3); err != nil {
		return nil, err
	}
	if a.Position.X, err = c.F32(); err != nil {
		return nil, err
	}
	if a.Position.Y, err = c.F32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeStop(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	a := &rec.Stop{}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeMove(c *Cursor) (rec.Action, error) {
	a := &rec.Move{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	if a.TargetID, err = c.U32(); err != nil {
		return nil, err
	}
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(3); err != nil {
		return nil, err
	}
	if a.Position.X, err = c.F32(); err != nil {
		return nil, err
	}
	if a.Position.Y, err = c.F32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeResign(c *Cursor) (rec.Action, error) {
	a := &rec.Resign{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.PlayerNumber, err = c.U8(); err != nil {
		return nil, err
	}
	disconnected, err := c.U8()
	if err != nil {
		return nil, err
	}
	a.Disconnected = disconnected == 1
	return a, nil
}

func decodeStance(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	a := &rec.Stance{}
	if a.StanceID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeGuard(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	a := &rec.Guard{}
	if a.TargetID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeFollow(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	a := &rec.Follow{}
	if a.TargetID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

// decodePatrol reads the fixed ten-slot waypoint table; only the declared
// number of slots is meaningful.
func decodePatrol(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	waypoints, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	var xs, ys [10]float32
	for i := range xs {
		if xs[i], err = c.F32(); err != nil {
			return nil, err
		}
	}
	for i := range ys {
		if ys[i], err = c.F32(); err != nil {
			return nil, err
		}
	}
	if waypoints > 10 {
		waypoints = 10
	}
	a := &rec.Patrol{Waypoints: make([]rec.Position, waypoints)}
	for i := range a.Waypoints {
		a.Waypoints[i] = rec.Position{X: xs[i], Y: ys[i]}
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeFormation(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	a := &rec.Formation{}
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if err = c.Skip(1); err != nil {
		return nil, err
	}
	if a.FormationID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeResearch(c *Cursor) (rec.Action, error) {
	if err := c.Skip(3); err != nil {
		return nil, err
	}
	a := &rec.Research{}
	var err error
	if a.BuildingID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.PlayerID, err = c.U16(); err != nil {
		return nil, err
	}
	if a.TechnologyID, err = c.U16(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeBuild(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	a := &rec.Build{}
	if a.PlayerID, err = c.U16(); err != nil {
		return nil, err
	}
	if a.Position.X, err = c.F32(); err != nil {
		return nil, err
	}
	if a.Position.Y, err = c.F32(); err != nil {
		return nil, err
	}
	if a.BuildingID, err = c.U32(); err != nil {
		return nil, err
	}
	if err = c.Skip(8); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeGame(c *Cursor) (rec.Action, error) {
	a := &rec.Game{}
	var err error
	if a.CommandID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if err = c.Skip(1); err != nil {
		return nil, err
	}
	if a.Value, err = c.I32(); err != nil {
		return nil, err
	}
	return a, nil
}

// decodeWall reads the wall command, whose endpoints are whole-tile byte
// coordinates rather than floats.
func decodeWall(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	a := &rec.Wall{}
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	coords, err := c.Bytes(4)
	if err != nil {
		return nil, err
	}
	a.Start = rec.Position{X: float32(coords[0]), Y: float32(coords[1])}
	a.End = rec.Position{X: float32(coords[2]), Y: float32(coords[3])}
	if err = c.Skip(1); err != nil {
		return nil, err
	}
	if a.BuildingID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeDelete(c *Cursor) (rec.Action, error) {
	if err := c.Skip(3); err != nil {
		return nil, err
	}
	a := &rec.Delete{}
	var err error
	if a.ObjectID, err = c.U32(); err != nil {
		return nil, err
	}
	player, err := c.U32()
	if err != nil {
		return nil, err
	}
	a.PlayerID = uint8(player)
	return a, nil
}

func decodeAttackGround(c *Cursor) (rec.Action, error) {
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if err = c.Skip(2); err != nil {
		return nil, err
	}
	a := &rec.AttackGround{}
	if a.Position.X, err = c.F32(); err != nil {
		return nil, err
	}
	if a.Position.Y, err = c.F32(); err != nil {
		return nil, err
	}
	if a.UnitIDs, err = unitIDList(c, count); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeQueue(c *Cursor) (rec.Action, error) {
	if err := c.Skip(3); err != nil {
		return nil, err
	}
	a := &rec.Queue{}
	var err error
	if a.BuildingID, err = c.U32(); err != nil {
		return nil, err
	}
	if a.UnitTypeID, err = c.U16(); err != nil {
		return nil, err
	}
	if a.Amount, err = c.U16(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeSell(c *Cursor) (rec.Action, error) {
	a := &rec.Sell{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.ResourceID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.Amount, err = c.U8(); err != nil {
		return nil, err
	}
	if a.MarketID, err = c.U32(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeBuy(c *Cursor) (rec.Action, error) {
	a := &rec.Buy{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.ResourceID, err = c.U8(); err != nil {
		return nil, err
	}
	if a.Amount, err = c.U8(); err != nil {
		return nil, err
	}
	if a.MarketID, err = c.U32(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeDEQueue(c *Cursor) (rec.Action, error) {
	a := &rec.DEQueue{}
	var err error
	if a.PlayerID, err = c.U8(); err != nil {
		return nil, err
	}
	if err = c.Skip(1); err != nil {
		return nil, err
	}
	count, err := c.U8()
	if err != nil {
		return nil, err
	}
	if a.UnitTypeID, err = c.U16(); err != nil {
		return nil, err
	}
	if a.Amount, err = c.U8(); err != nil {
		return nil, err
	}
	buildings := make([]uint32, count)
	for i := range buildings {
		if buildings[i], err = c.U32(); err != nil {
			return nil, err
		}
	}
	a.BuildingIDs = buildings
	return a, nil
}
